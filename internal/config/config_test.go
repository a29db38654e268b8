package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "synthgeo.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3, cfg.Store.ConnectAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Geography.UseMeanLatitude)
	assert.InDelta(t, 20.0, cfg.Geography.PatchSizeKM, 0.001)
	assert.Equal(t, 40, cfg.Places.ClassroomSize)
	assert.Equal(t, 50, cfg.Places.OfficeSize)
	assert.InDelta(t, 3.5, cfg.GroupQuarters.CollegeDormMeanSize, 0.001)
	assert.InDelta(t, 12.0, cfg.GroupQuarters.MilitaryBarracksMeanSize, 0.001)
	assert.InDelta(t, 1.5, cfg.GroupQuarters.PrisonCellMeanSize, 0.001)
	assert.InDelta(t, 1.5, cfg.GroupQuarters.NursingHomeRoomMeanSize, 0.001)
	assert.Equal(t, 1, cfg.Staffing.HospitalFixed)
	assert.InDelta(t, 1.0, cfg.Hospital.WorkerToBedRatio, 0.001)
	assert.Equal(t, 5, cfg.Hospital.NearbyMin)
	assert.Equal(t, "household_hospital_map.txt", cfg.Hospital.MapFile)
	assert.Equal(t, -1, cfg.Evacuation.DisasterStart)
	assert.Equal(t, "synth_households.txt", cfg.Input.Households)
	assert.Equal(t, ",", cfg.Input.Delimiter)
	assert.NoError(t, cfg.Validate("setup"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/synthgeo
log:
  level: debug
  format: console
staffing:
  school:
    fixed: 2
    ratio: 20
shelter:
  enabled: true
  compliance: 0.25
  by_income: true
random:
  seed: 12345
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, StaffRule{Fixed: 2, Ratio: 20}, cfg.Staffing.School)
	assert.True(t, cfg.Shelter.Enabled)
	assert.True(t, cfg.Shelter.ByIncome)
	assert.InDelta(t, 0.25, cfg.Shelter.Compliance, 0.001)
	assert.Equal(t, uint64(12345), cfg.Random.Seed)
	// Defaults still apply for unset values
	assert.Equal(t, 40, cfg.Places.ClassroomSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SYNTHGEO_STORE_DRIVER", "postgres")
	t.Setenv("SYNTHGEO_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SYNTHGEO_GEOGRAPHY_PATCH_SIZE_KM", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, cfg.Geography.PatchSizeKM, 0.001)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Geography.PatchSizeKM = 20
	cfg.GroupQuarters.Enabled = true
	cfg.GroupQuarters.CollegeDormMeanSize = 3.5
	cfg.GroupQuarters.MilitaryBarracksMeanSize = 12
	cfg.GroupQuarters.PrisonCellMeanSize = 1.5
	cfg.GroupQuarters.NursingHomeRoomMeanSize = 1.5
	cfg.Hospital.Enabled = true
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "synthgeo.db"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"setup", "simulate", "mapping"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"patch size", func(c *Config) { c.Geography.PatchSizeKM = 0 }, "patch_size_km must be > 0"},
		{"classroom size", func(c *Config) { c.Places.ClassroomSize = -1 }, "classroom_size"},
		{"radius", func(c *Config) { c.Hospital.RadiusKM = -3 }, "radius_km"},
		{"mean sizes", func(c *Config) { c.GroupQuarters.PrisonCellMeanSize = 0 }, "mean sizes must be > 0"},
		{"shelter compliance", func(c *Config) {
			c.Shelter.Enabled = true
			c.Shelter.Compliance = 1.5
		}, "shelter.compliance"},
		{"evacuation probability", func(c *Config) {
			c.Evacuation.Enabled = true
			c.Evacuation.EvacProbPerDay = -0.1
		}, "evac_prob_per_day"},
		{"evacuation window", func(c *Config) {
			c.Evacuation.Enabled = true
			c.Evacuation.DisasterStart = 10
			c.Evacuation.DisasterEnd = 5
		}, "disaster_end must be >= disaster_start"},
		{"store driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"store url", func(c *Config) { c.Store.DatabaseURL = "" }, "store.database_url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("setup")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DisabledSectionsIgnored(t *testing.T) {
	cfg := validDefaults()
	cfg.Shelter.Compliance = 7
	cfg.GroupQuarters.Enabled = false
	cfg.GroupQuarters.PrisonCellMeanSize = 0
	assert.NoError(t, cfg.Validate("simulate"))
}

func TestValidate_MappingRequiresHospitals(t *testing.T) {
	cfg := validDefaults()
	cfg.Hospital.Enabled = false

	assert.NoError(t, cfg.Validate("setup"))
	err := cfg.Validate("mapping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hospital.enabled")
}

func TestValidate_StoreNone(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "none"
	cfg.Store.DatabaseURL = ""
	assert.NoError(t, cfg.Validate("setup"))
}
