package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input         InputConfig         `yaml:"input" mapstructure:"input"`
	Geography     GeographyConfig     `yaml:"geography" mapstructure:"geography"`
	Places        PlacesConfig        `yaml:"places" mapstructure:"places"`
	GroupQuarters GroupQuartersConfig `yaml:"group_quarters" mapstructure:"group_quarters"`
	Staffing      StaffingConfig      `yaml:"staffing" mapstructure:"staffing"`
	Hospital      HospitalConfig      `yaml:"hospital" mapstructure:"hospital"`
	Shelter       ShelterConfig       `yaml:"shelter" mapstructure:"shelter"`
	Evacuation    EvacuationConfig    `yaml:"evacuation" mapstructure:"evacuation"`
	Random        RandomConfig        `yaml:"random" mapstructure:"random"`
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the synthetic population files. Relative file names
// are resolved against Dir.
type InputConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	Households    string `yaml:"households" mapstructure:"households"`
	People        string `yaml:"people" mapstructure:"people"`
	Workplaces    string `yaml:"workplaces" mapstructure:"workplaces"`
	Schools       string `yaml:"schools" mapstructure:"schools"`
	Hospitals     string `yaml:"hospitals" mapstructure:"hospitals"`
	GroupQuarters string `yaml:"group_quarters" mapstructure:"group_quarters"`
	Delimiter     string `yaml:"delimiter" mapstructure:"delimiter"`
}

// GeographyConfig configures the regional grid.
type GeographyConfig struct {
	UseMeanLatitude bool    `yaml:"use_mean_latitude" mapstructure:"use_mean_latitude"`
	PatchSizeKM     float64 `yaml:"patch_size_km" mapstructure:"patch_size_km"`
}

// PlacesConfig sizes the sub-places carved out of schools and workplaces.
type PlacesConfig struct {
	ClassroomSize int `yaml:"classroom_size" mapstructure:"classroom_size"`
	OfficeSize    int `yaml:"office_size" mapstructure:"office_size"`
}

// GroupQuartersConfig holds the mean unit size per group-quarters subtype.
type GroupQuartersConfig struct {
	Enabled                  bool    `yaml:"enabled" mapstructure:"enabled"`
	CollegeDormMeanSize      float64 `yaml:"college_dorm_mean_size" mapstructure:"college_dorm_mean_size"`
	MilitaryBarracksMeanSize float64 `yaml:"military_barracks_mean_size" mapstructure:"military_barracks_mean_size"`
	PrisonCellMeanSize       float64 `yaml:"prison_cell_mean_size" mapstructure:"prison_cell_mean_size"`
	NursingHomeRoomMeanSize  float64 `yaml:"nursing_home_room_mean_size" mapstructure:"nursing_home_room_mean_size"`
}

// StaffRule is a fixed staff count plus one staff member per Ratio units.
type StaffRule struct {
	Fixed int     `yaml:"fixed" mapstructure:"fixed"`
	Ratio float64 `yaml:"ratio" mapstructure:"ratio"`
}

// StaffingConfig configures worker reassignment.
type StaffingConfig struct {
	School        StaffRule `yaml:"school" mapstructure:"school"`
	HospitalFixed int       `yaml:"hospital_fixed" mapstructure:"hospital_fixed"`
	College       StaffRule `yaml:"college" mapstructure:"college"`
	Prison        StaffRule `yaml:"prison" mapstructure:"prison"`
	MilitaryBase  StaffRule `yaml:"military_base" mapstructure:"military_base"`
	NursingHome   StaffRule `yaml:"nursing_home" mapstructure:"nursing_home"`
}

// HospitalConfig configures hospital capacity and assignment.
type HospitalConfig struct {
	Enabled                      bool         `yaml:"enabled" mapstructure:"enabled"`
	WorkerToBedRatio             float64      `yaml:"worker_to_bed_ratio" mapstructure:"worker_to_bed_ratio"`
	OutpatientsPerEmployee       float64      `yaml:"outpatients_per_employee" mapstructure:"outpatients_per_employee"`
	ClinicOutpatientsPerEmployee float64      `yaml:"clinic_outpatients_per_employee" mapstructure:"clinic_outpatients_per_employee"`
	MinBedThreshold              int          `yaml:"min_bed_threshold" mapstructure:"min_bed_threshold"`
	RadiusKM                     float64      `yaml:"radius_km" mapstructure:"radius_km"`
	UseRadius                    bool         `yaml:"use_radius" mapstructure:"use_radius"`
	CheckInsurance               bool         `yaml:"check_insurance" mapstructure:"check_insurance"`
	NearbyMin                    int          `yaml:"nearby_min" mapstructure:"nearby_min"`
	PrimaryCare                  bool         `yaml:"primary_care" mapstructure:"primary_care"`
	MapDir                       string       `yaml:"map_dir" mapstructure:"map_dir"`
	MapFile                      string       `yaml:"map_file" mapstructure:"map_file"`
	Mobile                       MobileConfig `yaml:"mobile" mapstructure:"mobile"`
}

// MobileConfig configures mobile clinic vans deployed after a disaster.
type MobileConfig struct {
	Max         int `yaml:"max" mapstructure:"max"`
	OpenDelay   int `yaml:"open_delay" mapstructure:"open_delay"`
	ClosureDays int `yaml:"closure_days" mapstructure:"closure_days"`
}

// ShelterConfig configures shelter-in-place scheduling.
type ShelterConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	Compliance   float64 `yaml:"compliance" mapstructure:"compliance"`
	ByIncome     bool    `yaml:"by_income" mapstructure:"by_income"`
	DelayMean    float64 `yaml:"delay_mean" mapstructure:"delay_mean"`
	DelayStd     float64 `yaml:"delay_std" mapstructure:"delay_std"`
	DurationMean float64 `yaml:"duration_mean" mapstructure:"duration_mean"`
	DurationStd  float64 `yaml:"duration_std" mapstructure:"duration_std"`
	EarlyRate    float64 `yaml:"early_rate" mapstructure:"early_rate"`
	DecayRate    float64 `yaml:"decay_rate" mapstructure:"decay_rate"`
}

// EvacuationConfig configures disaster evacuation.
type EvacuationConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	Compliance        float64 `yaml:"compliance" mapstructure:"compliance"`
	ByIncome          bool    `yaml:"by_income" mapstructure:"by_income"`
	DisasterStart     int     `yaml:"disaster_start" mapstructure:"disaster_start"`
	DisasterEnd       int     `yaml:"disaster_end" mapstructure:"disaster_end"`
	EvacStartOffset   int     `yaml:"evac_start_offset" mapstructure:"evac_start_offset"`
	EvacEndOffset     int     `yaml:"evac_end_offset" mapstructure:"evac_end_offset"`
	ReturnStartOffset int     `yaml:"return_start_offset" mapstructure:"return_start_offset"`
	ReturnEndOffset   int     `yaml:"return_end_offset" mapstructure:"return_end_offset"`
	EvacProbPerDay    float64 `yaml:"evac_prob_per_day" mapstructure:"evac_prob_per_day"`
	ReturnProbPerDay  float64 `yaml:"return_prob_per_day" mapstructure:"return_prob_per_day"`
}

// RandomConfig seeds the shared draw stream. Zero picks a random seed.
type RandomConfig struct {
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	SavePlaces  bool   `yaml:"save_places" mapstructure:"save_places"`

	// ConnectAttempts bounds postgres connection retries. Default: 3.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// OutputConfig configures report output.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Shapefile bool   `yaml:"shapefile" mapstructure:"shapefile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SYNTHGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.dir", ".")
	v.SetDefault("input.households", "synth_households.txt")
	v.SetDefault("input.people", "synth_people.txt")
	v.SetDefault("input.workplaces", "workplaces.txt")
	v.SetDefault("input.schools", "schools.txt")
	v.SetDefault("input.hospitals", "hospitals.txt")
	v.SetDefault("input.group_quarters", "synth_gq.txt")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("geography.use_mean_latitude", true)
	v.SetDefault("geography.patch_size_km", 20.0)
	v.SetDefault("places.classroom_size", 40)
	v.SetDefault("places.office_size", 50)
	v.SetDefault("group_quarters.enabled", true)
	v.SetDefault("group_quarters.college_dorm_mean_size", 3.5)
	v.SetDefault("group_quarters.military_barracks_mean_size", 12.0)
	v.SetDefault("group_quarters.prison_cell_mean_size", 1.5)
	v.SetDefault("group_quarters.nursing_home_room_mean_size", 1.5)
	v.SetDefault("staffing.hospital_fixed", 1)
	v.SetDefault("hospital.enabled", true)
	v.SetDefault("hospital.worker_to_bed_ratio", 1.0)
	v.SetDefault("hospital.nearby_min", 5)
	v.SetDefault("hospital.primary_care", true)
	v.SetDefault("hospital.map_dir", ".")
	v.SetDefault("hospital.map_file", "household_hospital_map.txt")
	v.SetDefault("evacuation.disaster_start", -1)
	v.SetDefault("evacuation.disaster_end", -1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "synthgeo.db")
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("output.dir", "OUT")
	v.SetDefault("output.shapefile", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "setup",
// "simulate" or "mapping".
func (c *Config) Validate(mode string) error {
	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	switch mode {
	case "setup", "simulate", "mapping":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	check(c.Geography.PatchSizeKM > 0, "geography.patch_size_km must be > 0")
	check(c.Places.ClassroomSize >= 0, "places.classroom_size must be >= 0")
	check(c.Places.OfficeSize >= 0, "places.office_size must be >= 0")
	check(c.Hospital.RadiusKM >= 0, "hospital.radius_km must be >= 0")
	check(c.Hospital.NearbyMin >= 0, "hospital.nearby_min must be >= 0")

	if c.GroupQuarters.Enabled {
		check(c.GroupQuarters.CollegeDormMeanSize > 0 &&
			c.GroupQuarters.MilitaryBarracksMeanSize > 0 &&
			c.GroupQuarters.PrisonCellMeanSize > 0 &&
			c.GroupQuarters.NursingHomeRoomMeanSize > 0,
			"group_quarters mean sizes must be > 0")
	}
	if c.Shelter.Enabled {
		check(unit(c.Shelter.Compliance), "shelter.compliance must be between 0 and 1")
		check(unit(c.Shelter.EarlyRate), "shelter.early_rate must be between 0 and 1")
		check(unit(c.Shelter.DecayRate), "shelter.decay_rate must be between 0 and 1")
	}
	if c.Evacuation.Enabled {
		check(unit(c.Evacuation.Compliance), "evacuation.compliance must be between 0 and 1")
		check(unit(c.Evacuation.EvacProbPerDay), "evacuation.evac_prob_per_day must be between 0 and 1")
		check(unit(c.Evacuation.ReturnProbPerDay), "evacuation.return_prob_per_day must be between 0 and 1")
		check(c.Evacuation.DisasterEnd >= c.Evacuation.DisasterStart, "evacuation.disaster_end must be >= disaster_start")
	}
	if mode == "mapping" {
		check(c.Hospital.Enabled, "hospital.enabled must be true for mapping")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	case "none":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite, postgres or none", c.Store.Driver))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func unit(x float64) bool { return x >= 0 && x <= 1 }

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
