package pipeline

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/sells-group/synthgeo/internal/config"
	"github.com/sells-group/synthgeo/internal/hospital"
	"github.com/sells-group/synthgeo/internal/ingest"
	"github.com/sells-group/synthgeo/internal/place"
	"github.com/sells-group/synthgeo/internal/shelter"
	"github.com/sells-group/synthgeo/internal/staffing"
)

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func ingestFiles(in config.InputConfig) ingest.Files {
	return ingest.Files{
		Households:    resolve(in.Dir, in.Households),
		People:        resolve(in.Dir, in.People),
		Workplaces:    resolve(in.Dir, in.Workplaces),
		Schools:       resolve(in.Dir, in.Schools),
		Hospitals:     resolve(in.Dir, in.Hospitals),
		GroupQuarters: resolve(in.Dir, in.GroupQuarters),
	}
}

// delimiter accepts a single character or the escapes "\t" and "tab".
func delimiter(s string) rune {
	switch s {
	case "":
		return ','
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func ingestOptions(cfg *config.Config) ingest.Options {
	gq := cfg.GroupQuarters
	h := cfg.Hospital
	return ingest.Options{
		Delimiter:     delimiter(cfg.Input.Delimiter),
		Hospitals:     h.Enabled,
		GroupQuarters: gq.Enabled,
		MeanUnitSizes: ingest.MeanUnitSizes{
			College:      gq.CollegeDormMeanSize,
			MilitaryBase: gq.MilitaryBarracksMeanSize,
			Prison:       gq.PrisonCellMeanSize,
			NursingHome:  gq.NursingHomeRoomMeanSize,
		},
		Capacity: place.HospitalCapacity{
			MinBedThreshold:              h.MinBedThreshold,
			OutpatientsPerEmployee:       h.OutpatientsPerEmployee,
			ClinicOutpatientsPerEmployee: h.ClinicOutpatientsPerEmployee,
		},
	}
}

func rule(r config.StaffRule) staffing.Rule {
	return staffing.Rule{Fixed: r.Fixed, Ratio: r.Ratio}
}

func staffingConfig(cfg *config.Config) staffing.Config {
	s := cfg.Staffing
	return staffing.Config{
		Schools:          true,
		Hospitals:        cfg.Hospital.Enabled,
		GroupQuarters:    cfg.GroupQuarters.Enabled,
		School:           rule(s.School),
		HospitalFixed:    s.HospitalFixed,
		WorkerToBedRatio: cfg.Hospital.WorkerToBedRatio,
		College:          rule(s.College),
		Prison:           rule(s.Prison),
		MilitaryBase:     rule(s.MilitaryBase),
		NursingHome:      rule(s.NursingHome),
	}
}

// mapPath joins the mapping file onto its directory. "none" and "" disable
// the file and pass through unchanged.
func mapPath(h config.HospitalConfig) string {
	if h.MapFile == "" || h.MapFile == hospital.NoMapFile {
		return h.MapFile
	}
	return resolve(h.MapDir, h.MapFile)
}

func hospitalConfig(cfg *config.Config) hospital.Config {
	h := cfg.Hospital
	radius := 0.0
	if h.UseRadius {
		radius = h.RadiusKM
	}
	return hospital.Config{
		Radius:         radius,
		CheckInsurance: h.CheckInsurance,
		NearbyMin:      h.NearbyMin,
		MapFile:        mapPath(h),
		Mobile: hospital.MobileConfig{
			Max:         h.Mobile.Max,
			OpenDelay:   h.Mobile.OpenDelay,
			ClosureDays: h.Mobile.ClosureDays,
			DisasterEnd: cfg.Evacuation.DisasterEnd,
		},
	}
}

func shelterConfig(s config.ShelterConfig) shelter.Config {
	return shelter.Config{
		Pct:          s.Compliance,
		ByIncome:     s.ByIncome,
		DelayMean:    s.DelayMean,
		DelayStd:     s.DelayStd,
		DurationMean: s.DurationMean,
		DurationStd:  s.DurationStd,
		EarlyRate:    s.EarlyRate,
		DecayRate:    s.DecayRate,
	}
}

func evacuationConfig(e config.EvacuationConfig) shelter.EvacuationConfig {
	return shelter.EvacuationConfig{
		DisasterStart:     e.DisasterStart,
		DisasterEnd:       e.DisasterEnd,
		EvacStartOffset:   e.EvacStartOffset,
		EvacEndOffset:     e.EvacEndOffset,
		ReturnStartOffset: e.ReturnStartOffset,
		ReturnEndOffset:   e.ReturnEndOffset,
		EvacProbPerDay:    e.EvacProbPerDay,
		ReturnProbPerDay:  e.ReturnProbPerDay,
	}
}
