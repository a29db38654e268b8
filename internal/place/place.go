// Package place defines the places and persons of the synthetic geography and
// the registry that owns them.
package place

import "fmt"

// ID identifies a place. IDs are assigned in insertion order and never reused.
type ID int

// None marks an unset place reference.
const None ID = -1

// PersonID identifies a person in the registry arena.
type PersonID int

// Kind is the closed set of place variants.
type Kind int

// Place kinds.
const (
	KindHousehold Kind = iota
	KindWorkplace
	KindSchool
	KindClassroom
	KindOffice
	KindHospital
	KindNeighborhood
)

var kindPrefixes = map[Kind]byte{
	KindHousehold:    'H',
	KindWorkplace:    'W',
	KindSchool:       'S',
	KindClassroom:    'C',
	KindOffice:       'O',
	KindHospital:     'M',
	KindNeighborhood: 'N',
}

var kindNames = map[Kind]string{
	KindHousehold:    "household",
	KindWorkplace:    "workplace",
	KindSchool:       "school",
	KindClassroom:    "classroom",
	KindOffice:       "office",
	KindHospital:     "hospital",
	KindNeighborhood: "neighborhood",
}

// derived reports whether places of this kind are carved out of other
// places rather than loaded.
func (k Kind) derived() bool {
	return k == KindClassroom || k == KindOffice || k == KindNeighborhood
}

// Prefix returns the one-letter label prefix for the kind.
func (k Kind) Prefix() byte { return kindPrefixes[k] }

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromPrefix maps a label prefix back to its kind.
func KindFromPrefix(c byte) (Kind, bool) {
	for k, p := range kindPrefixes {
		if p == c {
			return k, true
		}
	}
	return 0, false
}

// Subtype refines a kind. Group-quarters subtypes apply to households and
// their staff workplaces; clinic subtypes apply to hospitals.
type Subtype int

// Place subtypes.
const (
	SubtypeNone Subtype = iota
	SubtypeCollege
	SubtypeMilitaryBase
	SubtypePrison
	SubtypeNursingHome
	SubtypeHealthcareClinic
	SubtypeMobileHealthcareClinic
)

func (s Subtype) String() string {
	switch s {
	case SubtypeNone:
		return "none"
	case SubtypeCollege:
		return "college"
	case SubtypeMilitaryBase:
		return "military_base"
	case SubtypePrison:
		return "prison"
	case SubtypeNursingHome:
		return "nursing_home"
	case SubtypeHealthcareClinic:
		return "healthcare_clinic"
	case SubtypeMobileHealthcareClinic:
		return "mobile_healthcare_clinic"
	default:
		return fmt.Sprintf("subtype(%d)", int(s))
	}
}

// IsGroupQuarters reports whether the subtype is one of the four
// institutional group-quarters subtypes.
func (s Subtype) IsGroupQuarters() bool {
	switch s {
	case SubtypeCollege, SubtypeMilitaryBase, SubtypePrison, SubtypeNursingHome:
		return true
	}
	return false
}

// Patch is a grid cell back-reference.
type Patch struct {
	Row, Col int
}

// ShelterRecord holds a household's shelter-in-place or evacuation schedule.
// EndDay of -1 means the schedule is open-ended.
type ShelterRecord struct {
	Scheduled  bool
	Evacuating bool
	StartDay   int
	EndDay     int
}

// Household is the household payload.
type Household struct {
	Race                   int
	Income                 int
	GroupQuartersUnits     int
	GroupQuartersWorkplace ID
	Patch                  *Patch
	Neighborhood           ID
	VisitationHospital     ID
	Shelter                ShelterRecord
}

// Hospital is the hospital payload.
type Hospital struct {
	EmployeeCount        int
	PhysicianCount       int
	BedCount             int
	OccupiedBeds         int
	DailyPatientCapacity int
	CurrentDailyPatients int
	OpenDay              int
	CloseDay             int
	AcceptedInsurance    map[Insurance]bool
}

// Accepts reports whether the hospital takes the insurance type. An empty
// acceptance set takes everything.
func (h *Hospital) Accepts(ins Insurance) bool {
	if len(h.AcceptedInsurance) == 0 {
		return true
	}
	return h.AcceptedInsurance[ins]
}

// IsOpen reports whether the hospital is open on the given day.
func (h *Hospital) IsOpen(day int) bool {
	if day < h.OpenDay {
		return false
	}
	return h.CloseDay < 0 || day < h.CloseDay
}

// School is the school payload.
type School struct {
	OriginalStudents int
}

// Place is a geographically located entity.
type Place struct {
	ID        ID
	Label     string
	Kind      Kind
	Subtype   Subtype
	Lat       float64
	Lon       float64
	TractFIPS int64
	Occupants []PersonID
	Workers   []PersonID
	Container ID // enclosing school or workplace of a classroom or office
	Household *Household
	Hospital  *Hospital
	School    *School
}

// CountyFIPS is the five-digit county prefix of the tract code.
func (p *Place) CountyFIPS() int64 { return p.TractFIPS / 1_000_000 }

// IsHousehold reports whether p is a household.
func (p *Place) IsHousehold() bool { return p.Kind == KindHousehold }

// IsWorkplace reports whether p is a workplace.
func (p *Place) IsWorkplace() bool { return p.Kind == KindWorkplace }

// IsSchool reports whether p is a school.
func (p *Place) IsSchool() bool { return p.Kind == KindSchool }

// IsHospital reports whether p is a hospital of any subtype.
func (p *Place) IsHospital() bool { return p.Kind == KindHospital }

// IsClinic reports whether p is a fixed or mobile healthcare clinic.
func (p *Place) IsClinic() bool {
	return p.Kind == KindHospital &&
		(p.Subtype == SubtypeHealthcareClinic || p.Subtype == SubtypeMobileHealthcareClinic)
}

// IsMobileClinic reports whether p is a mobile healthcare clinic.
func (p *Place) IsMobileClinic() bool {
	return p.Kind == KindHospital && p.Subtype == SubtypeMobileHealthcareClinic
}

// IsGroupQuarters reports whether p is a group-quarters household.
func (p *Place) IsGroupQuarters() bool {
	return p.Kind == KindHousehold && p.Subtype.IsGroupQuarters()
}

// Size is the number of current occupants.
func (p *Place) Size() int { return len(p.Occupants) }

// WorkerCount is the number of current workers.
func (p *Place) WorkerCount() int { return len(p.Workers) }

// HasCoordinates reports whether both coordinates are set.
func (p *Place) HasCoordinates() bool { return p.Lat != 0 && p.Lon != 0 }
