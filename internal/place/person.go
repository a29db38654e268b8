package place

// Insurance is a person's insurance type.
type Insurance int

// Insurance types. InsuranceNone is the unset value in ingested records.
const (
	InsuranceNone Insurance = iota - 1
	InsurancePrivate
	InsuranceMedicare
	InsuranceMedicaid
	InsuranceHighmark
	InsuranceUPMC
	InsuranceUninsured
)

// Role is a person's work role.
type Role int

// Work roles.
const (
	RoleWorker Role = iota
	RoleTeacher
	RoleHospitalStaff
	RoleGroupQuartersStaff
)

func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleHospitalStaff:
		return "hospital_staff"
	case RoleGroupQuartersStaff:
		return "group_quarters_staff"
	default:
		return "worker"
	}
}

// Person is an agent of the synthetic population. Place references are ids
// into the registry arena.
type Person struct {
	ID          PersonID
	Label       string
	Age         int
	Insurance   Insurance
	Household   ID
	Workplace   ID
	School      ID
	Office      ID
	Classroom   ID
	PrimaryCare ID
	Role        Role
}

// NewPerson returns a person with every place reference unset.
func NewPerson(label string, age int, ins Insurance) Person {
	return Person{
		Label:       label,
		Age:         age,
		Insurance:   ins,
		Household:   None,
		Workplace:   None,
		School:      None,
		Office:      None,
		Classroom:   None,
		PrimaryCare: None,
	}
}
