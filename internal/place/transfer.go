package place

import (
	"slices"

	"github.com/rotisserie/eris"
)

func removePerson(list []PersonID, id PersonID) ([]PersonID, bool) {
	i := slices.Index(list, id)
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

// MoveResident moves a person from their current household into another.
// The source occupant list, destination occupant list and the person's
// household reference change together or not at all.
func (r *Registry) MoveResident(pid PersonID, to ID) error {
	person := r.Person(pid)
	if person == nil {
		return eris.Errorf("place: unknown person %d", pid)
	}
	dst := r.Place(to)
	if dst == nil || !dst.IsHousehold() {
		return eris.Errorf("place: move resident: %d is not a household", to)
	}
	if person.Household == to {
		return nil
	}
	if person.Household != None {
		src := r.places[person.Household]
		rest, ok := removePerson(src.Occupants, pid)
		if !ok {
			return eris.Errorf("place: person %d missing from household %s", pid, src.Label)
		}
		src.Occupants = rest
	}
	dst.Occupants = append(dst.Occupants, pid)
	person.Household = to
	return nil
}

// MoveWorker moves a person from their current workplace into a staffing
// role at another place.
func (r *Registry) MoveWorker(pid PersonID, to ID, role Role) error {
	person := r.Person(pid)
	if person == nil {
		return eris.Errorf("place: unknown person %d", pid)
	}
	dst := r.Place(to)
	if dst == nil {
		return eris.Errorf("place: move worker: unknown place %d", to)
	}
	if person.Workplace != None && person.Workplace != to {
		src := r.places[person.Workplace]
		rest, ok := removePerson(src.Workers, pid)
		if !ok {
			return eris.Errorf("place: person %d missing from workplace %s", pid, src.Label)
		}
		src.Workers = rest
	}
	if person.Workplace != to {
		dst.Workers = append(dst.Workers, pid)
	}
	person.Workplace = to
	person.Role = role
	return nil
}

// MoveAllWorkers transfers the entire roster of one workplace to another.
// It returns the number of workers moved.
func (r *Registry) MoveAllWorkers(from, to ID, role Role) (int, error) {
	src := r.Place(from)
	if src == nil {
		return 0, eris.Errorf("place: move workers: unknown place %d", from)
	}
	if r.Place(to) == nil {
		return 0, eris.Errorf("place: move workers: unknown place %d", to)
	}
	roster := slices.Clone(src.Workers)
	for _, pid := range roster {
		if err := r.MoveWorker(pid, to, role); err != nil {
			return 0, err
		}
	}
	return len(roster), nil
}

// SwapHouseholds exchanges the residents of two households.
func (r *Registry) SwapHouseholds(a, b ID) error {
	ha, hb := r.Place(a), r.Place(b)
	if ha == nil || hb == nil || !ha.IsHousehold() || !hb.IsHousehold() {
		return eris.Errorf("place: swap households: %d and %d must both be households", a, b)
	}
	ha.Occupants, hb.Occupants = hb.Occupants, ha.Occupants
	for _, pid := range ha.Occupants {
		r.persons[pid].Household = a
	}
	for _, pid := range hb.Occupants {
		r.persons[pid].Household = b
	}
	return nil
}

// CombineHouseholds moves every resident of from into into, leaving from empty.
func (r *Registry) CombineHouseholds(into, from ID) error {
	dst, src := r.Place(into), r.Place(from)
	if dst == nil || src == nil || !dst.IsHousehold() || !src.IsHousehold() {
		return eris.Errorf("place: combine households: %d and %d must both be households", into, from)
	}
	if into == from {
		return nil
	}
	for _, pid := range src.Occupants {
		r.persons[pid].Household = into
	}
	dst.Occupants = append(dst.Occupants, src.Occupants...)
	src.Occupants = nil
	return nil
}

// Enroll adds a person to a classroom or office, recording the reference on
// the person.
func (r *Registry) Enroll(pid PersonID, to ID) error {
	person := r.Person(pid)
	dst := r.Place(to)
	if person == nil || dst == nil {
		return eris.Errorf("place: enroll: unknown person %d or place %d", pid, to)
	}
	switch dst.Kind {
	case KindClassroom:
		person.Classroom = to
	case KindOffice:
		person.Office = to
	default:
		return eris.Errorf("place: enroll: %s is a %s", dst.Label, dst.Kind)
	}
	dst.Occupants = append(dst.Occupants, pid)
	return nil
}
