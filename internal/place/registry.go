package place

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// NoLabel is the sentinel label ingested records use for "no place".
const NoLabel = "-1"

// Registry owns every place and person. Places and persons are stored in
// arenas indexed by id; all cross references are ids.
type Registry struct {
	log *zap.Logger

	places  []*Place
	byLabel map[string]ID
	byKind  map[Kind][]ID

	persons       []*Person
	personByLabel map[string]PersonID

	bounds orb.Bound
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		log:           zap.L().With(zap.String("component", "place")),
		byLabel:       make(map[string]ID),
		byKind:        make(map[Kind][]ID),
		personByLabel: make(map[string]PersonID),
		bounds: orb.Bound{
			Min: orb.Point{999, 999},
			Max: orb.Point{-999, -999},
		},
	}
}

// AddPlace registers a place. A label that is already registered returns the
// existing place unchanged. Every loaded kind widens the bounding box.
// Classrooms, offices and neighborhoods are derived after the grid exists
// and sit inside it, so they leave the box alone.
func (r *Registry) AddPlace(label string, kind Kind, subtype Subtype, lon, lat float64, tractFIPS int64) *Place {
	if id, ok := r.byLabel[label]; ok {
		r.log.Debug("duplicate place label", zap.String("label", label))
		return r.places[id]
	}

	p := &Place{
		ID:        ID(len(r.places)),
		Label:     label,
		Kind:      kind,
		Subtype:   subtype,
		Lat:       lat,
		Lon:       lon,
		TractFIPS: tractFIPS,
		Container: None,
	}
	switch kind {
	case KindHousehold:
		p.Household = &Household{
			GroupQuartersUnits:     1,
			GroupQuartersWorkplace: None,
			Neighborhood:           None,
			VisitationHospital:     None,
			Shelter:                ShelterRecord{EndDay: -1},
		}
	case KindHospital:
		p.Hospital = &Hospital{CloseDay: -1}
	case KindSchool:
		p.School = &School{}
	}

	r.places = append(r.places, p)
	r.byLabel[label] = p.ID
	r.byKind[kind] = append(r.byKind[kind], p.ID)
	if !kind.derived() {
		r.UpdateBounds(lat, lon)
	}
	return p
}

// UpdateBounds widens the bounding box. Exactly-zero coordinates are treated
// as unset and ignored independently.
func (r *Registry) UpdateBounds(lat, lon float64) {
	if lat != 0 {
		r.bounds.Min[1] = min(r.bounds.Min[1], lat)
		r.bounds.Max[1] = max(r.bounds.Max[1], lat)
	}
	if lon != 0 {
		r.bounds.Min[0] = min(r.bounds.Min[0], lon)
		r.bounds.Max[0] = max(r.bounds.Max[0], lon)
	}
}

// Bounds returns the lon/lat bounding box of every registered place. The
// result is inverted (Min > Max) while no coordinates have been seen.
func (r *Registry) Bounds() orb.Bound { return r.bounds }

// HasBounds reports whether at least one latitude and one longitude were seen.
func (r *Registry) HasBounds() bool {
	return r.bounds.Min[0] <= r.bounds.Max[0] && r.bounds.Min[1] <= r.bounds.Max[1]
}

// MeanLatitude is the midpoint of the latitude extent.
func (r *Registry) MeanLatitude() float64 {
	return (r.bounds.Min[1] + r.bounds.Max[1]) / 2
}

// PlaceFromLabel looks up a place by label.
func (r *Registry) PlaceFromLabel(label string) (*Place, bool) {
	if label == NoLabel {
		return nil, false
	}
	id, ok := r.byLabel[label]
	if !ok {
		return nil, false
	}
	return r.places[id], true
}

// Place returns the place with the given id, or nil.
func (r *Registry) Place(id ID) *Place {
	if id < 0 || int(id) >= len(r.places) {
		return nil
	}
	return r.places[id]
}

// Len is the number of registered places.
func (r *Registry) Len() int { return len(r.places) }

// Places returns every place in insertion order.
func (r *Registry) Places() []*Place { return r.places }

// OfKind returns the places of one kind in insertion order.
func (r *Registry) OfKind(kind Kind) []*Place {
	ids := r.byKind[kind]
	out := make([]*Place, len(ids))
	for i, id := range ids {
		out[i] = r.places[id]
	}
	return out
}

// Households returns households in insertion order.
func (r *Registry) Households() []*Place { return r.OfKind(KindHousehold) }

// Workplaces returns workplaces in insertion order.
func (r *Registry) Workplaces() []*Place { return r.OfKind(KindWorkplace) }

// Schools returns schools in insertion order.
func (r *Registry) Schools() []*Place { return r.OfKind(KindSchool) }

// Hospitals returns hospitals in insertion order.
func (r *Registry) Hospitals() []*Place { return r.OfKind(KindHospital) }

// Neighborhoods returns neighborhoods in insertion order.
func (r *Registry) Neighborhoods() []*Place { return r.OfKind(KindNeighborhood) }

// Count returns the number of places of one kind.
func (r *Registry) Count(kind Kind) int { return len(r.byKind[kind]) }

// AddPerson registers a person and links them to their household, school and
// workplace. Unset references are place.None.
func (r *Registry) AddPerson(p Person) (*Person, error) {
	if p.Label != "" {
		if _, ok := r.personByLabel[p.Label]; ok {
			return nil, eris.Errorf("place: duplicate person %q", p.Label)
		}
	}
	p.ID = PersonID(len(r.persons))
	person := &p
	if err := r.checkRef(person.Household, KindHousehold); err != nil {
		return nil, err
	}
	if err := r.checkRef(person.School, KindSchool); err != nil {
		return nil, err
	}
	if w := r.Place(person.Workplace); person.Workplace != None && (w == nil || w.Kind == KindHousehold) {
		return nil, eris.Errorf("place: person %q has invalid workplace %d", p.Label, person.Workplace)
	}

	r.persons = append(r.persons, person)
	if p.Label != "" {
		r.personByLabel[p.Label] = person.ID
	}
	if person.Household != None {
		h := r.places[person.Household]
		h.Occupants = append(h.Occupants, person.ID)
	}
	if person.School != None {
		s := r.places[person.School]
		s.Occupants = append(s.Occupants, person.ID)
	}
	if person.Workplace != None {
		w := r.places[person.Workplace]
		w.Workers = append(w.Workers, person.ID)
	}
	return person, nil
}

func (r *Registry) checkRef(id ID, kind Kind) error {
	if id == None {
		return nil
	}
	p := r.Place(id)
	if p == nil || p.Kind != kind {
		return eris.Errorf("place: %d is not a %s", id, kind)
	}
	return nil
}

// Person returns the person with the given id, or nil.
func (r *Registry) Person(id PersonID) *Person {
	if id < 0 || int(id) >= len(r.persons) {
		return nil
	}
	return r.persons[id]
}

// PersonFromLabel looks up a person by label.
func (r *Registry) PersonFromLabel(label string) (*Person, bool) {
	id, ok := r.personByLabel[label]
	if !ok {
		return nil, false
	}
	return r.persons[id], true
}

// Persons returns every person in insertion order.
func (r *Registry) Persons() []*Person { return r.persons }
