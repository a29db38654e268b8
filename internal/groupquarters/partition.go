// Package groupquarters splits institutional households (dorms, barracks,
// prisons, nursing homes) into near-equal sub-household units.
package groupquarters

import (
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/place"
)

// ErrConservation is returned when a partition loses, duplicates or
// unevenly distributes residents.
var ErrConservation = eris.New("groupquarters: partition conservation violated")

// Units returns the unit count for a group quarters of the given capacity:
// floor(capacity / meanUnitSize), at least 1.
func Units(capacity int, meanUnitSize float64) int {
	if meanUnitSize <= 0 {
		return 1
	}
	return max(1, int(float64(capacity)/meanUnitSize))
}

// Partition spreads the residents of primary across primary and the extra
// units. With min = size/units and larger = size%units, the primary keeps its
// first min residents and counts as one of the smaller units; the next
// smaller-1 extra units get min residents each and the last larger units get
// min+1 each. Residents keep their relative order.
func Partition(reg *place.Registry, primary *place.Place, extra []*place.Place) error {
	for _, u := range extra {
		if !u.IsHousehold() || u.Size() != 0 {
			return eris.Errorf("groupquarters: unit %s is not an empty household", u.Label)
		}
	}

	residents := slices.Clone(primary.Occupants)
	size := len(residents)
	units := len(extra) + 1
	minPer := size / units
	larger := size - minPer*units
	smaller := units - larger

	next := minPer
	for i, u := range extra {
		n := minPer
		if i >= smaller-1 {
			n = minPer + 1
		}
		for _, pid := range residents[next : next+n] {
			if err := reg.MoveResident(pid, u.ID); err != nil {
				return eris.Wrapf(err, "groupquarters: partition %s", primary.Label)
			}
		}
		next += n
	}

	return check(primary, extra, size, minPer)
}

func check(primary *place.Place, extra []*place.Place, size, minPer int) error {
	total := primary.Size()
	if primary.Size() != minPer {
		return eris.Wrapf(ErrConservation, "%s kept %d residents, want %d", primary.Label, primary.Size(), minPer)
	}
	for _, u := range extra {
		if n := u.Size(); n != minPer && n != minPer+1 {
			return eris.Wrapf(ErrConservation, "%s has %d residents, want %d or %d", u.Label, n, minPer, minPer+1)
		}
		total += u.Size()
	}
	if total != size {
		return eris.Wrapf(ErrConservation, "%s units hold %d residents, want %d", primary.Label, total, size)
	}
	return nil
}

// PartitionAll walks households in registry order. Each group-quarters
// household with more than one unit is partitioned into the households that
// immediately follow it, which are then skipped.
func PartitionAll(reg *place.Registry) (int, error) {
	log := zap.L().With(zap.String("component", "groupquarters"))
	households := reg.Households()
	units := 0
	for p := 0; p < len(households); {
		h := households[p]
		p++
		if !h.IsGroupQuarters() {
			continue
		}
		n := h.Household.GroupQuartersUnits
		if n > 1 {
			if p+n-1 > len(households) {
				return units, eris.Errorf("groupquarters: %s needs %d units, only %d households follow", h.Label, n-1, len(households)-p)
			}
			extra := households[p : p+n-1]
			log.Debug("partitioning group quarters",
				zap.String("label", h.Label),
				zap.Stringer("subtype", h.Subtype),
				zap.Int("size", h.Size()),
				zap.Int("units", n),
			)
			if err := Partition(reg, h, extra); err != nil {
				return units, err
			}
			p += n - 1
		}
		units += max(n, 1)
	}
	log.Info("group quarters partitioned", zap.Int("units", units))
	return units, nil
}
