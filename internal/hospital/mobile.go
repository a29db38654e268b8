package hospital

import (
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/place"
)

// MobileConfig schedules mobile healthcare clinics after a disaster.
type MobileConfig struct {
	Max         int
	OpenDelay   int
	ClosureDays int
	DisasterEnd int
}

// ActivateMobileClinics opens up to Max mobile clinics from DisasterEnd +
// OpenDelay for ClosureDays days. When more clinics exist than allowed they
// are shuffled first and the remainder never open.
func (e *Engine) ActivateMobileClinics() int {
	var vans []*place.Place
	for _, h := range e.reg.Hospitals() {
		if h.IsMobileClinic() {
			vans = append(vans, h)
		}
	}
	if len(vans) == 0 {
		return 0
	}

	m := e.cfg.Mobile
	if m.Max < len(vans) {
		e.rand.Shuffle(len(vans), func(i, j int) { vans[i], vans[j] = vans[j], vans[i] })
	}
	open := min(max(m.Max, 0), len(vans))
	for i, v := range vans {
		if i < open {
			v.Hospital.OpenDay = m.DisasterEnd + m.OpenDelay
			v.Hospital.CloseDay = v.Hospital.OpenDay + m.ClosureDays
		} else {
			v.Hospital.OpenDay = 0
			v.Hospital.CloseDay = 0
		}
	}
	e.log.Info("mobile clinics activated",
		zap.Int("active", open),
		zap.Int("inactive", len(vans)-open),
	)
	return open
}
