package hospital

import "github.com/sells-group/synthgeo/internal/place"

// Tracker keys for daily hospital status.
const (
	KeyTotalCapacity = "Tot_hosp_cap"
	KeyOpenCapacity  = "Open_hosp_cap"
	KeyOpen          = "Open_hosp"
	KeyClosed        = "Closed_hosp"
)

// DailyStats counts open and closed hospitals and their daily outpatient
// capacity for a day.
func DailyStats(reg *place.Registry, day int) map[string]int {
	out := map[string]int{
		KeyTotalCapacity: 0,
		KeyOpenCapacity:  0,
		KeyOpen:          0,
		KeyClosed:        0,
	}
	for _, h := range reg.Hospitals() {
		capacity := h.Hospital.DailyPatientCapacity
		out[KeyTotalCapacity] += capacity
		if h.Hospital.IsOpen(day) {
			out[KeyOpen]++
			out[KeyOpenCapacity] += capacity
		} else {
			out[KeyClosed]++
		}
	}
	return out
}
