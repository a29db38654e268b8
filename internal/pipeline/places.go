package pipeline

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/place"
)

// CarvePlaces splits the students of every school into classrooms of
// classroomSize and the workers of every workplace into offices of
// officeSize, in occupant order. A size of zero or less disables that kind.
// It returns the number of classrooms and offices created.
func CarvePlaces(reg *place.Registry, classroomSize, officeSize int) (int, int, error) {
	log := zap.L().With(zap.String("component", "pipeline.places"))

	classrooms := 0
	if classroomSize > 0 {
		for _, s := range reg.Schools() {
			n, err := carve(reg, s, s.Occupants, place.KindClassroom, classroomSize)
			if err != nil {
				return classrooms, 0, err
			}
			classrooms += n
		}
	}

	offices := 0
	if officeSize > 0 {
		for _, w := range reg.Workplaces() {
			n, err := carve(reg, w, w.Workers, place.KindOffice, officeSize)
			if err != nil {
				return classrooms, offices, err
			}
			offices += n
		}
	}

	log.Info("carved sub-places", zap.Int("classrooms", classrooms), zap.Int("offices", offices))
	return classrooms, offices, nil
}

// carve creates ceil(len(members)/size) sub-places labelled after the parent
// and enrolls members in order.
func carve(reg *place.Registry, parent *place.Place, members []place.PersonID, kind place.Kind, size int) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}

	n := 0
	var sub *place.Place
	for i, pid := range members {
		if i%size == 0 {
			n++
			label := fmt.Sprintf("%c%s-%03d", kind.Prefix(), parent.Label[1:], n)
			sub = reg.AddPlace(label, kind, place.SubtypeNone, parent.Lon, parent.Lat, parent.TractFIPS)
			sub.Container = parent.ID
		}
		if err := reg.Enroll(pid, sub.ID); err != nil {
			return n, eris.Wrapf(err, "pipeline: carve %s", parent.Label)
		}
	}
	return n, nil
}
