package main

import (
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/synthgeo/internal/pipeline"
	"github.com/sells-group/synthgeo/internal/store"
)

// formatSummary writes the setup results as an aligned table with grouped
// thousands.
func formatSummary(out io.Writer, s pipeline.Summary, run *store.Run) {
	pr := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	row := func(label string, v any) {
		_, _ = pr.Fprintf(w, "%s:\t%v\n", label, v)
	}
	if run != nil {
		row("Run", run.ID)
		row("Status", run.Status)
	}
	row("Seed", s.Seed)
	row("Households", pr.Sprintf("%d", s.Counts.Households))
	row("Group quarters units", pr.Sprintf("%d", s.Units))
	row("People", pr.Sprintf("%d", s.Counts.People))
	row("Workplaces", pr.Sprintf("%d", s.Counts.Workplaces))
	row("Schools", pr.Sprintf("%d", s.Counts.Schools))
	row("Hospitals", pr.Sprintf("%d", s.Counts.Hospitals))
	row("Patches", pr.Sprintf("%d", s.Patches))
	row("Neighborhoods", pr.Sprintf("%d", s.Neighborhoods))
	row("Counties", pr.Sprintf("%d", s.Counties))
	row("Tracts", pr.Sprintf("%d", s.Tracts))
	row("Staffed", pr.Sprintf("%d (%d workers moved)", s.Staffing.Staffed, s.Staffing.Moved))
	row("Unstaffed", pr.Sprintf("%d", s.Staffing.Unstaffed+s.Staffing.Outside))
	row("Classrooms", pr.Sprintf("%d", s.Classrooms))
	row("Offices", pr.Sprintf("%d", s.Offices))
	row("Catchment", pr.Sprintf("%d sampled, %d reused", s.Catchment.Sampled, s.Catchment.Reused))
	if s.PrimaryCareMissed > 0 {
		row("Without primary care", pr.Sprintf("%d", s.PrimaryCareMissed))
	}
	row("Selected households", pr.Sprintf("%d", s.Selected))
	if s.MobileClinics > 0 {
		row("Mobile clinics", pr.Sprintf("%d", s.MobileClinics))
	}
	if s.PlacesSaved > 0 {
		row("Places saved", pr.Sprintf("%d", s.PlacesSaved))
	}
	_ = w.Flush()
}
