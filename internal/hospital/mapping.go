package hospital

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/synthgeo/internal/fetcher"
)

// NoMapFile disables the household to hospital mapping file.
const NoMapFile = "none"

// mappingHeaders are first-field values that mark a header row.
var mappingHeaders = []string{"hh_id", "sp_id"}

// LoadMapping reads household_label,hospital_label pairs. A missing file
// returns exists=false and no error.
func LoadMapping(ctx context.Context, path string) (map[string]string, bool, error) {
	f, err := fetcher.Open(path)
	if eris.Is(err, fetcher.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	m := make(map[string]string)
	err = fetcher.ReadAll(ctx, f, fetcher.CSVOptions{SkipIDs: mappingHeaders, TrimSpace: true}, func(row []string) error {
		if len(row) < 2 {
			return nil
		}
		m[row[0]] = row[1]
		return nil
	})
	if err != nil {
		return nil, false, eris.Wrapf(err, "hospital: read mapping %s", path)
	}
	return m, true, nil
}

// Pair is one household to hospital mapping entry.
type Pair struct {
	Household string
	Hospital  string
}

// WriteMapping overwrites path with the given pairs, one per line.
func WriteMapping(path string, pairs []Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "hospital: create mapping %s", path)
	}

	w := csv.NewWriter(f)
	for _, p := range pairs {
		if err := w.Write([]string{p.Household, p.Hospital}); err != nil {
			f.Close() //nolint:errcheck
			return eris.Wrap(err, "hospital: write mapping")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "hospital: flush mapping")
	}
	return eris.Wrap(f.Close(), "hospital: close mapping")
}
