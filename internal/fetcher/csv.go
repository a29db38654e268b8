// Package fetcher opens and streams the comma-separated record files the
// synthetic population is loaded from.
package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by Open when a required file does not exist.
var ErrNotFound = eris.New("fetcher: file not found")

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune     // default ','
	SkipIDs   []string // rows whose first field equals one of these are header rows and dropped
	Comment   rune     // comment character (0 = none)
	TrimSpace bool
}

// Open opens a record file, wrapping ErrNotFound when it is missing.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "fetcher: open %s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}

// StreamCSV reads a CSV stream and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.FieldsPerRecord = -1 // allow variable fields

		line := 0
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrapf(err, "csv: read row %d", line+1)
				return
			}
			line++

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}
			if len(record) > 0 && slices.Contains(opts.SkipIDs, record[0]) {
				continue
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadAll streams r and calls fn for each row. It stops at the first error
// from the stream or from fn.
func ReadAll(ctx context.Context, r io.Reader, opts CSVOptions, fn func(row []string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rowCh, errCh := StreamCSV(ctx, r, opts)
	for row := range rowCh {
		if err := fn(row); err != nil {
			cancel()
			for range rowCh {
			}
			return err
		}
	}
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
