package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "1,2,3\n4,5,6\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2", "3"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[1])
}

func TestStreamCSV_SkipIDs(t *testing.T) {
	input := "sp_id,lat,lon\n10,40.1,-80.2\nhh_id,hospital\n11,40.2,-80.3\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		SkipIDs: []string{"sp_id", "hh_id"},
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "10", rows[0][0])
	assert.Equal(t, "11", rows[1][0])
}

func TestStreamCSV_VariableFieldsAndTrim(t *testing.T) {
	input := "a , b\n c\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, rows)
}

func TestStreamCSV_Delimiter(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("a\tb\n"), CSVOptions{Delimiter: '\t'})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, rows)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n"), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	assert.Error(t, err)
}

func TestReadAll(t *testing.T) {
	var got []string
	err := ReadAll(context.Background(), strings.NewReader("sp_id\nx\ny\n"), CSVOptions{SkipIDs: []string{"sp_id"}}, func(row []string) error {
		got = append(got, row[0])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestReadAll_CallbackError(t *testing.T) {
	boom := eris.New("boom")
	input := strings.Repeat("x\n", 500)
	err := ReadAll(context.Background(), strings.NewReader(input), CSVOptions{}, func([]string) error {
		return boom
	})
	assert.True(t, eris.Is(err, boom))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))

	path := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o600))
	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
