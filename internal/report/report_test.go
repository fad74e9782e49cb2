package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/JakeFAU/pickup-checker/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() pickup.Report {
	return pickup.Report{
		RunID:     "0199b0c4-0000-7000-8000-000000000000",
		Timestamp: "2025-09-20 12:30:00 CST",
		PartNotes: "iPhone 17 Pro Max 256GB (any color)",
		Zips:      []string{"33172"},
		Rows: []pickup.Row{
			{Zip: "33172", Store: "Apple Dadeland", Available: true, Message: "Available Today"},
			{Zip: "33172", Store: "Apple Aventura", Available: true, Message: "Available Tomorrow"},
			{Zip: "33172", Store: "Apple Brickell & Co", Available: false, Message: "Out of stock"},
		},
		Errors: []string{},
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025-09-20 12:30:00 CST - 2 available out of 3 stores", Summary(sampleReport()))

	empty := pickup.Report{Timestamp: "2025-09-20 12:30:00 CST"}
	assert.Equal(t, "2025-09-20 12:30:00 CST - no rows (modal might have failed)", Summary(empty))
}

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	var stdout bytes.Buffer
	w := NewWriter(store, &stdout, Config{}, nil)

	rep := sampleReport()
	require.NoError(t, w.Write(context.Background(), rep))

	obj, ok := store.Get(DefaultReportName)
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.Contains(t, string(obj.Data), "\n  \"run_id\": ")
	assert.Contains(t, string(obj.Data), "Apple Brickell & Co", "html characters are not escaped")

	var decoded pickup.Report
	require.NoError(t, json.Unmarshal(obj.Data, &decoded))
	assert.Equal(t, rep, decoded)

	summary, ok := store.Get(DefaultSummaryName)
	require.True(t, ok)
	assert.Equal(t, "2025-09-20 12:30:00 CST - 2 available out of 3 stores\n", string(summary.Data))

	line := stdout.String()
	assert.Equal(t, 1, strings.Count(line, "\n"), "stdout gets compact single-line json")
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
}

func TestWriterEmptyListsAreArrays(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	w := NewWriter(store, nil, Config{ReportName: "out/report.json", SummaryName: "out/summary.txt"}, nil)
	require.NoError(t, w.Write(context.Background(), pickup.Report{
		Timestamp: "2025-09-20 12:30:00 CST",
		Errors:    []string{pickup.ModalErrorText},
	}))

	obj, ok := store.Get("out/report.json")
	require.True(t, ok)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(obj.Data, &raw))
	assert.Equal(t, "[]", string(raw["rows"]))
	assert.Equal(t, "[]", string(raw["zips"]))
	assert.JSONEq(t, `["Could not open availability modal"]`, string(raw["errors"]))

	summary, ok := store.Get("out/summary.txt")
	require.True(t, ok)
	assert.Contains(t, string(summary.Data), "no rows (modal might have failed)")
}

type failingStore struct{}

func (failingStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("read-only file system")
}

func TestWriterStoreFailure(t *testing.T) {
	t.Parallel()

	err := NewWriter(failingStore{}, nil, Config{}, nil).Write(context.Background(), sampleReport())
	require.ErrorContains(t, err, "write report")
}
