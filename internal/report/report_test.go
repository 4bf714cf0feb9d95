package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/render"
)

func newReport() *Report {
	return New("/games/WTF", ModeInPlace, false, domain.NewMappingSet("", "", "Stormrage", "Area-52", "", ""))
}

func TestAddAssignsSequenceAndCounts(t *testing.T) {
	rep := newReport()
	require.NotEmpty(t, rep.RunID)

	outcomes := []Outcome{
		OutcomeApplied, OutcomeMerged, OutcomePreview, OutcomeSkippedNoOp,
		OutcomeSkippedUnreadable, OutcomeSkippedConflict, OutcomeSkipped, OutcomeFailed,
	}
	for _, o := range outcomes {
		_, err := rep.Add(Record{Action: "rewrite-file", Path: "x.lua", Outcome: o})
		require.NoError(t, err)
	}
	_, err := rep.Add(Record{Action: "rename-directory", Path: "a", Target: "b", Outcome: OutcomeMerged, Conflicts: []string{"b/f", "b/g"}})
	require.NoError(t, err)

	recs := rep.Records()
	require.Len(t, recs, len(outcomes)+1)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.Seq)
	}

	assert.Equal(t, Counters{Applied: 1, Merged: 2, Previewed: 1, Skipped: 4, Failed: 1, Conflicts: 2}, rep.Counters())
	assert.Equal(t, ExitPartialFailure, rep.ExitStatus())
}

func TestFinalize(t *testing.T) {
	rep := newReport()
	_, err := rep.Add(Record{Action: "rewrite-file", Path: "x.lua", Outcome: OutcomeApplied})
	require.NoError(t, err)
	assert.Equal(t, ExitOK, rep.ExitStatus())

	rep.Finalize()
	require.True(t, rep.Finalized())
	first := *rep.FinishedAt
	rep.Finalize()
	assert.Equal(t, first, *rep.FinishedAt)

	_, err = rep.Add(Record{Action: "rewrite-file", Path: "y.lua", Outcome: OutcomeApplied})
	assert.ErrorIs(t, err, ErrFinalized)
	assert.Len(t, rep.Records(), 1)
}

func TestRecordsReturnsCopy(t *testing.T) {
	rep := newReport()
	_, _ = rep.Add(Record{Action: "rewrite-file", Path: "x.lua", Outcome: OutcomeApplied})
	recs := rep.Records()
	recs[0].Path = "changed"
	assert.Equal(t, "x.lua", rep.Records()[0].Path)
}

func TestRenderText(t *testing.T) {
	rep := newReport()
	_, _ = rep.Add(Record{Action: "rename-directory", Path: "Account/WOW1/Stormrage", Target: "Account/WOW1/Area-52", Outcome: OutcomeApplied})
	_, _ = rep.Add(Record{Action: "rewrite-file", Path: "Account/WOW1/Area-52/x.lua", Outcome: OutcomeFailed, Error: "write x.lua: denied"})
	rep.Finalize()

	var buf bytes.Buffer
	r := render.NewRenderer(&buf, render.Options{Format: render.FormatTable})
	require.NoError(t, Render(r, rep))

	out := buf.String()
	assert.Contains(t, out, "realm Stormrage -> Area-52")
	assert.Contains(t, out, "rename-directory Account/WOW1/Stormrage -> Account/WOW1/Area-52")
	assert.Contains(t, out, "write x.lua: denied")
	assert.Contains(t, out, "applied 1, merged 0, previewed 0, skipped 0, failed 1, conflicts 0")
}

func TestRenderJSON(t *testing.T) {
	rep := newReport()
	_, _ = rep.Add(Record{Action: "rewrite-file", Path: "x.lua", Outcome: OutcomeApplied, Count: 2})
	rep.Finalize()

	var buf bytes.Buffer
	r := render.NewRenderer(&buf, render.Options{Format: render.FormatJSON})
	require.NoError(t, Render(r, rep))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rep.RunID, decoded.RunID)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, 2, decoded.Items[0].Count)
	assert.Equal(t, "Area-52", decoded.Mappings.Realm.New)
}

func TestRenderTSV(t *testing.T) {
	rep := newReport()
	_, _ = rep.Add(Record{Action: "rewrite-file", Path: "x.lua", Outcome: OutcomeSkippedNoOp})

	var buf bytes.Buffer
	r := render.NewRenderer(&buf, render.Options{Format: render.FormatTSV})
	require.NoError(t, Render(r, rep))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\trewrite-file\tx.lua\t\tskipped-no-op\t0\t", lines[1])
}
