package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlpscan/dlpscan/internal/types"
)

func strp(s string) *string { return &s }

func sampleRecord() ScanRecord {
	cfg := types.ScanConfig{
		Detectors:     []types.DetectorSpec{types.BuiltIn("PHONE_NUMBER"), types.CustomRegex("AADHAAR", `[1-9]{4}-[1-9]{4}-[1-9]{4}`, types.Possible)},
		MinLikelihood: types.Possible,
	}
	res := types.Result{Findings: []types.Finding{
		{Quote: strp("91-9876543210"), InfoType: "PHONE_NUMBER", Likelihood: types.VeryLikely},
		{Quote: strp("1111-1111-1111"), InfoType: "AADHAAR", Likelihood: types.Possible},
		{InfoType: "PHONE_NUMBER", Likelihood: types.VeryLikely},
	}}
	return CreateScanRecord("projects/p1", "stdin", cfg, res, res.Findings[:1], 250*time.Millisecond, "dlpscan.baseline.json")
}

func TestCreateScanRecord(t *testing.T) {
	r := sampleRecord()

	_, err := uuid.Parse(r.ScanID)
	require.NoError(t, err)
	assert.Equal(t, "projects/p1", r.Scope)
	assert.Equal(t, []string{"PHONE_NUMBER", "AADHAAR"}, r.Detectors)
	assert.Equal(t, "POSSIBLE", r.MinLikelihood)
	assert.Equal(t, 3, r.TotalFindings)
	assert.Equal(t, 1, r.NewFindings)
	assert.Equal(t, 2, r.BaselinedCount)
	assert.Equal(t, map[string]int{"VERY_LIKELY": 2, "POSSIBLE": 1}, r.LikelihoodCounts)
	assert.Equal(t, "250ms", r.Duration)
}

func TestCreateScanRecord_RedactsQuotes(t *testing.T) {
	r := sampleRecord()
	for _, f := range r.Findings {
		if f.Quote != nil {
			assert.Equal(t, "[REDACTED]", *f.Quote)
		}
	}
	assert.Nil(t, r.Findings[2].Quote, "absent quotes stay absent")
}

func TestLogScan_AppendsAndLoadsNewestFirst(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	log := NewAuditLog(p)

	first := sampleRecord()
	first.Scope = "projects/first"
	second := sampleRecord()
	second.Scope = "projects/second"
	second.ScanID = ""

	require.NoError(t, log.LogScan(first))
	require.NoError(t, log.LogScan(second))

	history, err := log.LoadHistory()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "projects/second", history[0].Scope)
	assert.NotEmpty(t, history[0].ScanID)
	assert.Equal(t, "projects/first", history[1].Scope)

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "9876543210")
	assert.Equal(t, 2, strings.Count(string(raw), "\n"))

	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestLoadHistory_Missing(t *testing.T) {
	_, err := NewAuditLog(filepath.Join(t.TempDir(), "none.jsonl")).LoadHistory()
	assert.Error(t, err)
}

func TestNewAuditLog_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, NewAuditLog("").LogScan(ScanRecord{Scope: "p1"}))
	_, err := os.Stat(filepath.Join(dir, DefaultFile))
	assert.NoError(t, err)
}
