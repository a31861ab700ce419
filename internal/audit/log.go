package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dlpscan/dlpscan/internal/types"
)

// DefaultFile is the audit log name used when no path is configured.
const DefaultFile = ".dlpscan_audit.jsonl"

type ScanRecord struct {
	Timestamp        time.Time       `json:"timestamp"`
	ScanID           string          `json:"scan_id"`
	Scope            string          `json:"scope"`
	Source           string          `json:"source,omitempty"`
	Detectors        []string        `json:"detectors"`
	MinLikelihood    string          `json:"min_likelihood"`
	TotalFindings    int             `json:"total_findings"`
	NewFindings      int             `json:"new_findings"`
	BaselinedCount   int             `json:"baselined_count"`
	LikelihoodCounts map[string]int  `json:"likelihood_counts"`
	Truncated        bool            `json:"truncated,omitempty"`
	Duration         string          `json:"duration"`
	BaselineFile     string          `json:"baseline_file,omitempty"`
	Findings         []types.Finding `json:"findings,omitempty"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog appends to path, or to DefaultFile in the working directory
// when path is empty.
func NewAuditLog(path string) *AuditLog {
	if path == "" {
		path = DefaultFile
	}
	return &AuditLog{logPath: path}
}

// LoadHistory returns all records, newest first. Malformed lines are skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = uuid.New().String()
	}
	if dir := filepath.Dir(a.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create audit log dir: %w", err)
		}
	}

	// Owner-only: records carry finding metadata.
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarizes one scan. newFindings is the subset left after
// baseline filtering; pass all findings when no baseline is in use.
func CreateScanRecord(
	scope string,
	source string,
	cfg types.ScanConfig,
	res types.Result,
	newFindings []types.Finding,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	counts := make(map[string]int)
	for _, f := range res.Findings {
		counts[f.Likelihood.String()]++
	}

	return ScanRecord{
		Timestamp:        time.Now().UTC(),
		ScanID:           uuid.New().String(),
		Scope:            scope,
		Source:           source,
		Detectors:        cfg.DetectorNames(),
		MinLikelihood:    cfg.MinLikelihood.String(),
		TotalFindings:    len(res.Findings),
		NewFindings:      len(newFindings),
		BaselinedCount:   len(res.Findings) - len(newFindings),
		LikelihoodCounts: counts,
		Truncated:        res.Truncated,
		Duration:         duration.String(),
		BaselineFile:     baselineFile,
		Findings:         redactQuotes(res.Findings),
	}
}

// redactQuotes returns a copy of findings with every quote replaced so that
// matched content never reaches the audit log.
func redactQuotes(findings []types.Finding) []types.Finding {
	redacted := make([]types.Finding, len(findings))
	for i, f := range findings {
		redacted[i] = f
		if f.Quote != nil {
			r := "[REDACTED]"
			redacted[i].Quote = &r
		}
	}
	return redacted
}
