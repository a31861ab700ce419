package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dlpscan/dlpscan/internal/types"
)

// FileName is the cache file written when no .git directory is present.
const FileName = ".dlpscan_cache.json"

// Entry is the stored result for one input.
type Entry struct {
	Key    string       `json:"key"`
	Result types.Result `json:"result"`
	Saved  time.Time    `json:"saved"`
}

// DB maps an input name (file path, "stdin", "args") to its last result.
type DB struct {
	Entries map[string]Entry `json:"entries"`
}

func defaultPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "dlpscan_cache.json")
	}
	return filepath.Join(root, FileName)
}

// Load reads the cache under root. On any error an empty, usable DB is
// returned together with the error.
func Load(root string) (DB, error) {
	var db DB
	b, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return DB{Entries: map[string]Entry{}}, err
	}
	if err := json.Unmarshal(b, &db); err != nil {
		return DB{Entries: map[string]Entry{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]Entry{}
	}
	return db, nil
}

// Save writes db under root. Entries may hold quotes, so the file is 0600.
func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0o600)
}

// Target is where a scan is sent: the billed scope, the processing location
// and the service endpoint.
type Target struct {
	Scope    string
	Location string
	Endpoint string
}

// Key identifies a scan of text against target with cfg. Any change to the
// target, detectors, threshold, quote or limit settings yields a different key.
func Key(target Target, cfg types.ScanConfig, text string) string {
	h := xxhash.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	write(target.Scope)
	write(target.Location)
	write(strings.TrimRight(target.Endpoint, "/"))
	for _, d := range cfg.Detectors {
		write(strconv.Itoa(int(d.Kind())))
		write(d.Name())
		write(d.Pattern())
		write(d.Likelihood().String())
	}
	write(cfg.MinLikelihood.String())
	write(strconv.FormatBool(cfg.IncludeQuote))
	write(strconv.Itoa(cfg.MaxFindings))
	write(text)
	return strconv.FormatUint(h.Sum64(), 16)
}

// Lookup returns the cached result for name when its key still matches.
func (db DB) Lookup(name, key string) (types.Result, bool) {
	e, ok := db.Entries[name]
	if !ok || e.Key != key {
		return types.Result{}, false
	}
	return e.Result, true
}

// Put records res for name under key.
func (db DB) Put(name, key string, res types.Result) {
	db.Entries[name] = Entry{Key: key, Result: res, Saved: time.Now().UTC()}
}
