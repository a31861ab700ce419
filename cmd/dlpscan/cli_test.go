package dlpscan

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlpscan/dlpscan/internal/audit"
	"github.com/dlpscan/dlpscan/internal/scanner"
)

var phoneRe = regexp.MustCompile(`\b\d{2}-\d{10}\b`)

// fakeDLP answers content:inspect by matching PHONE_NUMBER and any custom
// regexes against the submitted text.
func fakeDLP(t *testing.T) (*httptest.Server, *[]scanner.InspectRequest) {
	t.Helper()
	var seen []scanner.InspectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v2/infoTypes" {
			_, _ = io.WriteString(w, `{"infoTypes":[{"name":"PHONE_NUMBER","displayName":"Phone number","supportedBy":["INSPECT"]},{"name":"EMAIL_ADDRESS","displayName":"Email address","supportedBy":["INSPECT"]}]}`)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/content:inspect") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`)
			return
		}
		var req scanner.InspectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		seen = append(seen, req)

		var out scanner.InspectResponse
		text := req.Item.Value
		for _, it := range req.InspectConfig.InfoTypes {
			if it.Name != "PHONE_NUMBER" {
				continue
			}
			for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
				out.Result.Findings = append(out.Result.Findings, located(text, loc, it, "VERY_LIKELY"))
			}
		}
		for _, c := range req.InspectConfig.CustomInfoTypes {
			re := regexp.MustCompile(c.Regex.Pattern)
			for _, loc := range re.FindAllStringIndex(text, -1) {
				out.Result.Findings = append(out.Result.Findings, located(text, loc, c.InfoType, c.Likelihood))
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func located(text string, loc []int, it scanner.InfoType, likelihood string) scanner.InspectFinding {
	return scanner.InspectFinding{
		Quote:      text[loc[0]:loc[1]],
		InfoType:   it,
		Likelihood: likelihood,
		Location:   &scanner.FindingLocation{ByteRange: &scanner.Range{Start: int64(loc[0]), End: int64(loc[1])}},
	}
}

// setupCLI isolates the CLI from the user's environment and points it at srv.
func setupCLI(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("DLPSCAN_ENDPOINT", srv.URL)
	t.Setenv("DLPSCAN_ACCESS_TOKEN", "test-token")
	t.Setenv("DLPSCAN_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("DLPSCAN_LOG_LEVEL", "error")
	resetFlags(rootCmd)
	return dir
}

// resetFlags restores every flag to its default between in-process runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	code := run(args)
	return out.String(), code
}

const sample = "My aadhaar card number is 1111-1111-1111 . My phone number is 91-9876543210"

func TestCLI_Demo(t *testing.T) {
	srv, seen := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "demo")
	require.Equal(t, 0, code, out)

	want := "----EXTRACTION OF PHONE NUMBER BY INBUILT INFOTYPE ----\n" +
		"Quote: 91-9876543210\nInfo type: PHONE_NUMBER\nLikelihood: VERY_LIKELY\n" +
		"----EXTRACTION OF AADHAAR CARD NUMBER BY CUSTOM BUILT INFOTYPE ----\n" +
		"Quote: 1111-1111-1111\nInfo type: AADHAAR\nLikelihood: POSSIBLE\n"
	assert.Equal(t, want, out)

	require.Len(t, *seen, 2)
	assert.Equal(t, "LIKELY", (*seen)[0].InspectConfig.MinLikelihood)
	assert.Equal(t, "POSSIBLE", (*seen)[1].InspectConfig.MinLikelihood)
	assert.Empty(t, (*seen)[1].InspectConfig.InfoTypes)
}

func TestCLI_ScanArgs_JSON(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "scan", "--json", sample)
	require.Equal(t, 0, code, out)

	var arr []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &arr), out)
	require.Len(t, arr, 1)
	assert.Equal(t, "PHONE_NUMBER", arr[0]["info_type"])
	assert.Equal(t, "91-9876543210", arr[0]["quote"])
}

func TestCLI_ScanStdin_NoFindings(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "nothing sensitive here", "scan")
	require.Equal(t, 0, code)
	assert.Equal(t, "No findings.\n", out)
}

func TestCLI_ScanCustomOnly(t *testing.T) {
	srv, seen := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, sample, "scan", "--custom", "AADHAAR=[1-9]{4}-[1-9]{4}-[1-9]{4}@possible")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Quote: 1111-1111-1111\nInfo type: AADHAAR\nLikelihood: POSSIBLE\n")
	assert.NotContains(t, out, "PHONE_NUMBER")

	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].InspectConfig.InfoTypes)
	assert.Equal(t, "POSSIBLE", (*seen)[0].InspectConfig.MinLikelihood)
}

func TestCLI_ScanFiles_SARIF(t *testing.T) {
	srv, seen := fakeDLP(t)
	dir := setupCLI(t, srv)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "app", "a.log"), []byte("call 91-9876543210"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "b.log"), []byte("nothing"), 0o644))

	out, code := execute(t, "", "scan", "--sarif", "--file", "logs/**/*.log")
	require.Equal(t, 0, code, out)
	assert.Len(t, *seen, 2)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, "2.1.0", doc["version"])
	assert.Contains(t, out, "a.log")
	assert.NotContains(t, out, "9876543210")
}

func TestCLI_ScanRedact(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "scan", "--redact", sample)
	require.Equal(t, 0, code, out)
	assert.Equal(t, "My aadhaar card number is 1111-1111-1111 . My phone number is [PHONE_NUMBER]\n", out)
}

func TestCLI_ScanCacheSkipsUnchangedInput(t *testing.T) {
	srv, seen := fakeDLP(t)
	dir := setupCLI(t, srv)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(sample), 0o644))

	first, code := execute(t, "", "scan", "--cache", "--file", "notes.txt")
	require.Equal(t, 0, code, first)
	require.Len(t, *seen, 1)

	resetFlags(rootCmd)
	second, code := execute(t, "", "scan", "--cache", "--file", "notes.txt")
	require.Equal(t, 0, code, second)
	assert.Len(t, *seen, 1, "unchanged input should be served from the cache")
	assert.Equal(t, first, second)

	resetFlags(rootCmd)
	_, code = execute(t, "", "scan", "--cache", "--min-likelihood", "possible", "--file", "notes.txt")
	require.Equal(t, 0, code)
	assert.Len(t, *seen, 2, "a different threshold must miss the cache")

	resetFlags(rootCmd)
	_, code = execute(t, "", "scan", "--cache", "--location", "us-east1", "--file", "notes.txt")
	require.Equal(t, 0, code)
	assert.Len(t, *seen, 3, "a different location must miss the cache")

	resetFlags(rootCmd)
	_, code = execute(t, "", "scan", "--cache", "--location", "europe-west1", "--file", "notes.txt")
	require.Equal(t, 0, code)
	assert.Len(t, *seen, 4, "each location keeps its own result")

	resetFlags(rootCmd)
	other, otherSeen := fakeDLP(t)
	t.Setenv("DLPSCAN_ENDPOINT", other.URL)
	_, code = execute(t, "", "scan", "--cache", "--location", "europe-west1", "--file", "notes.txt")
	require.Equal(t, 0, code)
	assert.Len(t, *otherSeen, 1, "a different endpoint must miss the cache")
	assert.Len(t, *seen, 4)
}

func TestCLI_ScanFilesHonorsIgnoreFile(t *testing.T) {
	srv, seen := fakeDLP(t)
	dir := setupCLI(t, srv)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data", "fixtures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "real.txt"), []byte("nothing"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "fixtures", "fake.txt"), []byte(sample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dlpscanignore"), []byte("fixtures/\n"), 0o644))

	out, code := execute(t, "", "scan", "--file", "data/**/*.txt")
	require.Equal(t, 0, code, out)
	require.Len(t, *seen, 1)
	assert.Equal(t, "nothing", (*seen)[0].Item.Value)
}

func TestCLI_FailOnExitCode(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	_, code := execute(t, "", "scan", "--fail-on", "likely", sample)
	assert.Equal(t, 1, code)

	resetFlags(rootCmd)
	_, code = execute(t, "", "scan", "--fail-on", "none", sample)
	assert.Equal(t, 0, code)
}

func TestCLI_MalformedCustomPatternExits2(t *testing.T) {
	srv, seen := fakeDLP(t)
	setupCLI(t, srv)

	_, code := execute(t, "", "scan", "--custom", "BAD=([", sample)
	assert.Equal(t, 2, code)
	assert.Empty(t, *seen, "no request should reach the service")
}

func TestCLI_MissingProjectExits2(t *testing.T) {
	srv, seen := fakeDLP(t)
	setupCLI(t, srv)
	t.Setenv("DLPSCAN_PROJECT", "")

	_, code := execute(t, "", "scan", sample)
	assert.Equal(t, 2, code)
	assert.Empty(t, *seen)
}

func TestCLI_BaselineSuppressesKnownFindings(t *testing.T) {
	srv, _ := fakeDLP(t)
	dir := setupCLI(t, srv)

	out, code := execute(t, "", "baseline", "update", sample)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Baseline updated (1 findings)")
	_, err := os.Stat(filepath.Join(dir, "dlpscan.baseline.json"))
	require.NoError(t, err)

	resetFlags(rootCmd)
	out, code = execute(t, "", "scan", "--fail-on", "likely", sample)
	assert.Equal(t, 0, code)
	assert.Equal(t, "No findings.\n", out)
}

func TestCLI_AuditLog(t *testing.T) {
	srv, _ := fakeDLP(t)
	dir := setupCLI(t, srv)

	_, code := execute(t, "", "scan", "--audit", sample)
	require.Equal(t, 0, code)

	history, err := audit.NewAuditLog(filepath.Join(dir, audit.DefaultFile)).LoadHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "test-project", history[0].Scope)
	assert.Equal(t, 1, history[0].TotalFindings)
	raw, _ := os.ReadFile(filepath.Join(dir, audit.DefaultFile))
	assert.NotContains(t, string(raw), "9876543210")
}

func TestCLI_AuditHistory(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "audit", "history")
	require.Equal(t, 0, code, out)
	assert.Equal(t, "No scans recorded.\n", out)

	resetFlags(rootCmd)
	_, code = execute(t, "", "scan", "--audit", sample)
	require.Equal(t, 0, code)
	resetFlags(rootCmd)
	_, code = execute(t, "nothing here", "scan", "--audit")
	require.Equal(t, 0, code)

	resetFlags(rootCmd)
	out, code = execute(t, "", "audit", "history", "--json", "--limit", "1")
	require.Equal(t, 0, code, out)
	var recs []audit.ScanRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs), out)
	require.Len(t, recs, 1)
	assert.Equal(t, "stdin", recs[0].Source, "newest scan first")

	resetFlags(rootCmd)
	out, code = execute(t, "", "audit", "history")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "SCAN ID")
	assert.Contains(t, out, "test-project")
	assert.NotContains(t, out, "9876543210")
}

func TestCLI_InfoTypes(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "infotypes", "--filter", "email")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "EMAIL_ADDRESS")
	assert.NotContains(t, out, "PHONE_NUMBER")
}

func TestCLI_Likelihoods(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "likelihoods")
	require.Equal(t, 0, code)
	assert.Equal(t, "VERY_UNLIKELY\nUNLIKELY\nPOSSIBLE\nLIKELY\nVERY_LIKELY\n", out)
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	srv, _ := fakeDLP(t)
	dir := setupCLI(t, srv)
	t.Setenv("DLPSCAN_PROJECT", "")

	out, code := execute(t, "", "config", "init", "--project", "from-file", "--example-custom")
	require.Equal(t, 0, code, out)
	b, err := os.ReadFile(filepath.Join(dir, ".dlpscan.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "project: from-file")
	assert.Contains(t, string(b), "AADHAAR")

	resetFlags(rootCmd)
	_, code = execute(t, "", "config", "init")
	assert.Equal(t, 2, code, "refuses to overwrite without --force")

	resetFlags(rootCmd)
	out, code = execute(t, "", "config", "show")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "project: from-file")
	assert.Contains(t, out, "min_likelihood: LIKELY")
	assert.NotContains(t, out, "test-token")
}

func TestCLI_UnparsableConfigExits2(t *testing.T) {
	srv, seen := fakeDLP(t)
	dir := setupCLI(t, srv)
	body := "custom:\n  - name: AADHAAR\n    pattern: '[1-9]{4}-[1-9]{4}-[1-9]{4}'\n    likelihood: probable\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dlpscan.yml"), []byte(body), 0o644))

	out, code := execute(t, "", "scan", "aadhaar 1111-1111-1111")
	assert.Equal(t, 2, code, out)
	assert.Empty(t, *seen, "a broken config must not fall back to defaults")
	assert.NotContains(t, out, "No findings.")
}

func TestCLI_ConfigInitGitignore(t *testing.T) {
	srv, _ := fakeDLP(t)
	dir := setupCLI(t, srv)

	out, code := execute(t, "", "config", "init", "--gitignore")
	require.Equal(t, 0, code, out)
	b, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, ".dlpscan_audit.jsonl\n.dlpscan_cache.json\n", string(b))
}

func TestCLI_Completion(t *testing.T) {
	srv, _ := fakeDLP(t)
	setupCLI(t, srv)

	out, code := execute(t, "", "completion", "bash")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "dlpscan")

	resetFlags(rootCmd)
	_, code = execute(t, "", "completion", "tcsh")
	assert.Equal(t, 2, code)

	resetFlags(rootCmd)
	out, code = execute(t, "", cobra.ShellCompRequestCmd, "scan", "--min-likelihood", "")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "POSSIBLE")
	assert.NotContains(t, out, "none")

	resetFlags(rootCmd)
	out, code = execute(t, "", cobra.ShellCompRequestCmd, "scan", "--fail-on", "")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "VERY_LIKELY")

	resetFlags(rootCmd)
	out, code = execute(t, "", cobra.ShellCompRequestCmd, "scan", "--info-types", "")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "PHONE_NUMBER")
}

func TestParseCustom(t *testing.T) {
	d, err := parseCustom("EMAIL=[a-z]+@[a-z]+\\.com")
	require.NoError(t, err)
	assert.Equal(t, "EMAIL", d.Name)
	assert.Equal(t, `[a-z]+@[a-z]+\.com`, d.Pattern)
	assert.Equal(t, "POSSIBLE", d.Likelihood.String())

	d, err = parseCustom("EMP=E\\d{6}@very_likely")
	require.NoError(t, err)
	assert.Equal(t, `E\d{6}`, d.Pattern)
	assert.Equal(t, "VERY_LIKELY", d.Likelihood.String())

	_, err = parseCustom("=x")
	assert.Error(t, err)
	_, err = parseCustom("NAME")
	assert.Error(t, err)
}
