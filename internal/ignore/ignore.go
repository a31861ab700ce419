package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileName is the per-directory ignore file consulted for --file inputs.
const FileName = ".dlpscanignore"

// Matcher holds gitignore-style patterns: "dir/" excludes a directory tree,
// a bare "*.pem" matches a base name anywhere, and a pattern containing "/"
// is matched against the whole slash-separated path. "**" is supported.
type Matcher struct {
	patterns []string
}

// Load reads patterns from path, skipping blank lines and # comments.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		return Matcher{}, err
	}
	defer f.Close()

	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
	}
	return m, sc.Err()
}

// Match reports whether p is excluded by any pattern.
func (m Matcher) Match(p string) bool {
	p = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "./")
	base := path.Base(p)
	for _, pat := range m.patterns {
		switch {
		case strings.HasSuffix(pat, "/"):
			dir := strings.Trim(pat, "/")
			if ok, _ := doublestar.Match(dir+"/**", p); ok {
				return true
			}
			if ok, _ := doublestar.Match("**/"+dir+"/**", p); ok {
				return true
			}
		case strings.Contains(pat, "/"):
			if ok, _ := doublestar.Match(strings.TrimPrefix(pat, "/"), p); ok {
				return true
			}
		default:
			if ok, _ := doublestar.Match(pat, base); ok {
				return true
			}
		}
	}
	return false
}
