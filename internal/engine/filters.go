package engine

import (
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Live-system pseudo filesystems. They are skipped only directly below the
// scan root and only when default excludes are enabled.
var defaultExcludeDirs = map[string]bool{
	"proc": true,
	"sys":  true,
	"dev":  true,
	"run":  true,
}

func isDefaultDirExcluded(rel string) bool {
	return !strings.Contains(rel, "/") && defaultExcludeDirs[rel]
}

// globFilter applies comma-separated include and exclude globs. Include globs,
// if any, act as a positive filter; exclude globs are subtracted last.
type globFilter struct {
	includes []string
	excludes []string
}

func newGlobFilter(include, exclude string) globFilter {
	return globFilter{includes: parseGlobsList(include), excludes: parseGlobsList(exclude)}
}

func (g globFilter) allowed(rel string) bool {
	rp := strings.ReplaceAll(rel, "\\", "/")
	if len(g.includes) > 0 && !matchAnyGlob(rp, g.includes) {
		return false
	}
	if len(g.excludes) > 0 && matchAnyGlob(rp, g.excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, path.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
