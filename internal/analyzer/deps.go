package analyzer

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// depLinePattern matches a removed or added manifest entry like
// `-    "react": "^17.0.2",`.
var depLinePattern = regexp.MustCompile(`^([+-])\s*"([^"]+)"\s*:\s*"([^"]+)"`)

// versionCorePattern extracts the numeric core of a version range.
var versionCorePattern = regexp.MustCompile(`\d+(\.\d+)*`)

// versionValuePattern recognizes values that look like version ranges or
// package specifiers, as opposed to script bodies.
var versionValuePattern = regexp.MustCompile(`^(?:[~^><=\s]*\d|v\d|\*$|latest$|workspace:|file:|link:|npm:)`)

type manifestLine struct {
	sign    byte
	name    string
	version string
	dev     bool
}

// ParseManifestDiff reads the package.json portion of the diff and pairs
// adjacent removed/added lines of the same package as updates; unmatched
// lines become removals or additions. Updates whose major version strictly
// increases are flagged as breaking.
func ParseManifestDiff(diff string) models.DependencyDelta {
	var delta models.DependencyDelta

	section := extractFileDiff(diff, "package.json")
	if section == "" {
		return delta
	}

	lines := collectManifestLines(section)
	for i := 0; i < len(lines); i++ {
		cur := lines[i]
		if cur.sign == '-' && i+1 < len(lines) && lines[i+1].sign == '+' && lines[i+1].name == cur.name {
			next := lines[i+1]
			change := models.DependencyChange{
				Name:       cur.name,
				OldVersion: cur.version,
				NewVersion: next.version,
				Dev:        next.dev,
			}
			delta.Updated = append(delta.Updated, change)
			if isBreakingUpdate(cur.version, next.version) {
				delta.BreakingChanges = append(delta.BreakingChanges, change)
			}
			if next.dev {
				delta.DevDependencies = append(delta.DevDependencies, change)
			}
			i++
			continue
		}

		change := models.DependencyChange{Name: cur.name, Dev: cur.dev}
		if cur.sign == '-' {
			change.OldVersion = cur.version
			delta.Removed = append(delta.Removed, change)
		} else {
			change.NewVersion = cur.version
			delta.Added = append(delta.Added, change)
		}
		if cur.dev {
			delta.DevDependencies = append(delta.DevDependencies, change)
		}
	}
	return delta
}

// depBlock is what the parser currently believes the surrounding manifest
// block to be. Hunks routinely start mid-block with no header in context,
// so "unknown" is a working state, not an error.
type depBlock int

const (
	blockUnknown depBlock = iota
	blockDeps
	blockDevDeps
	blockOther
)

// collectManifestLines extracts the changed dependency entries. Block
// headers in context classify entries as dependencies, devDependencies, or
// something else entirely; without a header in context, entries whose
// values look like version ranges are taken as dependency changes.
func collectManifestLines(section string) []manifestLine {
	var lines []manifestLine
	block := blockUnknown

	for _, raw := range strings.Split(section, "\n") {
		if strings.HasPrefix(raw, "@@") {
			// A new hunk can open anywhere in the manifest.
			block = blockUnknown
			continue
		}
		content := raw
		if len(content) > 0 && (content[0] == '+' || content[0] == '-' || content[0] == ' ') {
			content = content[1:]
		}
		trimmed := strings.TrimSpace(content)
		switch {
		case strings.HasPrefix(trimmed, `"devDependencies"`):
			block = blockDevDeps
			continue
		case strings.HasPrefix(trimmed, `"dependencies"`):
			block = blockDeps
			continue
		case strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, "{"):
			// Some other top-level object, e.g. "scripts": {
			block = blockOther
			continue
		case trimmed == "}" || trimmed == "},":
			block = blockUnknown
			continue
		}
		if block == blockOther {
			continue
		}
		m := depLinePattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if block == blockUnknown && !versionValuePattern.MatchString(m[3]) {
			continue
		}
		lines = append(lines, manifestLine{
			sign:    m[1][0],
			name:    m[2],
			version: m[3],
			dev:     block == blockDevDeps,
		})
	}
	return lines
}

// isBreakingUpdate reports whether the major version strictly increases
// between two version ranges.
func isBreakingUpdate(oldVersion, newVersion string) bool {
	oldV := parseVersion(oldVersion)
	newV := parseVersion(newVersion)
	if oldV == nil || newV == nil {
		return false
	}
	return newV.Major() > oldV.Major()
}

func parseVersion(raw string) *semver.Version {
	core := versionCorePattern.FindString(raw)
	if core == "" {
		return nil
	}
	v, err := semver.NewVersion(core)
	if err != nil {
		return nil
	}
	return v
}

// extractFileDiff returns the diff section for a single file, or the empty
// string when the file was not touched.
func extractFileDiff(diff, file string) string {
	marker := "diff --git a/" + file + " "
	start := strings.Index(diff, marker)
	if start < 0 {
		return ""
	}
	rest := diff[start+len(marker):]
	if end := strings.Index(rest, "\ndiff --git "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
