package analyzer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

//go:embed patterns.yaml
var patternsYAML []byte

// securityPattern is one entry of the pattern table.
type securityPattern struct {
	Pattern         string `yaml:"pattern"`
	Type            string `yaml:"type"`
	Severity        string `yaml:"severity"`
	CaseInsensitive bool   `yaml:"case_insensitive"`
	Message         string `yaml:"message"`

	re *regexp.Regexp
}

// securityPatterns is the compiled pattern table, loaded once at startup
// from the embedded data file so it stays testable and extensible without
// touching scanner code.
var securityPatterns = mustLoadPatterns(patternsYAML)

func mustLoadPatterns(data []byte) []securityPattern {
	var table struct {
		Patterns []securityPattern `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		panic(fmt.Sprintf("invalid security pattern table: %v", err))
	}
	for i := range table.Patterns {
		expr := table.Patterns[i].Pattern
		if table.Patterns[i].CaseInsensitive {
			expr = "(?i)" + expr
		}
		table.Patterns[i].re = regexp.MustCompile(expr)
	}
	return table.Patterns
}

// scanSecurity runs the textual pattern pass over the changed source files
// and merges in ecosystem audit findings when the audit tool is available.
func (a *Analyzer) scanSecurity(sources []sourceFile) models.SecurityReport {
	var report models.SecurityReport

	for _, src := range sources {
		report.Vulnerabilities = append(report.Vulnerabilities, ScanContent(src.path, src.content)...)
	}

	auditVulns, err := a.runAudit()
	if err != nil {
		// The audit is best-effort; record the failure and move on.
		report.Issues = append(report.Issues, fmt.Sprintf("dependency audit unavailable: %v", err))
	} else {
		report.Vulnerabilities = append(report.Vulnerabilities, auditVulns...)
	}

	report.RiskLevel = models.SecurityRisk(report.Vulnerabilities)
	return report
}

// ScanContent applies the pattern table to one file's content. Line numbers
// count newlines before each match.
func ScanContent(path, content string) []models.Vulnerability {
	var vulns []models.Vulnerability
	for _, p := range securityPatterns {
		for _, loc := range p.re.FindAllStringIndex(content, -1) {
			line := strings.Count(content[:loc[0]], "\n") + 1
			vulns = append(vulns, models.Vulnerability{
				File:     path,
				Line:     line,
				Type:     p.Type,
				Severity: models.Severity(p.Severity),
				Message:  p.Message,
				Code:     snippet(content, loc[0], loc[1]),
			})
		}
	}
	return vulns
}

// snippet returns the full line containing the match.
func snippet(content string, start, end int) string {
	lineStart := strings.LastIndex(content[:start], "\n") + 1
	lineEnd := strings.Index(content[end:], "\n")
	if lineEnd < 0 {
		lineEnd = len(content)
	} else {
		lineEnd += end
	}
	return strings.TrimSpace(content[lineStart:lineEnd])
}

// runAudit invokes npm audit and converts its findings. Absence of the
// tool or a manifest is reported as an error the caller downgrades.
func (a *Analyzer) runAudit() ([]models.Vulnerability, error) {
	npm, err := exec.LookPath("npm")
	if err != nil {
		return nil, fmt.Errorf("npm not found")
	}

	cmd := exec.Command(npm, "audit", "--json")
	cmd.Dir = a.probe.Dir()
	// npm audit exits non-zero when vulnerabilities exist; the JSON output
	// is still valid in that case.
	out, _ := cmd.Output()
	if len(out) == 0 {
		return nil, fmt.Errorf("npm audit produced no output")
	}

	var audit struct {
		Vulnerabilities map[string]struct {
			Severity string            `json:"severity"`
			Via      []json.RawMessage `json:"via"`
		} `json:"vulnerabilities"`
	}
	if err := json.Unmarshal(out, &audit); err != nil {
		return nil, fmt.Errorf("failed to parse npm audit output: %w", err)
	}

	var vulns []models.Vulnerability
	for pkg, finding := range audit.Vulnerabilities {
		severity := models.SeverityLow
		switch finding.Severity {
		case "critical", "high":
			severity = models.SeverityHigh
		case "moderate", "medium":
			severity = models.SeverityMedium
		}
		var via []string
		for _, raw := range finding.Via {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				via = append(via, s)
				continue
			}
			var obj struct {
				Title string `json:"title"`
			}
			if err := json.Unmarshal(raw, &obj); err == nil && obj.Title != "" {
				via = append(via, obj.Title)
			}
		}
		vulns = append(vulns, models.Vulnerability{
			Type:     "vulnerable_dependency",
			Severity: severity,
			Message:  fmt.Sprintf("dependency %s has known vulnerabilities", pkg),
			Package:  pkg,
			Via:      via,
		})
	}
	if len(vulns) > 0 {
		logging.Info("dependency audit findings", "count", len(vulns))
	}
	return vulns, nil
}
