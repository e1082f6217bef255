package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

func TestScanContentEval(t *testing.T) {
	content := "const input = read();\nconst result = eval(input);\n"

	vulns := ScanContent("src/run.js", content)

	require.Len(t, vulns, 1)
	assert.Equal(t, "code_injection", vulns[0].Type)
	assert.Equal(t, models.SeverityHigh, vulns[0].Severity)
	assert.Equal(t, "src/run.js", vulns[0].File)
	assert.Equal(t, 2, vulns[0].Line)
	assert.Equal(t, "const result = eval(input);", vulns[0].Code)
}

func TestScanContentPatterns(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		vulnType string
		severity models.Severity
	}{
		{"innerHTML", `el.innerHTML = userInput;`, "xss", models.SeverityMedium},
		{"document.write", `document.write(banner);`, "xss", models.SeverityMedium},
		{"password", `const password = "hunter2";`, "hardcoded_secret", models.SeverityHigh},
		{"api key uppercase", `API_KEY: "sk-123"`, "hardcoded_secret", models.SeverityHigh},
		{"token", `token = "abc123"`, "hardcoded_secret", models.SeverityMedium},
		{"weak random", `const id = Math.random();`, "weak_random", models.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vulns := ScanContent("src/x.js", tt.content)
			require.Len(t, vulns, 1)
			assert.Equal(t, tt.vulnType, vulns[0].Type)
			assert.Equal(t, tt.severity, vulns[0].Severity)
		})
	}
}

func TestScanContentClean(t *testing.T) {
	vulns := ScanContent("src/clean.js", "function add(a, b) {\n  return a + b;\n}\n")
	assert.Empty(t, vulns)
}

func TestScanContentMultipleMatches(t *testing.T) {
	content := "eval(a);\neval(b);\n"

	vulns := ScanContent("src/double.js", content)

	require.Len(t, vulns, 2)
	assert.Equal(t, 1, vulns[0].Line)
	assert.Equal(t, 2, vulns[1].Line)
}

func TestSecurityRisk(t *testing.T) {
	high := models.Vulnerability{Severity: models.SeverityHigh}
	medium := models.Vulnerability{Severity: models.SeverityMedium}
	low := models.Vulnerability{Severity: models.SeverityLow}

	tests := []struct {
		name  string
		vulns []models.Vulnerability
		want  models.RiskLevel
	}{
		{"none", nil, models.RiskNone},
		{"single low", []models.Vulnerability{low}, models.RiskLow},
		{"two mediums stay low", []models.Vulnerability{medium, medium}, models.RiskLow},
		{"three mediums", []models.Vulnerability{medium, medium, medium}, models.RiskMedium},
		{"high wins", []models.Vulnerability{low, medium, high}, models.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.SecurityRisk(tt.vulns))
		})
	}
}
