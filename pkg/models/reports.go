package models

// RiskLevel grades an aggregate finding.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity grades a single finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ComplexityLevel buckets an average complexity score.
type ComplexityLevel string

const (
	ComplexityLow      ComplexityLevel = "low"
	ComplexityMedium   ComplexityLevel = "medium"
	ComplexityHigh     ComplexityLevel = "high"
	ComplexityVeryHigh ComplexityLevel = "very_high"
)

// ComplexityLevelFor maps an average score onto a level. Thresholds: <=5
// low, <=10 medium, <=20 high, else very_high.
func ComplexityLevelFor(averageScore float64) ComplexityLevel {
	switch {
	case averageScore <= 5:
		return ComplexityLow
	case averageScore <= 10:
		return ComplexityMedium
	case averageScore <= 20:
		return ComplexityHigh
	default:
		return ComplexityVeryHigh
	}
}

// FileStatus is the change status of one file in the diff.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
	StatusCopied   FileStatus = "copied"
	StatusUnmerged FileStatus = "unmerged"
)

// ChangedFile is one entry of the name-status diff.
type ChangedFile struct {
	Path         string     `json:"path"`
	Status       FileStatus `json:"status"`
	Extension    string     `json:"extension"`
	IsJavaScript bool       `json:"is_javascript"`
	IsConfig     bool       `json:"is_config"`
	IsTest       bool       `json:"is_test"`
}

// CodeContext aggregates everything derived from the change set itself.
type CodeContext struct {
	HasChanges   bool             `json:"has_changes"`
	ChangedFiles []ChangedFile    `json:"changed_files"`
	Complexity   ComplexityReport `json:"complexity"`
	Security     SecurityReport   `json:"security"`
	Dependencies DependencyDelta  `json:"dependencies"`
	Source       []FileFacts      `json:"source,omitempty"`
	Metrics      CodeMetrics      `json:"metrics"`
}

// ComplexityReport scores the changed source files.
type ComplexityReport struct {
	TotalScore   int              `json:"total_score"`
	AverageScore float64          `json:"average_score"`
	Level        ComplexityLevel  `json:"level"`
	Files        []FileComplexity `json:"files,omitempty"`
}

// FileComplexity is the per-file breakdown. Estimated marks scores derived
// from line count because the file could not be parsed.
type FileComplexity struct {
	Path         string   `json:"path"`
	Score        int      `json:"score"`
	Functions    int      `json:"functions"`
	Classes      int      `json:"classes"`
	Conditionals int      `json:"conditionals"`
	Loops        int      `json:"loops"`
	MaxDepth     int      `json:"max_depth"`
	Lines        int      `json:"lines"`
	Issues       []string `json:"issues,omitempty"`
	Estimated    bool     `json:"estimated,omitempty"`
}

// FileFacts records the declarations parsed out of one source file.
type FileFacts struct {
	Path      string   `json:"path"`
	Functions []string `json:"functions,omitempty"`
	Classes   []string `json:"classes,omitempty"`
	Imports   []string `json:"imports,omitempty"`
	Exports   []string `json:"exports,omitempty"`
}

// SecurityReport aggregates findings from the pattern scan and the
// ecosystem audit.
type SecurityReport struct {
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	Issues          []string        `json:"issues,omitempty"`
}

// Vulnerability is a single security finding. File/Line/Code are set for
// pattern-scan findings, Package/Via for audit findings.
type Vulnerability struct {
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Code     string   `json:"code,omitempty"`
	Package  string   `json:"package,omitempty"`
	Via      []string `json:"via,omitempty"`
}

// SecurityRisk computes the aggregate risk for a set of vulnerabilities:
// any high finding makes it high, more than two medium findings make it
// medium, any finding at all makes it low.
func SecurityRisk(vulns []Vulnerability) RiskLevel {
	mediums := 0
	for _, v := range vulns {
		switch v.Severity {
		case SeverityHigh:
			return RiskHigh
		case SeverityMedium:
			mediums++
		}
	}
	if mediums > 2 {
		return RiskMedium
	}
	if len(vulns) > 0 {
		return RiskLow
	}
	return RiskNone
}

// DependencyChange is one manifest entry that differs between the old and
// new manifest.
type DependencyChange struct {
	Name       string `json:"name"`
	OldVersion string `json:"old_version,omitempty"`
	NewVersion string `json:"new_version,omitempty"`
	Dev        bool   `json:"dev,omitempty"`
}

// DependencyDelta is the parsed manifest diff. An update lands in
// BreakingChanges iff its major version strictly increases.
type DependencyDelta struct {
	Added           []DependencyChange `json:"added,omitempty"`
	Updated         []DependencyChange `json:"updated,omitempty"`
	Removed         []DependencyChange `json:"removed,omitempty"`
	DevDependencies []DependencyChange `json:"dev_dependencies,omitempty"`
	SecurityUpdates []DependencyChange `json:"security_updates,omitempty"`
	BreakingChanges []DependencyChange `json:"breaking_changes,omitempty"`
}

// CodeMetrics are coarse counters over the change set.
type CodeMetrics struct {
	TotalFiles  int `json:"total_files"`
	SourceFiles int `json:"source_files"`
	TestFiles   int `json:"test_files"`
	ConfigFiles int `json:"config_files"`
	Additions   int `json:"additions"`
	Deletions   int `json:"deletions"`
}

// ProjectContext describes the repository the change set lives in.
type ProjectContext struct {
	Structure     ProjectStructure     `json:"structure"`
	Configuration ProjectConfiguration `json:"configuration"`
	ProjectType   string               `json:"project_type"`
	Framework     string               `json:"framework,omitempty"`
	TestCoverage  TestCoverage         `json:"test_coverage"`
	BuildSystem   string               `json:"build_system,omitempty"`
	Metadata      map[string]string    `json:"metadata,omitempty"`
}

// ProjectStructure counts files by category across the working copy.
type ProjectStructure struct {
	TotalFiles  int            `json:"total_files"`
	ByExtension map[string]int `json:"by_extension,omitempty"`
	SourceFiles int            `json:"source_files"`
	TestFiles   int            `json:"test_files"`
	DocFiles    int            `json:"doc_files"`
	ConfigFiles int            `json:"config_files"`
	CIFiles     int            `json:"ci_files"`
}

// ProjectConfiguration records which well-known configuration files were
// found at the repository root.
type ProjectConfiguration struct {
	Files        []string `json:"files,omitempty"`
	HasManifest  bool     `json:"has_manifest"`
	HasLockfile  bool     `json:"has_lockfile"`
	HasCompiler  bool     `json:"has_compiler"`
	HasLinter    bool     `json:"has_linter"`
	HasFormatter bool     `json:"has_formatter"`
	HasBundler   bool     `json:"has_bundler"`
	HasTests     bool     `json:"has_tests"`
	HasContainer bool     `json:"has_container"`
	HasCI        bool     `json:"has_ci"`
}

// TestCoverage reports test presence and, when a coverage summary exists on
// disk, the measured line coverage.
type TestCoverage struct {
	TestFileCount int     `json:"test_file_count"`
	HasReport     bool    `json:"has_report"`
	LinePercent   float64 `json:"line_percent,omitempty"`
}
