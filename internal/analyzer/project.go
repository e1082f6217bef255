package analyzer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManagementMO/CodeScribe-sub000/internal/gitops"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

//go:embed frameworks.yaml
var frameworksYAML []byte

// frameworkSignature scores one framework against the manifest and file
// layout. Requires gates the signature entirely: meta-frameworks list their
// constituent dependencies for weight, but only score when the framework
// package itself is present.
type frameworkSignature struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Requires     []string `yaml:"requires"`
	Dependencies []string `yaml:"dependencies"`
	Files        []string `yaml:"files"`
}

var frameworkSignatures = mustLoadFrameworks(frameworksYAML)

func mustLoadFrameworks(data []byte) []frameworkSignature {
	var table struct {
		Frameworks []frameworkSignature `yaml:"frameworks"`
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		panic(fmt.Sprintf("invalid framework signature table: %v", err))
	}
	return table.Frameworks
}

// walkSkipDirs are never descended into during the project walk.
var walkSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, "coverage": true, ".next": true, "out": true,
	".cache": true, "target": true,
}

const maxWalkDepth = 10

// analyzeProject walks the working copy (bounded depth, skipping vendor
// and build paths), categorizes files, probes known configuration files,
// and scores framework signatures.
func (a *Analyzer) analyzeProject() (*models.ProjectContext, error) {
	root := a.probe.Dir()

	project := &models.ProjectContext{
		Metadata: map[string]string{},
	}
	structure := models.ProjectStructure{ByExtension: map[string]int{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(rel), "/")
		if d.IsDir() {
			if walkSkipDirs[d.Name()] || depth >= maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}

		structure.TotalFiles++
		ext := strings.ToLower(filepath.Ext(rel))
		if ext != "" {
			structure.ByExtension[ext]++
		}

		switch {
		case gitops.IsTestPath(rel):
			structure.TestFiles++
		case isDocPath(rel):
			structure.DocFiles++
		case isCIPath(rel):
			structure.CIFiles++
		case gitops.IsConfigPath(rel):
			structure.ConfigFiles++
		case gitops.IsJavaScriptExt(ext):
			structure.SourceFiles++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("project analysis failed: %w", err)
	}
	project.Structure = structure

	project.Configuration = probeConfiguration(root)
	if project.Configuration.HasManifest {
		project.BuildSystem = "npm"
		if _, err := os.Stat(filepath.Join(root, "yarn.lock")); err == nil {
			project.BuildSystem = "yarn"
		} else if _, err := os.Stat(filepath.Join(root, "pnpm-lock.yaml")); err == nil {
			project.BuildSystem = "pnpm"
		}
	}

	manifest := readManifest(root)
	project.Framework, project.ProjectType = detectFramework(root, manifest)
	if project.ProjectType == "" {
		if project.Configuration.HasManifest {
			project.ProjectType = "library"
		} else {
			project.ProjectType = "unknown"
		}
	}
	if manifest.Name != "" {
		project.Metadata["name"] = manifest.Name
	}
	if manifest.Version != "" {
		project.Metadata["version"] = manifest.Version
	}

	project.TestCoverage = readCoverage(root, structure.TestFiles)

	return project, nil
}

func isDocPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".md" || ext == ".rst" || ext == ".adoc" || ext == ".txt" {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.EqualFold(seg, "docs") || strings.EqualFold(seg, "doc") {
			return true
		}
	}
	return false
}

func isCIPath(path string) bool {
	slashed := filepath.ToSlash(path)
	return strings.HasPrefix(slashed, ".github/workflows/") ||
		strings.HasPrefix(slashed, ".gitlab-ci") ||
		strings.HasPrefix(slashed, ".circleci/") ||
		filepath.Base(slashed) == "Jenkinsfile"
}

// knownConfigFiles maps configuration capabilities to the file names that
// indicate them.
var knownConfigFiles = map[string][]string{
	"manifest":  {"package.json"},
	"lockfile":  {"package-lock.json", "yarn.lock", "pnpm-lock.yaml"},
	"compiler":  {"tsconfig.json", "jsconfig.json", "babel.config.js", ".babelrc"},
	"linter":    {".eslintrc", ".eslintrc.js", ".eslintrc.json", ".eslintrc.yml", "eslint.config.js"},
	"formatter": {".prettierrc", ".prettierrc.json", "prettier.config.js"},
	"tests":     {"jest.config.js", "jest.config.ts", "vitest.config.js", "vitest.config.ts", "karma.conf.js"},
	"bundler":   {"webpack.config.js", "vite.config.js", "vite.config.ts", "rollup.config.js", "esbuild.config.js"},
	"container": {"Dockerfile", "docker-compose.yml", "docker-compose.yaml"},
}

func probeConfiguration(root string) models.ProjectConfiguration {
	var cfg models.ProjectConfiguration
	present := func(names []string) (string, bool) {
		for _, name := range names {
			if info, err := os.Stat(filepath.Join(root, name)); err == nil && !info.IsDir() {
				return name, true
			}
		}
		return "", false
	}

	for capability, names := range knownConfigFiles {
		name, ok := present(names)
		if !ok {
			continue
		}
		cfg.Files = append(cfg.Files, name)
		switch capability {
		case "manifest":
			cfg.HasManifest = true
		case "lockfile":
			cfg.HasLockfile = true
		case "compiler":
			cfg.HasCompiler = true
		case "linter":
			cfg.HasLinter = true
		case "formatter":
			cfg.HasFormatter = true
		case "tests":
			cfg.HasTests = true
		case "bundler":
			cfg.HasBundler = true
		case "container":
			cfg.HasContainer = true
		}
	}
	if info, err := os.Stat(filepath.Join(root, ".github", "workflows")); err == nil && info.IsDir() {
		cfg.HasCI = true
	}
	return cfg
}

type manifestInfo struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readManifest(root string) manifestInfo {
	var manifest manifestInfo
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return manifest
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		logging.Debug("failed to parse package.json", "error", err)
	}
	return manifest
}

// detectFramework scores every signature; dependency hits weigh 2, file
// hits weigh 1, highest total wins. Signatures with unmet requirements
// score nothing.
func detectFramework(root string, manifest manifestInfo) (framework, projectType string) {
	best := 0
	for _, sig := range frameworkSignatures {
		if !hasDependencies(manifest, sig.Requires) {
			continue
		}
		score := 0
		for _, dep := range sig.Dependencies {
			if _, ok := manifest.Dependencies[dep]; ok {
				score += 2
			} else if _, ok := manifest.DevDependencies[dep]; ok {
				score += 2
			}
		}
		for _, file := range sig.Files {
			if _, err := os.Stat(filepath.Join(root, file)); err == nil {
				score++
			}
		}
		if score > best {
			best = score
			framework = sig.Name
			projectType = sig.Type
		}
	}
	return framework, projectType
}

func hasDependencies(manifest manifestInfo, deps []string) bool {
	for _, dep := range deps {
		if _, ok := manifest.Dependencies[dep]; ok {
			continue
		}
		if _, ok := manifest.DevDependencies[dep]; ok {
			continue
		}
		return false
	}
	return true
}

// readCoverage ingests a coverage summary when present on disk.
func readCoverage(root string, testFiles int) models.TestCoverage {
	coverage := models.TestCoverage{TestFileCount: testFiles}

	data, err := os.ReadFile(filepath.Join(root, "coverage", "coverage-summary.json"))
	if err != nil {
		return coverage
	}
	var summary struct {
		Total struct {
			Lines struct {
				Pct float64 `json:"pct"`
			} `json:"lines"`
		} `json:"total"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		logging.Debug("failed to parse coverage summary", "error", err)
		return coverage
	}
	coverage.HasReport = true
	coverage.LinePercent = summary.Total.Lines.Pct
	return coverage
}
