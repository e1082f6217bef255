package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAnalyzeProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{
  "name": "acme-app",
  "version": "1.4.0",
  "dependencies": {"react": "^18.2.0", "react-dom": "^18.2.0"}
}`)
	writeFile(t, root, "yarn.lock", "")
	writeFile(t, root, "tsconfig.json", "{}")
	writeFile(t, root, "src/index.js", "export {};\n")
	writeFile(t, root, "src/components/App.test.js", "test('x', () => {});\n")
	writeFile(t, root, "docs/setup.md", "# Setup\n")
	writeFile(t, root, ".github/workflows/ci.yml", "on: push\n")
	// Anything under node_modules must be invisible to the walk.
	writeFile(t, root, "node_modules/react/index.js", "module.exports = {};\n")

	probe := &fakeProbe{dir: root}
	a := New(probe, testConfig())

	project, err := a.analyzeProject()
	require.NoError(t, err)

	assert.Equal(t, "react", project.Framework)
	assert.Equal(t, "frontend", project.ProjectType)
	assert.Equal(t, "yarn", project.BuildSystem)
	assert.Equal(t, "acme-app", project.Metadata["name"])
	assert.Equal(t, "1.4.0", project.Metadata["version"])

	assert.Equal(t, 7, project.Structure.TotalFiles)
	assert.Equal(t, 1, project.Structure.SourceFiles)
	assert.Equal(t, 1, project.Structure.TestFiles)
	assert.Equal(t, 1, project.Structure.DocFiles)
	assert.Equal(t, 1, project.Structure.CIFiles)

	assert.True(t, project.Configuration.HasManifest)
	assert.True(t, project.Configuration.HasLockfile)
	assert.True(t, project.Configuration.HasCompiler)
	assert.True(t, project.Configuration.HasCI)
	assert.False(t, project.Configuration.HasLinter)
}

func TestAnalyzeProjectEmptyDir(t *testing.T) {
	probe := &fakeProbe{dir: t.TempDir()}
	a := New(probe, testConfig())

	project, err := a.analyzeProject()
	require.NoError(t, err)

	assert.Equal(t, "unknown", project.ProjectType)
	assert.Empty(t, project.Framework)
	assert.Zero(t, project.Structure.TotalFiles)
}

func TestDetectFramework(t *testing.T) {
	root := t.TempDir()

	manifest := manifestInfo{Dependencies: map[string]string{
		"react": "^18.2.0", "react-dom": "^18.2.0", "express": "^4.18.0",
	}}

	framework, projectType := detectFramework(root, manifest)
	assert.Equal(t, "react", framework)
	assert.Equal(t, "frontend", projectType)

	// A next.config.js plus the next dependency outranks plain react.
	writeFile(t, root, "next.config.js", "module.exports = {};\n")
	manifest.Dependencies["next"] = "^14.0.0"
	framework, projectType = detectFramework(root, manifest)
	assert.Equal(t, "next.js", framework)
	assert.Equal(t, "fullstack", projectType)
}

func TestDetectFrameworkMetaFrameworkWinsOverConstituent(t *testing.T) {
	root := t.TempDir()

	// Every nuxt app also depends on vue; nuxt must still win, and without
	// the nuxt package vue must win even though nuxt's signature lists vue.
	manifest := manifestInfo{Dependencies: map[string]string{"vue": "^3.4.0"}}
	framework, projectType := detectFramework(root, manifest)
	assert.Equal(t, "vue", framework)
	assert.Equal(t, "frontend", projectType)

	manifest.Dependencies["nuxt"] = "^3.11.0"
	framework, projectType = detectFramework(root, manifest)
	assert.Equal(t, "nuxt", framework)
	assert.Equal(t, "fullstack", projectType)
}

func TestDetectFrameworkNoSignals(t *testing.T) {
	framework, projectType := detectFramework(t.TempDir(), manifestInfo{})
	assert.Empty(t, framework)
	assert.Empty(t, projectType)
}

func TestReadCoverage(t *testing.T) {
	root := t.TempDir()

	coverage := readCoverage(root, 3)
	assert.False(t, coverage.HasReport)
	assert.Equal(t, 3, coverage.TestFileCount)

	writeFile(t, root, "coverage/coverage-summary.json", `{"total": {"lines": {"pct": 82.5}}}`)
	coverage = readCoverage(root, 3)
	assert.True(t, coverage.HasReport)
	assert.InDelta(t, 82.5, coverage.LinePercent, 0.01)
}

func TestIsDocPath(t *testing.T) {
	assert.True(t, isDocPath("README.md"))
	assert.True(t, isDocPath("docs/guide.html"))
	assert.False(t, isDocPath("src/app.js"))
}

func TestIsCIPath(t *testing.T) {
	assert.True(t, isCIPath(".github/workflows/ci.yml"))
	assert.True(t, isCIPath(".circleci/config.yml"))
	assert.True(t, isCIPath("Jenkinsfile"))
	assert.False(t, isCIPath("src/ci.js"))
}
