package analyzer

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// scoreSource parses one ECMAScript source file and walks the AST counting
// functions, classes, conditionals, and loops while tracking the maximum
// block nesting depth. Score mapping: function/branch +1, class +2, loop
// +2, plus maxDepth/5.
func scoreSource(path, content string) (models.FileComplexity, models.FileFacts, error) {
	ast, err := js.Parse(parse.NewInputString(content), js.Options{})
	if err != nil {
		return models.FileComplexity{}, models.FileFacts{}, err
	}

	v := &sourceVisitor{}
	js.Walk(v, ast)

	fc := models.FileComplexity{
		Path:         path,
		Functions:    v.functions,
		Classes:      v.classes,
		Conditionals: v.conditionals,
		Loops:        v.loops,
		MaxDepth:     v.maxDepth,
		Lines:        countLines(content),
	}
	fc.Score = v.functions + v.conditionals + 2*v.classes + 2*v.loops + v.maxDepth/5
	if v.maxDepth > 4 {
		fc.Issues = append(fc.Issues, "deeply nested code")
	}

	facts := models.FileFacts{
		Path:      path,
		Functions: v.functionNames,
		Classes:   v.classNames,
		Imports:   v.imports,
		Exports:   v.exports,
	}
	return fc, facts, nil
}

// sourceVisitor accumulates counts while walking the AST.
type sourceVisitor struct {
	functions    int
	classes      int
	conditionals int
	loops        int
	depth        int
	maxDepth     int

	functionNames []string
	classNames    []string
	imports       []string
	exports       []string
}

func (v *sourceVisitor) Enter(n js.INode) js.IVisitor {
	switch node := n.(type) {
	case *js.BlockStmt:
		v.depth++
		if v.depth > v.maxDepth {
			v.maxDepth = v.depth
		}
	case *js.FuncDecl:
		v.functions++
		if node.Name != nil {
			v.functionNames = append(v.functionNames, string(node.Name.Data))
		}
	case *js.ArrowFunc:
		v.functions++
	case *js.MethodDecl:
		v.functions++
	case *js.ClassDecl:
		v.classes++
		if node.Name != nil {
			v.classNames = append(v.classNames, string(node.Name.Data))
		}
	case *js.IfStmt, *js.CondExpr, *js.SwitchStmt:
		v.conditionals++
	case *js.ForStmt, *js.ForInStmt, *js.ForOfStmt, *js.WhileStmt, *js.DoWhileStmt:
		v.loops++
	case *js.ImportStmt:
		if module := trimQuotes(string(node.Module)); module != "" {
			v.imports = append(v.imports, module)
		}
	case *js.ExportStmt:
		for _, alias := range node.List {
			if name := string(alias.Binding); name != "" {
				v.exports = append(v.exports, name)
			}
		}
		if module := trimQuotes(string(node.Module)); module != "" {
			v.exports = append(v.exports, "* from "+module)
		}
	}
	return v
}

func (v *sourceVisitor) Exit(n js.INode) {
	if _, ok := n.(*js.BlockStmt); ok {
		v.depth--
	}
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"'`)
}
