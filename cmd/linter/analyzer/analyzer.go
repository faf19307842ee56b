package analyzer

import (
	"go/ast"
	"go/types"
	"strconv"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "forbiddencalls"
	analyzerDoc  = "reports panic, log.Fatal and os.Exit outside main.main, and math/rand outside the generator package"

	// generatorPackage is the only package allowed to import math/rand.
	generatorPackage = "generator"
)

// Analyzer checks for forbidden calls and imports.
var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.ImportSpec)(nil),
		(*ast.FuncDecl)(nil),
	}

	insp.Preorder(nodeFilter, func(node ast.Node) {
		switch n := node.(type) {
		case *ast.ImportSpec:
			checkImport(pass, n)
		case *ast.FuncDecl:
			if n.Body == nil {
				return
			}
			allowExit := pass.Pkg.Name() == "main" && n.Recv == nil && n.Name.Name == "main"
			ast.Inspect(n.Body, func(inner ast.Node) bool {
				if call, ok := inner.(*ast.CallExpr); ok {
					checkCall(pass, call, allowExit)
				}
				return true
			})
		}
	})

	return nil, nil
}

func checkImport(pass *analysis.Pass, spec *ast.ImportSpec) {
	path, err := strconv.Unquote(spec.Path.Value)
	if err != nil {
		return
	}

	if (path == "math/rand" || path == "math/rand/v2") && pass.Pkg.Name() != generatorPackage {
		pass.Reportf(spec.Pos(), "%s is forbidden outside the %s package, use crypto/rand", path, generatorPackage)
	}
}

func checkCall(pass *analysis.Pass, call *ast.CallExpr, allowExit bool) {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		if fn.Name == "panic" && isBuiltin(pass, fn) {
			pass.Reportf(call.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		if allowExit {
			return
		}
		switch pkgPath, name := importedFunc(pass, fn); {
		case pkgPath == "log" && (name == "Fatal" || name == "Fatalf" || name == "Fatalln"):
			pass.Reportf(call.Pos(), "log.%s is forbidden outside main function", name)
		case pkgPath == "os" && name == "Exit":
			pass.Reportf(call.Pos(), "os.Exit is forbidden outside main function")
		}
	}
}

func isBuiltin(pass *analysis.Pass, ident *ast.Ident) bool {
	if pass.TypesInfo == nil {
		return true
	}
	_, ok := pass.TypesInfo.Uses[ident].(*types.Builtin)
	return ok
}

// importedFunc returns the import path and name of a pkg.Func selector,
// or empty strings when the selector is not a package-qualified call.
func importedFunc(pass *analysis.Pass, sel *ast.SelectorExpr) (string, string) {
	ident, ok := sel.X.(*ast.Ident)
	if !ok || pass.TypesInfo == nil {
		return "", ""
	}

	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", ""
	}

	return pkgName.Imported().Path(), sel.Sel.Name
}
