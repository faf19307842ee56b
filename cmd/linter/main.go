// Command linter bundles the project analyzers into one multichecker.
//
// Usage from the repository root:
//
//	go run ./cmd/linter ./...
package main

import (
	"github.com/tdakkota/asciicheck"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"

	"github.com/MikhailRaia/tinyu/cmd/linter/analyzer"
)

func main() {
	multichecker.Main(
		analyzer.Analyzer,
		asciicheck.NewAnalyzer(),
		printf.Analyzer,
		shadow.Analyzer,
		structtag.Analyzer,
	)
}
