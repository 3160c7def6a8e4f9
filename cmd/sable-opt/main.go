// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"sable/internal/callgraph"
	"sable/internal/errors"
	"sable/internal/mir"
	"sable/internal/parser"
	"sable/internal/passes"
)

func main() {
	dumpGraph := flag.Bool("dump-callgraph", false, "print the call graph after optimization")
	dotPath := flag.String("dot", "", "write the call graph in Graphviz format to this file")
	noOpt := flag.Bool("no-opt", false, "parse and verify only, skip the optimization pipeline")
	verbosity := flag.Int("v", 0, "log verbosity (0 = quiet)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: sable-opt [flags] <file.smir>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	commonlog.Configure(*verbosity, nil)

	startTime := time.Now()
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}

	module, diags := parser.ParseModule(path, string(source))

	reporter := errors.NewReporter(path, string(source))
	hasErrors := false
	for _, diag := range diags {
		fmt.Print(reporter.Format(diag))
		if !errors.IsWarning(diag.Code) {
			hasErrors = true
		}
	}

	if module != nil && !hasErrors {
		for _, verr := range mir.Verify(module) {
			fmt.Print(reporter.Format(errors.Diagnostic{
				Level:   errors.Error,
				Code:    errors.ErrorVerification,
				Message: verr.Error(),
			}))
			hasErrors = true
		}
	}

	if hasErrors || module == nil {
		color.Red("Failed after %s", formatDuration(time.Since(startTime)))
		os.Exit(1)
	}

	if !*noOpt {
		pipeline := passes.NewPipeline()
		pipeline.Run(module)
	}

	fmt.Println(mir.Print(module))

	if *dumpGraph || *dotPath != "" {
		graph := callgraph.Build(module)
		if *dumpGraph {
			fmt.Println(graph.Dump())
			fmt.Println(graph.Stats())
		}
		if *dotPath != "" {
			if err := writeDotFile(graph, *dotPath); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *dotPath, err)
				os.Exit(1)
			}
		}
	}

	color.Green("Successfully optimized %s in %s", path, formatDuration(time.Since(startTime)))
}

func writeDotFile(graph *callgraph.Graph, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return graph.WriteDot(out)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
