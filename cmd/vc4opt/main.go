// Command vc4opt runs the optimization pass manager over a small synthetic
// kernel and reports the resulting instruction counts, grounded on
// cmd/mircfgdraw's flag.StringVar-driven CLI shape.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pfoof/VC4C/ir"
	"github.com/pfoof/VC4C/optimize"
)

func main() {
	var (
		level         string
		enableArg     string
		disableArg    string
		maxIterations uint
		kernels       uint
	)

	flag.StringVar(&level, "O", "medium", "optimization level: none, basic, medium, full")
	flag.StringVar(&enableArg, "enable", "", "comma-separated pass names to force-enable")
	flag.StringVar(&disableArg, "disable", "", "comma-separated pass names to force-disable")
	flag.UintVar(&maxIterations, "max-iterations", 0, "cap on repeat-phase iterations (0 = no cap)")
	flag.UintVar(&kernels, "kernels", 1, "number of synthetic kernels to generate")
	flag.Parse()

	optLevel, err := parseLevel(level)
	if err != nil {
		usage()
		fatal(err)
	}

	config := optimize.Configuration{
		OptimizationLevel:               optLevel,
		AdditionalEnabledOptimizations:  splitNames(enableArg),
		AdditionalDisabledOptimizations: splitNames(disableArg),
		AdditionalOptions:               optimize.AdditionalOptions{MaxOptimizationIterations: maxIterations},
	}

	o, err := optimize.New(config)
	if err != nil {
		fatal(fmt.Errorf("build optimizer: %w", err))
	}
	defer o.Release()

	module := buildSyntheticModule(int(kernels))

	before := make(map[string]int, len(module.Kernels()))
	for _, k := range module.Kernels() {
		before[k.Name] = k.CountInstructions()
	}

	if err := o.Optimize(module); err != nil {
		fatal(fmt.Errorf("optimize: %w", err))
	}

	for _, k := range module.Kernels() {
		fmt.Printf("%s: %d -> %d instructions\n", k.Name, before[k.Name], k.CountInstructions())
	}
}

func parseLevel(s string) (optimize.OptimizationLevel, error) {
	switch strings.ToLower(s) {
	case "none":
		return optimize.LevelNone, nil
	case "basic":
		return optimize.LevelBasic, nil
	case "medium":
		return optimize.LevelMedium, nil
	case "full":
		return optimize.LevelFull, nil
	default:
		return "", fmt.Errorf("unknown optimization level %q", s)
	}
}

func splitNames(s string) map[string]struct{} {
	if s == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			out[name] = struct{}{}
		}
	}
	return out
}

// buildSyntheticModule builds `count` kernels, each a single block with a
// literal move, a duplicated add whose second copy is never read, and a
// self-move -- enough surface for
// eliminate-moves, eliminate-common-subexpressions and eliminate-dead-code
// to have visible work to do.
func buildSyntheticModule(count int) *ir.Module {
	module := ir.NewModule("vc4opt")
	for i := 0; i < count; i++ {
		m := ir.NewMethod("kernel"+strconv.Itoa(i), ir.TypeVoid)
		b := m.AddBlock("entry")

		a := m.AddNewLocal("a", ir.TypeInt32)
		c := m.AddNewLocal("c", ir.TypeInt32)
		dead := m.AddNewLocal("dead", ir.TypeInt32)

		b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(a), ir.LiteralValue(ir.NewLiteral(1), ir.TypeInt32)))
		b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a), ir.LiteralValue(ir.NewLiteral(2), ir.TypeInt32)))
		b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(dead), ir.LocalValue(a), ir.LiteralValue(ir.NewLiteral(2), ir.TypeInt32)))
		b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(c), ir.LocalValue(c)))

		module.AddKernel(m)
	}
	return module
}

func usage() {
	fmt.Fprintln(os.Stderr, "vc4opt - run the optimization pass manager over a synthetic kernel")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  vc4opt [-O level] [-enable names] [-disable names] [-max-iterations n] [-kernels n]")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "vc4opt: %v\n", err)
	os.Exit(1)
}
