package symgencli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/synthgraph/symgen/arith"
	"github.com/synthgraph/symgen/concretize"
	"github.com/synthgraph/symgen/config"
	"github.com/synthgraph/symgen/materialize"
	"github.com/synthgraph/symgen/materialize/onnx"
	zmfmat "github.com/synthgraph/symgen/materialize/zmf"
	"github.com/synthgraph/symgen/search"
	"github.com/synthgraph/symgen/smt"
	"github.com/synthgraph/symgen/symgraph"
	"github.com/zerfoo/zmf"
)

// GenerateCommand runs one end-to-end generation: grow a graph under
// search.Driver, concretize it, and export it through materialize/onnx or
// materialize/zmf, as --format selects.
type GenerateCommand struct{}

// NewGenerateCommand returns the generate command.
func NewGenerateCommand() *GenerateCommand { return &GenerateCommand{} }

func (c *GenerateCommand) Name() string { return "generate" }

func (c *GenerateCommand) Description() string {
	return "generate one random computation graph and export it"
}

func (c *GenerateCommand) Usage() string {
	return `generate [OPTIONS]

Grow a random, type- and shape-valid computation graph under SMT
constraints and export it as an illustrative ONNX-shaped JSON model or
a ZMF model, as --format selects.

OPTIONS:
  --seed <int>            RNG / solver seed (default 1)
  --max-nodes <int>       node budget (default 50)
  --max-gen-ms <int>      wall-clock budget in milliseconds (default 5000)
  --forward-prob <float>  probability of a forward insertion attempt (default 0.5)
  --float-budget-mb <float>  float byte budget in MiB (default 64)
  --bitvec                use a bitvector theory instead of integers
  --bitvec-size <int>     fixed bitvector width when --bitvec is set
  --format <onnx|zmf>     export format (default onnx)
  --output <path>         write the exported model here instead of stdout`
}

func (c *GenerateCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)

	seed := fs.Int64("seed", 1, "")
	maxNodes := fs.Int("max-nodes", 50, "")
	maxGenMS := fs.Int("max-gen-ms", 5000, "")
	forwardProb := fs.Float64("forward-prob", 0.5, "")
	floatBudgetMB := fs.Float64("float-budget-mb", 64, "")
	useBitvec := fs.Bool("bitvec", false, "")
	bitvecSize := fs.Int("bitvec-size", 0, "")
	format := fs.String("format", "onnx", "")
	output := fs.String("output", "", "")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []config.Option{
		config.WithSeed(*seed),
		config.WithMaxNodes(*maxNodes),
		config.WithMaxGenDuration(time.Duration(*maxGenMS) * time.Millisecond),
		config.WithForwardProb(*forwardProb),
		config.WithFloatBudget(*floatBudgetMB, config.BudgetGlobalSum),
	}

	if *useBitvec {
		if *bitvecSize > 0 {
			opts = append(opts, config.WithBitvec(*bitvecSize))
		} else {
			opts = append(opts, config.WithRandomBitvec(32))
		}
	}

	cfg := config.New(opts...)

	mode := arith.ModeInt
	if cfg.UseBitvec {
		mode = arith.ModeBV
	}

	solver := smt.NewZ3(mode)
	defer solver.Close()

	driver := search.NewDriver(cfg, solver, search.DefaultVariants(cfg))

	g, model, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	log.Printf("generate: run %s", driver.RunID())

	cgraph, err := concretize.Concretize(g, model)
	if err != nil {
		return fmt.Errorf("generate: concretize: %w", err)
	}

	log.Printf("generate: produced %d nodes", len(cgraph.Nodes))

	// The CLI owns no tensor backend, so every Constant node is exported
	// with a nil placeholder value; a real pipeline would supply one via
	// its own materialize.InputOracle-adjacent constant source.
	constants := map[symgraph.NodeID]materialize.TensorValue{}

	for _, n := range cgraph.Nodes {
		if n.TerminalKind == "Constant" {
			constants[n.ID] = nil
		}
	}

	var data []byte

	switch *format {
	case "onnx":
		exported, err := onnx.New().Materialize(cgraph, constants)
		if err != nil {
			return fmt.Errorf("generate: materialize: %w", err)
		}

		data, err = json.MarshalIndent(exported, "", "  ")
		if err != nil {
			return fmt.Errorf("generate: encode: %w", err)
		}
	case "zmf":
		exported, err := zmfmat.New().Materialize(cgraph, constants)
		if err != nil {
			return fmt.Errorf("generate: materialize: %w", err)
		}

		data, err = zmfmat.Marshal(exported.(*zmf.Model))
		if err != nil {
			return fmt.Errorf("generate: encode: %w", err)
		}
	default:
		return fmt.Errorf("generate: unrecognized --format %q (want onnx or zmf)", *format)
	}

	if *output == "" {
		fmt.Println(string(data))
		return nil
	}

	return os.WriteFile(*output, data, 0o644)
}
