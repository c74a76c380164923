// Command pipeflow solves a network described in a YAML file and prints
// the result tables.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/e2nIEE/pipeflow/pkg/fluid"
	"github.com/e2nIEE/pipeflow/pkg/idx"
	"github.com/e2nIEE/pipeflow/pkg/net"
	"github.com/e2nIEE/pipeflow/pkg/pit"
	"github.com/e2nIEE/pipeflow/pkg/solver"
	"github.com/e2nIEE/pipeflow/pkg/topology"
)

type networkFile struct {
	net.Network `yaml:",inline"`
	FluidNames  []string       `yaml:"fluids"`
	Options     solver.Options `yaml:"options"`
}

var (
	flagMode    string
	flagMaxIter int
	flagDamping float64
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "pipeflow",
		Short:         "Steady-state hydraulic and thermal network solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run <network.yaml>",
		Short: "Solve a network file and print result tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetwork(args[0])
		},
	}
	runCmd.Flags().StringVar(&flagMode, "mode", "", "solve mode: hydraulics, heat, sequential, bidirectional")
	runCmd.Flags().IntVar(&flagMaxIter, "max-iter", 0, "Newton iteration budget")
	runCmd.Flags().Float64Var(&flagDamping, "damping", 0, "Newton damping factor (0 = default)")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-iteration residuals")
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pipeflow: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func runNetwork(path string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	n, opts, err := loadNetwork(path)
	if err != nil {
		return err
	}

	if flagMode != "" {
		mode, err := idx.ParseMode(flagMode)
		if err != nil {
			return err
		}
		opts.Mode = mode
	}
	if flagMaxIter > 0 {
		opts.MaxIter = flagMaxIter
	}
	if flagDamping > 0 {
		opts.Damping = flagDamping
	}

	logger.Info("solving network",
		zap.String("name", n.Name),
		zap.String("mode", opts.Mode.String()),
		zap.Int("junctions", len(n.Junctions)),
		zap.Int("pipes", len(n.Pipes)))

	if err := solver.Run(n, opts, logger); err != nil {
		return err
	}

	out, err := yaml.Marshal(n.Results)
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

func loadNetwork(path string) (*net.Network, solver.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, solver.Options{}, err
	}

	file := networkFile{Options: solver.DefaultOptions()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, solver.Options{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(file.FluidNames) == 0 {
		file.FluidNames = []string{"water"}
	}
	for _, name := range file.FluidNames {
		f, ok := fluid.ByName(name)
		if !ok {
			return nil, solver.Options{}, fmt.Errorf("unknown fluid %q", name)
		}
		file.Network.Fluids = append(file.Network.Fluids, f)
	}
	return &file.Network, file.Options, nil
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if flagVerbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// Exit codes let scripts tell configuration problems from solver
// failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, pit.ErrConfiguration), errors.Is(err, topology.ErrNoSupply):
		return 2
	case errors.Is(err, solver.ErrNotConverged):
		return 3
	}
	return 1
}
