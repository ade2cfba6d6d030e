package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"

	"github.com/nihei9/scoreformula/engine"
	"github.com/nihei9/scoreformula/internal/trace"
)

var rootFlags = struct {
	trace *string
	lang  *string
}{}

var rootCmd = &cobra.Command{
	Use:   "scoreformula",
	Short: "Validate, evaluate, and execute scoring formulas",
	Long: `scoreformula runs the formula language of admission scoring:
- Validates and evaluates single formulas.
- Executes sequences of formula steps and scores applicants with formula sets.
- Describes the parsing table of the formula grammar.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setUp,
}

func init() {
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "", "trace level: error, info, or debug (default no traces)")
	rootFlags.lang = rootCmd.PersistentFlags().String("lang", "", "IETF language tag for number output (default the user locale)")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

func setUp(cmd *cobra.Command, args []string) error {
	if *rootFlags.trace == "" {
		return nil
	}
	l, err := traceLevel(*rootFlags.trace)
	if err != nil {
		return err
	}
	trace.Init(l)
	return nil
}

func traceLevel(l string) (tracing.TraceLevel, error) {
	switch strings.ToLower(l) {
	case "debug":
		return tracing.LevelDebug, nil
	case "info":
		return tracing.LevelInfo, nil
	case "error":
		return tracing.LevelError, nil
	}
	return tracing.LevelError, fmt.Errorf("unknown trace level: %v", l)
}

func newEngine() (*engine.Engine, error) {
	e, err := engine.New()
	if err != nil {
		return nil, fmt.Errorf("Cannot set up the formula engine: %w", err)
	}
	return e, nil
}
