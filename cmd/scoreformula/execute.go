package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/nihei9/scoreformula/engine"
	"github.com/nihei9/scoreformula/store"
)

var executeFlags = struct {
	steps   *string
	vars    *[]string
	varFile *string
	timeout *time.Duration
	json    *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "execute",
		Short:   "Execute a sequence of formula steps",
		Example: `  scoreformula execute --steps steps.json --vars applicant.json --timeout 5s`,
		Args:    cobra.NoArgs,
		RunE:    runExecute,
	}
	executeFlags.steps = cmd.Flags().String("steps", "", "JSON file of formula steps (required)")
	executeFlags.vars = cmd.Flags().StringArray("var", nil, "variable assignment name=value (repeatable)")
	executeFlags.varFile = cmd.Flags().String("vars", "", "JSON file of input variables")
	executeFlags.timeout = cmd.Flags().Duration("timeout", 0, "time limit of the whole execution (default no limit)")
	executeFlags.json = cmd.Flags().Bool("json", false, "print the execution record as JSON")
	cmd.MarkFlagRequired("steps")
	rootCmd.AddCommand(cmd)
}

func runExecute(cmd *cobra.Command, args []string) error {
	steps, err := store.LoadSteps(*executeFlags.steps)
	if err != nil {
		return errors.Wrap(err, "Cannot read steps")
	}
	vars, err := readVariables(*executeFlags.varFile, *executeFlags.vars)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *executeFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *executeFlags.timeout)
		defer cancel()
	}
	res, execErr := e.Execute(ctx, steps, vars)
	if err := writeExecution(os.Stdout, res, *executeFlags.json); err != nil {
		return err
	}
	return execErr
}

func writeExecution(w io.Writer, res *engine.ExecutionResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	p := newPrinter()
	writeSteps(w, p, res)
	if res.ID != "" {
		fmt.Fprintf(w, "execution: %v\n", res.ID)
	}
	if res.FormulaSet != "" {
		fmt.Fprintf(w, "formula set: %v (%v)\n", res.FormulaSet, res.Digest)
	}
	if res.Failed {
		fmt.Fprintln(w, "result: failed")
		return nil
	}
	fmt.Fprintf(w, "result: %v\n", formatValue(p, res.FinalResult))
	return nil
}

func writeSteps(w io.Writer, p *message.Printer, res *engine.ExecutionResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tvariable\tvalue\texpression")
	for i, s := range res.Steps {
		fmt.Fprintf(tw, "%v\t%v\t%v\t%v\n", i, s.ResultVariable, formatValue(p, s.Result), s.Expression)
	}
	tw.Flush()
}
