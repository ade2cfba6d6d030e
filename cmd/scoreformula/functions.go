package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nihei9/scoreformula/eval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the functions and constants formulas can use",
		Args:  cobra.NoArgs,
		RunE:  runFunctions,
	}
	rootCmd.AddCommand(cmd)
}

func runFunctions(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range eval.DefaultRegistry().Functions() {
		desc := f.Description
		if !f.Deterministic {
			desc += " (non-deterministic)"
		}
		fmt.Fprintf(tw, "%v\t%v\n", f.Signature(), desc)
	}
	fmt.Fprintf(tw, "IF(condition, then, else)\tthen or else; only one of them is evaluated\n")
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nconstants: %v\n", strings.Join(eval.Constants(), ", "))
	return nil
}
