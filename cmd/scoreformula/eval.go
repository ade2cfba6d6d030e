package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var evalFlags = struct {
	vars    *[]string
	varFile *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "eval <formula>",
		Short:   "Evaluate a formula",
		Example: `  scoreformula eval '{a} + {b} * 2' --var a=1 --var b=2.5`,
		Args:    cobra.ExactArgs(1),
		RunE:    runEval,
	}
	evalFlags.vars = cmd.Flags().StringArray("var", nil, "variable assignment name=value (repeatable)")
	evalFlags.varFile = cmd.Flags().String("vars", "", "JSON file of variables")
	rootCmd.AddCommand(cmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	vars, err := readVariables(*evalFlags.varFile, *evalFlags.vars)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	v, err := e.Evaluate(args[0], vars)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, formatValue(newPrinter(), v))
	return nil
}
