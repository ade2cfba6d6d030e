package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nihei9/scoreformula/ast"
	"github.com/nihei9/scoreformula/parser"
)

var parseFlags = struct {
	noValidate *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <formula>",
		Short:   "Print the syntax tree of a formula",
		Example: `  scoreformula parse 'MAX({a}, 2) * 3'`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.noValidate = cmd.Flags().Bool("no-validate", false, "print the tree without checking the validity rules")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	var root ast.Node
	if *parseFlags.noValidate {
		p, err := parser.New()
		if err != nil {
			return fmt.Errorf("Cannot set up the formula parser: %w", err)
		}
		root, err = p.ParseString(args[0])
		if err != nil {
			return err
		}
	} else {
		e, err := newEngine()
		if err != nil {
			return err
		}
		root, err = e.Compile(args[0])
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, ast.Format(root))
	ast.PrintTree(os.Stdout, root)
	return nil
}
