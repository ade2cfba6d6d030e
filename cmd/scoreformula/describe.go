package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nihei9/scoreformula/grammar"
	"github.com/nihei9/scoreformula/parser"
)

var describeFlags = struct {
	class *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Print the parsing table of the formula grammar in readable format",
		Example: `  scoreformula describe --class lr1`,
		Args:    cobra.NoArgs,
		RunE:    runDescribe,
	}
	describeFlags.class = cmd.Flags().String("class", string(grammar.ClassLALR1), "automaton class: lalr1, lr1, or slr1")
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	class, err := grammar.ParseAutomatonClass(*describeFlags.class)
	if err != nil {
		return err
	}
	gram, err := parser.Grammar()
	if err != nil {
		return fmt.Errorf("Cannot build the formula grammar: %w", err)
	}

	_, report, compErr := grammar.Compile(gram, grammar.Class(class), grammar.EnableReporting())
	var conflictErr *grammar.ConflictError
	if compErr != nil && !errors.As(compErr, &conflictErr) {
		return compErr
	}
	if report != nil {
		if err := grammar.WriteReport(os.Stdout, report); err != nil {
			return err
		}
	}
	return compErr
}
