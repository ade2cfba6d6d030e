package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "validate <formula>",
		Short:   "Check a formula without evaluating it",
		Example: `  scoreformula validate 'IF({exam} >= 50, {exam} * 1.1, 0)'`,
		Args:    cobra.ExactArgs(1),
		RunE:    runValidate,
	}
	rootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	if err := e.Validate(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "valid")
	return nil
}
