package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nihei9/scoreformula/tester"
)

func init() {
	cmd := &cobra.Command{
		Use:     "test <test file path>|<test directory path>",
		Short:   "Run formula test cases",
		Example: `  scoreformula test testdata`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTest,
	}
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}

	cs := tester.ListTestCases(args[0])
	unreadable := 0
	for _, c := range cs {
		if c.Error != nil {
			fmt.Fprintf(os.Stderr, "cannot read %v: %v\n", c.FilePath, c.Error)
			unreadable++
		}
	}
	if unreadable > 0 {
		return fmt.Errorf("%v test case files are unreadable", unreadable)
	}

	rs := (&tester.Tester{
		Engine: e,
		Cases:  cs,
	}).Run()
	failed := 0
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error != nil {
			failed++
		}
	}
	p := newPrinter()
	p.Fprintf(os.Stdout, "%d passed, %d failed\n", len(rs)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%v test cases failed", failed)
	}
	return nil
}
