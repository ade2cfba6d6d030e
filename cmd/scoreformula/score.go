package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nihei9/scoreformula/engine"
	"github.com/nihei9/scoreformula/store"
)

var scoreFlags = struct {
	sets      *string
	typ       *string
	education *string
	region    *string
	vars      *[]string
	varFile   *string
	out       *string
	timeout   *time.Duration
	json      *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Score an applicant with the formula set matching its category",
		Example: `  scoreformula score --sets sets.json --type bachelor --region north --vars applicant.json --out executions`,
		Args:    cobra.NoArgs,
		RunE:    runScore,
	}
	scoreFlags.sets = cmd.Flags().String("sets", "", "JSON file of formula sets (required)")
	scoreFlags.typ = cmd.Flags().String("type", "", "applicant type")
	scoreFlags.education = cmd.Flags().String("education", "", "prior-education status")
	scoreFlags.region = cmd.Flags().String("region", "", "region")
	scoreFlags.vars = cmd.Flags().StringArray("var", nil, "variable assignment name=value (repeatable)")
	scoreFlags.varFile = cmd.Flags().String("vars", "", "JSON file of input variables")
	scoreFlags.out = cmd.Flags().String("out", "", "directory to save the execution record in")
	scoreFlags.timeout = cmd.Flags().Duration("timeout", 0, "time limit of the whole execution (default no limit)")
	scoreFlags.json = cmd.Flags().Bool("json", false, "print the execution record as JSON")
	cmd.MarkFlagRequired("sets")
	rootCmd.AddCommand(cmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	src, err := store.LoadFormulaSets(*scoreFlags.sets)
	if err != nil {
		return errors.Wrap(err, "Cannot read formula sets")
	}
	vars, err := readVariables(*scoreFlags.varFile, *scoreFlags.vars)
	if err != nil {
		return err
	}
	var sink engine.ExecutionSink
	if *scoreFlags.out != "" {
		s, err := store.NewFileSink(*scoreFlags.out)
		if err != nil {
			return err
		}
		sink = s
	}
	e, err := newEngine()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *scoreFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *scoreFlags.timeout)
		defer cancel()
	}
	c := engine.Criteria{
		ApplicantType:   *scoreFlags.typ,
		EducationStatus: *scoreFlags.education,
		Region:          *scoreFlags.region,
	}
	res, scoreErr := engine.NewScorer(e, src, sink).Score(ctx, c, vars)
	if res != nil {
		if err := writeExecution(os.Stdout, res, *scoreFlags.json); err != nil {
			return err
		}
	}
	return scoreErr
}
