package engine

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"

	"github.com/nihei9/scoreformula/value"
)

// Criteria selects a formula set. Empty fields of a formula set's criteria match anything.
type Criteria struct {
	ApplicantType   string `json:"applicant_type,omitempty"`
	EducationStatus string `json:"education_status,omitempty"`
	Region          string `json:"region,omitempty"`
}

// Matches reports whether a formula set declared for c applies to the request q.
func (c Criteria) Matches(q Criteria) bool {
	return matchField(c.ApplicantType, q.ApplicantType) &&
		matchField(c.EducationStatus, q.EducationStatus) &&
		matchField(c.Region, q.Region)
}

func matchField(declared, requested string) bool {
	return declared == "" || strings.EqualFold(declared, requested)
}

// Specificity is the number of non-empty fields.
func (c Criteria) Specificity() int {
	n := 0
	for _, f := range []string{c.ApplicantType, c.EducationStatus, c.Region} {
		if f != "" {
			n++
		}
	}
	return n
}

func (c Criteria) String() string {
	return fmt.Sprintf("type=%v, education=%v, region=%v", orAny(c.ApplicantType), orAny(c.EducationStatus), orAny(c.Region))
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

type FormulaSet struct {
	Name     string        `json:"name"`
	Criteria Criteria      `json:"criteria"`
	Steps    []FormulaStep `json:"steps"`
}

// Digest identifies the content of a formula set: the BLAKE2b-256 hash of its steps as a hex string.
func (s *FormulaSet) Digest() string {
	b, err := json.Marshal(s.Steps)
	if err != nil {
		// FormulaStep holds only strings and ints.
		panic(err)
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type FormulaSource interface {
	// Lookup returns the formula set for the criteria, or an error wrapping ErrFormulaSetNotFound.
	Lookup(ctx context.Context, c Criteria) (*FormulaSet, error)
}

type ExecutionSink interface {
	Save(ctx context.Context, id string, res *ExecutionResult) error
}

// Scorer computes scores with the formula set selected for each request and stores every execution, the
// failed ones included.
type Scorer struct {
	engine *Engine
	source FormulaSource
	sink   ExecutionSink
	seq    uint64
}

// NewScorer returns a scorer. sink may be nil, in which case executions are not stored.
func NewScorer(e *Engine, source FormulaSource, sink ExecutionSink) *Scorer {
	return &Scorer{
		engine: e,
		source: source,
		sink:   sink,
	}
}

func (s *Scorer) Score(ctx context.Context, c Criteria, vars map[string]value.Value) (*ExecutionResult, error) {
	set, err := s.source.Lookup(ctx, c)
	if err != nil {
		return nil, err
	}
	tracer().Infof("scoring with formula set %v for %v", set.Name, c)

	res, execErr := s.engine.Execute(ctx, set.Steps, vars)
	res.FormulaSet = set.Name
	res.Digest = set.Digest()
	res.ID = s.executionID(res, c)

	if s.sink != nil {
		if err := s.sink.Save(ctx, res.ID, res); err != nil {
			if execErr != nil {
				return res, fmt.Errorf("%w (and the execution was not saved: %v)", execErr, err)
			}
			return res, err
		}
	}
	return res, execErr
}

// executionID hashes what the execution ran on and when, plus a sequence number, with BLAKE2b-256.
func (s *Scorer) executionID(res *ExecutionResult, c Criteria) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%v\n%v\n%v\n%v\n", res.Digest, c, res.StartedAt.UnixNano(), atomic.AddUint64(&s.seq, 1))
	if b, err := json.Marshal(res.InputVariables); err == nil {
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}
