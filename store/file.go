package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"

	"github.com/nihei9/scoreformula/engine"
	"github.com/nihei9/scoreformula/value"
)

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", path)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "could not decode %s", path)
	}
	return nil
}

// LoadFormulaSets reads a JSON array of formula sets and returns a Memory serving them.
func LoadFormulaSets(path string) (*Memory, error) {
	var sets []*engine.FormulaSet
	if err := readJSON(path, &sets); err != nil {
		return nil, err
	}
	for i, set := range sets {
		if set == nil || len(set.Steps) == 0 {
			return nil, fmt.Errorf("%s: formula set #%v has no steps", path, i)
		}
	}
	return NewMemory(sets...), nil
}

// LoadSteps reads a JSON array of formula steps.
func LoadSteps(path string) ([]engine.FormulaStep, error) {
	var steps []engine.FormulaStep
	if err := readJSON(path, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// LoadVariables reads a JSON object mapping variable names to numbers, booleans, strings, or null.
func LoadVariables(path string) (map[string]value.Value, error) {
	var vars map[string]value.Value
	if err := readJSON(path, &vars); err != nil {
		return nil, err
	}
	if vars == nil {
		vars = map[string]value.Value{}
	}
	return vars, nil
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileSink saves every execution as `<dir>/<id>.json`.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create %s", dir)
	}
	return &FileSink{
		dir: dir,
	}, nil
}

func (s *FileSink) path(id string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("invalid execution id: %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *FileSink) Save(ctx context.Context, id string, res *engine.ExecutionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(id)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "could not encode execution %s", id)
	}

	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "could not save execution %s", id)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "could not write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "could not write %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "could not save execution %s", id)
	}
	return nil
}

// Load reads a saved execution.
func (s *FileSink) Load(id string) (*engine.ExecutionResult, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	var res engine.ExecutionResult
	if err := readJSON(path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
