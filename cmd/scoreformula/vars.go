package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/nihei9/scoreformula/store"
	"github.com/nihei9/scoreformula/value"
)

// readVariables merges the variables of a JSON file with `name=value` assignments, which take precedence.
// An assigned value is read as JSON, and as a string when it isn't JSON.
func readVariables(path string, assigns []string) (map[string]value.Value, error) {
	vars := map[string]value.Value{}
	if path != "" {
		vs, err := store.LoadVariables(path)
		if err != nil {
			return nil, errors.Wrap(err, "Cannot read variables")
		}
		vars = vs
	}
	for _, a := range assigns {
		name, text, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable assignment %q; want name=value", a)
		}
		var v value.Value
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			v = value.String(text)
		}
		vars[name] = v
	}
	return vars, nil
}
