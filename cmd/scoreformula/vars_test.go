package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nihei9/scoreformula/value"
)

func TestReadVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.json")
	if err := os.WriteFile(path, []byte(`{"a": 1, "b": 2}`), 0644); err != nil {
		t.Fatal(err)
	}

	vars, err := readVariables(path, []string{"b=3.5", "ok=true", "name=alice", `quoted="x"`, "empty="})
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]value.Value{
		"a":      value.Number(1),
		"b":      value.Number(3.5),
		"ok":     value.Boolean(true),
		"name":   value.String("alice"),
		"quoted": value.String("x"),
		"empty":  value.String(""),
	}
	if len(vars) != len(expected) {
		t.Fatalf("unexpected variables: %v", vars)
	}
	for k, v := range expected {
		if vars[k] != v {
			t.Errorf("%v: want: %#v, got: %#v", k, v, vars[k])
		}
	}

	for _, a := range []string{"novalue", "=1"} {
		if _, err := readVariables("", []string{a}); err == nil {
			t.Errorf("%q must be rejected", a)
		}
	}
}

func TestTraceLevel(t *testing.T) {
	for _, l := range []string{"debug", "INFO", "error"} {
		if _, err := traceLevel(l); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if _, err := traceLevel("verbose"); err == nil {
		t.Fatal("an unknown level must be rejected")
	}
}
