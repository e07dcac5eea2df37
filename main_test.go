package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"mat=/materials/red", "expr=a=b", "empty="})
	if err != nil {
		t.Fatalf("parseVars: %v", err)
	}
	want := map[string]string{"mat": "/materials/red", "expr": "a=b", "empty": ""}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseVars([]string{bad}); err == nil {
			t.Errorf("parseVars(%q) should fail", bad)
		}
	}
}
