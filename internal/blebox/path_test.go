package blebox

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFollow_LiteralTree(t *testing.T) {
	data := map[string]any{
		"a": []any{map[string]any{"k": "x", "v": 1}},
	}
	got, err := Follow(data, "a/[k='x']/v")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if got != 1 {
		t.Errorf("Follow() = %v, want 1", got)
	}
}

func TestFollow(t *testing.T) {
	data := jsonTree(t, `{
		"a": [{"k": "x", "v": 1}, {"k": "y", "v": 2}],
		"relays": [{"relay": 0, "state": 1}, {"relay": 1, "state": 0}],
		"list": [10, 20],
		"nested": {"deep": {"value": "ok"}},
		"empty": null
	}`)

	tests := []struct {
		name string
		path string
		want any
	}{
		{"single quoted filter", "a/[k='x']/v", json.Number("1")},
		{"double quoted filter", `a/[k="y"]/v`, json.Number("2")},
		{"integer filter", "relays/[relay=1]/state", json.Number("0")},
		{"index", "list/[1]", json.Number("20")},
		{"nested keys", "nested/deep/value", "ok"},
		{"null leaf", "empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Follow(data, tt.path)
			if err != nil {
				t.Fatalf("Follow(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("Follow(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFollow_RootArray(t *testing.T) {
	data := jsonTree(t, `[{"relay": 0, "state": 1}]`)
	got, err := Follow(data, "[relay=0]/state")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if got != json.Number("1") {
		t.Errorf("Follow() = %v, want 1", got)
	}
}

func TestFollow_Errors(t *testing.T) {
	data := jsonTree(t, `{
		"a": [{"k": "x", "v": 1}],
		"relays": [{"relay": 0, "state": 1}],
		"scalar": 5
	}`)

	tests := []struct {
		name        string
		path        string
		wantSegment string
	}{
		{"missing key", "b", "b"},
		{"missing nested key", "a/[0]/missing", "missing"},
		{"index out of range", "a/[2]", "[2]"},
		{"negative index", "a/[-1]", "[-1]"},
		{"no filter match", "a/[k='z']/v", "[k='z']"},
		{"string filter never matches integer", "relays/[relay='0']/state", "[relay='0']"},
		{"integer filter never matches string", "a/[k=1]", "[k=1]"},
		{"key on array", "a/k", "k"},
		{"index on object", "relays/[0]/[0]", "[0]"},
		{"descend into scalar", "scalar/x", "x"},
		{"malformed filter value", "a/[k=x]", "[k=x]"},
		{"malformed index", "a/[one]", "[one]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Follow(data, tt.path)
			if !errors.Is(err, ErrPathFailed) {
				t.Fatalf("Follow(%q) error = %v, want ErrPathFailed", tt.path, err)
			}
			var pe *PathError
			if !errors.As(err, &pe) {
				t.Fatalf("Follow(%q) error is %T, want *PathError", tt.path, err)
			}
			if pe.Segment != tt.wantSegment {
				t.Errorf("PathError.Segment = %q, want %q", pe.Segment, tt.wantSegment)
			}
			if pe.Path != tt.path {
				t.Errorf("PathError.Path = %q, want %q", pe.Path, tt.path)
			}
		})
	}
}

func TestFollow_ErrorCarriesSubtree(t *testing.T) {
	data := jsonTree(t, `{"a": {"b": 1}}`)
	_, err := Follow(data, "a/c")
	var pe *PathError
	if !errors.As(err, &pe) {
		t.Fatalf("Follow() error = %v, want *PathError", err)
	}
	sub, ok := pe.Data.(map[string]any)
	if !ok || sub["b"] != json.Number("1") {
		t.Errorf("PathError.Data = %v, want the object under a", pe.Data)
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"int", 5, 5, true},
		{"int64", int64(-7), -7, true},
		{"integral float", 3.0, 3, true},
		{"fractional float", 3.5, 0, false},
		{"json integer", json.Number("20180604"), 20180604, true},
		{"json fraction", json.Number("1.5"), 0, false},
		{"numeric string", "5", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asInt(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("asInt(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
