package blebox

import (
	"encoding/json"
	"strings"
	"testing"
)

// jsonTree decodes a payload the way the session does.
func jsonTree(t *testing.T, payload string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decoding test payload: %v", err)
	}
	return v
}

// newTestBox builds a box from identity fields and an optional extended
// payload.
func newTestBox(t *testing.T, boxType, product string, level int, extended string) *Box {
	t.Helper()
	id := Identity{
		ID:       "1afe34e750b8",
		Type:     boxType,
		Product:  product,
		Name:     "My " + boxType,
		APILevel: level,
	}
	var ext any
	if extended != "" {
		ext = jsonTree(t, extended)
	}
	b, err := NewBox(id, ext)
	if err != nil {
		t.Fatalf("NewBox(%s, %d) error = %v", boxType, level, err)
	}
	return b
}

// update applies a telemetry payload and fails the test on error.
func update(t *testing.T, b *Box, payload string) {
	t.Helper()
	if err := b.Update(jsonTree(t, payload)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

// feature fetches a feature by alias and asserts its concrete type.
func feature[T Feature](t *testing.T, b *Box, alias string) T {
	t.Helper()
	f, ok := b.Feature(alias)
	if !ok {
		var aliases []string
		for _, f := range b.Features() {
			aliases = append(aliases, f.Alias())
		}
		t.Fatalf("Feature(%q) not found; have %v", alias, aliases)
	}
	typed, ok := f.(T)
	if !ok {
		t.Fatalf("Feature(%q) is %T", alias, f)
	}
	return typed
}
