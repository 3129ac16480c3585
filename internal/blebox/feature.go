package blebox

import (
	"errors"
	"fmt"
	"math"
)

// Feature is one typed capability of a box.
type Feature interface {
	Kind() FeatureKind
	Alias() string
	UniqueID() string
	FullName() string

	// Refresh decodes a telemetry snapshot into the feature's state.
	Refresh(data any) error

	// State returns the decoded state for publishing. Unknown values are nil.
	State() map[string]any
}

// base carries what every feature needs: identity for naming, field paths,
// the device validator and the tier's command table. All of it is fixed at
// instantiation.
type base struct {
	kind       FeatureKind
	alias      string
	model      string
	deviceID   string
	deviceName string
	fields     map[string]string
	check      Validator
	commands   Commands
	seen       bool
}

func newBase(b *Box, kind FeatureKind, spec FeatureSpec) base {
	return base{
		kind:       kind,
		alias:      spec.Alias,
		model:      b.model,
		deviceID:   b.identity.ID,
		deviceName: b.identity.Name,
		fields:     spec.Fields,
		check:      b.check,
		commands:   b.config.Commands,
	}
}

func (f *base) Kind() FeatureKind { return f.kind }

func (f *base) Alias() string { return f.alias }

// UniqueID is stable across restarts: model, device id and alias.
func (f *base) UniqueID() string {
	return fmt.Sprintf("BleBox-%s-%s-%s", f.model, f.deviceID, f.alias)
}

func (f *base) FullName() string {
	return fmt.Sprintf("%s (%s#%s)", f.deviceName, f.model, f.alias)
}

// begin marks the start of a decode pass.
func (f *base) begin(data any) error {
	if data == nil {
		return ErrStateNotAvailable
	}
	f.seen = true
	return nil
}

// ready guards command encoding.
func (f *base) ready() error {
	if !f.seen {
		return fmt.Errorf("%w: %s", ErrStateNotAvailable, f.alias)
	}
	return nil
}

func (f *base) has(field string) bool {
	_, ok := f.fields[field]
	return ok
}

func (f *base) fieldName(field string) string { return f.alias + "." + field }

// raw resolves a logical field against data. A field the payload does not
// report yields nil with no error, like a null; a tree of the wrong shape
// still fails.
func (f *base) raw(data any, field string) (any, error) {
	path, ok := f.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q field", ErrMisconfiguredDevice, f.alias, field)
	}
	v, err := Follow(data, path)
	var perr *PathError
	if errors.As(err, &perr) && perr.Absent {
		return nil, nil
	}
	return v, err
}

// readInt decodes a bounded integer field. A null or absent value yields nil
// with no error so the caller keeps its previous reading.
func (f *base) readInt(data any, field string, maxValue, minValue int) (*int, error) {
	raw, err := f.raw(data, field)
	if err != nil || raw == nil {
		return nil, err
	}
	n, err := f.check.ExpectInt(f.fieldName(field), raw, maxValue, minValue)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// readScaled decodes an integer reported in hundredths and rounds it to one
// decimal place.
func (f *base) readScaled(data any, field string, maxValue, minValue int) (*float64, error) {
	n, err := f.readInt(data, field, maxValue, minValue)
	if err != nil || n == nil {
		return nil, err
	}
	v := hundredths(*n)
	return &v, nil
}

func hundredths(n int) float64 {
	return math.Round(float64(n)/10) / 10
}

// deref turns an optional reading into a State value.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
