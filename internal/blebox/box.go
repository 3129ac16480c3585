package blebox

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Identity is what a box reports about itself. It is immutable once parsed.
type Identity struct {
	ID              string
	Type            string
	Product         string
	Name            string
	FirmwareVersion string
	HardwareVersion string
	APILevel        int
}

// ParseIdentity reads identity fields from a device info payload. The payload
// may be the fields themselves or wrap them in a "device" object.
//
// Returns:
//   - Identity: parsed identity, APILevel defaulted to DefaultAPILevel
//   - error: ErrUnsupportedResponse when id, type or deviceName is missing;
//     ErrUnsupportedVersion when apiLevel is not numeric
func ParseIdentity(info any) (Identity, error) {
	obj, ok := info.(map[string]any)
	if !ok {
		return Identity{}, fmt.Errorf("%w: expected an object", ErrUnsupportedResponse)
	}
	if inner, ok := obj["device"].(map[string]any); ok {
		obj = inner
	}

	str := func(key string) string {
		s, _ := obj[key].(string)
		return s
	}
	id := Identity{
		ID:              str("id"),
		Type:            str("type"),
		Product:         str("product"),
		Name:            str("deviceName"),
		FirmwareVersion: str("fv"),
		HardwareVersion: str("hv"),
		APILevel:        DefaultAPILevel,
	}

	var missing []string
	for key, v := range map[string]string{"id": id.ID, "type": id.Type, "deviceName": id.Name} {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Identity{}, fmt.Errorf("%w: missing %s", ErrUnsupportedResponse, strings.Join(missing, ", "))
	}

	if raw, ok := obj["apiLevel"]; ok && raw != nil {
		level, err := parseAPILevel(raw)
		if err != nil {
			return Identity{}, err
		}
		id.APILevel = level
	}
	return id, nil
}

func parseAPILevel(raw any) (int, error) {
	if n, ok := asInt(raw); ok {
		return n, nil
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: apiLevel %v is not a number", ErrUnsupportedVersion, raw)
	}
	return n, nil
}

// Box is one resolved device: its identity, capability tier and features.
//
// Thread Safety: not safe for concurrent use. Update and command encoding
// must be serialised by the owner.
type Box struct {
	identity Identity
	model    string
	tier     int
	latest   int
	config   CapabilityConfig
	check    Validator
	features []Feature
	snapshot any
}

// NewBox resolves capabilities for identity and instantiates features.
//
// Parameters:
//   - identity: parsed device info
//   - extended: extended state payload, or nil when unavailable
//
// Returns:
//   - *Box: resolved box with no telemetry applied
//   - error: resolution failure
func NewBox(identity Identity, extended any) (*Box, error) {
	res, err := Resolve(identity.Type, identity.Product, identity.APILevel)
	if err != nil {
		return nil, err
	}
	b := &Box{
		identity: identity,
		model:    res.Model,
		tier:     res.TierLevel,
		latest:   boxTypes[res.Table].Latest(),
		config:   res.Config,
		check:    Validator{Device: identity.Name},
	}
	b.features = b.instantiate(extended)
	return b, nil
}

// Identity returns the parsed device info.
func (b *Box) Identity() Identity { return b.identity }

// Model returns the box type used in names, after product aliasing.
func (b *Box) Model() string { return b.model }

// TierLevel returns the api level of the selected capability tier.
func (b *Box) TierLevel() int { return b.tier }

// Outdated reports whether newer firmware tiers exist for this box.
func (b *Box) Outdated() bool { return b.identity.APILevel < b.latest }

// APIPath returns the telemetry path to poll.
func (b *Box) APIPath() string { return b.config.APIPath }

// Features returns every instantiated feature.
func (b *Box) Features() []Feature { return b.features }

// Feature looks a feature up by alias.
func (b *Box) Feature(alias string) (Feature, bool) {
	for _, f := range b.features {
		if f.Alias() == alias {
			return f, true
		}
	}
	return nil, false
}

// Snapshot returns the last applied telemetry, or nil.
func (b *Box) Snapshot() any { return b.snapshot }

// Update applies one telemetry snapshot to every feature. All features decode
// the same snapshot; decode errors are joined.
func (b *Box) Update(data any) error {
	if data == nil {
		return ErrStateNotAvailable
	}
	b.snapshot = data
	var errs []error
	for _, f := range b.features {
		if err := f.Refresh(data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Alias(), err))
		}
	}
	return errors.Join(errs...)
}
