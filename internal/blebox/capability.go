package blebox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultAPILevel is assumed for devices that do not report apiLevel.
const DefaultAPILevel = 20151206

// Method is the HTTP method of a box command.
type Method string

// Command methods.
const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// CommandTemplate describes one box command. Path and Body may contain
// positional placeholders "{0}", "{1}"... and Params is how many arguments
// the command takes.
type CommandTemplate struct {
	Method Method
	Path   string
	Body   string
	Params int
}

// Request is a fully built command ready for the transport.
type Request struct {
	Method Method
	Path   string
	Body   string
}

// Commands maps command names to templates.
type Commands map[string]CommandTemplate

// Build expands the named command with args.
//
// Returns:
//   - Request: method, path and body with placeholders substituted
//   - error: ErrUnknownCommand if the tier lacks the command, ErrBadValue on
//     a parameter count mismatch
func (c Commands) Build(name string, args ...any) (Request, error) {
	tmpl, ok := c[name]
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if len(args) != tmpl.Params {
		return Request{}, fmt.Errorf("%w: command %q takes %d parameters, got %d", ErrBadValue, name, tmpl.Params, len(args))
	}
	return Request{
		Method: tmpl.Method,
		Path:   substitute(tmpl.Path, args),
		Body:   substitute(tmpl.Body, args),
	}, nil
}

func substitute(tmpl string, args []any) string {
	for i, arg := range args {
		tmpl = strings.ReplaceAll(tmpl, "{"+strconv.Itoa(i)+"}", fmt.Sprint(arg))
	}
	return tmpl
}

// FeatureKind enumerates the feature kinds a box can expose.
type FeatureKind int

// Feature kinds, in instantiation order.
const (
	KindAirQuality FeatureKind = iota + 1
	KindBinarySensor
	KindButton
	KindClimate
	KindCover
	KindLight
	KindSensor
	KindSwitch
)

var featureKinds = []FeatureKind{
	KindAirQuality, KindBinarySensor, KindButton, KindClimate,
	KindCover, KindLight, KindSensor, KindSwitch,
}

func (k FeatureKind) String() string {
	switch k {
	case KindAirQuality:
		return "air_quality"
	case KindBinarySensor:
		return "binary_sensor"
	case KindButton:
		return "button"
	case KindClimate:
		return "climate"
	case KindCover:
		return "cover"
	case KindLight:
		return "light"
	case KindSensor:
		return "sensor"
	case KindSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// FeatureSpec is the static description of one feature instance.
//
// Fields maps logical field names to path expressions. In an Expansion
// template, Alias and the paths may use "{id}" and "{type}" which are
// replaced with the unit's values.
type FeatureSpec struct {
	Alias       string
	Fields      map[string]string
	Unit        *int // relay index passed to commands on multi-relay boxes
	Cover       CoverVariant
	Light       LightModel
	Mode        ColorMode
	Mask        Mask
	Sensor      SensorKind
	DeviceClass string
	Endpoint    string // button endpoint
}

// ExpandBy selects how extended state is turned into feature specs.
type ExpandBy int

// Expansion strategies.
const (
	// ExpandUnits emits one spec per element of a unit list.
	ExpandUnits ExpandBy = iota + 1
	// ExpandColorMode emits light specs for the reported colour mode.
	ExpandColorMode
	// ExpandControlType emits one button per endpoint of a control type.
	ExpandControlType
)

// Expansion describes how a feature kind is derived from extended state.
type Expansion struct {
	By          ExpandBy
	ListPath    string // ExpandUnits: array of units
	IDKey       string // ExpandUnits: numeric id key in each unit
	TypeKey     string // ExpandUnits: unit type key; empty when all units share the kind
	ModePath    string // ExpandColorMode, ExpandControlType
	ValuePath   string // ExpandColorMode: current colour string
	EffectsPath string // ExpandColorMode: effect id to name object
	Template    FeatureSpec
}

// CapabilityConfig is the resolved configuration of one box. It is selected
// once per device and never mutated.
type CapabilityConfig struct {
	APIPath      string
	ExtendedPath string
	Commands     Commands
	Features     map[FeatureKind][]FeatureSpec
	Expansions   map[FeatureKind]Expansion
}

// Tiers holds the capability tiers of one box type keyed by api level.
type Tiers map[int]CapabilityConfig

// Resolve returns the tier with the greatest level not exceeding level.
//
// Returns:
//   - CapabilityConfig: the applicable tier
//   - int: the tier's level
//   - error: ErrUnsupportedVersion when every tier is newer than level
func (t Tiers) Resolve(level int) (CapabilityConfig, int, error) {
	best, found := 0, false
	for tier := range t {
		if tier <= level && (!found || tier > best) {
			best, found = tier, true
		}
	}
	if !found {
		return CapabilityConfig{}, 0, fmt.Errorf("%w: no tier at or below %d", ErrUnsupportedVersion, level)
	}
	return t[best], best, nil
}

// Latest returns the newest tier level, or 0 for an empty table.
func (t Tiers) Latest() int {
	latest := 0
	for tier := range t {
		if tier > latest {
			latest = tier
		}
	}
	return latest
}

// aliasRule redirects a box type. An empty product matches any product and a
// zero minLevel matches any level. A valid lightMode replaces the colour
// mode of the target's static light specs, for a model whose hardware
// differs from the sibling's default.
type aliasRule struct {
	declared  string
	product   string
	minLevel  int
	target    string
	lightMode ColorMode
}

// productAliases rename the model: the product is what the box really is.
var productAliases = []aliasRule{
	{declared: "wLightBox", product: "wLightBoxS", target: "wLightBoxS"},
	{declared: "switchBox", product: "switchBoxD", target: "switchBoxD"},
}

// tableAliases keep the model name but resolve against a sibling's tiers.
var tableAliases = []aliasRule{
	{declared: "wLightBoxS", minLevel: 20200229, target: "wLightBox", lightMode: ColorModeMono},
}

func (r aliasRule) matches(declared, product string, level int) bool {
	return r.declared == declared &&
		(r.product == "" || r.product == product) &&
		level >= r.minLevel
}

// Resolution is the outcome of capability resolution for one device.
type Resolution struct {
	Model     string // type used in names and unique ids
	Table     string // type whose tiers were consulted
	TierLevel int
	Config    CapabilityConfig
}

// Resolve selects the capability tier for a device.
//
// Aliasing is applied before lookup: a product that contradicts the declared
// type wins, and some types resolve against a sibling's table above a level
// threshold. The floor match is then applied to the table.
//
// Parameters:
//   - deviceType: reported "type"
//   - product: reported "product" (may be empty)
//   - level: reported api level
//
// Returns:
//   - Resolution: model name, table name, tier level and configuration
//   - error: ErrUnsupportedType or ErrUnsupportedVersion
func Resolve(deviceType, product string, level int) (Resolution, error) {
	model := deviceType
	for _, rule := range productAliases {
		if rule.matches(deviceType, product, level) {
			model = rule.target
			break
		}
	}

	table := model
	var lightMode ColorMode
	for _, rule := range tableAliases {
		if rule.matches(model, product, level) {
			table, lightMode = rule.target, rule.lightMode
			break
		}
	}

	tiers, ok := boxTypes[table]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnsupportedType, deviceType)
	}
	conf, tier, err := tiers.Resolve(level)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", model, err)
	}
	if lightMode.Valid() {
		conf = withLightMode(conf, lightMode)
	}
	return Resolution{Model: model, Table: table, TierLevel: tier, Config: conf}, nil
}

// withLightMode returns a copy of conf whose static light specs use mode.
// The shared tables are left untouched.
func withLightMode(conf CapabilityConfig, mode ColorMode) CapabilityConfig {
	specs := conf.Features[KindLight]
	if len(specs) == 0 {
		return conf
	}
	features := make(map[FeatureKind][]FeatureSpec, len(conf.Features))
	for kind, list := range conf.Features {
		features[kind] = list
	}
	light := make([]FeatureSpec, len(specs))
	for i, spec := range specs {
		spec.Mode = mode
		light[i] = spec
	}
	features[KindLight] = light
	conf.Features = features
	return conf
}

// LatestAPILevel returns the newest tier level known for a box type, or 0
// when the type is unsupported.
func LatestAPILevel(deviceType string) int {
	return boxTypes[deviceType].Latest()
}

// SupportedTypes lists the box types that have capability tables.
func SupportedTypes() []string {
	types := make([]string, 0, len(boxTypes))
	for name := range boxTypes {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
