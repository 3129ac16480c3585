package blebox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// monoWireChannels is the channel count of a mono wLightBox wire string.
const monoWireChannels = 4

// instantiate builds the box's features. Kinds with an Expansion are derived
// from extended state when it carries the data; otherwise the tier's static
// specs are used.
func (b *Box) instantiate(extended any) []Feature {
	var features []Feature
	for _, kind := range featureKinds {
		specs := b.config.Features[kind]
		var effects []string
		if exp, ok := b.config.Expansions[kind]; ok && extended != nil {
			if expanded, names, ok := expand(kind, exp, extended); ok {
				specs, effects = expanded, names
			}
		}
		for _, spec := range specs {
			features = append(features, b.newFeature(kind, spec, effects))
		}
	}
	return features
}

func (b *Box) newFeature(kind FeatureKind, spec FeatureSpec, effects []string) Feature {
	fb := newBase(b, kind, spec)
	switch kind {
	case KindAirQuality:
		return newAirQuality(fb)
	case KindBinarySensor:
		return newBinarySensor(fb, spec.DeviceClass)
	case KindButton:
		return newButton(fb, spec)
	case KindClimate:
		return newClimate(fb)
	case KindCover:
		return newCover(fb, spec)
	case KindLight:
		return newLight(fb, spec, effects)
	case KindSensor:
		return newSensor(fb, spec)
	case KindSwitch:
		return newSwitch(fb, spec)
	default:
		panic(fmt.Sprintf("blebox: unknown feature kind %d", int(kind)))
	}
}

// expand derives specs from extended state. It reports false when the
// extended state does not carry what the expansion needs.
func expand(kind FeatureKind, exp Expansion, extended any) ([]FeatureSpec, []string, bool) {
	switch exp.By {
	case ExpandUnits:
		specs, ok := expandUnits(kind, exp, extended)
		return specs, nil, ok
	case ExpandColorMode:
		return expandColorMode(exp, extended)
	case ExpandControlType:
		specs, ok := expandControlType(exp, extended)
		return specs, nil, ok
	}
	return nil, nil, false
}

// expandUnits emits one spec per recognised unit. Units of a type the kind
// does not know are skipped.
func expandUnits(kind FeatureKind, exp Expansion, extended any) ([]FeatureSpec, bool) {
	raw, err := Follow(extended, exp.ListPath)
	if err != nil {
		return nil, false
	}
	units, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	specs := []FeatureSpec{}
	for _, u := range units {
		obj, ok := u.(map[string]any)
		if !ok {
			continue
		}
		id, ok := asInt(obj[exp.IDKey])
		if !ok {
			continue
		}
		var unitType string
		if exp.TypeKey != "" {
			unitType, _ = obj[exp.TypeKey].(string)
		}
		if spec, ok := specForUnit(kind, exp.Template, id, unitType); ok {
			specs = append(specs, spec)
		}
	}
	return specs, true
}

func specForUnit(kind FeatureKind, tmpl FeatureSpec, id int, unitType string) (FeatureSpec, bool) {
	spec := materialize(tmpl, id, unitType)
	switch kind {
	case KindSensor:
		k, ok := sensorKindFor(unitType)
		if !ok {
			return FeatureSpec{}, false
		}
		spec.Sensor = k
	case KindBinarySensor:
		class, ok := binaryDeviceClass(unitType)
		if !ok {
			return FeatureSpec{}, false
		}
		spec.DeviceClass = class
	case KindSwitch:
		unit := id
		spec.Unit = &unit
	default:
		return FeatureSpec{}, false
	}
	return spec, true
}

// materialize substitutes a unit's id and type into a template spec.
func materialize(tmpl FeatureSpec, id int, unitType string) FeatureSpec {
	r := strings.NewReplacer("{id}", strconv.Itoa(id), "{type}", unitType)
	spec := tmpl
	spec.Alias = r.Replace(tmpl.Alias)
	spec.Fields = make(map[string]string, len(tmpl.Fields))
	for name, path := range tmpl.Fields {
		spec.Fields[name] = r.Replace(path)
	}
	return spec
}

func expandColorMode(exp Expansion, extended any) ([]FeatureSpec, []string, bool) {
	rawMode, err := Follow(extended, exp.ModePath)
	if err != nil {
		return nil, nil, false
	}
	n, ok := asInt(rawMode)
	mode := ColorMode(n)
	if !ok || !mode.Valid() {
		return nil, nil, false
	}
	var value string
	if raw, err := Follow(extended, exp.ValuePath); err == nil {
		value, _ = raw.(string)
	}
	var effects []string
	if exp.EffectsPath != "" {
		effects = parseEffects(extended, exp.EffectsPath)
	}
	return ColorModeSpecs(exp.Template, mode, len(value)/2), effects, true
}

// ColorModeSpecs lays out the light instances of a colour mode on a wire
// string of wireChannels channels.
//
// Mono boxes expose one instance per reported channel. CTx2 branches on the
// wire length: strings long enough for two pairs give two masked instances,
// shorter ones a single instance.
func ColorModeSpecs(tmpl FeatureSpec, mode ColorMode, wireChannels int) []FeatureSpec {
	one := func(alias string, offset, total int) FeatureSpec {
		spec := tmpl
		spec.Alias = alias
		spec.Mode = mode
		spec.Mask = NewMask(offset, mode.Channels(), total)
		return spec
	}
	width := mode.Channels()
	total := max(wireChannels, width)

	switch mode {
	case ColorModeMono:
		count := max(wireChannels, 1)
		total = max(count, monoWireChannels)
		specs := make([]FeatureSpec, 0, count)
		for i := 0; i < count; i++ {
			specs = append(specs, one(fmt.Sprintf("brightness_mono%d", i+1), i, total))
		}
		return specs
	case ColorModeCTx2:
		if wireChannels < 2*width {
			return []FeatureSpec{one("color_cct", 0, width)}
		}
		return []FeatureSpec{
			one("color_cct1", 0, total),
			one("color_cct2", width, total),
		}
	case ColorModeCT:
		return []FeatureSpec{one("color_cct", 0, total)}
	case ColorModeRGBWW:
		return []FeatureSpec{one("color_RGBCCT", 0, total)}
	default:
		return []FeatureSpec{one("color_"+mode.String(), 0, total)}
	}
}

// parseEffects turns {"0": "NONE", "1": "FADE"} into names indexed by id.
func parseEffects(extended any, path string) []string {
	raw, err := Follow(extended, path)
	if err != nil {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(obj))
	names := make(map[int]string, len(obj))
	for key, v := range obj {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 {
			continue
		}
		name, _ := v.(string)
		ids = append(ids, id)
		names[id] = name
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)
	effects := make([]string, ids[len(ids)-1]+1)
	for _, id := range ids {
		effects[id] = names[id]
	}
	return effects
}

func expandControlType(exp Expansion, extended any) ([]FeatureSpec, bool) {
	raw, err := Follow(extended, exp.ModePath)
	if err != nil {
		return nil, false
	}
	controlType, ok := asInt(raw)
	if !ok {
		return nil, false
	}
	endpoints := tvLiftEndpoints(controlType)
	specs := make([]FeatureSpec, 0, len(endpoints))
	for _, endpoint := range endpoints {
		spec := exp.Template
		spec.Alias = exp.Template.Alias + "_" + endpoint
		spec.Endpoint = endpoint
		specs = append(specs, spec)
	}
	return specs, true
}
