package blebox

// Command templates shared by several box types.
var (
	getOn  = CommandTemplate{Method: MethodGet, Path: "/s/1"}
	getOff = CommandTemplate{Method: MethodGet, Path: "/s/0"}
)

// relay returns a pointer to a static relay index.
func relay(n int) *int { return &n }

// boxTypes is the capability table of every supported box type.
var boxTypes = map[string]Tiers{
	"airSensor": {
		20180403: {
			APIPath: "/api/air/state",
			Features: map[FeatureKind][]FeatureSpec{
				KindAirQuality: {{
					Alias: "0.air",
					Fields: map[string]string{
						"pm1":   "air/sensors/[type='pm1']/value",
						"pm2_5": "air/sensors/[type='pm2.5']/value",
						"pm10":  "air/sensors/[type='pm10']/value",
					},
				}},
			},
		},
	},

	"gateBox": {
		DefaultAPILevel: {
			APIPath:  "/api/gate/state",
			Commands: gateBoxCommands,
			Features: map[FeatureKind][]FeatureSpec{
				KindCover: {{
					Alias: "position",
					Cover: CoverGateBox,
					Fields: map[string]string{
						"current":         "currentPos",
						"desired":         "desiredPos",
						"extraButtonType": "extraButtonType",
					},
				}},
			},
		},
		20200831: {
			APIPath:  "/state",
			Commands: gateBoxCommands,
			Features: map[FeatureKind][]FeatureSpec{
				KindCover: {{
					Alias:  "position",
					Cover:  CoverGateBoxB,
					Fields: map[string]string{"current": "gate/currentPos"},
				}},
			},
		},
	},

	"gateController": {
		20180604: {
			APIPath: "/api/gatecontroller/state",
			Commands: Commands{
				"open":     {Method: MethodGet, Path: "/s/o"},
				"close":    {Method: MethodGet, Path: "/s/c"},
				"position": {Method: MethodGet, Path: "/s/p/{0}", Params: 1},
				"stop":     {Method: MethodGet, Path: "/s/s"},
			},
			Features: map[FeatureKind][]FeatureSpec{
				KindCover: {{
					Alias: "position",
					Cover: CoverGateController,
					Fields: map[string]string{
						"desired": "gateController/desiredPos/positions/[0]",
						"state":   "gateController/state",
					},
				}},
			},
		},
	},

	"shutterBox": {
		20180604: {
			APIPath:  "/api/shutter/state",
			Commands: shutterCommands(false),
			Features: map[FeatureKind][]FeatureSpec{
				KindCover: {{
					Alias:  "position",
					Cover:  CoverShutter,
					Fields: shutterFields(false),
				}},
			},
		},
		20190911: {
			APIPath:  "/api/shutter/extended/state",
			Commands: shutterCommands(true),
			Features: map[FeatureKind][]FeatureSpec{
				KindCover: {{
					Alias:  "position",
					Cover:  CoverShutter,
					Fields: shutterFields(true),
				}},
			},
		},
	},

	"saunaBox": {
		20180604: {
			APIPath: "/api/heat/extended/state",
			Commands: Commands{
				"on":  getOn,
				"off": getOff,
				"set": {Method: MethodGet, Path: "/s/t/{0}", Params: 1},
			},
			Features: map[FeatureKind][]FeatureSpec{
				KindClimate: {{
					Alias: "thermostat",
					Fields: map[string]string{
						"desired":     "heat/desiredTemp",
						"temperature": "heat/sensors/[id=0]/value",
						"state":       "heat/state",
						"minimum":     "heat/minimumTemp",
						"maximum":     "heat/maximumTemp",
					},
				}},
			},
		},
	},

	"switchBox": {
		20180604: {
			APIPath:  "/api/relay/state",
			Commands: Commands{"on": getOn, "off": getOff},
			Features: map[FeatureKind][]FeatureSpec{
				KindSwitch: {{Alias: "0.relay", Fields: map[string]string{"state": "[relay=0]/state"}}},
			},
		},
		20190808: {
			APIPath:  "/api/relay/state",
			Commands: Commands{"on": getOn, "off": getOff},
			Features: map[FeatureKind][]FeatureSpec{
				KindSwitch: {{Alias: "0.relay", Fields: map[string]string{"state": "relays/[relay=0]/state"}}},
			},
		},
	},

	"switchBoxD": {
		20190808: {
			APIPath:      "/api/relay/state",
			ExtendedPath: "/api/relay/extended/state",
			Commands: Commands{
				"on":  {Method: MethodGet, Path: "/s/{0}/1", Params: 1},
				"off": {Method: MethodGet, Path: "/s/{0}/0", Params: 1},
			},
			Features: map[FeatureKind][]FeatureSpec{
				KindSwitch: {
					{Alias: "0.relay", Unit: relay(0), Fields: map[string]string{"state": "relays/[relay=0]/state"}},
					{Alias: "1.relay", Unit: relay(1), Fields: map[string]string{"state": "relays/[relay=1]/state"}},
				},
			},
			Expansions: map[FeatureKind]Expansion{
				KindSwitch: {
					By:       ExpandUnits,
					ListPath: "relays",
					IDKey:    "relay",
					Template: FeatureSpec{
						Alias:  "{id}.relay",
						Fields: map[string]string{"state": "relays/[relay={id}]/state"},
					},
				},
			},
		},
	},

	"tempSensor": {
		20180604: {
			APIPath: "/api/tempsensor/state",
			Features: map[FeatureKind][]FeatureSpec{
				KindSensor: {{
					Alias:  "0.temperature",
					Sensor: SensorTemperature,
					Fields: map[string]string{"value": "tempSensor/sensors/[id=0]/value"},
				}},
			},
		},
	},

	"multiSensor": {
		20210413: {
			APIPath:      "/state",
			ExtendedPath: "/state/extended",
			Expansions: map[FeatureKind]Expansion{
				KindSensor: {
					By:       ExpandUnits,
					ListPath: "multiSensor/sensors",
					IDKey:    "id",
					TypeKey:  "type",
					Template: FeatureSpec{
						Alias:  "{id}.{type}",
						Fields: map[string]string{"value": "multiSensor/sensors/[id={id}]/value"},
					},
				},
				KindBinarySensor: {
					By:       ExpandUnits,
					ListPath: "multiSensor/sensors",
					IDKey:    "id",
					TypeKey:  "type",
					Template: FeatureSpec{
						Alias:  "{type}_{id}",
						Fields: map[string]string{"value": "multiSensor/sensors/[id={id}]/value"},
					},
				},
			},
		},
	},

	"dimmerBox": {
		20170829: {
			APIPath: "/api/dimmer/state",
			Commands: Commands{
				"set": {
					Method: MethodPost,
					Path:   "/api/dimmer/set",
					Body:   `{"dimmer":{"desiredBrightness":{0}}}`,
					Params: 1,
				},
			},
			Features: map[FeatureKind][]FeatureSpec{
				KindLight: {{
					Alias:  "brightness",
					Light:  LightDimmer,
					Mode:   ColorModeMono,
					Fields: map[string]string{"desired": "dimmer/desiredBrightness"},
				}},
			},
		},
	},

	"wLightBoxS": {
		20180718: {
			APIPath: "/api/light/state",
			Commands: Commands{
				"set": {
					Method: MethodPost,
					Path:   "/api/light/set",
					Body:   `{"light":{"desiredColor":"{0}"}}`,
					Params: 1,
				},
			},
			Features: map[FeatureKind][]FeatureSpec{
				KindLight: {{
					Alias:  "color",
					Light:  LightHex,
					Mode:   ColorModeMono,
					Fields: map[string]string{"desired": "light/desiredColor"},
				}},
			},
		},
	},

	"wLightBox": {
		20180718: wLightBoxTier(""),
		20190808: wLightBoxTier("/api/rgbw/extended/state"),
		20200229: wLightBoxTier("/api/rgbw/extended/state"),
	},

	"tvLiftBox": {
		20200518: {
			APIPath:      "/state",
			ExtendedPath: "/state/extended",
			Commands: Commands{
				"set": {Method: MethodGet, Path: "/s/{0}", Params: 1},
			},
			Expansions: map[FeatureKind]Expansion{
				KindButton: {
					By:       ExpandControlType,
					ModePath: "tvLift/controlType",
					Template: FeatureSpec{Alias: "tvLift"},
				},
			},
		},
	},
}

var gateBoxCommands = Commands{
	"primary":   {Method: MethodGet, Path: "/s/p"},
	"secondary": {Method: MethodGet, Path: "/s/s"},
}

func shutterCommands(tilt bool) Commands {
	c := Commands{
		"open":     {Method: MethodGet, Path: "/s/u"},
		"close":    {Method: MethodGet, Path: "/s/d"},
		"position": {Method: MethodGet, Path: "/s/p/{0}", Params: 1},
		"stop":     {Method: MethodGet, Path: "/s/s"},
	}
	if tilt {
		c["tilt"] = CommandTemplate{Method: MethodGet, Path: "/s/t/{0}", Params: 1}
	}
	return c
}

func shutterFields(tilt bool) map[string]string {
	f := map[string]string{
		"desired": "shutter/desiredPos/position",
		"current": "shutter/currentPos/position",
		"state":   "shutter/state",
	}
	if tilt {
		f["tilt"] = "shutter/desiredPos/tilt"
		f["controlType"] = "shutter/controlType"
	}
	return f
}

// wLightBoxTier builds a wLightBox tier. Tiers with an extended state path
// derive their light instances from the reported colour mode.
func wLightBoxTier(extendedPath string) CapabilityConfig {
	fields := map[string]string{
		"desired":   "rgbw/desiredColor",
		"lastColor": "rgbw/lastOnColor",
		"effect":    "rgbw/effectID",
	}
	conf := CapabilityConfig{
		APIPath:      "/api/rgbw/state",
		ExtendedPath: extendedPath,
		Commands: Commands{
			"set": {
				Method: MethodPost,
				Path:   "/api/rgbw/set",
				Body:   `{"rgbw":{"desiredColor":"{0}"}}`,
				Params: 1,
			},
			"effect": {Method: MethodGet, Path: "/s/x/{0}", Params: 1},
		},
		Features: map[FeatureKind][]FeatureSpec{
			KindLight: {{Alias: "color", Light: LightHex, Mode: ColorModeRGBW, Fields: fields}},
		},
	}
	if extendedPath != "" {
		conf.Expansions = map[FeatureKind]Expansion{
			KindLight: {
				By:          ExpandColorMode,
				ModePath:    "rgbw/colorMode",
				ValuePath:   "rgbw/desiredColor",
				EffectsPath: "rgbw/effectsNames",
				Template:    FeatureSpec{Light: LightHex, Fields: fields},
			},
		}
	}
	return conf
}
