package bridge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-blebox/internal/blebox"
)

// =============================================================================
// Encode
// =============================================================================

func TestEncode_Cover(t *testing.T) {
	c := testFeature[*blebox.Cover](t, "shutterBox", 20180604, "position", shutterState)

	tests := []struct {
		name     string
		cmd      CommandMessage
		wantPath string
		wantErr  error
	}{
		{"open", CommandMessage{Command: "open"}, "/s/u", nil},
		{"close", CommandMessage{Command: "close"}, "/s/d", nil},
		{"stop", CommandMessage{Command: "stop"}, "/s/s", nil},
		{"set position", CommandMessage{Command: "set_position", Parameters: map[string]any{"position": float64(75)}}, "/s/p/75", nil},
		{"position as json number", CommandMessage{Command: "set_position", Parameters: map[string]any{"position": json.Number("20")}}, "/s/p/20", nil},
		{"missing position", CommandMessage{Command: "set_position"}, "", ErrInvalidParameters},
		{"fractional position", CommandMessage{Command: "set_position", Parameters: map[string]any{"position": 7.5}}, "", ErrInvalidParameters},
		{"position as string", CommandMessage{Command: "set_position", Parameters: map[string]any{"position": "75"}}, "", ErrInvalidParameters},
		{"position out of range", CommandMessage{Command: "set_position", Parameters: map[string]any{"position": float64(150)}}, "", blebox.ErrBadValue},
		{"tilt unsupported", CommandMessage{Command: "set_tilt", Parameters: map[string]any{"tilt": float64(10)}}, "", blebox.ErrMisconfiguredDevice},
		{"unknown", CommandMessage{Command: "dance"}, "", ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Encode(c, tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if req.Path != tt.wantPath {
				t.Errorf("Encode() path = %q, want %q", req.Path, tt.wantPath)
			}
		})
	}
}

func TestEncode_Switch(t *testing.T) {
	s := testFeature[*blebox.Switch](t, "switchBox", 20180604, "0.relay", `[{"relay":0,"state":0}]`)

	on, err := Encode(s, CommandMessage{Command: "on"})
	if err != nil || on.Path != "/s/1" {
		t.Errorf("Encode(on) = (%+v, %v), want /s/1", on, err)
	}
	off, err := Encode(s, CommandMessage{Command: "off"})
	if err != nil || off.Path != "/s/0" {
		t.Errorf("Encode(off) = (%+v, %v), want /s/0", off, err)
	}
	if _, err := Encode(s, CommandMessage{Command: "toggle"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Encode(toggle) error = %v, want ErrUnknownCommand", err)
	}
}

func TestEncode_Climate(t *testing.T) {
	c := testFeature[*blebox.Climate](t, "saunaBox", 20180604, "thermostat",
		`{"heat":{"state":1,"desiredTemp":6400,"minimumTemp":5000,"maximumTemp":12000,"sensors":[{"id":0,"value":4123}]}}`)

	req, err := Encode(c, CommandMessage{Command: "set_temperature", Parameters: map[string]any{"temperature": 72.5}})
	if err != nil || req.Path != "/s/t/7250" {
		t.Errorf("Encode(set_temperature) = (%+v, %v), want /s/t/7250", req, err)
	}
	if _, err := Encode(c, CommandMessage{Command: "set_temperature"}); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("Encode() without temperature error = %v, want ErrInvalidParameters", err)
	}
	if _, err := Encode(c, CommandMessage{Command: "set_temperature", Parameters: map[string]any{"temperature": float64(130)}}); !errors.Is(err, blebox.ErrBadValue) {
		t.Errorf("Encode() above maximum error = %v, want ErrBadValue", err)
	}
	on, err := Encode(c, CommandMessage{Command: "on"})
	if err != nil || on.Path != "/s/1" {
		t.Errorf("Encode(on) = (%+v, %v), want /s/1", on, err)
	}
}

func TestEncode_Light(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		cmd      CommandMessage
		wantBody string
		wantErr  error
	}{
		{
			name:     "on from off uses full scale",
			state:    `{"dimmer":{"desiredBrightness":0}}`,
			cmd:      CommandMessage{Command: "on"},
			wantBody: `{"dimmer":{"desiredBrightness":255}}`,
		},
		{
			name:     "brightness rescales current value",
			state:    `{"dimmer":{"desiredBrightness":128}}`,
			cmd:      CommandMessage{Command: "on", Parameters: map[string]any{"brightness": float64(64)}},
			wantBody: `{"dimmer":{"desiredBrightness":64}}`,
		},
		{
			name:     "explicit value",
			state:    `{"dimmer":{"desiredBrightness":0}}`,
			cmd:      CommandMessage{Command: "on", Parameters: map[string]any{"value": "10"}},
			wantBody: `{"dimmer":{"desiredBrightness":16}}`,
		},
		{
			name:     "zero brightness turns off",
			state:    `{"dimmer":{"desiredBrightness":128}}`,
			cmd:      CommandMessage{Command: "on", Parameters: map[string]any{"brightness": float64(0)}},
			wantBody: `{"dimmer":{"desiredBrightness":0}}`,
		},
		{
			name:     "off",
			state:    `{"dimmer":{"desiredBrightness":128}}`,
			cmd:      CommandMessage{Command: "off"},
			wantBody: `{"dimmer":{"desiredBrightness":0}}`,
		},
		{
			name:    "brightness out of range",
			state:   `{"dimmer":{"desiredBrightness":128}}`,
			cmd:     CommandMessage{Command: "on", Parameters: map[string]any{"brightness": float64(300)}},
			wantErr: blebox.ErrBadValue,
		},
		{
			name:    "value of wrong type",
			state:   `{"dimmer":{"desiredBrightness":128}}`,
			cmd:     CommandMessage{Command: "on", Parameters: map[string]any{"value": float64(3)}},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "unknown",
			state:   `{"dimmer":{"desiredBrightness":128}}`,
			cmd:     CommandMessage{Command: "blink"},
			wantErr: ErrUnknownCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testFeature[*blebox.Light](t, "dimmerBox", 20170829, "brightness", tt.state)
			req, err := Encode(l, tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if req.Body != tt.wantBody {
				t.Errorf("Encode() body = %s, want %s", req.Body, tt.wantBody)
			}
		})
	}
}

func TestEncode_Sensor(t *testing.T) {
	s := testFeature[*blebox.Sensor](t, "tempSensor", 20180604, "0.temperature", sensorState)
	if _, err := Encode(s, CommandMessage{Command: "on"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Encode() on sensor error = %v, want ErrUnknownCommand", err)
	}
}

// =============================================================================
// FeatureFields
// =============================================================================

func TestFeatureFields(t *testing.T) {
	tests := []struct {
		name    string
		feature blebox.Feature
		want    map[string]float64
	}{
		{
			name:    "sensor",
			feature: testFeature[*blebox.Sensor](t, "tempSensor", 20180604, "0.temperature", sensorState),
			want:    map[string]float64{"value": 21.5},
		},
		{
			name:    "cover",
			feature: testFeature[*blebox.Cover](t, "shutterBox", 20180604, "position", shutterState),
			want:    map[string]float64{"position": 78},
		},
		{
			name: "climate",
			feature: testFeature[*blebox.Climate](t, "saunaBox", 20180604, "thermostat",
				`{"heat":{"state":1,"desiredTemp":6400,"minimumTemp":5000,"maximumTemp":12000,"sensors":[{"id":0,"value":4123}]}}`),
			want: map[string]float64{"temperature": 41.2, "desired": 64},
		},
		{
			name:    "light",
			feature: testFeature[*blebox.Light](t, "dimmerBox", 20170829, "brightness", `{"dimmer":{"desiredBrightness":128}}`),
			want:    map[string]float64{"brightness": 128},
		},
		{
			name:    "sensor without reading",
			feature: testFeature[*blebox.Sensor](t, "tempSensor", 20180604, "0.temperature", ""),
			want:    map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FeatureFields(tt.feature)
			if len(got) != len(tt.want) {
				t.Fatalf("FeatureFields() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("FeatureFields()[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrDeviceNotFound, ErrCodeDeviceNotFound},
		{ErrUnknownCommand, ErrCodeInvalidCommand},
		{blebox.ErrUnknownCommand, ErrCodeInvalidCommand},
		{ErrInvalidParameters, ErrCodeInvalidParameters},
		{blebox.ErrBadValue, ErrCodeInvalidParameters},
		{blebox.ErrMisconfiguredDevice, ErrCodeNotSupported},
		{blebox.ErrStateNotAvailable, ErrCodeStateNotAvailable},
		{errors.New("boom"), ErrCodeBridgeError},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
