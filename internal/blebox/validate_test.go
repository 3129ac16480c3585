package blebox

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidator_CheckIntRange(t *testing.T) {
	v := Validator{Device: "My shutterBox"}

	tests := []struct {
		name    string
		value   int
		max     int
		min     int
		want    int
		wantErr error
	}{
		{"within range", 50, 100, 0, 50, nil},
		{"at max", 100, 100, 0, 100, nil},
		{"at min", 0, 100, 0, 0, nil},
		{"above max", 150, 100, 0, 0, ErrFieldExceedsMax},
		{"below min", -2, 100, -1, 0, ErrFieldLessThanMin},
		{"unbounded when max below min", 150, -1, 0, 150, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.CheckIntRange("position", tt.value, tt.max, tt.min)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckIntRange() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CheckIntRange() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidator_FieldErrorDetails(t *testing.T) {
	v := Validator{Device: "My shutterBox"}
	_, err := v.CheckIntRange("position", 150, 100, 0)

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FieldError", err)
	}
	if fe.Device != "My shutterBox" || fe.Field != "position" || fe.Value != 150 || fe.Bound != 100 {
		t.Errorf("FieldError = %+v", fe)
	}
	want := "My shutterBox.position is 150 which exceeds max (100)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	_, err = v.CheckIntRange("position", -5, 100, 0)
	want = "My shutterBox.position is -5 which is less than minimum (0)"
	if err == nil || err.Error() != want {
		t.Errorf("Error() = %v, want %q", err, want)
	}
}

func TestValidator_ExpectInt(t *testing.T) {
	v := Validator{Device: "box"}

	tests := []struct {
		name    string
		raw     any
		want    int
		wantErr error
	}{
		{"json number", json.Number("42"), 42, nil},
		{"go int", 7, 7, nil},
		{"missing", nil, 0, ErrFieldMissing},
		{"numeric string", "42", 0, ErrFieldNotANumber},
		{"bool", true, 0, ErrFieldNotANumber},
		{"fraction", json.Number("4.2"), 0, ErrFieldNotANumber},
		{"out of range", json.Number("101"), 0, ErrFieldExceedsMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ExpectInt("value", tt.raw, 100, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExpectInt() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExpectInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidator_ExpectHexStr(t *testing.T) {
	v := Validator{Device: "box"}

	tests := []struct {
		name    string
		raw     any
		want    int
		wantErr error
	}{
		{"byte", "ff", 255, nil},
		{"upper case", "7F", 127, nil},
		{"not hex", "zz", 0, ErrFieldNotValidHex},
		{"not a string", 12, 0, ErrFieldNotAString},
		{"missing", nil, 0, ErrFieldMissing},
		{"above range", "1ff", 0, ErrFieldExceedsMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ExpectHexStr("desired", tt.raw, 255, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExpectHexStr() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExpectHexStr() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidator_ExpectRGBW(t *testing.T) {
	v := Validator{Device: "box"}

	tests := []struct {
		name    string
		raw     any
		wantErr error
	}{
		{"mono", "ff", nil},
		{"rgbw", "ff00ff00", nil},
		{"rgbww", "ff00ff0010", nil},
		{"odd length", "fff", ErrFieldNotRGBW},
		{"too long", "ff00ff001020", ErrFieldNotRGBW},
		{"not a string", 255, ErrFieldNotAString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ExpectRGBW("desiredColor", tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ExpectRGBW(%v) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestValidator_ExpectHex(t *testing.T) {
	v := Validator{Device: "box"}
	if got, err := v.ExpectHex("value", "a0B1", 4); err != nil || got != "a0B1" {
		t.Errorf("ExpectHex() = (%q, %v), want (a0B1, nil)", got, err)
	}
	if _, err := v.ExpectHex("value", "a0", 4); !errors.Is(err, ErrFieldNotValidHex) {
		t.Errorf("ExpectHex() short error = %v, want ErrFieldNotValidHex", err)
	}
	if _, err := v.ExpectHex("value", "a0--", 4); !errors.Is(err, ErrFieldNotValidHex) {
		t.Errorf("ExpectHex() placeholder error = %v, want ErrFieldNotValidHex", err)
	}
}
