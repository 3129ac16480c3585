package blebox

import "strconv"

// maxColorLength bounds a colour string: five channels of two hex digits.
const maxColorLength = 10

// Validator checks raw field values on behalf of one device. Device is the
// name reported in FieldError messages.
type Validator struct {
	Device string
}

// CheckIntRange checks minValue <= value <= maxValue. When maxValue < minValue
// the range is unbounded and value is returned unchanged.
func (v Validator) CheckIntRange(field string, value, maxValue, minValue int) (int, error) {
	if maxValue < minValue {
		return value, nil
	}
	if value > maxValue {
		return 0, &FieldError{Kind: ErrFieldExceedsMax, Device: v.Device, Field: field, Value: value, Bound: maxValue}
	}
	if value < minValue {
		return 0, &FieldError{Kind: ErrFieldLessThanMin, Device: v.Device, Field: field, Value: value, Bound: minValue}
	}
	return value, nil
}

// ExpectInt requires raw to be a present integer within [minValue, maxValue].
func (v Validator) ExpectInt(field string, raw any, maxValue, minValue int) (int, error) {
	if raw == nil {
		return 0, &FieldError{Kind: ErrFieldMissing, Device: v.Device, Field: field}
	}
	n, ok := asInt(raw)
	if !ok {
		return 0, &FieldError{Kind: ErrFieldNotANumber, Device: v.Device, Field: field, Value: raw}
	}
	return v.CheckIntRange(field, n, maxValue, minValue)
}

// ExpectString requires raw to be a present string.
func (v Validator) ExpectString(field string, raw any) (string, error) {
	if raw == nil {
		return "", &FieldError{Kind: ErrFieldMissing, Device: v.Device, Field: field}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &FieldError{Kind: ErrFieldNotAString, Device: v.Device, Field: field, Value: raw}
	}
	return s, nil
}

// ExpectHexStr parses raw as a base-16 integer and range checks the result.
func (v Validator) ExpectHexStr(field string, raw any, maxValue, minValue int) (int, error) {
	s, err := v.ExpectString(field, raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, &FieldError{Kind: ErrFieldNotValidHex, Device: v.Device, Field: field, Value: s}
	}
	return v.CheckIntRange(field, int(n), maxValue, minValue)
}

// ExpectRGBW requires raw to be a string of even length no longer than five
// channels. It does not check which colour mode the value belongs to.
func (v Validator) ExpectRGBW(field string, raw any) (string, error) {
	s, err := v.ExpectString(field, raw)
	if err != nil {
		return "", err
	}
	if len(s)%2 != 0 || len(s) > maxColorLength {
		return "", &FieldError{Kind: ErrFieldNotRGBW, Device: v.Device, Field: field, Value: s}
	}
	return s, nil
}

// ExpectHex requires s to be exactly width hex digits.
func (v Validator) ExpectHex(field, s string, width int) (string, error) {
	if len(s) != width {
		return "", &FieldError{Kind: ErrFieldNotValidHex, Device: v.Device, Field: field, Value: s}
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return "", &FieldError{Kind: ErrFieldNotValidHex, Device: v.Device, Field: field, Value: s}
		}
	}
	return s, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
