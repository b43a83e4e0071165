package model

import (
	"fmt"
	"math"
	"strconv"
)

// FieldError reports a missing or malformed reading field. It is the
// only error kind a request can fail with before any outbound call.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// ParseReading converts an untyped request payload into a Reading.
// temperature, humidity and timestamp_ms are required and must be
// numeric; device_id is optional and defaults to DefaultDeviceID.
func ParseReading(raw map[string]any) (Reading, error) {
	deviceID := DefaultDeviceID
	if v, ok := raw["device_id"]; ok {
		s, ok := v.(string)
		if !ok {
			return Reading{}, &FieldError{Field: "device_id", Reason: "must be a string"}
		}
		if s != "" {
			deviceID = s
		}
	}

	temp, err := numberField(raw, "temperature")
	if err != nil {
		return Reading{}, err
	}
	hum, err := numberField(raw, "humidity")
	if err != nil {
		return Reading{}, err
	}
	ts, err := numberField(raw, "timestamp_ms")
	if err != nil {
		return Reading{}, err
	}
	if ts < 0 {
		return Reading{}, &FieldError{Field: "timestamp_ms", Reason: "must not be negative"}
	}

	reading := Reading{
		DeviceID:     deviceID,
		TemperatureC: temp,
		HumidityPct:  hum,
		TimestampMs:  int64(ts),
	}
	if _, err := reading.TempScaled(); err != nil {
		return Reading{}, &FieldError{Field: "temperature", Reason: err.Error()}
	}
	if _, err := reading.HumidityScaled(); err != nil {
		return Reading{}, &FieldError{Field: "humidity", Reason: err.Error()}
	}
	return reading, nil
}

func numberField(raw map[string]any, name string) (float64, error) {
	v, ok := raw[name]
	if !ok || v == nil {
		return 0, &FieldError{Field: name, Reason: "is required"}
	}

	var f float64
	switch value := v.(type) {
	case float64:
		f = value
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, &FieldError{Field: name, Reason: "must be numeric"}
		}
		f = parsed
	default:
		return 0, &FieldError{Field: name, Reason: "must be numeric"}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &FieldError{Field: name, Reason: "must be a finite number"}
	}
	return f, nil
}
