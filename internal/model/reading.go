// Package model defines the relay's domain types.
package model

import (
	"math"

	"github.com/sensorledger/relay-backend/pkg/safe"
)

// DefaultDeviceID is used when a reading does not identify its device.
const DefaultDeviceID = "unknown-device"

// Reading is a single sensor measurement as received from a device.
// TimestampMs is device-supplied time, not server time.
type Reading struct {
	DeviceID     string
	TemperatureC float64
	HumidityPct  float64
	TimestampMs  int64
}

// Scale encodes a decimal sensor value as a tenths-of-unit integer,
// rounding half away from zero.
func Scale(v float64) int64 {
	return int64(math.Round(v * 10))
}

// TempScaled returns the temperature in tenths of a degree Celsius.
func (r Reading) TempScaled() (int16, error) {
	return safe.Int16(Scale(r.TemperatureC))
}

// HumidityScaled returns the relative humidity in tenths of a percent.
func (r Reading) HumidityScaled() (uint16, error) {
	return safe.Uint16(Scale(r.HumidityPct))
}

// Receipt is the chain's confirmation record for a submitted transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
}

// RelayResult is the caller-facing outcome of one relayed reading.
type RelayResult struct {
	Status string `json:"status"`
	TxHash string `json:"tx_hash"`
	Block  uint64 `json:"block"`
	CID    string `json:"cid"`
}
