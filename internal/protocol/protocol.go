package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Message types
const (
	TypePing        = "ping"
	TypeReset       = "reset"
	TypeRecalibrate = "recalibrate"

	TypePong        = "pong"
	TypeResetAck    = "reset_ack"
	TypeCalibrating = "calibrating"
	TypeCalibrated  = "calibrated"
)

// Vowel chart bounds used to place a result on the display
const (
	chartF1Min  = 250.0
	chartF1Span = 600.0
	chartF2Max  = 800.0 // offset subtracted before scaling; x grows towards back vowels
	chartF2Span = 1600.0
	chartCenter = 0.5
)

var (
	// ErrMalformedControl is returned for text frames that are not a JSON object with a type
	ErrMalformedControl = errors.New("malformed control message")
	// ErrUnknownControl is returned for control messages with an unsupported type
	ErrUnknownControl = errors.New("unknown control message type")
)

// Control is a client to server control message
type Control struct {
	Type string `json:"type"`
}

// ParseControl decodes and validates a text frame
func ParseControl(data []byte) (Control, error) {
	var c Control
	if err := json.Unmarshal(data, &c); err != nil {
		return Control{}, fmt.Errorf("%w: %v", ErrMalformedControl, err)
	}

	switch c.Type {
	case TypePing, TypeReset, TypeRecalibrate:
		return c, nil
	case "":
		return Control{}, fmt.Errorf("%w: missing type", ErrMalformedControl)
	default:
		return Control{}, fmt.Errorf("%w: %q", ErrUnknownControl, c.Type)
	}
}

// NoiseFloor carries the calibrated ambient levels
type NoiseFloor struct {
	RMS       float64 `json:"rms"`
	Intensity float64 `json:"intensity"`
}

// Status is a server to client status message
type Status struct {
	Type       string      `json:"type"`
	Message    string      `json:"message,omitempty"`
	NoiseFloor *NoiseFloor `json:"noiseFloor,omitempty"`
}

// Calibrating tells the client to stay quiet while the noise floor is measured
func Calibrating() Status {
	return Status{Type: TypeCalibrating, Message: "Calibrating noise floor, please stay quiet"}
}

// Calibrated reports the measured noise floor
func Calibrated(floor NoiseFloor) Status {
	return Status{
		Type:       TypeCalibrated,
		Message:    fmt.Sprintf("Calibration complete (noise floor %.4f RMS, %.1f dB)", floor.RMS, floor.Intensity),
		NoiseFloor: &floor,
	}
}

// Pong answers a ping
func Pong() Status {
	return Status{Type: TypePong}
}

// ResetAck confirms a reset
func ResetAck() Status {
	return Status{Type: TypeResetAck}
}

// Analysis is the outcome of one analysis tick
type Analysis struct {
	F1         float64
	F2         float64
	F3         float64
	Pitch      float64
	Intensity  float64
	Voiced     bool
	Vowel      *string
	Confidence float64
}

// Position places a result on a unit vowel chart
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is the wire form of an Analysis
type Result struct {
	F1            float64  `json:"f1"`
	F2            float64  `json:"f2"`
	F3            float64  `json:"f3"`
	Pitch         float64  `json:"pitch"`
	Intensity     float64  `json:"intensity"`
	IsVoiced      bool     `json:"isVoiced"`
	DetectedVowel *string  `json:"detectedVowel"`
	Confidence    float64  `json:"confidence"`
	Position      Position `json:"position"`
}

// NewResult rounds an analysis for display and computes its chart position
func NewResult(a Analysis) Result {
	return Result{
		F1:            round(a.F1, 1),
		F2:            round(a.F2, 1),
		F3:            round(a.F3, 1),
		Pitch:         round(a.Pitch, 1),
		Intensity:     round(a.Intensity, 1),
		IsVoiced:      a.Voiced,
		DetectedVowel: a.Vowel,
		Confidence:    round(a.Confidence, 3),
		Position:      ChartPosition(a.F1, a.F2),
	}
}

// ChartPosition maps formants onto [0,1]²: x from F2 (front to back), y from F1 (close to open).
// A missing formant places that axis at the center.
func ChartPosition(f1, f2 float64) Position {
	p := Position{X: chartCenter, Y: chartCenter}
	if f2 > 0 {
		p.X = clamp01(1 - (f2-chartF2Max)/chartF2Span)
	}
	if f1 > 0 {
		p.Y = clamp01((f1 - chartF1Min) / chartF1Span)
	}
	return p
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
