package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/audio"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/extractor"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/formant"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/metrics"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/protocol"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/vad"
)

// Phase is the lifecycle state of a session
type Phase int32

const (
	PhaseCalibrating Phase = iota
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseCalibrating:
		return "calibrating"
	case PhaseActive:
		return "active"
	default:
		return fmt.Sprintf("unknown(%d)", int32(p))
	}
}

// Analysis pipeline stages, used to label failures
const (
	StageDecode  = "decode"
	StageExtract = "extract"
)

// StageError reports which pipeline stage failed during a tick
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Session is the per-connection analysis state machine.
//
// HandleAudio and HandleControl must be called from a single goroutine, in
// arrival order. GetSessionInfo and the accessors may be called concurrently.
type Session struct {
	ID         string
	RemoteAddr string
	StartTime  time.Time

	sampleRate   int
	chunkSamples int

	filter     *audio.HighPass
	buffer     *audio.Buffer
	calibrator *vad.Calibrator
	gate       *vad.Gate
	smoother   *formant.Smoother
	extractor  extractor.Extractor

	logger  *slog.Logger
	metrics *metrics.Metrics

	// calibration state
	announced bool      // calibrating status already sent for this phase
	pending   []float64 // samples not yet cut into a calibration chunk

	// shared with monitoring
	phase        atomic.Int32
	noiseFloor   atomic.Pointer[vad.NoiseFloor]
	lastVowel    atomic.Pointer[string]
	lastActivity atomic.Int64

	framesReceived  atomic.Uint64
	bytesReceived   atomic.Uint64
	malformedFrames atomic.Uint64
	ticks           atomic.Uint64
	voicedTicks     atomic.Uint64
	failedTicks     atomic.Uint64
	controlMessages atomic.Uint64
	calibrations    atomic.Uint64
}

// NewSession creates a session in the calibrating phase
func NewSession(id, remoteAddr string, cfg *config.Config, ex extractor.Extractor, logger *slog.Logger, m *metrics.Metrics) (*Session, error) {
	if ex == nil {
		return nil, errors.New("extractor is required")
	}

	buffer, err := audio.NewBuffer(cfg.Audio.GetBufferSamples(), cfg.Audio.AnalysisWindow, cfg.Audio.Cadence)
	if err != nil {
		return nil, fmt.Errorf("failed to create session buffer: %w", err)
	}

	s := &Session{
		ID:           id,
		RemoteAddr:   remoteAddr,
		StartTime:    time.Now(),
		sampleRate:   cfg.Audio.SampleRate,
		chunkSamples: cfg.Calibration.ChunkSamples,
		filter:       audio.NewHighPass(cfg.Audio.HighPassCutoff, cfg.Audio.SampleRate),
		buffer:       buffer,
		smoother:     formant.NewSmoother(cfg.Smoothing),
		extractor:    ex,
		logger:       logger.With(slog.String("session_id", id)),
		metrics:      m,
	}
	s.calibrator = vad.NewCalibrator(cfg.Calibration, cfg.Audio.SampleRate, s.measureIntensity)
	s.gate = vad.NewGate(cfg.Gate, s.calibrator)
	s.touch()

	return s, nil
}

// HandleAudio processes one binary PCM-16 frame and returns the messages to send, in order
func (s *Session) HandleAudio(data []byte) []any {
	s.touch()
	s.framesReceived.Add(1)
	s.bytesReceived.Add(uint64(len(data)))
	s.metrics.RecordFrame(len(data))

	var out []any
	calibrating := s.Phase() == PhaseCalibrating
	if calibrating && !s.announced {
		s.announced = true
		out = append(out, protocol.Calibrating())
	}

	samples, err := audio.DecodePCM16(data)
	if err != nil {
		s.malformedFrames.Add(1)
		s.metrics.RecordMalformedFrame()
		s.logger.Debug("Malformed audio frame", slog.Int("bytes", len(data)), slog.String("error", err.Error()))
		if calibrating {
			return out
		}
		return append(out, s.fail(&StageError{Stage: StageDecode, Err: err}))
	}

	if calibrating {
		return append(out, s.calibrate(samples)...)
	}
	return append(out, s.ingest(samples)...)
}

// HandleControl processes one text frame. Malformed or unknown messages are ignored.
func (s *Session) HandleControl(data []byte) []any {
	s.touch()

	ctrl, err := protocol.ParseControl(data)
	if err != nil {
		s.metrics.RecordInvalidControl()
		s.logger.Warn("Ignoring control message", slog.String("error", err.Error()))
		return nil
	}

	s.controlMessages.Add(1)
	s.metrics.RecordControl(ctrl.Type)

	switch ctrl.Type {
	case protocol.TypePing:
		return []any{protocol.Pong()}

	case protocol.TypeReset:
		s.reset()
		s.logger.Info("Session reset")
		return []any{protocol.ResetAck()}

	case protocol.TypeRecalibrate:
		s.reset()
		s.announced = true
		s.logger.Info("Session recalibrating")
		return []any{protocol.Calibrating()}
	}

	return nil
}

// calibrate cuts pending audio into fixed chunks for the calibrator. Samples
// left over once calibration converges are fed straight into the analysis buffer.
func (s *Session) calibrate(samples []float64) []any {
	s.pending = append(s.pending, samples...)

	for len(s.pending) >= s.chunkSamples {
		chunk := s.pending[:s.chunkSamples]
		s.pending = s.pending[s.chunkSamples:]

		if !s.calibrator.Ingest(s.filter.Apply(chunk)) {
			continue
		}

		rest := s.pending
		s.pending = nil

		floor := s.calibrator.NoiseFloor()
		s.noiseFloor.Store(&floor)
		s.phase.Store(int32(PhaseActive))
		s.calibrations.Add(1)
		s.metrics.RecordCalibration(floor.RMS)

		s.logger.Info("Noise floor calibrated",
			slog.Float64("rms", floor.RMS),
			slog.Float64("intensity_db", floor.Intensity),
			slog.Duration("elapsed", time.Since(s.StartTime)),
		)

		out := []any{protocol.Calibrated(protocol.NoiseFloor{RMS: floor.RMS, Intensity: floor.Intensity})}
		if len(rest) > 0 {
			out = append(out, s.ingest(rest)...)
		}
		return out
	}

	return nil
}

// ingest appends samples to the rolling buffer and runs a tick when one is due
func (s *Session) ingest(samples []float64) []any {
	frame, ok := s.buffer.Append(samples)
	if !ok {
		return nil
	}

	start := time.Now()
	analysis, err := s.analyze(frame)
	if err != nil {
		return []any{s.fail(err)}
	}

	s.ticks.Add(1)
	vowel := ""
	if analysis.Voiced {
		s.voicedTicks.Add(1)
		if analysis.Vowel != nil {
			vowel = *analysis.Vowel
			s.lastVowel.Store(analysis.Vowel)
		}
	}
	s.metrics.RecordTick(analysis.Voiced, vowel, analysis.Confidence, time.Since(start).Seconds())

	return []any{protocol.NewResult(analysis)}
}

// analyze runs one analysis tick over a window
func (s *Session) analyze(frame []float64) (protocol.Analysis, error) {
	filtered := s.filter.Apply(frame)

	features, err := s.extractor.Extract(filtered, s.sampleRate)
	if err != nil {
		return protocol.Analysis{}, &StageError{Stage: StageExtract, Err: err}
	}
	features = features.Sanitize()

	if !s.gate.IsVoiced(filtered, features.Intensity) {
		v := s.smoother.Decay()
		return protocol.Analysis{F1: v.F1, F2: v.F2, Intensity: features.Intensity}, nil
	}

	v := s.smoother.Update(formant.Values{
		F1:    features.F1,
		F2:    features.F2,
		F3:    features.F3,
		Pitch: features.Pitch,
	})
	match := formant.Classify(v.F1, v.F2)

	return protocol.Analysis{
		F1:         v.F1,
		F2:         v.F2,
		F3:         v.F3,
		Pitch:      v.Pitch,
		Intensity:  features.Intensity,
		Voiced:     true,
		Vowel:      match.Symbol(),
		Confidence: match.Confidence,
	}, nil
}

// fail records a failed tick and returns the silent result sent in its place
func (s *Session) fail(err error) protocol.Result {
	s.ticks.Add(1)
	s.failedTicks.Add(1)

	stage := "unknown"
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}
	s.metrics.RecordAnalysisFailure(stage)
	s.logger.Debug("Analysis failed, sending silent result", slog.String("stage", stage), slog.String("error", err.Error()))

	return protocol.NewResult(protocol.Analysis{})
}

func (s *Session) reset() {
	s.buffer.Reset()
	s.smoother.Reset()
	s.calibrator.Reset()
	s.pending = nil
	s.announced = false
	s.noiseFloor.Store(nil)
	s.phase.Store(int32(PhaseCalibrating))
}

// measureIntensity feeds the calibrator the extractor's intensity reading
func (s *Session) measureIntensity(frame []float64) (float64, error) {
	f, err := s.extractor.Extract(frame, s.sampleRate)
	if err != nil {
		return 0, err
	}
	return f.Sanitize().Intensity, nil
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Phase returns the current lifecycle phase
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// NoiseFloor returns the calibrated noise floor, or false while calibrating
func (s *Session) NoiseFloor() (vad.NoiseFloor, bool) {
	if nf := s.noiseFloor.Load(); nf != nil {
		return *nf, true
	}
	return vad.NoiseFloor{}, false
}

// LastActivity returns the time the last frame or control message arrived
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// SessionInfo represents session information for monitoring and APIs
type SessionInfo struct {
	ID              string          `json:"id"`
	RemoteAddr      string          `json:"remote_addr"`
	Phase           string          `json:"phase"`
	StartTime       time.Time       `json:"start_time"`
	LastActivity    time.Time       `json:"last_activity"`
	Duration        time.Duration   `json:"duration"`
	FramesReceived  uint64          `json:"frames_received"`
	BytesReceived   uint64          `json:"bytes_received"`
	MalformedFrames uint64          `json:"malformed_frames"`
	Ticks           uint64          `json:"ticks"`
	VoicedTicks     uint64          `json:"voiced_ticks"`
	FailedTicks     uint64          `json:"failed_ticks"`
	VoicePercentage float64         `json:"voice_percentage"`
	ControlMessages uint64          `json:"control_messages"`
	Calibrations    uint64          `json:"calibrations"`
	NoiseFloor      *vad.NoiseFloor `json:"noise_floor,omitempty"`
	LastVowel       string          `json:"last_vowel,omitempty"`
}

// GetSessionInfo returns a snapshot of the session's statistics
func (s *Session) GetSessionInfo() SessionInfo {
	info := SessionInfo{
		ID:              s.ID,
		RemoteAddr:      s.RemoteAddr,
		Phase:           s.Phase().String(),
		StartTime:       s.StartTime,
		LastActivity:    s.LastActivity(),
		Duration:        time.Since(s.StartTime),
		FramesReceived:  s.framesReceived.Load(),
		BytesReceived:   s.bytesReceived.Load(),
		MalformedFrames: s.malformedFrames.Load(),
		Ticks:           s.ticks.Load(),
		VoicedTicks:     s.voicedTicks.Load(),
		FailedTicks:     s.failedTicks.Load(),
		ControlMessages: s.controlMessages.Load(),
		Calibrations:    s.calibrations.Load(),
		NoiseFloor:      s.noiseFloor.Load(),
	}
	if info.Ticks > 0 {
		info.VoicePercentage = float64(info.VoicedTicks) / float64(info.Ticks) * 100
	}
	if v := s.lastVowel.Load(); v != nil {
		info.LastVowel = *v
	}

	return info
}
