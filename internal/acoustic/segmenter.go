package acoustic

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/skypro1111/call-compliance-service/internal/audio"
)

// Arousal labels
const (
	ArousalLow    = "Low"
	ArousalMedium = "Medium"
	ArousalHigh   = "High"
)

const (
	// SegmentDurationSeconds is the fixed analysis window length
	SegmentDurationSeconds = 10

	// Arousal thresholds. Order of evaluation is load-bearing: pitch alone
	// never triggers High or Medium.
	highEnergyThreshold   = 0.65
	mediumEnergyThreshold = 0.35
	highPitchThreshold    = 210.0
)

// Segment holds the acoustic features of one fixed-duration window.
// Segments are immutable after creation.
type Segment struct {
	Timestamp   string  `json:"timestamp"`
	EnergyScore float64 `json:"energy_score"`
	PitchHz     float64 `json:"pitch_hz"`
	ZCR         float64 `json:"zcr"`
	Arousal     string  `json:"acoustic_arousal"`
}

// Segmenter slices decoded audio into fixed windows and classifies each
// window's arousal from loudness and pitch.
type Segmenter struct {
	logger *slog.Logger
}

// NewSegmenter creates a new acoustic segmenter
func NewSegmenter(logger *slog.Logger) *Segmenter {
	return &Segmenter{logger: logger}
}

// AnalyzeFile decodes an audio file and analyzes it. Decode failures degrade
// to the single synthetic fallback segment; callers never receive an empty
// segment list and never see an error.
func (s *Segmenter) AnalyzeFile(path string) []Segment {
	samples, sampleRate, err := audio.DecodeFile(path)
	if err != nil {
		s.logger.Warn("Could not decode audio for acoustic analysis, using fallback segment",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fallbackSegments()
	}

	return s.Analyze(samples, sampleRate)
}

// Analyze computes per-window features over a decoded mono sample sequence.
// Trailing windows shorter than half a second of the window length are
// dropped; if nothing usable remains the synthetic fallback segment is
// returned instead.
func (s *Segmenter) Analyze(samples []float64, sampleRate int) []Segment {
	if len(samples) == 0 || sampleRate <= 0 {
		return fallbackSegments()
	}

	windowSamples := SegmentDurationSeconds * sampleRate

	// Global RMS for normalization; average loudness maps to about 0.5
	globalRMS := rms(samples)
	if globalRMS == 0 {
		globalRMS = 1e-6
	}

	var segments []Segment
	for start, i := 0, 0; start < len(samples); start, i = start+windowSamples, i+1 {
		end := start + windowSamples
		if end > len(samples) {
			end = len(samples)
		}
		window := samples[start:end]

		// Skip very short trailing windows
		if len(window) < sampleRate/2 {
			continue
		}

		energy := math.Min(1.0, rms(window)/(globalRMS*2.0+1e-6))
		pitch := windowPitch(window, sampleRate)
		zcr := windowZCR(window)

		segments = append(segments, Segment{
			Timestamp:   formatTimestamp(i * SegmentDurationSeconds),
			EnergyScore: round(energy, 4),
			PitchHz:     round(pitch, 2),
			ZCR:         round(zcr, 6),
			Arousal:     classifyArousal(energy, pitch),
		})
	}

	if len(segments) == 0 {
		return fallbackSegments()
	}

	s.logger.Debug("Acoustic analysis complete",
		slog.Int("segments", len(segments)),
		slog.Int("sample_rate", sampleRate),
	)

	return segments
}

// classifyArousal maps energy and pitch to an arousal label. Evaluated in
// order: High requires both thresholds, Medium requires only energy.
func classifyArousal(energy, pitch float64) string {
	if energy >= highEnergyThreshold && pitch >= highPitchThreshold {
		return ArousalHigh
	}
	if energy >= mediumEnergyThreshold {
		return ArousalMedium
	}
	return ArousalLow
}

// fallbackSegments returns the single safe-default segment used when decoding
// fails or yields no usable windows.
func fallbackSegments() []Segment {
	return []Segment{
		{
			Timestamp:   "00:00",
			EnergyScore: 0.5,
			PitchHz:     150.0,
			ZCR:         0.05,
			Arousal:     ArousalMedium,
		},
	}
}

// rms returns the root-mean-square amplitude of the samples
func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s * s
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// formatTimestamp renders a window's start offset as MM:SS
func formatTimestamp(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// round rounds v to the given number of decimal places
func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
