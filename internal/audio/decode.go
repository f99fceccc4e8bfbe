package audio

import (
	"fmt"
	"os"
)

// DecodeFile reads an audio file and returns its mono sample sequence as
// normalized floats in [-1, 1] together with the sample rate. Only PCM WAV is
// decoded natively; anything else is an error and callers degrade per their
// own fallback rules.
func DecodeFile(path string) ([]float64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read audio file %s: %w", path, err)
	}

	samples, sampleRate, err := DecodeWAV(data)
	if err != nil {
		return nil, 0, err
	}

	normalized := make([]float64, len(samples))
	for i, s := range samples {
		normalized[i] = float64(s) / 32768.0
	}

	return normalized, sampleRate, nil
}

// FileDuration returns the audio duration in seconds, or 0 if the file cannot
// be decoded. Used for transcript timestamp validation, where a missing
// duration just disables the repair.
func FileDuration(path string) float64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	duration, err := GetWAVDuration(data)
	if err != nil {
		return 0
	}

	return duration
}
