package acoustic

import "math"

const (
	// Pitch search range, bounded to speech-relevant fundamentals (C2..C7)
	pitchMinHz = 65.41
	pitchMaxHz = 2093.0

	// Frames used for pitch and zero-crossing analysis within a window
	analysisFrameSize = 2048
	analysisHopSize   = 512

	// Minimum normalized autocorrelation peak for a frame to count as voiced
	voicingThreshold = 0.30
)

// estimatePitch returns the fundamental frequency of one analysis frame via
// normalized autocorrelation over the speech lag range, or 0 if the frame is
// unvoiced.
func estimatePitch(frame []float64, sampleRate int) float64 {
	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := int(float64(sampleRate) / pitchMinHz)

	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if maxLag <= minLag {
		return 0
	}

	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if energy == 0 {
		return 0
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i < len(frame)-lag; i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= energy

		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr < voicingThreshold {
		return 0
	}

	return float64(sampleRate) / float64(bestLag)
}

// windowPitch returns the median of all voiced frame estimates in the window,
// or 0 when no frame is voiced.
func windowPitch(samples []float64, sampleRate int) float64 {
	var estimates []float64

	for start := 0; start+analysisFrameSize <= len(samples); start += analysisHopSize {
		f0 := estimatePitch(samples[start:start+analysisFrameSize], sampleRate)
		if f0 > 0 {
			estimates = append(estimates, f0)
		}
	}

	// A short window may not fill a single full frame
	if len(estimates) == 0 && len(samples) >= analysisHopSize {
		if f0 := estimatePitch(samples, sampleRate); f0 > 0 {
			estimates = append(estimates, f0)
		}
	}

	if len(estimates) == 0 {
		return 0
	}

	return median(estimates)
}

// windowZCR returns the frame-mean zero-crossing proportion of the window
func windowZCR(samples []float64) float64 {
	var frames int
	var total float64

	for start := 0; start+analysisFrameSize <= len(samples); start += analysisHopSize {
		total += frameZCR(samples[start : start+analysisFrameSize])
		frames++
	}

	if frames == 0 {
		if len(samples) < 2 {
			return 0
		}
		return frameZCR(samples)
	}

	return total / float64(frames)
}

// frameZCR returns the proportion of sign changes within one frame
func frameZCR(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}

	var crossings int
	for i := 1; i < len(frame); i++ {
		if math.Signbit(frame[i]) != math.Signbit(frame[i-1]) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(frame))
}

// median returns the middle value of the slice; the slice is reordered
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	// Insertion sort: frame estimate counts are small
	for i := 1; i < n; i++ {
		for j := i; j > 0 && values[j] < values[j-1]; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}

	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
