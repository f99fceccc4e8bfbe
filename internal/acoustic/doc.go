// Package acoustic implements signal-level call analysis: fixed-window
// segmentation of decoded audio with per-window energy, pitch and
// zero-crossing features, and arousal classification.
package acoustic
