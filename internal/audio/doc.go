// Package audio handles audio file decoding and format handling. It parses
// WAV containers into PCM samples for acoustic analysis and reports recording
// duration for timestamp repair.
package audio
