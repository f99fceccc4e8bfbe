// Package reasoning orchestrates the external compliance reasoning step: it
// renders transcript, acoustic and policy context into one structured prompt,
// enforces the JSON output contract, and walks an ordered model fallback chain
// ending in a neutral default judgment. It never propagates a hard failure.
package reasoning
