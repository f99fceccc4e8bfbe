// Package pipeline runs the end-to-end call analysis: acoustic segmentation
// and transcription in parallel, then the operating-hours check, policy clause
// retrieval, compliance reasoning, and final document assembly. Auxiliary
// stages degrade to documented defaults, so a pipeline run only fails outright
// when the policy store is unusable or the input cannot be read.
package pipeline
