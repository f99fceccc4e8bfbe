// Package transcription provides the HTTP client boundary to the external
// multimodal transcription service: diarized transcript turns, detected
// languages, entities and topics, with fallback and timestamp repair.
package transcription
