package report

import (
	"github.com/skypro1111/call-compliance-service/internal/reasoning"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

// Metadata describes the processed call and the processing run
type Metadata struct {
	Timestamp              string   `json:"timestamp"`
	DetectedLanguages      []string `json:"detected_languages"`
	ProcessingTimeMs       int64    `json:"processing_time_ms"`
	ConversationComplexity string   `json:"conversation_complexity"`
}

// ConfigApplied echoes the merged client configuration the audit ran under
type ConfigApplied struct {
	BusinessDomain    string   `json:"business_domain"`
	MonitoredProducts []string `json:"monitored_products"`
	ActivePolicySet   string   `json:"active_policy_set"`
	RiskTriggers      []string `json:"risk_triggers"`
}

// IntelligenceSummary is the call-level semantic summary
type IntelligenceSummary struct {
	Summary           string                 `json:"summary"`
	Category          string                 `json:"category"`
	ConversationAbout string                 `json:"conversation_about"`
	PrimaryIntent     string                 `json:"primary_intent"`
	KeyTopics         []string               `json:"key_topics"`
	Entities          []transcription.Entity `json:"entities"`
	RootCause         string                 `json:"root_cause"`
}

// EmotionalAnalysis aggregates tonal findings across the call
type EmotionalAnalysis struct {
	OverallSentiment string                    `json:"overall_sentiment"`
	EmotionalTone    string                    `json:"emotional_tone"`
	ToneProgression  []string                  `json:"tone_progression"`
	EmotionalGraph   []reasoning.GraphPoint    `json:"emotional_graph"`
	EmotionTimeline  []reasoning.TimelinePoint `json:"emotion_timeline"`
}

// RiskScores groups the coarse risk ratings and the combined score
type RiskScores struct {
	FraudRisk           string `json:"fraud_risk"`
	EscalationRisk      string `json:"escalation_risk"`
	UrgencyLevel        string `json:"urgency_level"`
	RiskEscalationScore int    `json:"risk_escalation_score"`
}

// ComplianceAudit is the compliance verdict section
type ComplianceAudit struct {
	IsWithinPolicy   bool                  `json:"is_within_policy"`
	ComplianceFlags  []string              `json:"compliance_flags"`
	PolicyViolations []reasoning.Violation `json:"policy_violations"`
	DetectedThreats  []string              `json:"detected_threats"`
	RiskScores       RiskScores            `json:"risk_scores"`
}

// AgentPerformance rates the agent's conduct on the call
type AgentPerformance struct {
	Politeness          string `json:"politeness"`
	Empathy             string `json:"empathy"`
	Professionalism     string `json:"professionalism"`
	OverallQualityScore int    `json:"overall_quality_score"`
}

// PerformanceOutcomes is the agent performance and outcome section
type PerformanceOutcomes struct {
	AgentPerformance        AgentPerformance `json:"agent_performance"`
	CallOutcomePrediction   string           `json:"call_outcome_prediction"`
	RepeatComplaintDetected bool             `json:"repeat_complaint_detected"`
	FinalStatus             string           `json:"final_status"`
	RecommendedAction       string           `json:"recommended_action"`
}

// AuditDocument is the complete analysis response for one call recording
type AuditDocument struct {
	RequestID           string               `json:"request_id"`
	Metadata            Metadata             `json:"metadata"`
	ConfigApplied       ConfigApplied        `json:"config_applied"`
	IntelligenceSummary IntelligenceSummary  `json:"intelligence_summary"`
	EmotionalAnalysis   EmotionalAnalysis    `json:"emotional_and_tonal_analysis"`
	ComplianceAudit     ComplianceAudit      `json:"compliance_and_risk_audit"`
	TranscriptThreads   []transcription.Turn `json:"transcript_threads"`
	PerformanceOutcomes PerformanceOutcomes  `json:"performance_and_outcomes"`
}
