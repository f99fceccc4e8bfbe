package reasoning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// Severity values every violation is coerced into
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Violation is one policy violation cited by the reasoning service
type Violation struct {
	ClauseID      string `json:"clause_id"`
	RuleName      string `json:"rule_name"`
	Severity      string `json:"severity"`
	Description   string `json:"description"`
	Timestamp     string `json:"timestamp"`
	EvidenceQuote string `json:"evidence_quote"`
}

// GraphPoint is one timestamped entry on the emotional graph
type GraphPoint struct {
	Timestamp string  `json:"timestamp"`
	Tone      string  `json:"tone"`
	Score     float64 `json:"score"`
	Arousal   string  `json:"acoustic_arousal"`
}

// TimelinePoint is one of the three start/middle/end emotion markers
type TimelinePoint struct {
	Time    string `json:"time"`
	Emotion string `json:"emotion"`
}

// Judgment is the fully-typed form of the reasoning service's structured
// output. It is validated and default-filled at the orchestrator boundary so
// downstream components always see a total record. IsWithinPolicy stays a
// pointer: nil means the service did not supply the field and the assembler
// derives it from the violation list.
type Judgment struct {
	Summary          string          `json:"summary"`
	Category         string          `json:"category"`
	OverallSentiment string          `json:"overall_sentiment"`
	EmotionalTone    string          `json:"emotional_tone"`
	ToneProgression  []string        `json:"tone_progression"`
	EmotionalGraph   []GraphPoint    `json:"emotional_graph"`
	EmotionTimeline  []TimelinePoint `json:"emotion_timeline"`

	IsWithinPolicy   *bool       `json:"is_within_policy"`
	ComplianceFlags  []string    `json:"compliance_flags"`
	PolicyViolations []Violation `json:"policy_violations"`
	DetectedThreats  []string    `json:"detected_threats"`

	FraudRisk           string `json:"fraud_risk"`
	EscalationRisk      string `json:"escalation_risk"`
	UrgencyLevel        string `json:"urgency_level"`
	RiskEscalationScore int    `json:"risk_escalation_score"`

	AgentPoliteness      string `json:"agent_politeness"`
	AgentEmpathy         string `json:"agent_empathy"`
	AgentProfessionalism string `json:"agent_professionalism"`
	AgentQualityScore    int    `json:"agent_quality_score"`

	CallOutcomePrediction   string `json:"call_outcome_prediction"`
	RepeatComplaintDetected bool   `json:"repeat_complaint_detected"`
	FinalStatus             string `json:"final_status"`
	RecommendedAction       string `json:"recommended_action"`

	// FailureReason is set only on the fallback judgment produced when every
	// reasoning attempt failed.
	FailureReason string `json:"failure_reason,omitempty"`
}

// fencePattern strips a markdown code fence wrapped around JSON output
var fencePattern = regexp.MustCompile("^```[a-z]*\n?")

// parseJudgment enforces the output contract: strip fences, require a single
// JSON object, and default-fill every optional field.
func parseJudgment(raw string) (*Judgment, error) {
	text := bytes.TrimSpace([]byte(raw))
	if bytes.HasPrefix(text, []byte("```")) {
		text = fencePattern.ReplaceAll(text, nil)
		text = bytes.TrimSuffix(bytes.TrimSpace(text), []byte("```"))
		text = bytes.TrimSpace(text)
	}

	var j Judgment
	if err := json.Unmarshal(text, &j); err != nil {
		return nil, fmt.Errorf("malformed judgment JSON: %w", err)
	}

	j.applyDefaults()
	return &j, nil
}

// applyDefaults fills every optional field so the judgment is total
func (j *Judgment) applyDefaults() {
	if j.Summary == "" {
		j.Summary = "No summary available."
	}
	if j.Category == "" {
		j.Category = "Unknown"
	}
	if j.OverallSentiment == "" {
		j.OverallSentiment = "Neutral"
	}
	if j.EmotionalTone == "" {
		j.EmotionalTone = "Neutral"
	}
	if len(j.ToneProgression) == 0 {
		j.ToneProgression = []string{"Neutral"}
	}
	if j.EmotionalGraph == nil {
		j.EmotionalGraph = []GraphPoint{}
	}
	if len(j.EmotionTimeline) == 0 {
		j.EmotionTimeline = []TimelinePoint{
			{Time: "start", Emotion: "neutral"},
			{Time: "middle", Emotion: "neutral"},
			{Time: "end", Emotion: "neutral"},
		}
	}
	if j.ComplianceFlags == nil {
		j.ComplianceFlags = []string{}
	}
	if j.PolicyViolations == nil {
		j.PolicyViolations = []Violation{}
	}
	if j.DetectedThreats == nil {
		j.DetectedThreats = []string{}
	}
	if j.FraudRisk == "" {
		j.FraudRisk = SeverityLow
	}
	if j.EscalationRisk == "" {
		j.EscalationRisk = SeverityLow
	}
	if j.UrgencyLevel == "" {
		j.UrgencyLevel = SeverityLow
	}
	if j.AgentPoliteness == "" {
		j.AgentPoliteness = "fair"
	}
	if j.AgentEmpathy == "" {
		j.AgentEmpathy = "medium"
	}
	if j.AgentProfessionalism == "" {
		j.AgentProfessionalism = "fair"
	}
	if j.CallOutcomePrediction == "" {
		j.CallOutcomePrediction = "Resolved"
	}
	if j.FinalStatus == "" {
		j.FinalStatus = "Pending Review"
	}
	if j.RecommendedAction == "" {
		j.RecommendedAction = "Review manually."
	}
}

// Fallback returns the fixed neutral judgment used when every reasoning
// attempt failed: no violations, medium ratings, pending review, annotated
// with the failure reason.
func Fallback(reason string) *Judgment {
	summary := "Analysis could not be completed due to a processing error."
	if reason != "" {
		summary = fmt.Sprintf("Analysis could not be completed. Error: %s", reason)
	}

	withinPolicy := true

	return &Judgment{
		Summary:          summary,
		Category:         "Unknown",
		OverallSentiment: "Unknown",
		EmotionalTone:    "Unknown",
		ToneProgression:  []string{"Unknown"},
		EmotionalGraph: []GraphPoint{
			{Timestamp: "00:00", Tone: "Neutral", Score: 0.5, Arousal: "Low"},
		},
		EmotionTimeline: []TimelinePoint{
			{Time: "start", Emotion: "unknown"},
			{Time: "middle", Emotion: "unknown"},
			{Time: "end", Emotion: "unknown"},
		},
		IsWithinPolicy:          &withinPolicy,
		ComplianceFlags:         []string{},
		PolicyViolations:        []Violation{},
		DetectedThreats:         []string{},
		FraudRisk:               SeverityLow,
		EscalationRisk:          SeverityLow,
		UrgencyLevel:            SeverityLow,
		RiskEscalationScore:     0,
		AgentPoliteness:         "fair",
		AgentEmpathy:            "medium",
		AgentProfessionalism:    "fair",
		AgentQualityScore:       50,
		CallOutcomePrediction:   "Resolved",
		RepeatComplaintDetected: false,
		FinalStatus:             "Pending Review",
		RecommendedAction:       "Manual review required.",
		FailureReason:           reason,
	}
}
