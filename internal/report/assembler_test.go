package report

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/call-compliance-service/internal/acoustic"
	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/reasoning"
	"github.com/skypro1111/call-compliance-service/internal/temporal"
	"github.com/skypro1111/call-compliance-service/internal/tone"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseInputs() Inputs {
	cfg := clientcfg.Default()
	judgment := reasoning.Fallback("")
	judgment.IsWithinPolicy = nil
	judgment.FailureReason = ""

	return Inputs{
		RequestID:        "REQ-ABC123-MA",
		CallTimestampUTC: "2026-08-20T09:00:00Z",
		StartedAt:        time.Now(),
		Transcription: &transcription.Result{
			DetectedLanguages: []string{"English"},
			Turns: []transcription.Turn{
				{Speaker: "agent", Message: "Hello, calling about your dues.", Timestamp: "00:05"},
				{Speaker: "customer", Message: "I already paid.", Timestamp: "00:15"},
			},
			Category: "Debt Recovery",
		},
		Judgment:     judgment,
		TimeVerdict:  temporal.Verdict{Violation: false, LocalTime: "14:30"},
		ClientConfig: &cfg,
	}
}

func TestAssembleCleanCall(t *testing.T) {
	a := NewAssembler(testLogger())

	doc := a.Assemble(baseInputs())

	assert.Equal(t, "REQ-ABC123-MA", doc.RequestID)
	assert.True(t, doc.ComplianceAudit.IsWithinPolicy)
	assert.Empty(t, doc.ComplianceAudit.PolicyViolations)
	assert.Empty(t, doc.ComplianceAudit.ComplianceFlags)
	assert.Equal(t, "low", doc.Metadata.ConversationComplexity)
	assert.GreaterOrEqual(t, doc.Metadata.ProcessingTimeMs, int64(0))
	assert.Equal(t, "Banking / Debt Recovery", doc.ConfigApplied.BusinessDomain)
}

func TestAssembleDerivesWithinPolicyFromViolations(t *testing.T) {
	in := baseInputs()
	in.Judgment.PolicyViolations = []reasoning.Violation{
		{ClauseID: "RBI-REC-04", RuleName: "No Physical Threats", Severity: "critical"},
	}

	doc := NewAssembler(testLogger()).Assemble(in)

	assert.False(t, doc.ComplianceAudit.IsWithinPolicy)
	assert.Equal(t, []string{"Policy Violation Detected"}, doc.ComplianceAudit.ComplianceFlags)
}

func TestAssembleExplicitWithinPolicyWins(t *testing.T) {
	in := baseInputs()
	within := true
	in.Judgment.IsWithinPolicy = &within
	in.Judgment.PolicyViolations = []reasoning.Violation{
		{ClauseID: "RBI-REC-02", Severity: "low"},
	}

	doc := NewAssembler(testLogger()).Assemble(in)

	assert.True(t, doc.ComplianceAudit.IsWithinPolicy,
		"an explicit judgment value overrides the derived one")
	require.Len(t, doc.ComplianceAudit.PolicyViolations, 1)
}

func TestAssembleNormalizesSeverity(t *testing.T) {
	in := baseInputs()
	in.Judgment.PolicyViolations = []reasoning.Violation{
		{ClauseID: "A", Severity: "CRITICAL"},
		{ClauseID: "B", Severity: "High"},
		{ClauseID: "C", Severity: "severe"},
		{ClauseID: "D", Severity: ""},
	}

	doc := NewAssembler(testLogger()).Assemble(in)

	v := doc.ComplianceAudit.PolicyViolations
	require.Len(t, v, 4)
	assert.Equal(t, "critical", v[0].Severity)
	assert.Equal(t, "high", v[1].Severity)
	assert.Equal(t, "medium", v[2].Severity, "unknown values default to medium")
	assert.Equal(t, "medium", v[3].Severity)

	// The judgment's own slice is untouched
	assert.Equal(t, "CRITICAL", in.Judgment.PolicyViolations[0].Severity)
}

func TestAssembleInjectsTimeViolation(t *testing.T) {
	in := baseInputs()
	in.TimeVerdict = temporal.Verdict{
		Violation:   true,
		LocalTime:   "22:30",
		ClauseID:    temporal.ClauseID,
		RuleName:    "Operating Hours Compliance",
		Description: "Call placed at 10:30 PM IST, outside permitted hours.",
	}

	doc := NewAssembler(testLogger()).Assemble(in)

	require.Len(t, doc.ComplianceAudit.PolicyViolations, 1)
	v := doc.ComplianceAudit.PolicyViolations[0]
	assert.Equal(t, temporal.ClauseID, v.ClauseID)
	assert.Equal(t, "high", v.Severity)
	assert.Equal(t, "22:30", v.Timestamp)
	assert.Equal(t, "Call timestamp detected as 22:30 IST.", v.EvidenceQuote)
	assert.False(t, doc.ComplianceAudit.IsWithinPolicy)
}

func TestAssembleTimeViolationNotDuplicated(t *testing.T) {
	in := baseInputs()
	in.Judgment.PolicyViolations = []reasoning.Violation{
		{ClauseID: temporal.ClauseID, RuleName: "Operating Hours Compliance", Severity: "high"},
	}
	in.TimeVerdict = temporal.Verdict{
		Violation: true,
		LocalTime: "22:30",
		ClauseID:  temporal.ClauseID,
	}

	doc := NewAssembler(testLogger()).Assemble(in)

	count := 0
	for _, v := range doc.ComplianceAudit.PolicyViolations {
		if v.ClauseID == temporal.ClauseID {
			count++
		}
	}
	assert.Equal(t, 1, count, "the operating-hours clause appears exactly once")
}

func TestComplexityFromTurns(t *testing.T) {
	assert.Equal(t, "low", complexityFromTurns(0))
	assert.Equal(t, "low", complexityFromTurns(6))
	assert.Equal(t, "medium", complexityFromTurns(7))
	assert.Equal(t, "medium", complexityFromTurns(14))
	assert.Equal(t, "high", complexityFromTurns(15))
}

func TestAttachTones(t *testing.T) {
	turns := []transcription.Turn{
		{Speaker: "agent", Message: "We will send people to your house."},
		{Speaker: "customer", Message: "Thank you so much for your help."},
	}

	toned := attachTones(turns)

	assert.NotEmpty(t, toned[0].Tone)
	assert.Equal(t, tone.Positive, toned[1].Tone)
	assert.Empty(t, turns[0].Tone, "input turns are not mutated")
}

func TestPickCategory(t *testing.T) {
	assert.Equal(t, "Fraud Complaint", pickCategory("Fraud Complaint", "Debt Recovery"))
	assert.Equal(t, "Debt Recovery", pickCategory("Unknown", "Debt Recovery"))
	assert.Equal(t, "Telecom", pickCategory("", "Telecom"))
	assert.Equal(t, "Debt Recovery", pickCategory("", ""))
}

func TestCleanEntities(t *testing.T) {
	entities := cleanEntities([]transcription.Entity{
		{Text: "Rahul", ID: "person_1", Type: "PERSON"},
		{Text: "HDFC"},
	})

	assert.Equal(t, "person_1", entities[0].ID)
	assert.Equal(t, "entity_01", entities[1].ID)
	assert.Equal(t, "UNKNOWN", entities[1].Type)
}

func TestFillArousal(t *testing.T) {
	segments := []acoustic.Segment{
		{Timestamp: "00:00", Arousal: acoustic.ArousalHigh},
		{Timestamp: "00:10", Arousal: acoustic.ArousalMedium},
	}
	graph := []reasoning.GraphPoint{
		{Timestamp: "00:00", Tone: "Angry", Score: 0.9},
		{Timestamp: "00:10", Tone: "Neutral", Score: 0.4, Arousal: "Low"},
		{Timestamp: "05:00", Tone: "Neutral", Score: 0.3},
	}

	filled := fillArousal(graph, segments)

	assert.Equal(t, "High", filled[0].Arousal, "exact timestamp match backfills")
	assert.Equal(t, "Low", filled[1].Arousal, "supplied arousal is kept")
	assert.Equal(t, "Low", filled[2].Arousal, "no matching segment defaults to Low")

	assert.Equal(t, []reasoning.GraphPoint{}, fillArousal(nil, segments))
}
