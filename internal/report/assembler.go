package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skypro1111/call-compliance-service/internal/acoustic"
	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/reasoning"
	"github.com/skypro1111/call-compliance-service/internal/temporal"
	"github.com/skypro1111/call-compliance-service/internal/tone"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

// Turn-count boundaries for conversation complexity
const (
	lowComplexityMaxTurns    = 6
	mediumComplexityMaxTurns = 14
)

// genericViolationFlag is added when violations exist but the reasoning step
// supplied no flags of its own.
const genericViolationFlag = "Policy Violation Detected"

// Inputs carries every intermediate result the assembler combines
type Inputs struct {
	RequestID        string
	CallTimestampUTC string
	StartedAt        time.Time
	Transcription    *transcription.Result
	Segments         []acoustic.Segment
	Judgment         *reasoning.Judgment
	TimeVerdict      temporal.Verdict
	ClientConfig     *clientcfg.Config
}

// Assembler builds the final audit document
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Assemble combines all intermediate results into the final document. Inputs
// are not mutated; violation and turn slices are copied before normalization.
func (a *Assembler) Assemble(in Inputs) *AuditDocument {
	turns := attachTones(in.Transcription.Turns)

	violations := normalizeViolations(in.Judgment.PolicyViolations)
	violations = injectTimeViolation(violations, in.TimeVerdict)

	hasViolations := len(violations) > 0
	withinPolicy := !hasViolations
	if in.Judgment.IsWithinPolicy != nil {
		withinPolicy = *in.Judgment.IsWithinPolicy
		if withinPolicy && hasViolations {
			a.logger.Warn("judgment marked call within policy despite violations",
				slog.String("request_id", in.RequestID),
				slog.Int("violations", len(violations)))
		}
	}

	flags := in.Judgment.ComplianceFlags
	if hasViolations && len(flags) == 0 {
		flags = []string{genericViolationFlag}
	}

	return &AuditDocument{
		RequestID: in.RequestID,
		Metadata: Metadata{
			Timestamp:              in.CallTimestampUTC,
			DetectedLanguages:      in.Transcription.DetectedLanguages,
			ProcessingTimeMs:       time.Since(in.StartedAt).Milliseconds(),
			ConversationComplexity: complexityFromTurns(len(turns)),
		},
		ConfigApplied: ConfigApplied{
			BusinessDomain:    in.ClientConfig.BusinessDomain,
			MonitoredProducts: in.ClientConfig.MonitoredProducts,
			ActivePolicySet:   in.ClientConfig.ActivePolicySet,
			RiskTriggers:      in.ClientConfig.RiskTriggers,
		},
		IntelligenceSummary: IntelligenceSummary{
			Summary:           in.Judgment.Summary,
			Category:          pickCategory(in.Judgment.Category, in.Transcription.Category),
			ConversationAbout: in.Transcription.ConversationAbout,
			PrimaryIntent:     in.Transcription.PrimaryIntent,
			KeyTopics:         in.Transcription.KeyTopics,
			Entities:          cleanEntities(in.Transcription.Entities),
			RootCause:         in.Transcription.RootCause,
		},
		EmotionalAnalysis: EmotionalAnalysis{
			OverallSentiment: in.Judgment.OverallSentiment,
			EmotionalTone:    in.Judgment.EmotionalTone,
			ToneProgression:  in.Judgment.ToneProgression,
			EmotionalGraph:   fillArousal(in.Judgment.EmotionalGraph, in.Segments),
			EmotionTimeline:  in.Judgment.EmotionTimeline,
		},
		ComplianceAudit: ComplianceAudit{
			IsWithinPolicy:   withinPolicy,
			ComplianceFlags:  flags,
			PolicyViolations: violations,
			DetectedThreats:  in.Judgment.DetectedThreats,
			RiskScores: RiskScores{
				FraudRisk:           in.Judgment.FraudRisk,
				EscalationRisk:      in.Judgment.EscalationRisk,
				UrgencyLevel:        in.Judgment.UrgencyLevel,
				RiskEscalationScore: in.Judgment.RiskEscalationScore,
			},
		},
		TranscriptThreads: turns,
		PerformanceOutcomes: PerformanceOutcomes{
			AgentPerformance: AgentPerformance{
				Politeness:          in.Judgment.AgentPoliteness,
				Empathy:             in.Judgment.AgentEmpathy,
				Professionalism:     in.Judgment.AgentProfessionalism,
				OverallQualityScore: in.Judgment.AgentQualityScore,
			},
			CallOutcomePrediction:   in.Judgment.CallOutcomePrediction,
			RepeatComplaintDetected: in.Judgment.RepeatComplaintDetected,
			FinalStatus:             in.Judgment.FinalStatus,
			RecommendedAction:       in.Judgment.RecommendedAction,
		},
	}
}

// complexityFromTurns maps the turn count onto a coarse complexity label
func complexityFromTurns(turnCount int) string {
	switch {
	case turnCount <= lowComplexityMaxTurns:
		return "low"
	case turnCount <= mediumComplexityMaxTurns:
		return "medium"
	default:
		return "high"
	}
}

// attachTones copies the turns and labels each with its lexical tone
func attachTones(turns []transcription.Turn) []transcription.Turn {
	out := make([]transcription.Turn, len(turns))
	for i, t := range turns {
		t.Tone = tone.Classify(t.Message)
		out[i] = t
	}
	return out
}

// pickCategory prefers the judgment's category over the transcript's
func pickCategory(judged, transcribed string) string {
	if judged != "" && judged != "Unknown" {
		return judged
	}
	if transcribed != "" {
		return transcribed
	}
	return "Debt Recovery"
}

// cleanEntities default-fills missing entity ids and types
func cleanEntities(entities []transcription.Entity) []transcription.Entity {
	out := make([]transcription.Entity, len(entities))
	for i, e := range entities {
		if e.ID == "" {
			e.ID = fmt.Sprintf("entity_%02d", i)
		}
		if e.Type == "" {
			e.Type = "UNKNOWN"
		}
		out[i] = e
	}
	return out
}

// fillArousal backfills missing acoustic arousal on graph points from the
// segment whose timestamp matches exactly, defaulting to Low.
func fillArousal(graph []reasoning.GraphPoint, segments []acoustic.Segment) []reasoning.GraphPoint {
	if len(graph) == 0 {
		return []reasoning.GraphPoint{}
	}

	arousalByTimestamp := make(map[string]string, len(segments))
	for _, seg := range segments {
		arousalByTimestamp[seg.Timestamp] = seg.Arousal
	}

	out := make([]reasoning.GraphPoint, len(graph))
	for i, p := range graph {
		if p.Arousal == "" {
			arousal, ok := arousalByTimestamp[p.Timestamp]
			if !ok {
				arousal = acoustic.ArousalLow
			}
			p.Arousal = arousal
		}
		out[i] = p
	}
	return out
}

// normalizeViolations copies the violations and coerces severity into the
// closed set, defaulting unknown values to medium.
func normalizeViolations(violations []reasoning.Violation) []reasoning.Violation {
	out := make([]reasoning.Violation, len(violations))
	for i, v := range violations {
		switch strings.ToLower(v.Severity) {
		case reasoning.SeverityLow, reasoning.SeverityMedium, reasoning.SeverityHigh, reasoning.SeverityCritical:
			v.Severity = strings.ToLower(v.Severity)
		default:
			v.Severity = reasoning.SeverityMedium
		}
		out[i] = v
	}
	return out
}

// injectTimeViolation appends the operating-hours violation when detected and
// not already cited by the reasoning step, so it appears exactly once.
func injectTimeViolation(violations []reasoning.Violation, verdict temporal.Verdict) []reasoning.Violation {
	if !verdict.Violation {
		return violations
	}

	for _, v := range violations {
		if v.ClauseID == temporal.ClauseID {
			return violations
		}
	}

	return append(violations, reasoning.Violation{
		ClauseID:      temporal.ClauseID,
		RuleName:      verdict.RuleName,
		Severity:      reasoning.SeverityHigh,
		Description:   verdict.Description,
		Timestamp:     verdict.LocalTime,
		EvidenceQuote: fmt.Sprintf("Call timestamp detected as %s IST.", verdict.LocalTime),
	})
}
