package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skypro1111/call-compliance-service/internal/acoustic"
	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/policy"
	"github.com/skypro1111/call-compliance-service/internal/temporal"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

// maxClauseDescriptionChars bounds the clause text embedded in the prompt
const maxClauseDescriptionChars = 200

// compliancePromptTemplate is the instruction block sent to the reasoning
// service. The placeholders are filled positionally by BuildPrompt.
const compliancePromptTemplate = `You are a senior RBI (Reserve Bank of India) compliance auditor AI called "Vigilant".
You specialize in auditing debt recovery calls for policy violations, emotional tone,
and agent conduct.

You are given:
1. TRANSCRIPT: A diarized call transcript (agent vs. customer turns with timestamps)
2. ACOUSTIC DATA: Per-segment audio emotion data (energy, pitch, arousal level)
3. ALL POLICY CLAUSES: The COMPLETE set of RBI/NBFC/Internal policy clauses you MUST check
4. CLIENT CONFIG: Active risk triggers and rules for this bank
5. CALL TIMESTAMP: When this call was placed

---

TRANSCRIPT:
%s

---

ACOUSTIC DATA:
%s

---

ALL POLICY CLAUSES (CHECK EVERY SINGLE ONE AGAINST THE TRANSCRIPT):
%s

---

CLIENT CONFIG:
%s

---

CALL TIMESTAMP (UTC): %s
CALL TIMESTAMP (IST): %s
TIME VIOLATION DETECTED: %s
%s

---

MANDATORY COMPLIANCE CHECK INSTRUCTIONS:
1. Read EVERY clause listed in "ALL POLICY CLAUSES" above.
2. For EACH clause, decide whether the agent violated it based on the transcript.
3. If a violation is found, add it to "policy_violations" with exact evidence.
4. Be strict. A missed violation is worse than a false positive in compliance auditing.
5. Pay special attention to: threats, intimidation, unauthorized visits, calls outside permitted hours,
   mentioning police/jail/legal action without basis, lack of empathy, abusive language.

Your task: Produce a comprehensive compliance audit. Return ONLY valid JSON
(no markdown, no explanation).

The JSON must have EXACTLY these top-level keys:

{
  "summary": "3-sentence intelligence summary of what happened",
  "category": "call category e.g. Fraud Complaint / Debt Recovery",
  "overall_sentiment": "e.g. Negative / High Tension",
  "emotional_tone": "e.g. Distressed / Aggressive",
  "tone_progression": ["ordered list tracking tone evolution"],
  "emotional_graph": [
    {
      "timestamp": "MM:SS",
      "tone": "Neutral|Frustrated|Angry|Threatening|Distressed|Aggressive",
      "score": 0.0,
      "acoustic_arousal": "Low|Medium|High"
    }
  ],
  "emotion_timeline": [
    {"time": "start", "emotion": "neutral"},
    {"time": "middle", "emotion": "frustrated"},
    {"time": "end", "emotion": "angry"}
  ],
  "is_within_policy": false,
  "compliance_flags": ["list of high-level flag names"],
  "policy_violations": [
    {
      "clause_id": "RBI-REC-04",
      "rule_name": "No Physical Threats",
      "severity": "low|medium|high|critical",
      "description": "explanation of what violated this clause",
      "timestamp": "MM:SS",
      "evidence_quote": "exact agent quote from transcript"
    }
  ],
  "detected_threats": ["plain English threat descriptions"],
  "fraud_risk": "low|medium|high",
  "escalation_risk": "low|medium|high",
  "urgency_level": "low|medium|high",
  "risk_escalation_score": 0,
  "agent_politeness": "excellent|good|fair|poor|unacceptable",
  "agent_empathy": "high|medium|low|none",
  "agent_professionalism": "excellent|good|fair|poor|unacceptable",
  "agent_quality_score": 0,
  "call_outcome_prediction": "e.g. Escalation Likely / Legal Dispute",
  "repeat_complaint_detected": false,
  "final_status": "e.g. Escalated to Compliance Manager",
  "recommended_action": "specific action for compliance team"
}

Rules:
- emotional_graph must have one entry per ~30 seconds of conversation (use transcript timestamps)
- Merge acoustic_arousal from ACOUSTIC DATA with conversational tone from transcript
- policy_violations must cite real clause_ids from the ALL POLICY CLAUSES section
- severity must be: "critical" (criminal threats/violence), "high" (intimidation/harassment), "medium" (procedural breach), "low" (minor/technical)
- If time violation was detected, add it as a policy_violation with clause_id INTERNAL-TIME-01 and severity "high"
- risk_escalation_score: 0-100 integer reflecting combined risk (consider violations, arousal, threats)
- agent_quality_score: 0-100 (100 = perfect agent, 0 = completely non-compliant)
- evidence_quote must be the exact agent utterance from the transcript`

// Input carries everything the reasoning step needs to render its prompt
type Input struct {
	Turns            []transcription.Turn
	Segments         []acoustic.Segment
	Clauses          []policy.Clause
	ClientConfig     *clientcfg.Config
	CallTimestampUTC string
	TimeVerdict      temporal.Verdict
}

// BuildPrompt renders the full compliance prompt from the analysis inputs
func BuildPrompt(in Input) string {
	timeViolation := "NO"
	timeDetail := ""
	if in.TimeVerdict.Violation {
		timeViolation = "YES"
		timeDetail = "TIME VIOLATION DETAIL: " + in.TimeVerdict.Description
	}

	return fmt.Sprintf(compliancePromptTemplate,
		formatTranscript(in.Turns),
		formatAcoustic(in.Segments),
		formatClauses(in.Clauses),
		formatClientConfig(in.ClientConfig),
		in.CallTimestampUTC,
		in.TimeVerdict.LocalTime,
		timeViolation,
		timeDetail,
	)
}

// formatTranscript renders turns as "[MM:SS] SPEAKER: message" lines
func formatTranscript(turns []transcription.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := strings.ToUpper(t.Speaker)
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		ts := t.Timestamp
		if ts == "" {
			ts = "??:??"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts, speaker, t.Message))
	}
	return strings.Join(lines, "\n")
}

// formatAcoustic renders one compact line per acoustic segment
func formatAcoustic(segments []acoustic.Segment) string {
	if len(segments) == 0 {
		return "No acoustic data available."
	}
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf(
			"[%s] Energy=%.2f Pitch=%.0fHz ZCR=%.4f Arousal=%s",
			seg.Timestamp, seg.EnergyScore, seg.PitchHz, seg.ZCR, seg.Arousal,
		))
	}
	return strings.Join(lines, "\n")
}

// formatClauses renders the clause list with descriptions truncated so a
// single long clause cannot dominate the prompt.
func formatClauses(clauses []policy.Clause) string {
	if len(clauses) == 0 {
		return "No specific clauses retrieved. Apply general RBI recovery guidelines."
	}
	lines := make([]string, 0, len(clauses))
	for _, c := range clauses {
		desc := c.Description
		if len(desc) > maxClauseDescriptionChars {
			desc = desc[:maxClauseDescriptionChars]
		}
		lines = append(lines, fmt.Sprintf("[%s] %s\n  %s", c.ClauseID, c.RuleName, desc))
	}
	return strings.Join(lines, "\n")
}

// formatClientConfig renders the merged client config as indented JSON
func formatClientConfig(cfg *clientcfg.Config) string {
	if cfg == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
