package tone

import "strings"

// Tone labels
const (
	Positive = "positive"
	Neutral  = "neutral"
	Angry    = "angry/frustrated"
	Fearful  = "fearful/anxious"
	Urgent   = "urgent"
)

// Stems are deliberately partial so inflected forms match by substring
// ("harass" matches "harassment", "harassing") without a tokenizer.

var positiveStems = []string{
	"thank", "great", "good", "happy", "perfect", "nice", "appreciat",
	"wonderful", "excellent", "okay", "sure", "fine", "alright",
	"help", "assist", "solut", "resolv", "understand", "pleasant",
	"cooperat", "willing", "absolut", "certainly", "of course",
}

var angryStems = []string{
	"angr", "upset", "frustrat", "annoy", "complain",
	"terribl", "horribl", "unacceptabl", "ridicul",
	"useless", "fraud", "scam", "cheat", "liar", "threaten", "threat",
	"demand", "refus", "impossib", "wrong", "mistak",
	"harass", "abuse", "abusiv", "insult", "stupid", "idiot",
	"nonsense", "enough", "fed up", "shut up", "get out",
	"illegal", "police", "jail", "arrest", "legal action",
}

var fearfulStems = []string{
	"afraid", "scar", "worr", "anxious", "nervous", "panic",
	"fear", "stress", "concern", "uncertain", "confus", "lost",
	"pleas don", "beg", "mercy", "please don't", "please stop",
}

var urgentStems = []string{
	"immediately", "asap", "urgent", "right away", "right now",
	"quick", "deadlin", "overd", "final notice", "last chance",
	"warning", "must pay", "pay now", "today itself",
}

// Classify assigns a coarse emotional tone label to a single transcript line.
// Priority order, first match wins: angry (when at least one angry stem
// matches and angry does not lose to positive), then fearful, urgent,
// positive, and neutral as the default.
func Classify(message string) string {
	text := strings.ToLower(message)

	angryScore := stemScore(text, angryStems)
	positiveScore := stemScore(text, positiveStems)

	if angryScore >= 1 && angryScore >= positiveScore {
		return Angry
	}
	if stemScore(text, fearfulStems) >= 1 {
		return Fearful
	}
	if stemScore(text, urgentStems) >= 1 {
		return Urgent
	}
	if positiveScore >= 1 {
		return Positive
	}
	return Neutral
}

// stemScore counts how many stems appear in the lowercased text
func stemScore(text string, stems []string) int {
	score := 0
	for _, s := range stems {
		if strings.Contains(text, s) {
			score++
		}
	}
	return score
}
