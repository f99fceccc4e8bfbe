package policy

import "fmt"

// Clause represents one identifiable unit of policy text. Clause identity is
// the ClauseID: two clauses with the same id are duplicates regardless of
// which source they came from.
type Clause struct {
	ClauseID    string `json:"clause_id"`
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// EmbeddingText returns the full clause text that gets embedded as one unit.
// The whole clause is embedded (never sub-chunked) so retrieval always returns
// complete, identifiable clauses.
func (c Clause) EmbeddingText() string {
	return fmt.Sprintf("CLAUSE %s: %s\n%s", c.ClauseID, c.RuleName, c.Description)
}

// MergeWithCorpus unions retrieved clauses with the full verbatim corpus,
// deduplicating on clause_id. Corpus clauses come first so the exhaustive set
// is always present; retrieval augments but never replaces it.
func MergeWithCorpus(corpus, retrieved []Clause) []Clause {
	merged := make([]Clause, 0, len(corpus)+len(retrieved))
	seen := make(map[string]struct{}, len(corpus))

	for _, c := range corpus {
		if _, ok := seen[c.ClauseID]; ok {
			continue
		}
		seen[c.ClauseID] = struct{}{}
		merged = append(merged, c)
	}

	for _, c := range retrieved {
		if _, ok := seen[c.ClauseID]; ok {
			continue
		}
		seen[c.ClauseID] = struct{}{}
		merged = append(merged, c)
	}

	return merged
}
