package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

const (
	// primaryTopK is the number of nearest clauses fetched from the corpus
	// index per agent turn.
	primaryTopK = 8

	// clientTopK is the number of nearest clauses fetched from the ephemeral
	// client rule index per agent turn.
	clientTopK = 4

	// TriggerClauseID is the shared placeholder id for synthetic risk-trigger
	// clauses. They are disambiguated by rule name, not by id.
	TriggerClauseID = "CLIENT-TRIGGER"

	// clientSourceTag marks clauses that came from the client configuration
	clientSourceTag = "client_config"
)

// Retriever queries the clause store's index, and an ephemeral index built
// from the client configuration, for clauses relevant to a transcript.
type Retriever struct {
	store    *Store
	embedder Embedder
	logger   *slog.Logger
}

// NewRetriever creates a clause retriever over an initialized store
func NewRetriever(store *Store, embedder Embedder, logger *slog.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}

	return &Retriever{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Retrieve returns the deduplicated set of clauses relevant to the transcript,
// in first-seen order. Agent turns drive the queries; if no turn is attributed
// to the agent, every turn is queried instead. Retrieval failures degrade to a
// smaller (possibly empty) result rather than returning an error.
func (r *Retriever) Retrieve(ctx context.Context, turns []transcription.Turn, cfg *clientcfg.Config) []Clause {
	index := r.store.Index()
	if index == nil {
		r.logger.Warn("Clause index not initialized, returning no retrieved clauses")
		return nil
	}

	var clientIndex *Index
	if cfg != nil {
		clientIndex = r.buildClientIndex(ctx, cfg)
	}

	messages := agentMessages(turns)

	seen := make(map[string]struct{})
	var clauses []Clause

	for _, message := range messages {
		query, err := r.embedder.Embed(ctx, message)
		if err != nil {
			r.logger.Warn("Failed to embed transcript turn for retrieval",
				slog.String("error", err.Error()),
			)
			continue
		}

		// Primary index hits dedupe on clause_id
		for _, c := range index.Search(query, primaryTopK) {
			if _, ok := seen[c.ClauseID]; ok {
				continue
			}
			seen[c.ClauseID] = struct{}{}
			clauses = append(clauses, c)
		}

		// Ephemeral hits dedupe on a client tag plus rule name, because
		// synthetic risk-trigger clauses all share one clause_id.
		if clientIndex != nil {
			for _, c := range clientIndex.Search(query, clientTopK) {
				key := "CLIENT-" + c.RuleName
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				clauses = append(clauses, c)
			}
		}
	}

	r.logger.Info("Clause retrieval complete",
		slog.Int("agent_turns", len(messages)),
		slog.Int("unique_clauses", len(clauses)),
	)

	return clauses
}

// buildClientIndex builds the ephemeral, non-persisted index from the client
// configuration's custom rules and risk triggers. Returns nil when the
// configuration carries neither, or when embedding fails entirely.
func (r *Retriever) buildClientIndex(ctx context.Context, cfg *clientcfg.Config) *Index {
	clauses := ClientClauses(cfg)
	if len(clauses) == 0 {
		return nil
	}

	entries := make([]IndexEntry, 0, len(clauses))
	for _, c := range clauses {
		vec, err := r.embedder.Embed(ctx, c.EmbeddingText())
		if err != nil {
			r.logger.Warn("Failed to embed client rule",
				slog.String("rule_name", c.RuleName),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries = append(entries, IndexEntry{Clause: c, Vector: vec})
	}

	if len(entries) == 0 {
		return nil
	}

	r.logger.Debug("Ephemeral client rule index built",
		slog.Int("entries", len(entries)),
	)

	return NewIndex(entries)
}

// ClientClauses converts a client configuration's custom rules and risk
// triggers into synthetic clauses. Risk triggers share TriggerClauseID and
// carry the trigger phrase as their rule name.
func ClientClauses(cfg *clientcfg.Config) []Clause {
	if cfg == nil {
		return nil
	}

	var clauses []Clause

	for _, rule := range cfg.CustomRules {
		id := rule.RuleID
		if id == "" {
			id = "CUSTOM-XX"
		}
		clauses = append(clauses, Clause{
			ClauseID:    id,
			RuleName:    rule.RuleName,
			Description: rule.Description,
			Source:      clientSourceTag,
		})
	}

	for _, trigger := range cfg.RiskTriggers {
		clauses = append(clauses, Clause{
			ClauseID: TriggerClauseID,
			RuleName: trigger,
			Description: fmt.Sprintf(
				"RISK TRIGGER: %s. Any agent behaviour constituting '%s' is a policy violation.",
				trigger, trigger,
			),
			Source: clientSourceTag,
		})
	}

	return clauses
}

// agentMessages returns the messages attributed to the agent role, falling
// back to every non-empty message when no agent turns exist.
func agentMessages(turns []transcription.Turn) []string {
	var messages []string
	for _, t := range turns {
		if strings.EqualFold(t.Speaker, "agent") && t.Message != "" {
			messages = append(messages, t.Message)
		}
	}

	if len(messages) == 0 {
		for _, t := range turns {
			if t.Message != "" {
				messages = append(messages, t.Message)
			}
		}
	}

	return messages
}
