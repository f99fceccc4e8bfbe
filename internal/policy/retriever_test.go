package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

func readyStore(t *testing.T, embedder Embedder) *Store {
	t.Helper()

	store, err := NewStore(writeCorpus(t), t.TempDir()+"/index.db", embedder, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func TestClientClauses(t *testing.T) {
	cfg := &clientcfg.Config{
		RiskTriggers: []string{"Harassment", "Jail Mention"},
		CustomRules: []clientcfg.CustomRule{
			{RuleID: "CUSTOM-01", RuleName: "No Script Deviation", Description: "Follow the script."},
			{RuleName: "Unnamed Rule", Description: "No id supplied."},
		},
	}

	clauses := ClientClauses(cfg)
	require.Len(t, clauses, 4)

	assert.Equal(t, "CUSTOM-01", clauses[0].ClauseID)
	assert.Equal(t, "CUSTOM-XX", clauses[1].ClauseID, "missing rule ids get the placeholder")

	// Risk triggers share one synthetic clause id and differ by rule name
	assert.Equal(t, TriggerClauseID, clauses[2].ClauseID)
	assert.Equal(t, TriggerClauseID, clauses[3].ClauseID)
	assert.Equal(t, "Harassment", clauses[2].RuleName)
	assert.Contains(t, clauses[2].Description, "RISK TRIGGER: Harassment")

	for _, c := range clauses {
		assert.Equal(t, "client_config", c.Source)
	}

	assert.Nil(t, ClientClauses(nil))
}

func TestAgentMessages(t *testing.T) {
	turns := []transcription.Turn{
		{Speaker: "Agent", Message: "Pay your dues."},
		{Speaker: "customer", Message: "I already paid."},
		{Speaker: "agent", Message: ""},
	}

	assert.Equal(t, []string{"Pay your dues."}, agentMessages(turns))

	// No agent turns: every non-empty message is queried
	noAgent := []transcription.Turn{
		{Speaker: "speaker_1", Message: "Hello."},
		{Speaker: "speaker_2", Message: "Hi."},
	}
	assert.Equal(t, []string{"Hello.", "Hi."}, agentMessages(noAgent))
}

func TestRetrieveDeduplicatesAcrossTurns(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := readyStore(t, embedder)

	retriever, err := NewRetriever(store, embedder, testLogger())
	require.NoError(t, err)

	cfg := clientcfg.Config{
		RiskTriggers: []string{"Harassment", "Jail Mention"},
		CustomRules: []clientcfg.CustomRule{
			{RuleID: "CUSTOM-01", RuleName: "No Script Deviation", Description: "Follow the script."},
		},
	}
	turns := []transcription.Turn{
		{Speaker: "agent", Message: "Pay immediately or we send people to your house."},
		{Speaker: "agent", Message: "This is your final warning."},
		{Speaker: "customer", Message: "Please stop calling."},
	}

	clauses := retriever.Retrieve(context.Background(), turns, &cfg)

	// Two agent turns against the same small corpus and client rules must not
	// produce duplicates: corpus clauses dedupe on clause_id, client clauses
	// on rule name.
	seen := make(map[string]int)
	for _, c := range clauses {
		key := c.ClauseID
		if c.Source == "client_config" {
			key = "CLIENT-" + c.RuleName
		}
		seen[key]++
	}
	for key, count := range seen {
		assert.Equal(t, 1, count, "clause %s retrieved more than once", key)
	}

	// The corpus has 2 clauses and the client config yields 3 synthetic
	// clauses, all within top-k reach of both queries.
	assert.Len(t, clauses, 5)
}

func TestRetrieveWithoutClientConfig(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := readyStore(t, embedder)

	retriever, err := NewRetriever(store, embedder, testLogger())
	require.NoError(t, err)

	clauses := retriever.Retrieve(context.Background(),
		[]transcription.Turn{{Speaker: "agent", Message: "Hello."}}, nil)

	require.Len(t, clauses, 2)
	for _, c := range clauses {
		assert.NotEqual(t, "client_config", c.Source)
	}
}

func TestRetrieveDegradesOnEmbedFailure(t *testing.T) {
	buildEmbedder := &fakeEmbedder{}
	store := readyStore(t, buildEmbedder)

	// Queries fail after the index was built successfully
	retriever, err := NewRetriever(store, &fakeEmbedder{fail: true}, testLogger())
	require.NoError(t, err)

	cfg := clientcfg.Default()
	clauses := retriever.Retrieve(context.Background(),
		[]transcription.Turn{{Speaker: "agent", Message: "Hello."}}, &cfg)

	assert.Empty(t, clauses, "embedding failure degrades to no retrieved clauses")
}

func TestRetrieveUninitializedStore(t *testing.T) {
	store, err := NewStore(writeCorpus(t), t.TempDir()+"/index.db", &fakeEmbedder{}, testLogger())
	require.NoError(t, err)

	retriever, err := NewRetriever(store, &fakeEmbedder{}, testLogger())
	require.NoError(t, err)

	clauses := retriever.Retrieve(context.Background(),
		[]transcription.Turn{{Speaker: "agent", Message: "Hello."}}, nil)

	assert.Nil(t, clauses)
}
