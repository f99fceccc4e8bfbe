package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `RBI Fair Practices Code
Preamble text that belongs to no clause.

CLAUSE RBI-REC-01: Permitted Calling Hours
Recovery agents may contact borrowers only between 8 AM and 7 PM.
Calls outside this window constitute harassment.

  CLAUSE RBI-REC-02: No Harassment
Agents must not use abusive language.

CLAUSE INT-CON-05: Vulnerable Customer Handling
Offer the hardship process.
`

func TestParseClauses(t *testing.T) {
	clauses := ParseClauses(sampleDocument, "test.txt")

	require.Len(t, clauses, 3)

	assert.Equal(t, "RBI-REC-01", clauses[0].ClauseID)
	assert.Equal(t, "Permitted Calling Hours", clauses[0].RuleName)
	assert.Equal(t,
		"Recovery agents may contact borrowers only between 8 AM and 7 PM.\nCalls outside this window constitute harassment.",
		clauses[0].Description,
		"body runs to the next marker and is trimmed")
	assert.Equal(t, "test.txt", clauses[0].Source)

	// Indented markers are still markers
	assert.Equal(t, "RBI-REC-02", clauses[1].ClauseID)

	// The last clause's body runs to end of document
	assert.Equal(t, "Offer the hardship process.", clauses[2].Description)
}

func TestParseClausesNoMarkers(t *testing.T) {
	clauses := ParseClauses("Just some prose.\nNo markers anywhere.", "empty.txt")
	assert.Empty(t, clauses)
}

func TestParseClausesPreambleExcluded(t *testing.T) {
	clauses := ParseClauses(sampleDocument, "test.txt")

	for _, c := range clauses {
		assert.NotContains(t, c.Description, "Preamble text")
	}
}

func TestParseCorpusDir(t *testing.T) {
	dir := t.TempDir()

	// Sorted file order: b.txt's clauses come after a.txt's
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"),
		[]byte("CLAUSE B-01: Second File\nBody B."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"),
		[]byte("CLAUSE A-01: First File\nBody A."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"),
		[]byte("CLAUSE X-01: Not Parsed\nWrong extension."), 0644))

	clauses, err := ParseCorpusDir(dir)
	require.NoError(t, err)

	require.Len(t, clauses, 2)
	assert.Equal(t, "A-01", clauses[0].ClauseID)
	assert.Equal(t, "B-01", clauses[1].ClauseID)
	assert.Equal(t, "a.txt", clauses[0].Source)
}

func TestParseCorpusDirMissing(t *testing.T) {
	_, err := ParseCorpusDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestMergeWithCorpus(t *testing.T) {
	corpus := []Clause{
		{ClauseID: "A-01", RuleName: "Corpus A"},
		{ClauseID: "B-01", RuleName: "Corpus B"},
	}
	retrieved := []Clause{
		{ClauseID: "B-01", RuleName: "Retrieved duplicate"},
		{ClauseID: "CLIENT-TRIGGER", RuleName: "Harassment"},
	}

	merged := MergeWithCorpus(corpus, retrieved)

	require.Len(t, merged, 3)
	assert.Equal(t, "A-01", merged[0].ClauseID)
	assert.Equal(t, "Corpus B", merged[1].RuleName, "corpus copy wins on duplicate ids")
	assert.Equal(t, "CLIENT-TRIGGER", merged[2].ClauseID)
}
