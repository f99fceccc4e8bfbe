package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// clauseHeader matches the line that introduces a clause: "CLAUSE <id>: <name>".
// The body is everything between one header and the next (or end of file).
var clauseHeader = regexp.MustCompile(`(?m)^[ \t]*CLAUSE\s+([\w-]+):[ \t]*(.*)$`)

// ParseClauses extracts all clauses from a single policy document. Bodies may
// span multiple lines; a document with no clause markers yields an empty slice.
func ParseClauses(content, source string) []Clause {
	matches := clauseHeader.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	clauses := make([]Clause, 0, len(matches))
	for i, m := range matches {
		clauseID := strings.TrimSpace(content[m[2]:m[3]])
		ruleName := strings.TrimSpace(content[m[4]:m[5]])

		// Body runs from the end of this header line to the start of the next header
		bodyStart := m[1]
		bodyEnd := len(content)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		description := strings.TrimSpace(content[bodyStart:bodyEnd])

		clauses = append(clauses, Clause{
			ClauseID:    clauseID,
			RuleName:    ruleName,
			Description: description,
			Source:      source,
		})
	}

	return clauses
}

// ParseCorpusDir parses every .txt policy document in dir, in sorted file
// order, and returns the full clause corpus. Files that cannot be read cause
// an error; a readable corpus with zero clause markers returns an empty slice.
func ParseCorpusDir(dir string) ([]Clause, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy corpus directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var clauses []Clause
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read policy document %s: %w", name, err)
		}
		clauses = append(clauses, ParseClauses(string(data), name)...)
	}

	return clauses, nil
}
