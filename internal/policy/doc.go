// Package policy implements the policy clause corpus: parsing clause-delimited
// policy documents, building and validating the persistent per-clause vector
// index, and retrieving transcript-relevant clauses with cross-source
// deduplication.
package policy
