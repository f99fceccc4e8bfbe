// Package report assembles the final audit document from the pipeline's
// intermediate results. Assembly is total: every field is filled from its
// source or from a documented default, and the output shape never varies.
package report
