// Package temporal checks call timestamps against the permitted local calling
// window. The check is a pure function and never fails past its boundary.
package temporal
