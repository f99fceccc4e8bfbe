// Package tone classifies the emotional tone of transcript lines using fixed
// stem lexicons. Classification is pure, stateless and synchronous.
package tone
