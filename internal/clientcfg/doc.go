// Package clientcfg defines the per-request client configuration, the default
// configuration it is merged onto, and validation of caller-supplied overrides.
package clientcfg
