// Package oras implements registry.OCIClient on top of oras-go.
//
// It handles authentication, token caching, retries, and plain-HTTP
// registries, and maps ORAS errors to the package sentinels.
package oras
