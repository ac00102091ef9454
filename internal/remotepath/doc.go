// Package remotepath builds and inspects absolute Dropbox paths.
//
// All functions are pure string transformations. Nothing here talks to the
// remote API, so provider-specific rules (reserved names, length limits) are
// left for the provider to enforce.
package remotepath
