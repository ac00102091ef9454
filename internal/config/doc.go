// Package config holds the server settings and loads them from an optional
// YAML file and the environment.
//
// Sources are applied in increasing precedence: built-in defaults, the YAML
// file, environment variables. Command line flags are layered on top by the
// serve command, which only applies flags the user set explicitly.
//
// The Dropbox access token is only ever read from DROPBOX_ACCESS_TOKEN and
// is never part of the file format.
package config
