// Package dropbox adapts the Dropbox SDK to the operations the MCP tools
// need.
//
// The API interface is what tools depend on; Client implements it with
// the official SDK clients for files, sharing and users. Each call runs
// in its own client span, is counted in the Dropbox API metrics and, on
// failure, returns an *Error carrying an ErrorKind:
//
//	_, body, err := client.Download(ctx, "/notes.txt")
//	switch {
//	case dropbox.IsNotFound(err):
//	    // nothing there yet
//	case err != nil:
//	    return err
//	}
//	defer body.Close()
//
// Metadata is flattened into Entry values whose JSON form mirrors the
// API's own ".tag"-discriminated entries.
//
// Authentication uses a single access token supplied at construction.
// Requests are sent through an oauth2 transport layered on an
// otelhttp-instrumented client.
package dropbox
