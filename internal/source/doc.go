// Package source resolves upload content from a URL or a local file into an
// in-memory byte slice.
//
// A Source names exactly one origin. Resolver reads it fully and enforces a
// size cap so a single resolved source always fits one upload request:
//
//	src, err := source.New("https://example.com/report.pdf", "")
//	if err != nil {
//		return err
//	}
//	content, err := resolver.Resolve(ctx, src)
//
// All errors returned by this package belong to the Error class.
package source
