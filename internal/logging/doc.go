// Package logging provides structured logging helpers for dropboxmcp.
//
// Everything is built on log/slog. The helpers keep attribute names
// consistent and keep personal data out of log lines:
//
//	logger := logging.WithTool(slog.Default(), "dropbox_upload_file")
//	logger.Info("upload finished",
//	    logging.Path(target),
//	    logging.Status(logging.StatusSuccess))
//
// Remote paths are logged only as hashes (Path), account e-mails only as
// hashes (UserHash), and access tokens only as a length (SanitizeToken).
package logging
