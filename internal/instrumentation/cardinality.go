package instrumentation

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cardinality management helpers for metrics and spans.
//
// Remote paths are unbounded and may carry personal data, so they never
// become metric labels. Operations are folded onto a fixed set.

// Dropbox API operations, named after the endpoints they call.
const (
	OperationUpload            = "upload"
	OperationDownload          = "download"
	OperationCreateFolder      = "create_folder_v2"
	OperationDelete            = "delete_v2"
	OperationMove              = "move_v2"
	OperationListFolder        = "list_folder"
	OperationListRevisions     = "list_revisions"
	OperationRestore           = "restore"
	OperationSearch            = "search_v2"
	OperationCreateSharedLink  = "create_shared_link_with_settings"
	OperationModifySharedLink  = "modify_shared_link_settings"
	OperationListSharedLinks   = "list_shared_links"
	OperationGetCurrentAccount = "get_current_account"

	// OperationOther is used for anything not in the list above.
	OperationOther = "other"
)

var knownOperations = map[string]struct{}{
	OperationUpload:            {},
	OperationDownload:          {},
	OperationCreateFolder:      {},
	OperationDelete:            {},
	OperationMove:              {},
	OperationListFolder:        {},
	OperationListRevisions:     {},
	OperationRestore:           {},
	OperationSearch:            {},
	OperationCreateSharedLink:  {},
	OperationModifySharedLink:  {},
	OperationListSharedLinks:   {},
	OperationGetCurrentAccount: {},
}

// NormalizeOperation returns op if it is a known Dropbox operation and
// OperationOther otherwise.
//
// Example:
//
//	NormalizeOperation("move_v2")   // "move_v2"
//	NormalizeOperation("copy_v2")   // "other"
func NormalizeOperation(op string) string {
	if _, ok := knownOperations[op]; ok {
		return op
	}
	return OperationOther
}

// HashPath returns a short, stable identifier for a remote path so that
// log lines and spans for the same path can be correlated without
// recording the path itself. The root ("" or "/") is returned as "root".
func HashPath(path string) string {
	if path == "" || path == "/" {
		return "root"
	}
	sum := sha256.Sum256([]byte(path))
	return "path:" + hex.EncodeToString(sum[:])[:12]
}
