package dropbox

import "time"

// Entry tags as reported by the Dropbox API.
const (
	TagFile    = "file"
	TagFolder  = "folder"
	TagDeleted = "deleted"
)

// Entry is the flattened metadata of a file, folder or deleted entry.
type Entry struct {
	// Tag is one of "file", "folder" or "deleted"
	Tag string `json:".tag"`

	// ID is the stable identifier of the entry ("id:..."); empty for deleted entries
	ID string `json:"id,omitempty"`

	// Name is the last path component with original casing
	Name string `json:"name"`

	// PathLower is the lower-cased full path
	PathLower string `json:"path_lower,omitempty"`

	// PathDisplay is the full path with display casing
	PathDisplay string `json:"path_display,omitempty"`

	// Rev is the file revision (files only)
	Rev string `json:"rev,omitempty"`

	// Size is the file size in bytes (files only)
	Size uint64 `json:"size,omitempty"`

	// ClientModified is the modification time reported by the uploading client (files only)
	ClientModified *time.Time `json:"client_modified,omitempty"`

	// ServerModified is when Dropbox last changed the file (files only)
	ServerModified *time.Time `json:"server_modified,omitempty"`

	// ContentHash is the Dropbox content hash (files only)
	ContentHash string `json:"content_hash,omitempty"`

	// IsDownloadable is false for files that can only be exported (files only)
	IsDownloadable *bool `json:"is_downloadable,omitempty"`

	// SharedFolderID is set for folders that are shared folders
	SharedFolderID string `json:"shared_folder_id,omitempty"`
}

// IsFolder reports whether e describes a folder.
func (e *Entry) IsFolder() bool {
	return e != nil && e.Tag == TagFolder
}

// WriteMode controls what happens when an upload targets an existing file.
type WriteMode string

const (
	// WriteModeAdd never overwrites; conflicts fail or autorename.
	WriteModeAdd WriteMode = "add"

	// WriteModeOverwrite always replaces the existing file.
	WriteModeOverwrite WriteMode = "overwrite"

	// WriteModeUpdate replaces the file only if its revision matches.
	WriteModeUpdate WriteMode = "update"
)

// ParseWriteMode returns the WriteMode named by s and whether s was one of
// add, overwrite or update.
func ParseWriteMode(s string) (WriteMode, bool) {
	switch WriteMode(s) {
	case WriteModeAdd, WriteModeOverwrite, WriteModeUpdate:
		return WriteMode(s), true
	}
	return "", false
}

// UploadOptions are the commit settings for an upload.
type UploadOptions struct {
	// Mode is the write mode; empty uses the provider default (add)
	Mode WriteMode

	// UpdateRev is the revision to replace when Mode is WriteModeUpdate
	UpdateRev string

	// Autorename renames the new file instead of failing on conflict
	Autorename bool

	// Mute suppresses desktop notifications for the change
	Mute bool

	// StrictConflict treats identical-content overwrites as conflicts too
	StrictConflict bool

	// ClientModified overrides the modification time shown to users
	ClientModified *time.Time
}

// RelocationOptions are the settings for a move.
type RelocationOptions struct {
	// Autorename renames the moved entry if the destination exists
	Autorename bool

	// AllowOwnershipTransfer permits moves that change the content owner
	AllowOwnershipTransfer bool
}

// ListOptions control ListFolder.
type ListOptions struct {
	Recursive                       bool
	IncludeDeleted                  bool
	IncludeHasExplicitSharedMembers bool
	IncludeMountedFolders           bool
	IncludeNonDownloadableFiles     bool

	// Limit is an approximate page size; 0 leaves it to the provider
	Limit uint32
}

// ListResult is the first page of a folder listing.
type ListResult struct {
	Entries []*Entry `json:"entries"`
	Cursor  string   `json:"cursor"`
	HasMore bool     `json:"has_more"`
}

// RevisionOptions control ListRevisions.
type RevisionOptions struct {
	// Mode is "path" or "id"; passed through without interpretation
	Mode string

	// Limit is the maximum number of revisions; 0 uses the provider default
	Limit uint64
}

// RevisionsResult lists stored revisions of one file.
type RevisionsResult struct {
	IsDeleted bool     `json:"is_deleted"`
	Entries   []*Entry `json:"entries"`
}

// AccessLevel is the access a share link grants.
type AccessLevel string

const (
	AccessViewer AccessLevel = "viewer"
	AccessEditor AccessLevel = "editor"
	AccessMax    AccessLevel = "max"
)

// ParseAccessLevel validates s as an AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, bool) {
	switch AccessLevel(s) {
	case AccessViewer, AccessEditor, AccessMax:
		return AccessLevel(s), true
	}
	return "", false
}

// ShareLinkSettings are applied to a newly created or existing share link.
// Visibility is always public.
type ShareLinkSettings struct {
	AllowDownload bool

	// Expires is the link expiry; nil for no expiry
	Expires *time.Time

	// Password is set only when a password is required
	Password string

	// Access is the requested access level; empty uses the provider default
	Access AccessLevel
}

// SharedLink is a provider-issued link to a path.
type SharedLink struct {
	URL       string     `json:"url"`
	Name      string     `json:"name,omitempty"`
	PathLower string     `json:"path_lower,omitempty"`
	Expires   *time.Time `json:"expires,omitempty"`
}

// Account tiers.
const (
	TierBasic    = "basic"
	TierPro      = "pro"
	TierBusiness = "business"
)

// Account describes the authenticated user.
type Account struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`

	// Tier is one of "basic", "pro" or "business"
	Tier string `json:"tier"`
}
