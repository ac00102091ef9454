package dropbox

import (
	"strings"
	"time"

	sdk "github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
)

func convertMetadata(m files.IsMetadata) *Entry {
	switch v := m.(type) {
	case *files.FileMetadata:
		return fileEntry(v)
	case *files.FolderMetadata:
		return folderEntry(v)
	case *files.DeletedMetadata:
		if v == nil {
			return nil
		}
		return &Entry{
			Tag:         TagDeleted,
			Name:        v.Name,
			PathLower:   v.PathLower,
			PathDisplay: v.PathDisplay,
		}
	}
	return nil
}

func fileEntry(m *files.FileMetadata) *Entry {
	if m == nil {
		return nil
	}
	downloadable := m.IsDownloadable
	return &Entry{
		Tag:            TagFile,
		ID:             m.Id,
		Name:           m.Name,
		PathLower:      m.PathLower,
		PathDisplay:    m.PathDisplay,
		Rev:            m.Rev,
		Size:           m.Size,
		ClientModified: timePtr(m.ClientModified),
		ServerModified: timePtr(m.ServerModified),
		ContentHash:    m.ContentHash,
		IsDownloadable: &downloadable,
	}
}

func folderEntry(m *files.FolderMetadata) *Entry {
	if m == nil {
		return nil
	}
	return &Entry{
		Tag:            TagFolder,
		ID:             m.Id,
		Name:           m.Name,
		PathLower:      m.PathLower,
		PathDisplay:    m.PathDisplay,
		SharedFolderID: m.SharedFolderId,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func convertLink(m sharing.IsSharedLinkMetadata) *SharedLink {
	var base *sharing.SharedLinkMetadata
	switch v := m.(type) {
	case *sharing.FileLinkMetadata:
		if v != nil {
			base = &v.SharedLinkMetadata
		}
	case *sharing.FolderLinkMetadata:
		if v != nil {
			base = &v.SharedLinkMetadata
		}
	case *sharing.SharedLinkMetadata:
		base = v
	}
	if base == nil {
		return nil
	}
	return &SharedLink{
		URL:       base.Url,
		Name:      base.Name,
		PathLower: base.PathLower,
		Expires:   base.Expires,
	}
}

func toSDKSettings(s *ShareLinkSettings) *sharing.SharedLinkSettings {
	out := &sharing.SharedLinkSettings{
		RequestedVisibility: &sharing.RequestedVisibility{Tagged: sdk.Tagged{Tag: sharing.RequestedVisibilityPublic}},
	}
	if s == nil {
		return out
	}

	out.AllowDownload = s.AllowDownload
	if s.Expires != nil {
		// The API accepts second precision in UTC only.
		t := s.Expires.UTC().Truncate(time.Second)
		out.Expires = &t
	}
	if s.Password != "" {
		out.RequirePassword = true
		out.LinkPassword = s.Password
	}
	if s.Access != "" {
		out.Access = &sharing.RequestedLinkAccessLevel{Tagged: sdk.Tagged{Tag: string(s.Access)}}
	}
	return out
}

func baseName(p string) string {
	p = strings.TrimRight(p, "/")
	return p[strings.LastIndex(p, "/")+1:]
}
