package dropbox_tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/remotepath"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/tools/common"
)

const (
	defaultSearchResults = 10
	tmpPrefix            = "tmp_"
)

func fileTools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool(ToolCreateTextFile,
				mcp.WithDescription("Create a new text file in Dropbox. The .txt extension is added if missing; an existing file is never overwritten."),
				mcp.WithString("file_name",
					mcp.Required(),
					mcp.Description("Name of the file, with or without the .txt extension"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("Text content of the file"),
				),
				mcp.WithString("folder_path",
					mcp.Description("Folder to create the file in (e.g. '/Notes'); defaults to the root"),
				),
			),
			operation: instrumentation.OperationUpload,
			handler:   handleCreateTextFile,
		},
		{
			tool: mcp.NewTool(ToolCreateOrAppendText,
				mcp.WithDescription("Append text to a text file in Dropbox, creating the file if it does not exist. Appended content is separated by a newline."),
				mcp.WithString("file_name",
					mcp.Required(),
					mcp.Description("Name of the file, with or without the .txt extension"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("Text to append"),
				),
				mcp.WithString("folder_path",
					mcp.Description("Folder containing the file; defaults to the root"),
				),
			),
			operation: instrumentation.OperationUpload,
			handler:   handleCreateOrAppend,
		},
		{
			tool: mcp.NewTool(ToolListFileRevisions,
				mcp.WithDescription("List the stored revisions of a file"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path of the file, or its id when mode is 'id'"),
				),
				mcp.WithString("mode",
					mcp.Description("How to interpret path: 'path' (default) or 'id'"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of revisions to return"),
				),
			),
			operation: instrumentation.OperationListRevisions,
			readOnly:  true,
			handler:   handleListRevisions,
		},
		{
			tool: mcp.NewTool(ToolDeleteFileOrFolder,
				mcp.WithDescription("Delete a file or folder. Folders are deleted with all their contents."),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path of the file or folder to delete"),
				),
			),
			operation: instrumentation.OperationDelete,
			handler:   handleDelete,
		},
		{
			tool: mcp.NewTool(ToolDownloadFileToTmp,
				mcp.WithDescription("Download a file from Dropbox into the server's download directory"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path of the file to download"),
				),
				mcp.WithString("name",
					mcp.Description("Local file name; defaults to 'tmp_' followed by the remote name"),
				),
			),
			operation: instrumentation.OperationDownload,
			readOnly:  true,
			handler:   handleDownloadToTmp,
		},
		{
			tool: mcp.NewTool(ToolRestoreFile,
				mcp.WithDescription("Restore a file to an earlier revision"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path of the file to restore"),
				),
				mcp.WithString("rev",
					mcp.Required(),
					mcp.Description("Revision to restore, as returned by the revisions tool"),
				),
			),
			operation: instrumentation.OperationRestore,
			handler:   handleRestore,
		},
		{
			tool: mcp.NewTool(ToolSearchFilesFolders,
				mcp.WithDescription("Search files and folders by name and content"),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query"),
				),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of matches (default: 10)"),
				),
			),
			operation: instrumentation.OperationSearch,
			readOnly:  true,
			handler:   handleSearch,
		},
	}
}

func handleCreateTextFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "file_name")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	content, err := common.RequiredStringAllowEmpty(args, "content")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	path := remotepath.FilePath(name, common.OptionalString(args, "folder_path"), remotepath.TextExtension)

	if _, err := sc.Dropbox().Upload(ctx, path, []byte(content), &dropbox.UploadOptions{
		Mode: dropbox.WriteModeAdd,
		Mute: true,
	}); err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Created %s", path), map[string]interface{}{
		"path": path,
	})
}

func handleCreateOrAppend(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "file_name")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	content, err := common.RequiredStringAllowEmpty(args, "content")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	path := remotepath.FilePath(name, common.OptionalString(args, "folder_path"), remotepath.TextExtension)
	client := sc.Dropbox()

	existing, err := readRemote(ctx, client, path)
	switch {
	case dropbox.IsNotFound(err):
		if _, err := client.Upload(ctx, path, []byte(content), &dropbox.UploadOptions{
			Mode:       dropbox.WriteModeAdd,
			Autorename: true,
		}); err != nil {
			return common.ErrorResult(err), nil
		}
		return common.SuccessResult(fmt.Sprintf("Created %s", path), map[string]interface{}{
			"path":     path,
			"appended": false,
		})
	case err != nil:
		return common.ErrorResult(err), nil
	}

	combined := make([]byte, 0, len(existing)+1+len(content))
	combined = append(combined, existing...)
	combined = append(combined, '\n')
	combined = append(combined, content...)

	if _, err := client.Upload(ctx, path, combined, &dropbox.UploadOptions{
		Mode:       dropbox.WriteModeOverwrite,
		Autorename: false,
	}); err != nil {
		return common.ErrorResult(err), nil
	}
	return common.SuccessResult(fmt.Sprintf("Appended to %s", path), map[string]interface{}{
		"path":     path,
		"appended": true,
	})
}

func readRemote(ctx context.Context, client dropbox.API, path string) ([]byte, error) {
	_, body, err := client.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

func handleListRevisions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := common.RequiredString(args, "path")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	limit, err := common.OptionalUint(args, "limit", 0)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	res, err := sc.Dropbox().ListRevisions(ctx, path, &dropbox.RevisionOptions{
		Mode:  common.OptionalString(args, "mode"),
		Limit: limit,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult("", map[string]interface{}{
		"entries":    nonNilEntries(res.Entries),
		"is_deleted": res.IsDeleted,
	})
}

func handleDelete(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	path, err := common.RequiredString(request.GetArguments(), "path")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	if _, err := sc.Dropbox().Delete(ctx, path); err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Deleted %s", path), map[string]interface{}{
		"path": path,
	})
}

func handleDownloadToTmp(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := common.RequiredString(args, "path")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	name := common.OptionalString(args, "name")
	if name != "" && !plainFileName(name) {
		return common.ErrorResult(common.Validationf("name %q must be a plain file name", name)), nil
	}

	entry, body, err := sc.Dropbox().Download(ctx, path)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	defer body.Close()

	if name == "" {
		remoteName := remotepath.Base(path)
		if entry != nil && entry.Name != "" {
			remoteName = entry.Name
		}
		name = tmpPrefix + remoteName
		if !plainFileName(name) {
			return common.ErrorResult(common.Validationf("remote name %q cannot be used as a local file name", remoteName)), nil
		}
	}

	localPath := filepath.Join(sc.DownloadDir(), name)
	if err := writeLocal(localPath, body); err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Downloaded %s to %s", path, localPath), map[string]interface{}{
		"tmp_path": localPath,
		"metadata": entry,
	})
}

func plainFileName(name string) bool {
	return name == filepath.Base(name) && name != "." && name != ".."
}

// writeLocal writes r to path through a temporary file in the same
// directory. path is replaced by rename, so an existing symlink there is
// replaced rather than followed, and a failed copy leaves nothing behind.
func writeLocal(path string, r io.Reader) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move download to %s: %w", path, err)
	}
	return nil
}

func handleRestore(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := common.RequiredString(args, "path")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	rev, err := common.RequiredString(args, "rev")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	entry, err := sc.Dropbox().Restore(ctx, path, rev)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Restored %s to revision %s", path, rev), map[string]interface{}{
		"metadata": entry,
	})
}

// searchMatch is the reduced form of a search hit.
type searchMatch struct {
	Name        string `json:"name"`
	PathDisplay string `json:"path_display"`
	Type        string `json:"type"`
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := common.RequiredString(args, "query")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	maxResults, err := common.OptionalUint(args, "max_results", defaultSearchResults)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	entries, err := sc.Dropbox().Search(ctx, query, maxResults)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	matches := make([]searchMatch, 0, len(entries))
	for _, e := range entries {
		typ := "file"
		if e.IsFolder() {
			typ = "folder"
		}
		matches = append(matches, searchMatch{
			Name:        e.Name,
			PathDisplay: e.PathDisplay,
			Type:        typ,
		})
	}

	return common.SuccessResult("", map[string]interface{}{
		"query":         query,
		"matches":       matches,
		"total_matches": len(matches),
	})
}

// nonNilEntries keeps empty listings encoded as [] rather than null.
func nonNilEntries(entries []*dropbox.Entry) []*dropbox.Entry {
	if entries == nil {
		return []*dropbox.Entry{}
	}
	return entries
}
