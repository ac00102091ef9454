package dropbox_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/remotepath"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/tools/common"
)

func folderTools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool(ToolCreateFolder,
				mcp.WithDescription("Create a folder in Dropbox"),
				mcp.WithString("folder_name",
					mcp.Required(),
					mcp.Description("Name of the new folder"),
				),
				mcp.WithString("parent_path",
					mcp.Description("Folder to create it in; defaults to the root"),
				),
				mcp.WithBoolean("autorename",
					mcp.DefaultBool(true),
					mcp.Description("Pick a free name if the folder already exists (default: true)"),
				),
			),
			operation: instrumentation.OperationCreateFolder,
			handler:   handleCreateFolder,
		},
		{
			tool: mcp.NewTool(ToolListFilesAndFolders,
				mcp.WithDescription("List the contents of a folder. Only the first page is returned; has_more reports whether the listing was cut short."),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Folder to list; an empty string or '/' lists the root"),
				),
				mcp.WithBoolean("recursive",
					mcp.DefaultBool(true),
					mcp.Description("Include the contents of subfolders (default: true)"),
				),
				mcp.WithBoolean("include_deleted",
					mcp.DefaultBool(false),
					mcp.Description("Include deleted entries"),
				),
				mcp.WithBoolean("include_has_explicit_shared_members",
					mcp.DefaultBool(false),
					mcp.Description("Report whether files have explicit shared members"),
				),
				mcp.WithBoolean("include_mounted_folders",
					mcp.DefaultBool(false),
					mcp.Description("Include mounted folders such as team folders"),
				),
				mcp.WithBoolean("include_non_downloadable_files",
					mcp.DefaultBool(true),
					mcp.Description("Include files that can only be exported (default: true)"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Approximate maximum number of entries"),
				),
			),
			operation: instrumentation.OperationListFolder,
			readOnly:  true,
			handler:   handleListFolder,
		},
		{
			tool: mcp.NewTool(ToolMoveFileFolder,
				mcp.WithDescription("Move a file or folder into another folder, keeping its name"),
				mcp.WithString("path_from",
					mcp.Required(),
					mcp.Description("Path of the file or folder to move"),
				),
				mcp.WithString("path_to",
					mcp.Required(),
					mcp.Description("Destination folder"),
				),
				mcp.WithBoolean("autorename",
					mcp.DefaultBool(false),
					mcp.Description("Pick a free name if the destination exists"),
				),
				mcp.WithBoolean("allow_ownership_transfer",
					mcp.DefaultBool(false),
					mcp.Description("Allow moves that change the content owner"),
				),
			),
			operation: instrumentation.OperationMove,
			handler:   handleMove,
		},
		{
			tool: mcp.NewTool(ToolRenameFileFolder,
				mcp.WithDescription("Rename a file or folder in place"),
				mcp.WithString("path_from",
					mcp.Required(),
					mcp.Description("Path of the file or folder to rename"),
				),
				mcp.WithString("new_name",
					mcp.Required(),
					mcp.Description("New name: letters, digits, spaces, '_', '-' and '.' only"),
				),
				mcp.WithBoolean("autorename",
					mcp.DefaultBool(false),
					mcp.Description("Pick a free name if the new name is taken"),
				),
				mcp.WithBoolean("allow_ownership_transfer",
					mcp.DefaultBool(false),
					mcp.Description("Allow renames that change the content owner"),
				),
			),
			operation: instrumentation.OperationMove,
			handler:   handleRename,
		},
	}
}

func handleCreateFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "folder_name")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	path := remotepath.FilePath(name, common.OptionalString(args, "parent_path"), "")

	entry, err := sc.Dropbox().CreateFolder(ctx, path, common.OptionalBool(args, "autorename", true))
	if err != nil {
		return common.ErrorResult(err), nil
	}

	// With autorename the provider may have picked another name.
	if entry != nil && entry.PathDisplay != "" {
		path = entry.PathDisplay
	}
	return common.SuccessResult(fmt.Sprintf("Created folder %s", path), map[string]interface{}{
		"path":     path,
		"metadata": entry,
	})
}

func handleListFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := common.RequiredStringAllowEmpty(args, "path")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if path == remotepath.Separator {
		path = ""
	}
	limit, err := common.OptionalUint(args, "limit", 0)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	res, err := sc.Dropbox().ListFolder(ctx, path, &dropbox.ListOptions{
		Recursive:                       common.OptionalBool(args, "recursive", true),
		IncludeDeleted:                  common.OptionalBool(args, "include_deleted", false),
		IncludeHasExplicitSharedMembers: common.OptionalBool(args, "include_has_explicit_shared_members", false),
		IncludeMountedFolders:           common.OptionalBool(args, "include_mounted_folders", false),
		IncludeNonDownloadableFiles:     common.OptionalBool(args, "include_non_downloadable_files", true),
		Limit:                           uint32(limit),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Listed %d entries", len(res.Entries)), map[string]interface{}{
		"entries":  nonNilEntries(res.Entries),
		"has_more": res.HasMore,
		"cursor":   res.Cursor,
	})
}

func relocationOptions(args map[string]interface{}) *dropbox.RelocationOptions {
	return &dropbox.RelocationOptions{
		Autorename:             common.OptionalBool(args, "autorename", false),
		AllowOwnershipTransfer: common.OptionalBool(args, "allow_ownership_transfer", false),
	}
}

func handleMove(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	from, err := common.RequiredString(args, "path_from")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	destFolder, err := common.RequiredString(args, "path_to")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	to := remotepath.IntoFolder(from, destFolder)

	entry, err := sc.Dropbox().Move(ctx, from, to, relocationOptions(args))
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Moved %s to %s", from, to), map[string]interface{}{
		"path":     to,
		"metadata": entry,
	})
}

func handleRename(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	from, err := common.RequiredString(args, "path_from")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	newName := common.OptionalString(args, "new_name")
	if err := remotepath.ValidateName(newName); err != nil {
		return common.ErrorResult(err), nil
	}
	to := remotepath.ReplaceBase(from, newName)

	entry, err := sc.Dropbox().Move(ctx, from, to, relocationOptions(args))
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Renamed %s to %s", from, newName), map[string]interface{}{
		"metadata": entry,
	})
}
