package dropbox_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/tools/common"
)

// Tool names.
const (
	ToolCreateTextFile      = "dropbox_create_text_file"
	ToolCreateFolder        = "dropbox_create_folder"
	ToolCreateOrAppendText  = "dropbox_create_or_append_to_text_file"
	ToolListFilesAndFolders = "dropbox_list_files_and_folders"
	ToolListFileRevisions   = "dropbox_list_file_revisions"
	ToolMoveFileFolder      = "dropbox_move_file_folder"
	ToolRenameFileFolder    = "dropbox_rename_file_folder"
	ToolDeleteFileOrFolder  = "dropbox_delete_file_or_folder"
	ToolDownloadFileToTmp   = "dropbox_download_file_to_tmp"
	ToolCreateShareLink     = "dropbox_create_or_update_share_link"
	ToolRestoreFile         = "dropbox_restore_file"
	ToolSearchFilesFolders  = "dropbox_search_files_folders"
	ToolUploadFile          = "dropbox_upload_file"
	ToolUploadMultipleFiles = "dropbox_upload_multiple_files"
)

type handlerFunc func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// toolDef ties a tool definition to its handler. operation is the primary
// Dropbox endpoint the tool calls, used to label metrics and audit records.
type toolDef struct {
	tool      mcp.Tool
	operation string
	readOnly  bool
	handler   handlerFunc
}

func allTools() []toolDef {
	var defs []toolDef
	defs = append(defs, fileTools()...)
	defs = append(defs, folderTools()...)
	defs = append(defs, shareTools()...)
	defs = append(defs, uploadTools()...)
	return defs
}

// RegisterDropboxTools registers the Dropbox tools with the MCP server. With
// readOnly set, tools that modify the account are left out.
func RegisterDropboxTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	for _, def := range allTools() {
		if readOnly && !def.readOnly {
			continue
		}
		def := def
		s.AddTool(def.tool, common.InstrumentedToolHandlerWithService(
			def.tool.Name, instrumentation.ServiceDropbox, def.operation, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return def.handler(ctx, request, sc)
			},
		))
	}
	return nil
}

// IsReadOnlyTool reports whether the named tool leaves the account unchanged.
func IsReadOnlyTool(name string) bool {
	for _, def := range allTools() {
		if def.tool.Name == name {
			return def.readOnly
		}
	}
	return false
}
