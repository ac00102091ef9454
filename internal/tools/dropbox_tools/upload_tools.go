package dropbox_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/logging"
	"github.com/teemow/dropboxmcp/internal/remotepath"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/source"
	"github.com/teemow/dropboxmcp/internal/tools/batch"
	"github.com/teemow/dropboxmcp/internal/tools/common"
)

var stringItems = mcp.Items(map[string]interface{}{"type": "string"})

func uploadTools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool(ToolUploadFile,
				mcp.WithDescription("Upload a file to Dropbox from a URL or a local path. Give exactly one of file_url and file_path."),
				mcp.WithString("file_url",
					mcp.Description("URL to fetch the content from"),
				),
				mcp.WithString("file_path",
					mcp.Description("Local path to read the content from"),
				),
				mcp.WithString("dropbox_folder_path",
					mcp.Description("Destination folder; defaults to the root"),
				),
				mcp.WithString("file_name",
					mcp.Required(),
					mcp.Description("Name of the file in Dropbox"),
				),
				mcp.WithString("mode",
					mcp.Description("Write mode: 'add' (default), 'overwrite' or 'update'; other values are ignored"),
				),
				mcp.WithString("update_rev",
					mcp.Description("Revision to replace; required with mode 'update'"),
				),
				mcp.WithBoolean("autorename",
					mcp.DefaultBool(false),
					mcp.Description("Pick a free name on conflict"),
				),
				mcp.WithBoolean("mute",
					mcp.DefaultBool(false),
					mcp.Description("Do not notify the user's devices"),
				),
				mcp.WithBoolean("strict_conflict",
					mcp.DefaultBool(false),
					mcp.Description("Treat an overwrite with identical content as a conflict"),
				),
				mcp.WithString("client_modified",
					mcp.Description("Modification time to record, RFC 3339"),
				),
			),
			operation: instrumentation.OperationUpload,
			handler:   handleUpload,
		},
		{
			tool: mcp.NewTool(ToolUploadMultipleFiles,
				mcp.WithDescription("Upload several files one after another. URLs are uploaded first, then local paths; filenames pairs up with that order. The batch stops at the first failure."),
				mcp.WithArray("file_urls",
					stringItems,
					mcp.Description("URLs to fetch"),
				),
				mcp.WithArray("file_paths",
					stringItems,
					mcp.Description("Local paths to read"),
				),
				mcp.WithArray("filenames",
					mcp.Required(),
					stringItems,
					mcp.Description("Target file names, one per URL and path"),
				),
				mcp.WithString("dropbox_folder_path",
					mcp.Description("Destination folder (default: '/')"),
				),
				mcp.WithString("mode",
					mcp.Description("Write mode: 'add' (default) or 'overwrite'"),
				),
				mcp.WithBoolean("autorename",
					mcp.DefaultBool(false),
					mcp.Description("Pick a free name on conflict"),
				),
				mcp.WithBoolean("mute",
					mcp.DefaultBool(false),
					mcp.Description("Do not notify the user's devices"),
				),
				mcp.WithBoolean("strict_conflict",
					mcp.DefaultBool(false),
					mcp.Description("Treat an overwrite with identical content as a conflict"),
				),
			),
			operation: instrumentation.OperationUpload,
			handler:   handleUploadMultiple,
		},
	}
}

// uploadOptions reads the commit settings shared by both upload tools.
// Unrecognized modes fall back to the provider default.
func uploadOptions(args map[string]interface{}) *dropbox.UploadOptions {
	mode, _ := dropbox.ParseWriteMode(common.OptionalString(args, "mode"))
	return &dropbox.UploadOptions{
		Mode:           mode,
		Autorename:     common.OptionalBool(args, "autorename", false),
		Mute:           common.OptionalBool(args, "mute", false),
		StrictConflict: common.OptionalBool(args, "strict_conflict", false),
	}
}

func handleUpload(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	src, err := source.New(common.OptionalString(args, "file_url"), common.OptionalString(args, "file_path"))
	if err != nil {
		return common.ErrorResult(common.Validationf("%v", err)), nil
	}
	name, err := common.RequiredString(args, "file_name")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	opts := uploadOptions(args)
	if opts.Mode == dropbox.WriteModeUpdate {
		opts.UpdateRev = common.OptionalString(args, "update_rev")
		if opts.UpdateRev == "" {
			return common.ErrorResult(common.Validationf("update_rev is required with mode update")), nil
		}
	}
	if raw := common.OptionalString(args, "client_modified"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return common.ErrorResult(common.Validationf("client_modified %q is not an RFC 3339 time", raw)), nil
		}
		opts.ClientModified = &t
	}

	content, err := sc.SourceResolver().Resolve(ctx, src)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	path := remotepath.Join(common.OptionalString(args, "dropbox_folder_path"), name)
	entry, err := sc.Dropbox().Upload(ctx, path, content, opts)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.SuccessResult(fmt.Sprintf("Uploaded %s to %s", src, path), map[string]interface{}{
		"path":     path,
		"metadata": entry,
	})
}

func handleUploadMultiple(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	urls, err := batch.ParseOptionalStringArray(args["file_urls"], "file_urls")
	if err != nil {
		return common.ErrorResult(common.Validationf("%v", err)), nil
	}
	paths, err := batch.ParseOptionalStringArray(args["file_paths"], "file_paths")
	if err != nil {
		return common.ErrorResult(common.Validationf("%v", err)), nil
	}
	names, err := batch.ParseOptionalStringArray(args["filenames"], "filenames")
	if err != nil {
		return common.ErrorResult(common.Validationf("%v", err)), nil
	}

	if len(urls) == 0 && len(paths) == 0 {
		return common.ErrorResult(common.Validationf("file_urls or file_paths is required")), nil
	}
	if len(names) != len(urls)+len(paths) {
		return common.ErrorResult(common.Validationf(
			"filenames has %d entries but %d files were given", len(names), len(urls)+len(paths))), nil
	}

	opts := uploadOptions(args)
	if opts.Mode == dropbox.WriteModeUpdate {
		return common.ErrorResult(common.Validationf("mode update is not supported for batch uploads")), nil
	}

	sources := make([]source.Source, 0, len(names))
	for _, u := range urls {
		sources = append(sources, source.Source{URL: u})
	}
	for _, p := range paths {
		sources = append(sources, source.Source{LocalPath: p})
	}

	folder := common.OptionalString(args, "dropbox_folder_path")
	if folder == "" {
		folder = remotepath.Separator
	}
	targets := make([]string, len(names))
	for i, name := range names {
		targets[i] = remotepath.Join(folder, name)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		instrumentation.NewSpanAttributeBuilder().WithBatchSize(len(targets)).Build()...)

	resolver := sc.SourceResolver()
	client := sc.Dropbox()
	var (
		uploaded []*dropbox.Entry
		lastErr  error
	)
	_, failed := batch.ProcessSequential(targets, func(i int, target string) error {
		content, err := resolver.Resolve(ctx, sources[i])
		if err != nil {
			lastErr = err
			return err
		}
		entry, err := client.Upload(ctx, target, content, opts)
		if err != nil {
			lastErr = err
			return err
		}
		uploaded = append(uploaded, entry)
		return nil
	})
	if failed != nil {
		logging.WithOperation(sc.Logger(), instrumentation.OperationUpload).Debug("batch upload stopped",
			"uploaded", len(uploaded), "total", len(targets))
		return common.BatchErrorResult(lastErr, *failed), nil
	}

	return common.SuccessResult(fmt.Sprintf("Uploaded %d files", len(uploaded)), map[string]interface{}{
		"results": uploaded,
	})
}
