package dropbox_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/dropboxmcp/internal/dropbox"
	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/logging"
	"github.com/teemow/dropboxmcp/internal/server"
	"github.com/teemow/dropboxmcp/internal/tools/common"
)

// localExpiryLayout is accepted for expiry times without a zone; they are
// taken as UTC.
const localExpiryLayout = "2006-01-02T15:04:05"

// now is replaced in tests.
var now = time.Now

func shareTools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool(ToolCreateShareLink,
				mcp.WithDescription("Create a public share link for a file or folder, or update the settings of the existing link. Passwords and expiry require a paid account."),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path of the file or folder to share"),
				),
				mcp.WithBoolean("require_password",
					mcp.DefaultBool(false),
					mcp.Description("Protect the link with link_password"),
				),
				mcp.WithString("link_password",
					mcp.Description("Password for the link; required when require_password is true"),
				),
				mcp.WithString("expires",
					mcp.Description("Expiry time in ISO 8601 (e.g. '2030-01-31T12:00:00Z'); must be in the future"),
				),
				mcp.WithString("access",
					mcp.Description("Requested access level: 'viewer', 'editor' or 'max'"),
				),
				mcp.WithBoolean("allow_download",
					mcp.DefaultBool(true),
					mcp.Description("Allow downloads through the link (default: true)"),
				),
			),
			operation: instrumentation.OperationCreateSharedLink,
			handler:   handleShareLink,
		},
	}
}

func handleShareLink(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := common.RequiredString(args, "path")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	var access dropbox.AccessLevel
	if raw := common.OptionalString(args, "access"); raw != "" {
		level, ok := dropbox.ParseAccessLevel(raw)
		if !ok {
			return common.ErrorResult(common.Validationf("access must be one of viewer, editor or max, got %q", raw)), nil
		}
		access = level
	}

	requirePassword := common.OptionalBool(args, "require_password", false)
	password := common.OptionalString(args, "link_password")
	if requirePassword && password == "" {
		return common.ErrorResult(common.Validationf("link_password is required when require_password is set")), nil
	}

	client := sc.Dropbox()
	rawExpires := common.OptionalString(args, "expires")

	account, err := client.CurrentAccount(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	logging.WithTool(sc.Logger(), ToolCreateShareLink).DebugContext(ctx, "account tier looked up",
		logging.UserHash(account.Email), "tier", account.Tier)
	if account.Tier == dropbox.TierBasic && (requirePassword || rawExpires != "") {
		return common.ErrorResult(common.Validationf("password protection and expiry are not available on a basic account")), nil
	}

	settings := &dropbox.ShareLinkSettings{
		AllowDownload: common.OptionalBool(args, "allow_download", true),
		Access:        access,
	}
	if requirePassword {
		settings.Password = password
	}
	if rawExpires != "" {
		expires, err := parseExpiry(rawExpires)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		settings.Expires = &expires
	}

	link, err := client.CreateOrUpdateSharedLink(ctx, path, settings)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	fields := map[string]interface{}{
		"url": link.URL,
	}
	if link.Expires != nil {
		fields["expires"] = link.Expires.UTC().Format(time.RFC3339)
	}
	return common.SuccessResult(fmt.Sprintf("Share link ready for %s", path), fields)
}

// parseExpiry parses an ISO 8601 expiry time and checks that it lies in the
// future.
func parseExpiry(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		var localErr error
		t, localErr = time.ParseInLocation(localExpiryLayout, s, time.UTC)
		if localErr != nil {
			return time.Time{}, common.Validationf("expires %q is not an ISO 8601 time: %v", s, err)
		}
	}
	if !t.After(now()) {
		return time.Time{}, common.Validationf("expires %q must be in the future", s)
	}
	return t, nil
}
