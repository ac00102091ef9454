package dropbox

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdk "github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/dropboxmcp/internal/instrumentation"
	"github.com/teemow/dropboxmcp/internal/logging"
)

// API is the set of Dropbox operations the tools are built on.
type API interface {
	Upload(ctx context.Context, path string, content []byte, opts *UploadOptions) (*Entry, error)
	Download(ctx context.Context, path string) (*Entry, io.ReadCloser, error)
	CreateFolder(ctx context.Context, path string, autorename bool) (*Entry, error)
	Delete(ctx context.Context, path string) (*Entry, error)
	Move(ctx context.Context, from, to string, opts *RelocationOptions) (*Entry, error)
	ListFolder(ctx context.Context, path string, opts *ListOptions) (*ListResult, error)
	ListRevisions(ctx context.Context, path string, opts *RevisionOptions) (*RevisionsResult, error)
	Restore(ctx context.Context, path, rev string) (*Entry, error)
	Search(ctx context.Context, query string, maxResults uint64) ([]*Entry, error)
	CreateOrUpdateSharedLink(ctx context.Context, path string, settings *ShareLinkSettings) (*SharedLink, error)
	CurrentAccount(ctx context.Context) (*Account, error)
}

// The SDK's files, sharing and users clients satisfy these.
type filesAPI interface {
	Upload(arg *files.UploadArg, content io.Reader) (*files.FileMetadata, error)
	Download(arg *files.DownloadArg) (*files.FileMetadata, io.ReadCloser, error)
	CreateFolderV2(arg *files.CreateFolderArg) (*files.CreateFolderResult, error)
	DeleteV2(arg *files.DeleteArg) (*files.DeleteResult, error)
	MoveV2(arg *files.RelocationArg) (*files.RelocationResult, error)
	ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error)
	ListRevisions(arg *files.ListRevisionsArg) (*files.ListRevisionsResult, error)
	Restore(arg *files.RestoreArg) (*files.FileMetadata, error)
	SearchV2(arg *files.SearchV2Arg) (*files.SearchV2Result, error)
}

type sharingAPI interface {
	CreateSharedLinkWithSettings(arg *sharing.CreateSharedLinkWithSettingsArg) (sharing.IsSharedLinkMetadata, error)
	ModifySharedLinkSettings(arg *sharing.ModifySharedLinkSettingsArgs) (sharing.IsSharedLinkMetadata, error)
	ListSharedLinks(arg *sharing.ListSharedLinksArg) (*sharing.ListSharedLinksResult, error)
}

type usersAPI interface {
	GetCurrentAccount() (*users.FullAccount, error)
}

// Config configures NewClient.
type Config struct {
	// AccessToken is the long-lived or short-lived Dropbox access token
	AccessToken string

	// HTTPClient is the base client for API requests; the bearer token is
	// added on top of its transport. Defaults to an otelhttp-instrumented
	// client.
	HTTPClient *http.Client

	// Metrics receives one measurement per API call; may be nil
	Metrics *instrumentation.Metrics

	// Logger receives call-level debug logs; nil discards them
	Logger *slog.Logger

	// Debug forwards the SDK's own request logging to Logger
	Debug bool
}

// Client implements API on top of the Dropbox SDK.
type Client struct {
	files   filesAPI
	sharing sharingAPI
	users   usersAPI
	metrics *instrumentation.Metrics
	logger  logging.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a Client authenticated with cfg.AccessToken. No request
// is made until the first call.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, ErrMissingToken
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	httpClient := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, base),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}),
	)

	sdkConfig := sdk.Config{
		Token:    cfg.AccessToken,
		Client:   httpClient,
		LogLevel: sdk.LogOff,
	}
	if cfg.Debug && cfg.Logger != nil {
		sdkConfig.LogLevel = sdk.LogInfo
		sdkConfig.Logger = slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelDebug)
	}

	var logger logging.Logger = logging.Discard
	if cfg.Logger != nil {
		logger = logging.NewSlogAdapter(cfg.Logger)
	}

	return newClient(files.New(sdkConfig), newLinkRoutes(sdkConfig), users.New(sdkConfig), cfg.Metrics, logger), nil
}

func newClient(f filesAPI, s sharingAPI, u usersAPI, metrics *instrumentation.Metrics, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard
	}
	return &Client{
		files:   f,
		sharing: s,
		users:   u,
		metrics: metrics,
		logger:  logger,
	}
}

// call runs fn inside a client span, records metrics and converts a failure
// into an *Error. The SDK calls are not context-aware, so ctx is only
// checked before the request starts.
func (c *Client) call(ctx context.Context, op, path string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return newError(op, path, err)
	}

	ctx, span := instrumentation.StartDropboxAPISpan(ctx, op,
		attribute.String(instrumentation.SpanAttrPathHash, instrumentation.HashPath(path)))
	defer span.End()

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	if err != nil {
		apiErr := newError(op, path, err)
		span.SetAttributes(attribute.String(instrumentation.SpanAttrErrorKind, string(apiErr.Kind)))
		instrumentation.SetSpanError(span, apiErr)
		c.metrics.RecordDropboxAPIOperation(ctx, op, instrumentation.StatusError, string(apiErr.Kind), duration)
		c.logger.Debug("dropbox call failed",
			logging.Operation(op), logging.Path(path), logging.ErrorKind(string(apiErr.Kind)), logging.Err(err))
		return apiErr
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordDropboxAPIOperation(ctx, op, instrumentation.StatusSuccess, "", duration)
	c.logger.Debug("dropbox call succeeded", logging.Operation(op), logging.Path(path), slog.Duration(logging.KeyDuration, duration))
	return nil
}

// Upload writes content to path in a single request. Content must not
// exceed the provider's single-request limit of 150 MiB.
func (c *Client) Upload(ctx context.Context, path string, content []byte, opts *UploadOptions) (*Entry, error) {
	arg := files.NewUploadArg(path)
	if opts != nil {
		if opts.Mode != "" {
			arg.Mode = &files.WriteMode{Tagged: sdk.Tagged{Tag: string(opts.Mode)}}
			if opts.Mode == WriteModeUpdate {
				arg.Mode.Update = opts.UpdateRev
			}
		}
		arg.Autorename = opts.Autorename
		arg.Mute = opts.Mute
		arg.StrictConflict = opts.StrictConflict
		if opts.ClientModified != nil {
			t := opts.ClientModified.UTC().Truncate(time.Second)
			arg.ClientModified = &t
		}
	}

	var meta *files.FileMetadata
	err := c.call(ctx, instrumentation.OperationUpload, path, func() (err error) {
		meta, err = c.files.Upload(arg, bytes.NewReader(content))
		return err
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordTransferBytes(ctx, instrumentation.DirectionUpload, int64(len(content)))
	return fileEntry(meta), nil
}

// Download opens the content of the file at path. The caller must close the
// returned reader.
func (c *Client) Download(ctx context.Context, path string) (*Entry, io.ReadCloser, error) {
	var (
		meta *files.FileMetadata
		body io.ReadCloser
	)
	err := c.call(ctx, instrumentation.OperationDownload, path, func() (err error) {
		meta, body, err = c.files.Download(files.NewDownloadArg(path))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return fileEntry(meta), &countingReader{ReadCloser: body, done: func(n int64) {
		c.metrics.RecordTransferBytes(ctx, instrumentation.DirectionDownload, n)
	}}, nil
}

// CreateFolder creates a folder at path.
func (c *Client) CreateFolder(ctx context.Context, path string, autorename bool) (*Entry, error) {
	arg := files.NewCreateFolderArg(path)
	arg.Autorename = autorename

	var res *files.CreateFolderResult
	err := c.call(ctx, instrumentation.OperationCreateFolder, path, func() (err error) {
		res, err = c.files.CreateFolderV2(arg)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Metadata == nil {
		return &Entry{Tag: TagFolder, PathDisplay: path}, nil
	}
	return folderEntry(res.Metadata), nil
}

// Delete permanently deletes the file or folder at path.
func (c *Client) Delete(ctx context.Context, path string) (*Entry, error) {
	var res *files.DeleteResult
	err := c.call(ctx, instrumentation.OperationDelete, path, func() (err error) {
		res, err = c.files.DeleteV2(files.NewDeleteArg(path))
		return err
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Metadata == nil {
		return &Entry{Tag: TagDeleted, Name: baseName(path), PathDisplay: path}, nil
	}
	return convertMetadata(res.Metadata), nil
}

// Move relocates the entry at from to the exact path to.
func (c *Client) Move(ctx context.Context, from, to string, opts *RelocationOptions) (*Entry, error) {
	arg := files.NewRelocationArg(from, to)
	if opts != nil {
		arg.Autorename = opts.Autorename
		arg.AllowOwnershipTransfer = opts.AllowOwnershipTransfer
	}

	var res *files.RelocationResult
	err := c.call(ctx, instrumentation.OperationMove, from, func() (err error) {
		res, err = c.files.MoveV2(arg)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Metadata == nil {
		return &Entry{Name: baseName(to), PathDisplay: to}, nil
	}
	return convertMetadata(res.Metadata), nil
}

// ListFolder returns the first page of the listing of path. The root is "".
func (c *Client) ListFolder(ctx context.Context, path string, opts *ListOptions) (*ListResult, error) {
	arg := files.NewListFolderArg(path)
	if opts != nil {
		arg.Recursive = opts.Recursive
		arg.IncludeDeleted = opts.IncludeDeleted
		arg.IncludeHasExplicitSharedMembers = opts.IncludeHasExplicitSharedMembers
		arg.IncludeMountedFolders = opts.IncludeMountedFolders
		arg.IncludeNonDownloadableFiles = opts.IncludeNonDownloadableFiles
		if opts.Limit > 0 {
			arg.Limit = opts.Limit
		}
	}

	var res *files.ListFolderResult
	err := c.call(ctx, instrumentation.OperationListFolder, path, func() (err error) {
		res, err = c.files.ListFolder(arg)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &ListResult{Entries: make([]*Entry, 0, len(res.Entries)), Cursor: res.Cursor, HasMore: res.HasMore}
	for _, m := range res.Entries {
		if e := convertMetadata(m); e != nil {
			out.Entries = append(out.Entries, e)
		}
	}
	return out, nil
}

// ListRevisions lists stored revisions of the file at path.
func (c *Client) ListRevisions(ctx context.Context, path string, opts *RevisionOptions) (*RevisionsResult, error) {
	arg := files.NewListRevisionsArg(path)
	if opts != nil {
		if opts.Mode != "" {
			arg.Mode = &files.ListRevisionsMode{Tagged: sdk.Tagged{Tag: opts.Mode}}
		}
		if opts.Limit > 0 {
			arg.Limit = opts.Limit
		}
	}

	var res *files.ListRevisionsResult
	err := c.call(ctx, instrumentation.OperationListRevisions, path, func() (err error) {
		res, err = c.files.ListRevisions(arg)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &RevisionsResult{IsDeleted: res.IsDeleted, Entries: make([]*Entry, 0, len(res.Entries))}
	for _, m := range res.Entries {
		out.Entries = append(out.Entries, fileEntry(m))
	}
	return out, nil
}

// Restore restores the file at path to revision rev.
func (c *Client) Restore(ctx context.Context, path, rev string) (*Entry, error) {
	var meta *files.FileMetadata
	err := c.call(ctx, instrumentation.OperationRestore, path, func() (err error) {
		meta, err = c.files.Restore(files.NewRestoreArg(path, rev))
		return err
	})
	if err != nil {
		return nil, err
	}
	return fileEntry(meta), nil
}

// Search returns entries matching query. maxResults of 0 uses the provider
// default.
func (c *Client) Search(ctx context.Context, query string, maxResults uint64) ([]*Entry, error) {
	arg := files.NewSearchV2Arg(query)
	if maxResults > 0 {
		options := files.NewSearchOptions()
		options.MaxResults = maxResults
		arg.Options = options
	}

	var res *files.SearchV2Result
	err := c.call(ctx, instrumentation.OperationSearch, "", func() (err error) {
		res, err = c.files.SearchV2(arg)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Entry, 0, len(res.Matches))
	for _, match := range res.Matches {
		if match == nil || match.Metadata == nil {
			continue
		}
		if e := convertMetadata(match.Metadata.Metadata); e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateOrUpdateSharedLink creates a public link to path. If a link already
// exists its settings are replaced instead.
func (c *Client) CreateOrUpdateSharedLink(ctx context.Context, path string, settings *ShareLinkSettings) (*SharedLink, error) {
	sdkSettings := toSDKSettings(settings)

	arg := sharing.NewCreateSharedLinkWithSettingsArg(path)
	arg.Settings = sdkSettings

	var meta sharing.IsSharedLinkMetadata
	err := c.call(ctx, instrumentation.OperationCreateSharedLink, path, func() (err error) {
		meta, err = c.sharing.CreateSharedLinkWithSettings(arg)
		return err
	})
	if err == nil {
		return convertLink(meta), nil
	}
	if !isLinkAlreadyExists(err) {
		return nil, err
	}

	existing, err := c.existingLinkURL(ctx, path)
	if err != nil {
		return nil, err
	}

	// The access level of an existing link cannot be changed.
	modify := *sdkSettings
	modify.Access = nil

	err = c.call(ctx, instrumentation.OperationModifySharedLink, path, func() (err error) {
		meta, err = c.sharing.ModifySharedLinkSettings(sharing.NewModifySharedLinkSettingsArgs(existing, &modify))
		return err
	})
	if err != nil {
		return nil, err
	}
	return convertLink(meta), nil
}

// Error summary tag returned when path already has a shared link.
const linkAlreadyExists = "shared_link_already_exists"

func isLinkAlreadyExists(err error) bool {
	return KindOf(err) == KindConflict && strings.Contains(err.Error(), linkAlreadyExists)
}

func (c *Client) existingLinkURL(ctx context.Context, path string) (string, error) {
	arg := sharing.NewListSharedLinksArg()
	arg.Path = path
	arg.DirectOnly = true

	var res *sharing.ListSharedLinksResult
	err := c.call(ctx, instrumentation.OperationListSharedLinks, path, func() (err error) {
		res, err = c.sharing.ListSharedLinks(arg)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, l := range res.Links {
		if link := convertLink(l); link != nil && link.URL != "" {
			return link.URL, nil
		}
	}
	return "", newError(instrumentation.OperationListSharedLinks, path, errNoExistingLink)
}

// CurrentAccount returns the authenticated account, including its tier.
func (c *Client) CurrentAccount(ctx context.Context) (*Account, error) {
	var full *users.FullAccount
	err := c.call(ctx, instrumentation.OperationGetCurrentAccount, "", func() (err error) {
		full, err = c.users.GetCurrentAccount()
		return err
	})
	if err != nil {
		return nil, err
	}

	account := &Account{AccountID: full.AccountId, Email: full.Email}
	if full.Name != nil {
		account.DisplayName = full.Name.DisplayName
	}
	if full.AccountType != nil {
		account.Tier = full.AccountType.Tag
	}
	return account, nil
}

type countingReader struct {
	io.ReadCloser
	n    int64
	done func(int64)
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.n += int64(n)
	return n, err
}

func (r *countingReader) Close() error {
	if r.done != nil {
		r.done(r.n)
		r.done = nil
	}
	return r.ReadCloser.Close()
}
