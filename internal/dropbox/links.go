package dropbox

import (
	sdk "github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
)

// linkRoutes is the SDK sharing client with the create and modify routes
// replaced. The generated SharedLinkSettings drops allow_download when it is
// false, so those two calls are sent with the field always present.
type linkRoutes struct {
	sharing.Client
	ctx sdk.Context
}

var _ sharingAPI = (*linkRoutes)(nil)

func newLinkRoutes(cfg sdk.Config) *linkRoutes {
	return &linkRoutes{Client: sharing.New(cfg), ctx: sdk.NewContext(cfg)}
}

// explicitSettings shadows the embedded allow_download with a field that is
// always encoded.
type explicitSettings struct {
	*sharing.SharedLinkSettings
	AllowDownload bool `json:"allow_download"`
}

func withExplicitDownload(s *sharing.SharedLinkSettings) *explicitSettings {
	if s == nil {
		return nil
	}
	return &explicitSettings{SharedLinkSettings: s, AllowDownload: s.AllowDownload}
}

type createLinkArg struct {
	Path     string            `json:"path"`
	Settings *explicitSettings `json:"settings,omitempty"`
}

type modifyLinkArg struct {
	URL              string            `json:"url"`
	Settings         *explicitSettings `json:"settings"`
	RemoveExpiration bool              `json:"remove_expiration"`
}

func (r *linkRoutes) CreateSharedLinkWithSettings(arg *sharing.CreateSharedLinkWithSettingsArg) (sharing.IsSharedLinkMetadata, error) {
	resp, err := r.rpc("create_shared_link_with_settings", createLinkArg{
		Path:     arg.Path,
		Settings: withExplicitDownload(arg.Settings),
	})
	if err != nil {
		var appErr sharing.CreateSharedLinkWithSettingsAPIError
		if err = auth.ParseError(err, &appErr); err == &appErr {
			err = appErr
		}
		return nil, err
	}
	return sharing.IsSharedLinkMetadataFromJSON(resp)
}

func (r *linkRoutes) ModifySharedLinkSettings(arg *sharing.ModifySharedLinkSettingsArgs) (sharing.IsSharedLinkMetadata, error) {
	resp, err := r.rpc("modify_shared_link_settings", modifyLinkArg{
		URL:              arg.Url,
		Settings:         withExplicitDownload(arg.Settings),
		RemoveExpiration: arg.RemoveExpiration,
	})
	if err != nil {
		var appErr sharing.ModifySharedLinkSettingsAPIError
		if err = auth.ParseError(err, &appErr); err == &appErr {
			err = appErr
		}
		return nil, err
	}
	return sharing.IsSharedLinkMetadataFromJSON(resp)
}

func (r *linkRoutes) rpc(route string, arg interface{}) ([]byte, error) {
	resp, _, err := r.ctx.Execute(sdk.Request{
		Host:      "api",
		Namespace: "sharing",
		Route:     route,
		Auth:      "user",
		Style:     "rpc",
		Arg:       arg,
	}, nil)
	return resp, err
}
