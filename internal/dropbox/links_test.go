package dropbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdk "github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkServer answers the sharing routes and keeps the last body per route.
type linkServer struct {
	*httptest.Server
	conflict bool

	mu     sync.Mutex
	bodies map[string]map[string]interface{}
}

func newLinkServer(t *testing.T) *linkServer {
	t.Helper()
	ls := &linkServer{bodies: map[string]map[string]interface{}{}}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(raw, &body), string(raw))
		ls.mu.Lock()
		ls.bodies[route] = body
		ls.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case route == "create_shared_link_with_settings" && ls.conflict:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error_summary":"shared_link_already_exists/metadata/..","error":{".tag":"shared_link_already_exists"}}`))
		case route == "list_shared_links":
			_, _ = w.Write([]byte(`{"links":[{".tag":"file","url":"https://www.dropbox.com/s/existing","name":"a.txt"}],"has_more":false}`))
		default:
			_, _ = w.Write([]byte(`{".tag":"file","url":"https://www.dropbox.com/s/new","name":"a.txt"}`))
		}
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *linkServer) body(route string) map[string]interface{} {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.bodies[route]
}

func (ls *linkServer) client() *Client {
	return newClient(nil, ls.routes(), nil, nil, nil)
}

func (ls *linkServer) routes() *linkRoutes {
	return newLinkRoutes(sdk.Config{
		Token:  "token",
		Client: ls.Client(),
		URLGenerator: func(_, namespace, route string) string {
			return ls.URL + "/2/" + namespace + "/" + route
		},
	})
}

func TestLinkRoutes_SendsAllowDownloadFalse(t *testing.T) {
	ls := newLinkServer(t)
	c := ls.client()

	link, err := c.CreateOrUpdateSharedLink(context.Background(), "/a.txt", &ShareLinkSettings{AllowDownload: false})
	require.NoError(t, err)
	assert.Equal(t, "https://www.dropbox.com/s/new", link.URL)

	body := ls.body("create_shared_link_with_settings")
	require.NotNil(t, body)
	assert.Equal(t, "/a.txt", body["path"])
	settings, ok := body["settings"].(map[string]interface{})
	require.True(t, ok, "settings missing: %v", body)
	assert.Equal(t, false, settings["allow_download"])
	assert.Equal(t, map[string]interface{}{".tag": "public"}, settings["requested_visibility"])
}

func TestLinkRoutes_SendsAllowDownloadTrue(t *testing.T) {
	ls := newLinkServer(t)
	c := ls.client()

	_, err := c.CreateOrUpdateSharedLink(context.Background(), "/a.txt", &ShareLinkSettings{
		AllowDownload: true,
		Password:      "secret",
	})
	require.NoError(t, err)

	settings := ls.body("create_shared_link_with_settings")["settings"].(map[string]interface{})
	assert.Equal(t, true, settings["allow_download"])
	assert.Equal(t, true, settings["require_password"])
	assert.Equal(t, "secret", settings["link_password"])
}

func TestLinkRoutes_ModifyExistingLink(t *testing.T) {
	ls := newLinkServer(t)
	ls.conflict = true
	c := ls.client()

	link, err := c.CreateOrUpdateSharedLink(context.Background(), "/a.txt", &ShareLinkSettings{
		AllowDownload: false,
		Access:        AccessViewer,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://www.dropbox.com/s/new", link.URL)

	body := ls.body("modify_shared_link_settings")
	require.NotNil(t, body, "modify was not called")
	assert.Equal(t, "https://www.dropbox.com/s/existing", body["url"])
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, false, settings["allow_download"])
	assert.NotContains(t, settings, "access")
}

func TestLinkRoutes_ConflictError(t *testing.T) {
	ls := newLinkServer(t)
	ls.conflict = true

	_, err := ls.routes().CreateSharedLinkWithSettings(sharing.NewCreateSharedLinkWithSettingsArg("/a.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), linkAlreadyExists)
	assert.Equal(t, KindConflict, classify(err))
}

func TestWithExplicitDownload_Nil(t *testing.T) {
	b, err := json.Marshal(createLinkArg{Path: "/a", Settings: withExplicitDownload(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/a"}`, string(b))
}
