package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/credential"
	api "github.com/tazhibayda/workspace-service/internal/http"
	"github.com/tazhibayda/workspace-service/internal/oauth"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/provision"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/security"
)

const testSecret = "test-secret"

type testEnv struct {
	T       *testing.T
	Store   *repo.Memory
	Handler *api.Handler
	Router  *gin.Engine
}

func newTestEnv(t *testing.T, setup ...func(h *api.Handler)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repo.NewMemory()
	hasher := security.BcryptHasher{Cost: 4}
	cat := permission.Default()
	engine := provision.New(store, cat, provision.WithLogger(zap.NewNop()), provision.WithHasher(hasher))
	verifier := credential.NewVerifier(store, hasher, zap.NewNop())

	h := api.NewHandler(store, engine, verifier, cat, testSecret, 15*time.Minute)
	for _, f := range setup {
		f(h)
	}
	return &testEnv{T: t, Store: store, Handler: h, Router: api.NewRouter(h, "workspace-service-test")}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body=%s", w.Body.String())
	return out
}

// registerAndLogin returns the access token of a freshly registered user.
func (e *testEnv) registerAndLogin(email, password string) (userID, workspaceID, access string) {
	t := e.T
	t.Helper()
	w := e.do("POST", "/api/auth/register", `{"email":"`+email+`","password":"`+password+`","name":"John"}`, nil)
	require.Equal(t, 201, w.Code, w.Body.String())
	reg := decode[map[string]string](t, w)

	w = e.do("POST", "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	lr := decode[struct{ Access string }](t, w)
	require.NotEmpty(t, lr.Access)
	return reg["user_id"], reg["workspace_id"], lr.Access
}

// fakeGoogle signs states for real and returns a fixed user on exchange.
type fakeGoogle struct {
	*oauth.GoogleOAuth
	user *oauth.GoogleUser
	err  error
}

func newFakeGoogle(u *oauth.GoogleUser) *fakeGoogle {
	return &fakeGoogle{GoogleOAuth: oauth.NewGoogle("client", "secret", "http://localhost/cb", "state-key"), user: u}
}

func (f *fakeGoogle) Exchange(context.Context, string) (*oauth.GoogleUser, error) {
	return f.user, f.err
}
