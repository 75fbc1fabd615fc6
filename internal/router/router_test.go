package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostpaws/pawserver/internal/auth"
	"github.com/lostpaws/pawserver/internal/handler"
	"github.com/lostpaws/pawserver/internal/middleware"
	"github.com/lostpaws/pawserver/internal/model"
	"github.com/lostpaws/pawserver/internal/rules"
	"github.com/lostpaws/pawserver/internal/seed"
	"github.com/lostpaws/pawserver/internal/service"
	"github.com/lostpaws/pawserver/internal/store"
)

// newServer wires a complete server around the bundled seed data, exactly as
// main does, minus the listener.
func newServer(t *testing.T) *echo.Echo {
	t.Helper()

	protectedSeed, err := seed.Protected()
	require.NoError(t, err)
	dataSeed, err := seed.Data()
	require.NoError(t, err)

	protected := store.NewFromSeed(protectedSeed)
	data := store.NewFromSeed(dataSeed)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.New(protected, "email", "This is not a production server")
	dataSvc := service.NewData(data, protected, rules.NewEngine(data, rules.Bundled()))
	flags := service.NewFlags()

	return New(log, authSvc, flags, Handlers{
		Home:      handler.NewHome(data),
		Auth:      handler.NewAuth(authSvc),
		Data:      handler.NewData(dataSvc),
		JSONStore: handler.NewJSONStore(service.NewJSONStore()),
		Util:      handler.NewUtil(flags),
		Admin:     handler.NewAdmin(""),
	})
}

func do(t *testing.T, e *echo.Echo, method, target, body string, headers map[string]string) (int, model.Record) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded model.Record
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec.Code, decoded
}

func login(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()
	code, body := do(t, e, http.MethodPost, "/users/login",
		`{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, code)
	token, _ := body[auth.FieldAccessToken].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndMe(t *testing.T) {
	e := newServer(t)

	code, body := do(t, e, http.MethodPost, "/users/register",
		`{"email":"new@abv.bg","password":"secret","username":"New"}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["_id"])
	assert.NotEmpty(t, body[auth.FieldAccessToken])
	assert.NotContains(t, body, auth.FieldHashedPassword)

	token, _ := body[auth.FieldAccessToken].(string)
	code, me := do(t, e, http.MethodGet, "/users/me", "", map[string]string{
		middleware.HeaderAuthorization: token,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "new@abv.bg", me["email"])
	assert.NotContains(t, me, auth.FieldHashedPassword)
}

func TestRegisterConflictWithSeedAccount(t *testing.T) {
	e := newServer(t)

	code, body := do(t, e, http.MethodPost, "/users/register",
		`{"email":"peter@abv.bg","password":"x"}`, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, float64(409), body["code"])
	assert.Equal(t, "A user with the same email already exists", body["message"])
}

func TestLoginSeedAccount(t *testing.T) {
	e := newServer(t)

	token := login(t, e, "peter@abv.bg", "123456")
	assert.NotEmpty(t, token)

	code, body := do(t, e, http.MethodPost, "/users/login",
		`{"email":"peter@abv.bg","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Login or password don't match", body["message"])
}

func TestLogout(t *testing.T) {
	e := newServer(t)
	token := login(t, e, "peter@abv.bg", "123456")

	req := httptest.NewRequest(http.MethodGet, "/users/logout", nil)
	req.Header.Set(middleware.HeaderAuthorization, token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	// The token died with the session.
	code, body := do(t, e, http.MethodGet, "/users/me", "", map[string]string{
		middleware.HeaderAuthorization: token,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid access token", body["message"])
}

func TestLogoutWithoutToken(t *testing.T) {
	e := newServer(t)

	code, body := do(t, e, http.MethodGet, "/users/logout", "", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "User session does not exist", body["message"])
}

func TestCreateStampsOwnerAndGuardsWrites(t *testing.T) {
	e := newServer(t)
	peter := login(t, e, "peter@abv.bg", "123456")
	george := login(t, e, "george@abv.bg", "123456")

	// Anonymous create is rejected.
	code, _ := do(t, e, http.MethodPost, "/data/paws", `{"name":"Rex"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, created := do(t, e, http.MethodPost, "/data/paws", `{"name":"Rex"}`, map[string]string{
		middleware.HeaderAuthorization: peter,
	})
	require.Equal(t, http.StatusOK, code)
	id, _ := created["_id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, created["_createdOn"])

	// Another user can read but neither update nor delete it.
	code, got := do(t, e, http.MethodGet, "/data/paws/"+id, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created["_ownerId"], got["_ownerId"])

	code, _ = do(t, e, http.MethodPut, "/data/paws/"+id, `{"name":"Stolen"}`, map[string]string{
		middleware.HeaderAuthorization: george,
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, e, http.MethodDelete, "/data/paws/"+id, "", map[string]string{
		middleware.HeaderAuthorization: george,
	})
	assert.Equal(t, http.StatusForbidden, code)

	// The owner can.
	code, updated := do(t, e, http.MethodPatch, "/data/paws/"+id, `{"name":"Rexy"}`, map[string]string{
		middleware.HeaderAuthorization: peter,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Rexy", updated["name"])
	assert.NotEmpty(t, updated["_updatedOn"])

	code, stamp := do(t, e, http.MethodDelete, "/data/paws/"+id, "", map[string]string{
		middleware.HeaderAuthorization: peter,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, stamp, "_deletedOn")
}

func TestAdminHeaderBypassesRules(t *testing.T) {
	e := newServer(t)

	code, _ := do(t, e, http.MethodDelete, "/data/paws/7654fbf9-d80f-4932-a3b1-bfa17ea6e53c", "",
		map[string]string{middleware.HeaderAdmin: "true"})
	assert.Equal(t, http.StatusOK, code)
}

func TestQueryParameters(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/data/paws?where="+
		`age%3E%3D%224%22`+"&sortBy=name&select=name", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []model.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, model.Record{"name": "Dexter"}, records[0])

	req = httptest.NewRequest(http.MethodGet, "/data/paws?count=", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", strings.TrimSpace(rec.Body.String()))
}

func TestListCollections(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"members", "paws", "teams"}, names)
}

func TestDataPathValidation(t *testing.T) {
	e := newServer(t)

	code, body := do(t, e, http.MethodPost, "/data/paws/some-id", `{"name":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Use PUT to update records", body["message"])

	code, body = do(t, e, http.MethodPut, "/data/paws", `{"name":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing entry ID", body["message"])
}

func TestJSONStoreEndpoints(t *testing.T) {
	e := newServer(t)

	// Missing paths answer 204 with no body, and so does the bare root.
	req := httptest.NewRequest(http.MethodGet, "/jsonstore/nothing/here", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/jsonstore", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	code, entry := do(t, e, http.MethodPost, "/jsonstore/notes", `{"title":"hello"}`, nil)
	require.Equal(t, http.StatusOK, code)
	id, _ := entry["_id"].(string)
	require.NotEmpty(t, id)

	code, got := do(t, e, http.MethodGet, "/jsonstore/notes/"+id, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", got["title"])

	code, patched := do(t, e, http.MethodPatch, "/jsonstore/notes/"+id, `{"done":true}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, patched["done"])

	code, prior := do(t, e, http.MethodDelete, "/jsonstore/notes/"+id, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", prior["title"])
}

func TestUtilFlags(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/util/throttle", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "false", strings.TrimSpace(rec.Body.String()))

	code, _ := do(t, e, http.MethodPost, "/util", `{"throttle":true}`, nil)
	require.Equal(t, http.StatusOK, code)

	// The next request is throttled but still answers with the new state.
	req = httptest.NewRequest(http.MethodGet, "/util/throttle", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "true", strings.TrimSpace(rec.Body.String()))
}

func TestUnknownService(t *testing.T) {
	e := newServer(t)

	code, body := do(t, e, http.MethodGet, "/nosuchservice/whatever", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `Service "nosuchservice" is not supported`, body["message"])
	assert.Equal(t, float64(400), body["code"])
}

func TestInvalidTokenRejectedBeforeHandler(t *testing.T) {
	e := newServer(t)

	code, body := do(t, e, http.MethodGet, "/data/paws", "", map[string]string{
		middleware.HeaderAuthorization: "bogus",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid access token", body["message"])
}

func TestAdminPanelServed(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get(echo.HeaderLocation))

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin Panel")
}

func TestCORSHeaders(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/data/paws", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), middleware.HeaderAuthorization)
}
