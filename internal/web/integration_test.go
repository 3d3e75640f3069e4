package web_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/lostfound/internal/auth"
	"github.com/vbonduro/lostfound/internal/db"
	"github.com/vbonduro/lostfound/internal/domain"
	"github.com/vbonduro/lostfound/internal/metrics"
	"github.com/vbonduro/lostfound/internal/notify"
	"github.com/vbonduro/lostfound/internal/photostore/local"
	"github.com/vbonduro/lostfound/internal/service"
	"github.com/vbonduro/lostfound/internal/store"
	"github.com/vbonduro/lostfound/internal/vision"
	"github.com/vbonduro/lostfound/internal/web"
	"github.com/vbonduro/lostfound/internal/web/templates"
)

const (
	testSecret   = "integration-test-secret-0123456789abcdef"
	testUsername = "warden"
	testPassword = "correct horse battery"
)

type stubSuggester struct {
	suggestion *vision.Suggestion
}

func (s *stubSuggester) Suggest(_ context.Context, _ io.Reader, _ string) (*vision.Suggestion, error) {
	return s.suggestion, nil
}

type testEnv struct {
	srv *httptest.Server
	svc *service.ItemService
}

type envOptions struct {
	suggester vision.Suggester
	rate      int
}

// newTestServer sets up a real web.Server backed by in-memory SQLite, a
// temporary photo directory and one admin account.
func newTestServer(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	photos, err := local.NewLocalPhotoStore(t.TempDir(), "/photos")
	require.NoError(t, err)

	admins := store.NewAdminStore(database)
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	_, err = admins.Create(context.Background(), testUsername, hash)
	require.NoError(t, err)

	m := metrics.New()
	svc := service.NewItemService(store.NewItemStore(database), photos, notify.Noop{}, opts.suggester, m, slog.Default())
	handler := web.NewServer(svc, admins, templates.FS, photos, m, web.Options{
		JWTSecret:           testSecret,
		SubmitRatePerMinute: opts.rate,
	}, slog.Default())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, svc: svc}
}

// newClient returns a client with a cookie jar that does not follow
// redirects, so tests can inspect them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func login(t *testing.T, env *testEnv) *http.Client {
	t.Helper()
	client := newClient(t)
	resp, err := client.PostForm(env.srv.URL+"/admin/login", url.Values{
		"username": {testUsername},
		"password": {testPassword},
	})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))
	return client
}

func do(t *testing.T, client *http.Client, method, target string, form url.Values, htmx bool) (int, string, http.Header) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b), resp.Header
}

func reportFields(dateFound string) map[string]string {
	return map[string]string{
		"title":          "Blue Backpack",
		"category":       "Bags",
		"description":    "Navy blue with a keychain",
		"location":       "Library, 2nd floor",
		"date_found":     dateFound,
		"finder_name":    "Sam",
		"finder_contact": "sam@example.com",
	}
}

// buildMultipartBody creates a multipart/form-data body with the given fields
// and an optional "photo" file.
func buildMultipartBody(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photo", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func submitReport(t *testing.T, env *testEnv, fields map[string]string, photo []byte) (int, string) {
	t.Helper()
	body, contentType := buildMultipartBody(t, fields, photo)
	resp, err := http.Post(env.srv.URL+"/report", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func today() string {
	return time.Now().Format(domain.DateLayout)
}

func onlyItem(t *testing.T, env *testEnv, status domain.Status) *domain.Item {
	t.Helper()
	items, err := env.svc.List(context.Background(), status)
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func TestIntegration_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})
	admin := login(t, env)
	public := newClient(t)

	status, body := submitReport(t, env, reportFields(today()), nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Contains(t, body, "was submitted")
	item := onlyItem(t, env, domain.StatusPending)

	// Pending items are not listed publicly.
	status, body, _ = do(t, public, http.MethodGet, env.srv.URL+"/items", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "Blue Backpack")

	status, body, _ = do(t, admin, http.MethodGet, env.srv.URL+"/admin?status=pending", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Blue Backpack")

	status, body, _ = do(t, admin, http.MethodPost, env.srv.URL+"/admin/items/"+item.ID+"/approve", url.Values{}, true)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, "Approved")

	status, body, _ = do(t, public, http.MethodGet, env.srv.URL+"/items", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Blue Backpack")

	status, body, _ = do(t, public, http.MethodGet, env.srv.URL+"/items?q=BACKPACK", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Blue Backpack")
	assert.NotContains(t, body, "<html")

	status, body, _ = do(t, public, http.MethodGet, env.srv.URL+"/items?q=umbrella", nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No items match")

	claim := url.Values{"claimant_name": {"Alice"}, "claim_message": {"Has my name inside"}}
	status, body, _ = do(t, public, http.MethodPost, env.srv.URL+"/items/"+item.ID+"/claim", claim, true)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, "Claimed by Alice")

	status, _, _ = do(t, public, http.MethodPost, env.srv.URL+"/items/"+item.ID+"/claim", claim, true)
	assert.Equal(t, http.StatusConflict, status)

	status, _, _ = do(t, admin, http.MethodPost, env.srv.URL+"/admin/items/"+item.ID+"/approve", url.Values{}, true)
	assert.Equal(t, http.StatusConflict, status)

	status, body, _ = do(t, admin, http.MethodGet, env.srv.URL+"/admin/items/"+item.ID, nil, true)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Has my name inside")

	status, _, _ = do(t, admin, http.MethodDelete, env.srv.URL+"/admin/items/"+item.ID, nil, true)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = do(t, admin, http.MethodDelete, env.srv.URL+"/admin/items/"+item.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_Home(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	status, _ := submitReport(t, env, reportFields(today()), nil)
	require.Equal(t, http.StatusCreated, status)

	status, body, _ := do(t, newClient(t), http.MethodGet, env.srv.URL+"/", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<div class="n">1</div>items reported`)

	status, _, _ = do(t, newClient(t), http.MethodGet, env.srv.URL+"/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_SubmitReportValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	fields := reportFields(time.Now().AddDate(0, 0, 2).Format(domain.DateLayout))
	fields["title"] = ""
	status, body := submitReport(t, env, fields, nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "cannot be in the future")
	assert.Contains(t, body, "is required")
	// Entered values survive the round trip.
	assert.Contains(t, body, `value="Library, 2nd floor"`)

	items, err := env.svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestIntegration_SubmitReportWithPhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	status, body := submitReport(t, env, reportFields(today()), pngBytes(t))
	require.Equal(t, http.StatusCreated, status, body)

	item := onlyItem(t, env, domain.StatusPending)
	require.True(t, strings.HasPrefix(item.PhotoURL, "/photos/items/"), item.PhotoURL)

	resp, err := http.Get(env.srv.URL + item.PhotoURL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	for _, path := range []string{"/photos/items/missing.jpg", "/photos/items"} {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestIntegration_AdminRequiresLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})
	client := newClient(t)

	status, _, header := do(t, client, http.MethodGet, env.srv.URL+"/admin", nil, false)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/admin/login", header.Get("Location"))

	status, _, header = do(t, client, http.MethodDelete, env.srv.URL+"/admin/items/x", nil, true)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "/admin/login", header.Get("HX-Redirect"))

	status, body, _ := do(t, client, http.MethodPost, env.srv.URL+"/admin/login", url.Values{
		"username": {testUsername},
		"password": {"wrong password"},
	}, false)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Wrong username or password")
}

func TestIntegration_Logout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})
	client := login(t, env)

	status, _, _ := do(t, client, http.MethodGet, env.srv.URL+"/admin", nil, false)
	require.Equal(t, http.StatusOK, status)

	status, _, _ = do(t, client, http.MethodPost, env.srv.URL+"/admin/logout", url.Values{}, false)
	require.Equal(t, http.StatusSeeOther, status)

	status, _, _ = do(t, client, http.MethodGet, env.srv.URL+"/admin", nil, false)
	assert.Equal(t, http.StatusSeeOther, status)
}

func TestIntegration_AdminBadStatusFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})
	client := login(t, env)

	status, _, _ := do(t, client, http.MethodGet, env.srv.URL+"/admin?status=lost", nil, true)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = do(t, client, http.MethodGet, env.srv.URL+"/admin?status=all", nil, true)
	assert.Equal(t, http.StatusOK, status)
}

func TestIntegration_BrowseUnknownCategory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	status, _, _ := do(t, newClient(t), http.MethodGet, env.srv.URL+"/items?category=Pets", nil, true)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestIntegration_ClaimValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	status, body, _ := do(t, newClient(t), http.MethodPost, env.srv.URL+"/items/whatever/claim", url.Values{}, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "claimant_name")

	status, _, _ = do(t, newClient(t), http.MethodPost, env.srv.URL+"/items/whatever/claim",
		url.Values{"claimant_name": {"Alice"}}, true)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_RateLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{rate: 1})

	status, _ := submitReport(t, env, reportFields(today()), nil)
	require.Equal(t, http.StatusCreated, status)

	status, _ = submitReport(t, env, reportFields(today()), nil)
	assert.Equal(t, http.StatusTooManyRequests, status)

	// Reads are never limited.
	status, _, _ = do(t, newClient(t), http.MethodGet, env.srv.URL+"/items", nil, false)
	assert.Equal(t, http.StatusOK, status)
}

func TestIntegration_Suggest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{suggester: &stubSuggester{suggestion: &vision.Suggestion{
		Title:       "Blue Backpack",
		Category:    domain.CategoryBags,
		Description: "Navy backpack",
	}}})

	status, body, _ := do(t, newClient(t), http.MethodGet, env.srv.URL+"/report", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Suggest details from photo")

	reqBody, contentType := buildMultipartBody(t, nil, pngBytes(t))
	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/report/suggest", reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("HX-Request", "true")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	assert.Contains(t, string(b), `value="Blue Backpack"`)
	assert.Contains(t, string(b), `<option value="Bags" selected>`)
	assert.Contains(t, string(b), "Navy backpack")
}

func TestIntegration_SuggestDisabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	status, body, _ := do(t, newClient(t), http.MethodGet, env.srv.URL+"/report", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "Suggest details from photo")

	reqBody, contentType := buildMultipartBody(t, nil, pngBytes(t))
	resp, err := http.Post(env.srv.URL+"/report/suggest", contentType, reqBody)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_Metrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t, envOptions{})

	status, _ := submitReport(t, env, reportFields(today()), nil)
	require.Equal(t, http.StatusCreated, status)

	status, _, header := do(t, newClient(t), http.MethodGet, env.srv.URL+"/metrics", nil, false)
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/admin/login", header.Get("Location"))

	status, body, _ := do(t, login(t, env), http.MethodGet, env.srv.URL+"/metrics", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `lostfound_item_transitions_total{action="submit",result="ok"} 1`)
	assert.Contains(t, body, `route="POST /report"`)
}
