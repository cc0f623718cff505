package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pollup/internal/config"
	"pollup/internal/middleware"
	"pollup/internal/models"
	"pollup/internal/services"
	"pollup/internal/store"
	"pollup/internal/utils"
)

type testServer struct {
	engine   *gin.Engine
	identity *services.IdentityService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:           "0",
		SiteURL:        "http://localhost",
		SessionSecret:  "test-session-secret",
		IdentitySecret: "test-identity-secret",
		UploadSecret:   "test-upload-secret",
		UploadBaseURL:  "http://storage.local",
		UploadGrantTTL: time.Minute,
	}

	mem := store.NewMemory()
	content := services.NewContentService(mem)
	identity := services.NewIdentityService(cfg.IdentitySecret)
	// Nothing listens on this address; grant storage surfaces as a 502.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	uploads := services.NewUploadService(rdb, cfg.UploadSecret, cfg.UploadBaseURL, cfg.UploadGrantTTL)

	cache, err := utils.NewCache(64)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	engine := gin.New()
	engine.Use(sessions.Sessions("pollup_session", cookie.NewStore([]byte(cfg.SessionSecret))))
	engine.Use(middleware.LoadUser(content, identity, cache))
	RegisterRoutes(engine, cfg, content, identity, uploads)

	return &testServer{engine: engine, identity: identity}
}

func (ts *testServer) bearer(t *testing.T, username string) string {
	t.Helper()
	token, err := ts.identity.MintToken(models.Identity{
		ExternalID:  "ext-" + username,
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
	})
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	return "Bearer " + token
}

func (ts *testServer) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{"POST", "/api/posts"},
		{"POST", "/api/posts/123/like"},
		{"POST", "/api/posts/123/vote"},
		{"GET", "/api/notifications"},
		{"PUT", "/api/users/me"},
		{"POST", "/api/uploads/sign"},
	}
	for _, tc := range paths {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := ts.do(t, tc.method, tc.path, "", nil)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("got %d, want 401", w.Code)
			}
			body := decodeBody(t, w)
			if body["error"] != "AuthenticationRequired" {
				t.Errorf("error = %v, want AuthenticationRequired", body["error"])
			}
		})
	}
}

func TestMalformedIdentifier(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/posts/not-a-number", "/api/posts/-5", "/api/users/abc"} {
		w := ts.do(t, "GET", path, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, w.Code)
		}
		if body := decodeBody(t, w); body["error"] != "InvalidIdentifier" {
			t.Errorf("GET %s error = %v, want InvalidIdentifier", path, body["error"])
		}
	}
}

func TestUnknownPostIs404(t *testing.T) {
	ts := newTestServer(t)

	// Well-formed token for an id nothing was stored under.
	w := ts.do(t, "GET", "/api/posts/12345678901234567890", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "NotFound" {
		t.Errorf("error = %v, want NotFound", body["error"])
	}
}

func TestPollLifecycle(t *testing.T) {
	ts := newTestServer(t)
	author := ts.bearer(t, "author")

	// Author publishes a single-choice poll.
	w := ts.do(t, "POST", "/api/posts", author, map[string]any{
		"body": "favorite letter?",
		"kind": "poll",
		"poll": map[string]any{
			"question": "pick one",
			"kind":     "single",
			"options":  []string{"A", "B", "C"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	postToken, _ := created["token"].(string)
	if postToken == "" {
		t.Fatal("response missing post token")
	}
	post := created["post"].(map[string]any)
	pollToken := post["poll"].(map[string]any)["token"].(string)

	// Anyone can read it back; the summary starts empty.
	w = ts.do(t, "GET", "/api/posts/"+postToken, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get post = %d", w.Code)
	}

	vote := func(user, option string) map[string]any {
		w := ts.do(t, "POST", "/api/posts/"+postToken+"/vote", ts.bearer(t, user), map[string]any{
			"poll_id": pollToken,
			"choice":  map[string]any{"kind": "single", "option": option},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("vote by %s = %d, body %s", user, w.Code, w.Body.String())
		}
		return decodeBody(t, w)["summary"].(map[string]any)
	}

	vote("v1", "A")
	vote("v2", "A")
	summary := vote("v3", "B")

	if total := summary["total"].(float64); total != 3 {
		t.Errorf("total = %v, want 3", total)
	}
	counts := summary["options"].(map[string]any)
	if counts["A"].(float64) != 2 || counts["B"].(float64) != 1 || counts["C"].(float64) != 0 {
		t.Errorf("counts = %v, want A:2 B:1 C:0", counts)
	}

	// v3 changes their mind; the ballot is replaced, not added.
	summary = vote("v3", "C")
	if summary["total"].(float64) != 3 {
		t.Errorf("re-vote changed total to %v", summary["total"])
	}
	counts = summary["options"].(map[string]any)
	if counts["B"].(float64) != 0 || counts["C"].(float64) != 1 {
		t.Errorf("re-vote counts = %v, want B:0 C:1", counts)
	}

	// The author received a vote notification per distinct voter action.
	w = ts.do(t, "GET", "/api/notifications", author, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications = %d", w.Code)
	}
	page := decodeBody(t, w)
	if got := len(page["notifications"].([]any)); got != 4 {
		t.Errorf("author has %d notifications, want 4", got)
	}
}

func TestLikeAndCommentFlow(t *testing.T) {
	ts := newTestServer(t)
	author := ts.bearer(t, "author")
	reader := ts.bearer(t, "reader")

	w := ts.do(t, "POST", "/api/posts", author, map[string]any{"body": "hello *world*", "kind": "text"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post = %d, body %s", w.Code, w.Body.String())
	}
	postToken := decodeBody(t, w)["token"].(string)

	like := func() float64 {
		w := ts.do(t, "POST", "/api/posts/"+postToken+"/like", reader, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("like = %d", w.Code)
		}
		return decodeBody(t, w)["likes"].(float64)
	}
	if got := like(); got != 1 {
		t.Errorf("first toggle likes = %v, want 1", got)
	}
	if got := like(); got != 0 {
		t.Errorf("second toggle likes = %v, want 0", got)
	}

	w = ts.do(t, "POST", "/api/posts/"+postToken+"/comments", reader, map[string]any{"body": "nice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment = %d, body %s", w.Code, w.Body.String())
	}
	comment := decodeBody(t, w)["comment"].(map[string]any)
	if comment["kind"] != "comment" {
		t.Errorf("comment kind = %v", comment["kind"])
	}

	// Like toggled on+off plus one comment: two notifications for the author.
	w = ts.do(t, "GET", "/api/notifications", author, nil)
	page := decodeBody(t, w)
	if got := len(page["notifications"].([]any)); got != 2 {
		t.Errorf("author has %d notifications, want 2", got)
	}
}

func TestInvalidPollRejectedAtCreate(t *testing.T) {
	ts := newTestServer(t)
	author := ts.bearer(t, "author")

	w := ts.do(t, "POST", "/api/posts", author, map[string]any{
		"body": "broken",
		"kind": "poll",
		"poll": map[string]any{"question": "?", "kind": "single"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "ValidationError" {
		t.Errorf("error = %v, want ValidationError", body["error"])
	}

	// Nothing was persisted under the author.
	w = ts.do(t, "GET", "/api/feed", "", nil)
	feed := decodeBody(t, w)
	if got := len(feed["posts"].([]any)); got != 0 {
		t.Errorf("feed has %d posts after failed create, want 0", got)
	}
}

func TestUploadSign(t *testing.T) {
	ts := newTestServer(t)
	user := ts.bearer(t, "uploader")

	w := ts.do(t, "POST", "/api/uploads/sign", user, map[string]any{"content_type": "application/pdf"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported type = %d, want 400", w.Code)
	}

	// Grant storage is unreachable in tests, so a valid request maps to
	// the upstream failure status rather than succeeding.
	w = ts.do(t, "POST", "/api/uploads/sign", user, map[string]any{"content_type": "image/png"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("redis down = %d, want 502", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "UpstreamUnavailable" {
		t.Errorf("error = %v, want UpstreamUnavailable", body["error"])
	}
}

func TestFollowEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.bearer(t, "alice")
	bob := ts.bearer(t, "bob")

	// Resolve bob's public token via the username lookup.
	w := ts.do(t, "GET", "/api/username/bob", bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("username lookup = %d, body %s", w.Code, w.Body.String())
	}
	bobToken := decodeBody(t, w)["token"].(string)

	w = ts.do(t, "POST", "/api/users/"+bobToken+"/follow", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("follow = %d, body %s", w.Code, w.Body.String())
	}

	// Self-follow is rejected.
	w = ts.do(t, "POST", "/api/users/"+bobToken+"/follow", bob, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("self-follow = %d, want 400", w.Code)
	}

	w = ts.do(t, "DELETE", "/api/users/"+bobToken+"/follow", alice, nil)
	if w.Code != http.StatusOK {
		t.Errorf("unfollow = %d, want 200", w.Code)
	}
}

func TestUnreadCount(t *testing.T) {
	ts := newTestServer(t)
	author := ts.bearer(t, "author")
	fan := ts.bearer(t, "fan")

	w := ts.do(t, "POST", "/api/posts", author, map[string]any{"body": "post", "kind": "text"})
	postToken := decodeBody(t, w)["token"].(string)
	ts.do(t, "POST", "/api/posts/"+postToken+"/like", fan, nil)

	w = ts.do(t, "GET", "/api/notifications/unread", author, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unread = %d", w.Code)
	}
	if count := decodeBody(t, w)["unread"].(float64); count != 1 {
		t.Errorf("unread count = %v, want 1", count)
	}

	w = ts.do(t, "POST", "/api/notifications/read-all", author, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("read-all = %d", w.Code)
	}
	w = ts.do(t, "GET", "/api/notifications/unread", author, nil)
	if count := decodeBody(t, w)["unread"].(float64); count != 0 {
		t.Errorf("unread count after read-all = %v, want 0", count)
	}
}
