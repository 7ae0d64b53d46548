package blog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
	"github.com/inkwellhq/inkwell/internal/apperror"
)

// --- Mock Post Client ---

// mockClient implements PostClient for testing.
type mockClient struct {
	myPostsFn        func(ctx context.Context, creds *api.Credentials, status string) (*api.MyPostsResponse, error)
	analyticsFn      func(ctx context.Context, creds *api.Credentials) (*api.Analytics, error)
	postBySlugFn     func(ctx context.Context, creds *api.Credentials, slug string) (*api.Post, error)
	postByIDFn       func(ctx context.Context, creds *api.Credentials, id int64) (*api.Post, error)
	createPostFn     func(ctx context.Context, creds *api.Credentials, input api.CreatePostInput) (*api.Post, error)
	updatePostFn     func(ctx context.Context, creds *api.Credentials, input api.UpdatePostInput) (*api.Post, error)
	deletePostFn     func(ctx context.Context, creds *api.Credentials, id int64) (*api.Message, error)
	incrementViewsFn func(ctx context.Context, creds *api.Credentials, id int64) error

	incrementCalls []int64
}

func (m *mockClient) MyPosts(ctx context.Context, creds *api.Credentials, status string) (*api.MyPostsResponse, error) {
	if m.myPostsFn != nil {
		return m.myPostsFn(ctx, creds, status)
	}
	return &api.MyPostsResponse{}, nil
}

func (m *mockClient) Analytics(ctx context.Context, creds *api.Credentials) (*api.Analytics, error) {
	if m.analyticsFn != nil {
		return m.analyticsFn(ctx, creds)
	}
	return &api.Analytics{}, nil
}

func (m *mockClient) PostBySlug(ctx context.Context, creds *api.Credentials, slug string) (*api.Post, error) {
	if m.postBySlugFn != nil {
		return m.postBySlugFn(ctx, creds, slug)
	}
	return &api.Post{ID: 1, Title: "Hello", Slug: slug}, nil
}

func (m *mockClient) PostByID(ctx context.Context, creds *api.Credentials, id int64) (*api.Post, error) {
	if m.postByIDFn != nil {
		return m.postByIDFn(ctx, creds, id)
	}
	return &api.Post{ID: id, Title: "Hello"}, nil
}

func (m *mockClient) CreatePost(ctx context.Context, creds *api.Credentials, input api.CreatePostInput) (*api.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, creds, input)
	}
	return &api.Post{ID: 1, Title: input.Title}, nil
}

func (m *mockClient) UpdatePost(ctx context.Context, creds *api.Credentials, input api.UpdatePostInput) (*api.Post, error) {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, creds, input)
	}
	return &api.Post{ID: input.ID, Title: input.Title}, nil
}

func (m *mockClient) DeletePost(ctx context.Context, creds *api.Credentials, id int64) (*api.Message, error) {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, creds, id)
	}
	return &api.Message{Message: "deleted"}, nil
}

func (m *mockClient) IncrementViews(ctx context.Context, creds *api.Credentials, id int64) error {
	m.incrementCalls = append(m.incrementCalls, id)
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, creds, id)
	}
	return nil
}

// --- Read view ---

func TestReadPost_RendersContentDocument(t *testing.T) {
	// Exactly what GET /blog/get_blog_by_slug returns: the editor's JSON
	// content document and no pre-rendered markup of any kind.
	apiResponse := []byte(`{
		"id": 3,
		"title": "Hello",
		"slug": "hello",
		"content": {"type": "doc", "content": [
			{"type": "paragraph", "content": [
				{"type": "text", "text": "body words", "marks": [{"type": "bold"}]}
			]},
			{"type": "paragraph", "content": [
				{"type": "text", "text": "see this", "marks": [
					{"type": "link", "attrs": {"href": "javascript:alert(1)"}}
				]}
			]}
		]},
		"sources": ["https://a.example.com"],
		"views": 9,
		"status": "published"
	}`)

	client := &mockClient{
		postBySlugFn: func(ctx context.Context, creds *api.Credentials, slug string) (*api.Post, error) {
			var post api.Post
			if err := json.Unmarshal(apiResponse, &post); err != nil {
				t.Fatalf("decoding fixture: %v", err)
			}
			return &post, nil
		},
	}
	h := NewHandler(client)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/blog/hello", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues("hello")

	if err := h.ReadPost(c); err != nil {
		t.Fatalf("ReadPost() error: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<strong>body words</strong>") {
		t.Error("expected the content document projected into the page body")
	}
	if strings.Contains(body, "javascript:") {
		t.Error("unsafe link targets must not survive sanitization")
	}
	if len(client.incrementCalls) != 1 || client.incrementCalls[0] != 3 {
		t.Errorf("expected one view bump for post 3, got %v", client.incrementCalls)
	}
}

func TestReadPost_PlainStringContentRenders(t *testing.T) {
	client := &mockClient{
		postBySlugFn: func(ctx context.Context, creds *api.Credentials, slug string) (*api.Post, error) {
			return &api.Post{
				ID:      4,
				Title:   "Notes",
				Slug:    slug,
				Content: json.RawMessage(`"just words"`),
				Sources: []string{"https://a.example.com"},
			}, nil
		},
	}
	h := NewHandler(client)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/blog/notes", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues("notes")

	if err := h.ReadPost(c); err != nil {
		t.Fatalf("ReadPost() error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "<p>just words</p>") {
		t.Error("expected text saved without the editor to render as a paragraph")
	}
}

func TestReadPost_ViewBumpFailureIsInvisible(t *testing.T) {
	client := &mockClient{
		incrementViewsFn: func(ctx context.Context, creds *api.Credentials, id int64) error {
			return apperror.NewUpstream(http.StatusServiceUnavailable, "")
		},
	}
	h := NewHandler(client)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/blog/hello", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues("hello")

	if err := h.ReadPost(c); err != nil {
		t.Fatalf("a failed counter bump must not fail the page: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadPost_UnknownSlugIs404(t *testing.T) {
	client := &mockClient{
		postBySlugFn: func(ctx context.Context, creds *api.Credentials, slug string) (*api.Post, error) {
			return nil, apperror.NewUpstream(http.StatusNotFound, "Blog not found")
		},
	}
	h := NewHandler(client)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/blog/missing", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("slug")
	c.SetParamValues("missing")

	err := h.ReadPost(c)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperror.IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected a 404, got %v", err)
	}
	if len(client.incrementCalls) != 0 {
		t.Error("a missing post must not be counted as viewed")
	}
}

// --- Editor submissions ---

func TestCreate_MissingSourcesNeverReachesNetwork(t *testing.T) {
	createCalls := 0
	client := &mockClient{
		createPostFn: func(ctx context.Context, creds *api.Credentials, input api.CreatePostInput) (*api.Post, error) {
			createCalls++
			return &api.Post{ID: 1}, nil
		},
	}
	h := NewHandler(client)

	e := echo.New()
	form := url.Values{
		"title":   {"T"},
		"content": {"words"},
		"status":  {"draft"},
	}
	req := httptest.NewRequest(http.MethodPost, "/blog/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if createCalls != 0 {
		t.Errorf("a sourceless post must be rejected before the network, got %d calls", createCalls)
	}
	if !strings.Contains(rec.Body.String(), "at least one source") {
		t.Error("expected the inline source error in the re-rendered form")
	}
}

// --- Editor content round trip ---

func TestContentDocument(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json object passes through", `{"blocks":[]}`, `{"blocks":[]}`},
		{"json array passes through", `[1,2]`, `[1,2]`},
		{"plain text becomes a string", "just words", `"just words"`},
		{"text with quotes is escaped", `say "hi"`, `"say \"hi\""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentDocument(tt.in)
			if string(got) != tt.want {
				t.Errorf("contentDocument(%q) = %s, want %s", tt.in, got, tt.want)
			}
			if !json.Valid(got) {
				t.Errorf("contentDocument(%q) produced invalid JSON", tt.in)
			}
		})
	}
}

func TestContentText_RoundTripsPlainText(t *testing.T) {
	doc := contentDocument("just words")
	if got := contentText(doc); got != "just words" {
		t.Errorf("expected the original text back, got %q", got)
	}
}

func TestContentText_LeavesDocumentsAsRawJSON(t *testing.T) {
	doc := json.RawMessage(`{"blocks":[{"type":"p"}]}`)
	if got := contentText(doc); got != string(doc) {
		t.Errorf("expected the raw document, got %q", got)
	}
}

func TestSplitSources(t *testing.T) {
	got := splitSources("https://a.example.com\n\n  https://b.example.com  \n")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("unexpected sources: %v", got)
	}
	if splitSources("") != nil {
		t.Error("expected nil for an empty textarea")
	}
}

func TestValidatePostForm(t *testing.T) {
	valid := PostForm{Title: "T", Content: "c", Sources: "https://a.example.com", Status: "draft"}
	if msg := validatePostForm(&valid); msg != "" {
		t.Errorf("expected a valid form, got %q", msg)
	}

	for _, tt := range []PostForm{
		{Content: "c", Sources: "https://a.example.com", Status: "draft"},
		{Title: "T", Sources: "https://a.example.com", Status: "draft"},
		{Title: "T", Content: "c", Sources: "https://a.example.com", Status: "archived"},
		{Title: "T", Content: "c", Status: "draft"},
		{Title: "T", Content: "c", Sources: "  \n \n", Status: "draft"},
	} {
		if msg := validatePostForm(&tt); msg == "" {
			t.Errorf("expected a validation error for %+v", tt)
		}
	}
}

func TestValidatePostForm_MissingSourcesMessage(t *testing.T) {
	req := PostForm{Title: "T", Content: "c", Status: "draft"}
	if msg := validatePostForm(&req); !strings.Contains(msg, "source") {
		t.Errorf("expected the missing-source rule named, got %q", msg)
	}
}
