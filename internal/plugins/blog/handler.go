package blog

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
	"github.com/inkwellhq/inkwell/internal/apperror"
	"github.com/inkwellhq/inkwell/internal/guard"
	"github.com/inkwellhq/inkwell/internal/middleware"
	"github.com/inkwellhq/inkwell/internal/pages"
	"github.com/inkwellhq/inkwell/internal/richtext"
	"github.com/inkwellhq/inkwell/internal/sanitize"
)

// PostClient is the slice of the API client the blog handlers use.
type PostClient interface {
	MyPosts(ctx context.Context, creds *api.Credentials, status string) (*api.MyPostsResponse, error)
	Analytics(ctx context.Context, creds *api.Credentials) (*api.Analytics, error)
	PostBySlug(ctx context.Context, creds *api.Credentials, slug string) (*api.Post, error)
	PostByID(ctx context.Context, creds *api.Credentials, id int64) (*api.Post, error)
	CreatePost(ctx context.Context, creds *api.Credentials, input api.CreatePostInput) (*api.Post, error)
	UpdatePost(ctx context.Context, creds *api.Credentials, input api.UpdatePostInput) (*api.Post, error)
	DeletePost(ctx context.Context, creds *api.Credentials, id int64) (*api.Message, error)
	IncrementViews(ctx context.Context, creds *api.Credentials, id int64) error
}

// Handler serves the post pages.
type Handler struct {
	client PostClient
}

// NewHandler creates a blog handler.
func NewHandler(client PostClient) *Handler {
	return &Handler{client: client}
}

// Dashboard renders the author's landing page with their analytics summary.
func (h *Handler) Dashboard(c echo.Context) error {
	creds := guard.GetCredentials(c)
	analytics, err := h.client.Analytics(c.Request().Context(), creds)
	middleware.RelayCookies(c, creds)
	if err != nil {
		return err
	}
	return pages.Render(c, http.StatusOK, "dashboard.html", pages.DashboardData{
		User:      guard.GetUser(c),
		Analytics: analytics,
	})
}

// MyBlogs renders the author's post list, optionally filtered by status.
func (h *Handler) MyBlogs(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "draft" && status != "published" {
		status = ""
	}

	creds := guard.GetCredentials(c)
	resp, err := h.client.MyPosts(c.Request().Context(), creds, status)
	middleware.RelayCookies(c, creds)
	if err != nil {
		return err
	}
	return pages.Render(c, http.StatusOK, "my_blogs.html", pages.MyPostsData{
		User:      guard.GetUser(c),
		Posts:     resp.Posts,
		Total:     resp.Total,
		Status:    status,
		CSRFToken: middleware.GetCSRFToken(c),
	})
}

// Analytics renders the full analytics page.
func (h *Handler) Analytics(c echo.Context) error {
	creds := guard.GetCredentials(c)
	analytics, err := h.client.Analytics(c.Request().Context(), creds)
	middleware.RelayCookies(c, creds)
	if err != nil {
		return err
	}
	return pages.Render(c, http.StatusOK, "analytics.html", pages.AnalyticsData{
		User:      guard.GetUser(c),
		Analytics: analytics,
	})
}

// ReadPost renders a single published post by slug. The view counter bump is
// best effort; a reader never sees an error because counting failed.
func (h *Handler) ReadPost(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	creds := api.CredentialsFromRequest(c.Request())
	post, err := h.client.PostBySlug(ctx, creds, slug)
	middleware.RelayCookies(c, creds)
	if err != nil {
		if apperror.IsStatus(err, http.StatusNotFound) {
			return apperror.NewNotFound("post not found")
		}
		return err
	}

	if err := h.client.IncrementViews(ctx, creds, post.ID); err != nil {
		slog.Warn("view count bump failed", "post_id", post.ID, "error", err)
	}

	return pages.Render(c, http.StatusOK, "post_read.html", pages.PostReadData{
		Post:    post,
		Content: template.HTML(sanitize.HTML(richtext.HTML(post.Content))),
	})
}

// CreateForm renders an empty editor.
func (h *Handler) CreateForm(c echo.Context) error {
	return pages.Render(c, http.StatusOK, "post_form.html", pages.PostFormData{
		CSRFToken: middleware.GetCSRFToken(c),
		Action:    "/blog/create",
		Status:    "draft",
	})
}

// Create handles the editor submission for a new post.
func (h *Handler) Create(c echo.Context) error {
	var req PostForm
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form data")
	}

	data := formData(c, "/blog/create", &req)
	if msg := validatePostForm(&req); msg != "" {
		data.Error = msg
		return pages.Render(c, http.StatusOK, "post_form.html", data)
	}

	creds := guard.GetCredentials(c)
	_, err := h.client.CreatePost(c.Request().Context(), creds, api.CreatePostInput{
		Title:   req.Title,
		Content: contentDocument(req.Content),
		Sources: splitSources(req.Sources),
		Status:  req.Status,
	})
	middleware.RelayCookies(c, creds)
	if err != nil {
		data.Error = apperror.UpstreamDetail(err, "Could not save the post")
		return pages.Render(c, http.StatusOK, "post_form.html", data)
	}
	return c.Redirect(http.StatusSeeOther, "/my-blogs")
}

// EditForm renders the editor prefilled with an existing post.
func (h *Handler) EditForm(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	creds := guard.GetCredentials(c)
	post, err := h.client.PostByID(c.Request().Context(), creds, id)
	middleware.RelayCookies(c, creds)
	if err != nil {
		if apperror.IsStatus(err, http.StatusNotFound) {
			return apperror.NewNotFound("post not found")
		}
		return err
	}

	return pages.Render(c, http.StatusOK, "post_form.html", pages.PostFormData{
		CSRFToken: middleware.GetCSRFToken(c),
		Action:    fmt.Sprintf("/blog/edit/%d", id),
		Title:     post.Title,
		Content:   contentText(post.Content),
		Sources:   strings.Join(post.Sources, "\n"),
		Status:    post.Status,
	})
}

// Edit handles the editor submission for an existing post.
func (h *Handler) Edit(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	var req PostForm
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form data")
	}

	data := formData(c, fmt.Sprintf("/blog/edit/%d", id), &req)
	if msg := validatePostForm(&req); msg != "" {
		data.Error = msg
		return pages.Render(c, http.StatusOK, "post_form.html", data)
	}

	creds := guard.GetCredentials(c)
	_, err = h.client.UpdatePost(c.Request().Context(), creds, api.UpdatePostInput{
		ID:      id,
		Title:   req.Title,
		Content: contentDocument(req.Content),
		Sources: splitSources(req.Sources),
		Status:  req.Status,
	})
	middleware.RelayCookies(c, creds)
	if err != nil {
		data.Error = apperror.UpstreamDetail(err, "Could not save the post")
		return pages.Render(c, http.StatusOK, "post_form.html", data)
	}
	return c.Redirect(http.StatusSeeOther, "/my-blogs")
}

// Delete removes a post and returns to the post list.
func (h *Handler) Delete(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	creds := guard.GetCredentials(c)
	_, err = h.client.DeletePost(c.Request().Context(), creds, id)
	middleware.RelayCookies(c, creds)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/my-blogs")
}

// postID parses the :id route parameter.
func postID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid post id")
	}
	return id, nil
}

// formData rebuilds the editor view from a submitted form, for re-rendering
// with an error.
func formData(c echo.Context, action string, req *PostForm) pages.PostFormData {
	return pages.PostFormData{
		CSRFToken: middleware.GetCSRFToken(c),
		Action:    action,
		Title:     req.Title,
		Content:   req.Content,
		Sources:   req.Sources,
		Status:    req.Status,
	}
}
