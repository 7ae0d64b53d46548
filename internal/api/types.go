package api

import (
	"encoding/json"
	"time"
)

// User is the authenticated user's profile as returned by GET /auth/me.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// TokenResponse is returned by /auth/login and /auth/refresh. The access
// token also travels in an HTTP-only cookie; the body copy exists only so
// UI state can note that a login happened.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Message is the generic success envelope used by several auth endpoints.
type Message struct {
	Message string `json:"message"`
}

// Post is a blog post as the API returns it. Content is the editor's JSON
// document, passed through opaquely; the backend leaves rendering to its
// clients, so the read view projects it to HTML and sanitizes the result.
type Post struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Content   json.RawMessage `json:"content"`
	Sources   []string        `json:"sources"`
	Views     int64           `json:"views,omitempty"`
	Status    string          `json:"status,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// CreatePostInput is the payload for POST /blog/create-blog.
type CreatePostInput struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	Sources []string        `json:"sources"`
	Status  string          `json:"status"`
}

// UpdatePostInput is the payload for POST /blog/update-blog.
type UpdatePostInput struct {
	ID      int64           `json:"id"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	Sources []string        `json:"sources"`
	Status  string          `json:"status"`
}

// MyPostsResponse is returned by GET /blog/my-blogs.
type MyPostsResponse struct {
	Posts []Post `json:"blogs"`
	Total int64  `json:"total"`
}

// ViewPoint is one day of view counts in the analytics time series.
type ViewPoint struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// Analytics is returned by GET /blog/analytics.
type Analytics struct {
	TotalPosts     int64       `json:"total_blogs"`
	PublishedCount int64       `json:"published_count"`
	DraftCount     int64       `json:"draft_count"`
	TotalViews     int64       `json:"total_views"`
	MostViewed     *Post       `json:"most_viewed_blog,omitempty"`
	Posts          []Post      `json:"blogs"`
	ViewsOverTime  []ViewPoint `json:"views_over_time"`
}

// errorBody is the API's failure envelope. FastAPI-style: a single `detail`
// string with the human-readable reason.
type errorBody struct {
	Detail string `json:"detail"`
}
