// Package blog serves the post surfaces of the Inkwell UI: the public read
// view, the author's dashboard and post list, analytics, and the editor.
// All post data lives behind the API; this package only shapes forms going
// out and pages coming back.
package blog

import (
	"encoding/json"
	"strings"
)

// PostForm holds the data submitted by the editor for both create and edit.
type PostForm struct {
	Title   string `form:"title"`
	Content string `form:"content"`
	Sources string `form:"sources"`
	Status  string `form:"status"`
}

// validatePostForm checks the editor form. Returns "" when the post may be
// submitted. The rules mirror what the API enforces, so a rejected form
// never reaches the network.
func validatePostForm(req *PostForm) string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		return "content is required"
	}
	if len(splitSources(req.Sources)) == 0 {
		return "at least one source is required"
	}
	if req.Status != "draft" && req.Status != "published" {
		return "status must be draft or published"
	}
	return ""
}

// contentDocument converts the editor textarea into the API's content
// document. Text that already parses as JSON passes through opaquely;
// anything else is wrapped as a JSON string.
func contentDocument(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	encoded, err := json.Marshal(text)
	if err != nil {
		// Marshaling a string cannot fail; keep the compiler honest.
		return json.RawMessage(`""`)
	}
	return encoded
}

// contentText converts a stored content document back into editor text.
// JSON strings unwrap to their value; any other document edits as raw JSON.
func contentText(doc json.RawMessage) string {
	var s string
	if err := json.Unmarshal(doc, &s); err == nil {
		return s
	}
	return string(doc)
}

// splitSources turns the one-per-line sources textarea into a list,
// dropping blank lines.
func splitSources(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
