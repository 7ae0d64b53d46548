// Package sanitize provides HTML sanitization for post content fetched from
// the blog API. The editor's HTML projection is user-generated, and the API
// is an external collaborator -- nothing it returns is trusted markup. Uses
// bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) while preserving the formatting the editor emits.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for sanitizing post HTML.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Allow class attributes broadly -- the editor's output uses classes
		// for text alignment and code block highlighting.
		policy.AllowAttrs("class").Globally()

		// Allow style on inline formatting elements (text color, highlight).
		policy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th")

		// Allow table elements for rich text tables.
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "col", "caption")
		policy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	})
	return policy
}

// HTML sanitizes post HTML before it is rendered into a page. The output is
// safe to embed without further escaping.
func HTML(input string) string {
	return getPolicy().Sanitize(input)
}
