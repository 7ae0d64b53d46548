// Package richtext projects the editor's JSON content document into HTML
// for the public read view. The backend stores and returns the document
// as-is and leaves rendering to the client, so this is where the projection
// happens server-side.
//
// The output is NOT trusted markup. It must still pass through the
// sanitizer before reaching a page: this renderer escapes text and
// attribute values, but the document itself is user-authored and link
// targets or image sources can carry anything.
package richtext

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// node is one node of the editor's document tree (ProseMirror shape).
// Unknown node types render their children so a document written with a
// newer editor degrades to its text instead of disappearing.
type node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs"`
	Marks   []mark         `json:"marks"`
	Content []node         `json:"content"`
	Text    string         `json:"text"`
}

// mark is an inline formatting annotation on a text node.
type mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs"`
}

// HTML renders a content document to HTML. A document that is a bare JSON
// string (plain text saved without the editor) renders as paragraphs.
// Unreadable documents render empty rather than erroring; the read view
// still shows the post's title and sources.
func HTML(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(doc, &plain); err == nil {
		return plainHTML(plain)
	}

	var root node
	if err := json.Unmarshal(doc, &root); err != nil {
		return ""
	}

	var b strings.Builder
	renderNode(&b, root)
	return b.String()
}

// plainHTML renders plain text as paragraphs split on blank lines, with
// single newlines kept as line breaks.
func plainHTML(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

func renderNode(b *strings.Builder, n node) {
	switch n.Type {
	case "doc":
		renderChildren(b, n)
	case "paragraph":
		b.WriteString(openWithAlign("p", n))
		renderChildren(b, n)
		b.WriteString("</p>")
	case "heading":
		tag := headingTag(n)
		b.WriteString("<" + tag + ">")
		renderChildren(b, n)
		b.WriteString("</" + tag + ">")
	case "text":
		renderText(b, n)
	case "bulletList":
		b.WriteString("<ul>")
		renderChildren(b, n)
		b.WriteString("</ul>")
	case "orderedList":
		b.WriteString("<ol>")
		renderChildren(b, n)
		b.WriteString("</ol>")
	case "listItem":
		b.WriteString("<li>")
		renderChildren(b, n)
		b.WriteString("</li>")
	case "blockquote":
		b.WriteString("<blockquote>")
		renderChildren(b, n)
		b.WriteString("</blockquote>")
	case "codeBlock":
		b.WriteString("<pre><code>")
		for _, child := range n.Content {
			b.WriteString(html.EscapeString(child.Text))
		}
		b.WriteString("</code></pre>")
	case "hardBreak":
		b.WriteString("<br>")
	case "horizontalRule":
		b.WriteString("<hr>")
	case "image":
		if src := stringAttr(n.Attrs, "src"); src != "" {
			b.WriteString(`<img src="` + html.EscapeString(src) + `"`)
			if alt := stringAttr(n.Attrs, "alt"); alt != "" {
				b.WriteString(` alt="` + html.EscapeString(alt) + `"`)
			}
			b.WriteString(">")
		}
	case "youtube":
		// Embeds don't survive sanitization; a link to the video does.
		if src := stringAttr(n.Attrs, "src"); src != "" {
			escaped := html.EscapeString(src)
			b.WriteString(`<p><a href="` + escaped + `">` + escaped + `</a></p>`)
		}
	default:
		renderChildren(b, n)
	}
}

func renderChildren(b *strings.Builder, n node) {
	for _, child := range n.Content {
		renderNode(b, child)
	}
}

// renderText writes a text node with its marks as nested tags, innermost
// last so the escaped text sits at the center.
func renderText(b *strings.Builder, n node) {
	open, close := "", ""
	for _, m := range n.Marks {
		switch m.Type {
		case "bold":
			open, close = open+"<strong>", "</strong>"+close
		case "italic":
			open, close = open+"<em>", "</em>"+close
		case "underline":
			open, close = open+"<u>", "</u>"+close
		case "strike":
			open, close = open+"<s>", "</s>"+close
		case "code":
			open, close = open+"<code>", "</code>"+close
		case "link":
			if href := stringAttr(m.Attrs, "href"); href != "" {
				open = open + `<a href="` + html.EscapeString(href) + `">`
				close = "</a>" + close
			}
		}
	}
	b.WriteString(open)
	b.WriteString(html.EscapeString(n.Text))
	b.WriteString(close)
}

// openWithAlign writes an opening tag, carrying the editor's text alignment
// as an inline style when set to a known value.
func openWithAlign(tag string, n node) string {
	switch stringAttr(n.Attrs, "textAlign") {
	case "center", "right", "justify":
		return fmt.Sprintf(`<%s style="text-align: %s">`, tag, stringAttr(n.Attrs, "textAlign"))
	}
	return "<" + tag + ">"
}

// headingTag clamps the heading level attribute to h1..h6.
func headingTag(n node) string {
	level := 1
	if raw, ok := n.Attrs["level"].(float64); ok {
		level = int(raw)
	}
	if level < 1 || level > 6 {
		level = 1
	}
	return fmt.Sprintf("h%d", level)
}

// stringAttr reads a string attribute, tolerating absence and wrong types.
func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return s
}
