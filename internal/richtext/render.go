// Package richtext renders the storefront rich text JSON schema to HTML.
package richtext

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// DefaultScopeClass is the wrapper class used when Scoped is set without a class.
const DefaultScopeClass = "rte"

// Node is one element of the rich text schema.
type Node struct {
	Type     string `json:"type"`
	Children []Node `json:"children,omitempty"`
	Level    int    `json:"level,omitempty"`
	ListType string `json:"listType,omitempty"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Target   string `json:"target,omitempty"`
	Value    string `json:"value,omitempty"`
	Bold     bool   `json:"bold,omitempty"`
	Italic   bool   `json:"italic,omitempty"`
}

type Options struct {
	// Scoped wraps the output in a div carrying ScopeClass.
	Scoped     bool
	ScopeClass string
	// Classes maps a tag name to the class attribute it is rendered with.
	Classes        map[string]string
	NewLineToBreak bool
	// Sanitize passes the rendered markup through a UGC policy.
	Sanitize bool
}

var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("target").OnElements("a")
	return p
}()

// Render converts a serialized schema to HTML. Input that is not valid JSON
// is returned unchanged; a schema that is neither a non-empty root nor a
// node list renders to the empty string.
func Render(raw string, opts Options) string {
	trimmed := strings.TrimSpace(raw)
	var nodes []Node
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &nodes); err != nil {
			return raw
		}
	} else {
		var root Node
		if err := json.Unmarshal([]byte(trimmed), &root); err != nil {
			return raw
		}
		if root.Type != "root" || len(root.Children) == 0 {
			return ""
		}
		nodes = root.Children
	}
	out := RenderNodes(nodes, opts)
	if opts.Sanitize {
		out = sanitizer.Sanitize(out)
	}
	return out
}

// RenderNodes renders an already decoded node list.
func RenderNodes(nodes []Node, opts Options) string {
	r := renderer{opts: opts}
	container := &html.Node{Type: html.DocumentNode}
	parent := container
	if opts.Scoped {
		class := opts.ScopeClass
		if class == "" {
			class = DefaultScopeClass
		}
		parent = &html.Node{
			Type: html.ElementNode,
			Data: "div",
			Attr: []html.Attribute{{Key: "class", Val: class}},
		}
		container.AppendChild(parent)
	}
	r.appendAll(parent, nodes)

	var b strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}

type renderer struct {
	opts Options
}

func (r renderer) appendAll(parent *html.Node, nodes []Node) {
	for _, n := range nodes {
		r.append(parent, n)
	}
}

func (r renderer) append(parent *html.Node, n Node) {
	switch n.Type {
	case "paragraph":
		parent.AppendChild(r.element("p", nil, n.Children))
	case "heading":
		level := n.Level
		if level <= 0 {
			level = 1
		}
		parent.AppendChild(r.element("h"+strconv.Itoa(level), nil, n.Children))
	case "list":
		tag := "ul"
		if n.ListType == "ordered" {
			tag = "ol"
		}
		parent.AppendChild(r.element(tag, nil, n.Children))
	case "list-item":
		parent.AppendChild(r.element("li", nil, n.Children))
	case "link":
		attrs := []html.Attribute{{Key: "href", Val: n.URL}, {Key: "title", Val: n.Title}, {Key: "target", Val: n.Target}}
		parent.AppendChild(r.element("a", attrs, n.Children))
	case "text":
		r.appendText(parent, n)
	}
}

func (r renderer) appendText(parent *html.Node, n Node) {
	switch {
	case n.Bold && n.Italic:
		em := r.tag("em", nil)
		em.AppendChild(textNode(n.Value))
		strong := r.tag("strong", nil)
		strong.AppendChild(em)
		parent.AppendChild(strong)
	case n.Bold:
		strong := r.tag("strong", nil)
		strong.AppendChild(textNode(n.Value))
		parent.AppendChild(strong)
	case n.Italic:
		em := r.tag("em", nil)
		em.AppendChild(textNode(n.Value))
		parent.AppendChild(em)
	case r.opts.NewLineToBreak:
		for i, line := range strings.Split(n.Value, "\n") {
			if i > 0 {
				parent.AppendChild(&html.Node{Type: html.ElementNode, Data: "br"})
			}
			if line != "" {
				parent.AppendChild(textNode(line))
			}
		}
	default:
		if n.Value != "" {
			parent.AppendChild(textNode(n.Value))
		}
	}
}

func (r renderer) element(tag string, attrs []html.Attribute, children []Node) *html.Node {
	el := r.tag(tag, attrs)
	r.appendAll(el, children)
	return el
}

// tag builds an element, dropping empty attributes and appending the configured class.
func (r renderer) tag(name string, attrs []html.Attribute) *html.Node {
	el := &html.Node{Type: html.ElementNode, Data: name}
	for _, a := range attrs {
		if a.Val != "" {
			el.Attr = append(el.Attr, a)
		}
	}
	if class := r.opts.Classes[name]; class != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "class", Val: class})
	}
	return el
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
