package scraper

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is a generic XML element. Attributes and child elements are both
// addressable by name, so feed fields can live in either place.
type node struct {
	name     string
	attrs    map[string]string
	children []*node
	text     string
}

// parseTree reads an XML document and returns its root element.
// HTML entities that XML does not define are left in the text untouched.
func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *node
		stack []*node
		texts []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			for _, a := range t.Attr {
				if n.attrs == nil {
					n.attrs = make(map[string]string, len(t.Attr))
				}
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			n := stack[len(stack)-1]
			n.text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
		}
	}

	if root == nil {
		return nil, errors.New("xml: no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("xml: unclosed element <%s>", stack[len(stack)-1].name)
	}
	return root, nil
}

// child returns the first child element called name, or nil.
func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// childrenNamed returns every child element called name.
func (n *node) childrenNamed(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// value returns the non-empty attribute called name, falling back to the
// inner text of the child element called name.
func (n *node) value(name string) string {
	if n == nil {
		return ""
	}
	if v := strings.TrimSpace(n.attrs[name]); v != "" {
		return v
	}
	return n.child(name).innerText()
}

// isLeaf reports whether n carries only text.
func (n *node) isLeaf() bool {
	return len(n.attrs) == 0 && len(n.children) == 0
}

// innerText joins the text of n and all its descendants with single spaces.
func (n *node) innerText() string {
	if n == nil {
		return ""
	}
	if len(n.children) == 0 {
		return n.text
	}
	parts := make([]string, 0, len(n.children)+1)
	if n.text != "" {
		parts = append(parts, n.text)
	}
	for _, c := range n.children {
		if t := c.innerText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// toValue converts n into plain maps, slices and strings for JSON encoding.
// Repeated children become arrays; mixed content keeps its text under "#text".
func (n *node) toValue() any {
	if n.isLeaf() {
		return n.text
	}
	m := make(map[string]any, len(n.attrs)+len(n.children)+1)
	for k, v := range n.attrs {
		m[k] = v
	}
	for _, c := range n.children {
		v := c.toValue()
		switch existing := m[c.name].(type) {
		case nil:
			m[c.name] = v
		case []any:
			m[c.name] = append(existing, v)
		default:
			m[c.name] = []any{existing, v}
		}
	}
	if n.text != "" {
		m["#text"] = n.text
	}
	return m
}
