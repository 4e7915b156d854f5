// Package schema models a field's schema description as a small XML tree and
// implements the pure operations the field reconciler needs: parse, serialize,
// compare, merge, and synthesis from declared properties.
package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Attr is one XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is an XML element with ordered attributes and children.
// Character data directly inside the element is kept in Text.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// ErrNoField is returned when a description has no Field element.
var ErrNoField = errors.New("schema has no Field element")

// Parse reads an XML document into an element tree.
func Parse(s string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	dec.Strict = true

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: qualified(t.Name)}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("failed to parse schema: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("failed to parse schema: unbalanced end element")
			}
			if name := qualified(t.Name); name != stack[len(stack)-1].Name {
				return nil, fmt.Errorf("failed to parse schema: element %s closed by %s", stack[len(stack)-1].Name, name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if text := string(t); strings.TrimSpace(text) != "" {
				stack[len(stack)-1].Text += text
			}
		}
	}
	if root == nil {
		return nil, errors.New("failed to parse schema: empty document")
	}
	if len(stack) != 0 {
		return nil, errors.New("failed to parse schema: unclosed element")
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// FindField returns the first Field element at or below root.
func FindField(root *Element) (*Element, error) {
	if root == nil {
		return nil, ErrNoField
	}
	if root.Name == "Field" {
		return root, nil
	}
	for _, c := range root.Children {
		if f, err := FindField(c); err == nil {
			return f, nil
		}
	}
	return nil, ErrNoField
}

// ParseField parses s and returns its Field element.
func ParseField(s string) (*Element, error) {
	root, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return FindField(root)
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr overwrites the named attribute, or appends it when absent.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr drops the named attribute and reports whether it was present.
func (e *Element) RemoveAttr(name string) bool {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{
		Name:  e.Name,
		Attrs: append([]Attr(nil), e.Attrs...),
		Text:  e.Text,
	}
	for _, child := range e.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// String serializes the element. Every element gets an explicit end tag.
func (e *Element) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

var (
	attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
	textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
)

func (e *Element) write(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		attrEscaper.WriteString(b, a.Value)
		b.WriteByte('"')
	}
	b.WriteByte('>')
	textEscaper.WriteString(b, e.Text)
	for _, c := range e.Children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(e.Name)
	b.WriteByte('>')
}

// Equal reports whether a and b describe the same tree. Attribute order does
// not matter, child order does. Attributes named in ignore are skipped.
func Equal(a, b *Element, ignore ...string) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || strings.TrimSpace(a.Text) != strings.TrimSpace(b.Text) {
		return false
	}
	if !sameAttrs(a, b, ignore) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i], ignore...) {
			return false
		}
	}
	return true
}

func sameAttrs(a, b *Element, ignore []string) bool {
	skip := make(map[string]bool, len(ignore))
	for _, n := range ignore {
		skip[n] = true
	}
	count := func(e *Element) map[string]string {
		m := make(map[string]string, len(e.Attrs))
		for _, at := range e.Attrs {
			if !skip[at.Name] {
				m[at.Name] = at.Value
			}
		}
		return m
	}
	am, bm := count(a), count(b)
	if len(am) != len(bm) {
		return false
	}
	for k, v := range am {
		if bv, ok := bm[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// booleanAttrs are the field schema attributes that carry TRUE/FALSE, lower-cased.
var booleanAttrs = func() map[string]bool {
	names := strings.Fields(`
		AllowDeletion AllowDuplicateValues AllowMultiVote AppendOnly CanToggleHidden
		Commas CreateReadOnly EnforceUniqueValues FillInChoice Filterable Hidden
		Indexed IsolateStyles Mult NoCrawl Overwrite Percentage ReadOnly
		ReadOnlyEnforced Required RichText Sealed ShowInDisplayForm ShowInEditForm
		ShowInFileDlg ShowInListSettings ShowInNewForm ShowInVersionHistory
		ShowInViewForms Sortable UnlimitedLengthInDocumentLibrary Viewable`)
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = true
	}
	return m
}()

// NormalizeBooleans upper-cases "true" and "false" on known boolean schema
// attributes, recursively. The platform only honors the upper-case spelling.
// Free-text attributes such as Title keep their value.
func NormalizeBooleans(e *Element) {
	for i := range e.Attrs {
		if !booleanAttrs[strings.ToLower(e.Attrs[i].Name)] {
			continue
		}
		switch strings.ToLower(e.Attrs[i].Value) {
		case "true":
			e.Attrs[i].Value = "TRUE"
		case "false":
			e.Attrs[i].Value = "FALSE"
		}
	}
	for _, c := range e.Children {
		NormalizeBooleans(c)
	}
}
