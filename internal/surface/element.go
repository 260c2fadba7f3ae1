// Package surface provides the presentation tree that embedded content is
// attached to. It stands in for a document container: stages own one root
// Element and content renders its own children beneath it.
package surface

import "slices"

// Element is a node in the presentation tree.
type Element struct {
	ID       string
	Tag      string
	Classes  []string
	Text     string
	Children []*Element

	style map[string]string
}

// NewElement creates an element with the given tag and id.
func NewElement(tag, id string) *Element {
	return &Element{
		ID:    id,
		Tag:   tag,
		style: make(map[string]string),
	}
}

// Append adds child as the last child of e.
func (e *Element) Append(child *Element) {
	e.Children = append(e.Children, child)
}

// Find returns the first descendant with the given tag (depth-first), or nil.
func (e *Element) Find(tag string) *Element {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// SetStyle sets an inline style property.
func (e *Element) SetStyle(prop, value string) {
	if e.style == nil {
		e.style = make(map[string]string)
	}
	e.style[prop] = value
}

// Style returns an inline style property, or "".
func (e *Element) Style(prop string) string {
	return e.style[prop]
}

// AddClass adds a class name if not already present.
func (e *Element) AddClass(name string) {
	if !e.HasClass(name) {
		e.Classes = append(e.Classes, name)
	}
}

// HasClass reports whether the element carries the class.
func (e *Element) HasClass(name string) bool {
	return slices.Contains(e.Classes, name)
}
