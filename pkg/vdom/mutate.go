package vdom

import (
	"fmt"
	"strings"
)

// SetAttr sets an attribute on an element.
func (v *VNode) SetAttr(key, value string) {
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[key] = value
}

// RemoveAttr deletes an attribute from an element.
func (v *VNode) RemoveAttr(key string) {
	delete(v.Props, key)
}

// GetAttr returns an attribute's value as a string.
func (v *VNode) GetAttr(key string) (string, bool) {
	val, ok := v.Props[key]
	if !ok || val == nil {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return fmt.Sprint(val), true
}

// Classes returns the element's classes in order.
func (v *VNode) Classes() []string {
	class, _ := v.GetAttr("class")
	return strings.Fields(class)
}

// HasClass reports whether the element carries class.
func (v *VNode) HasClass(class string) bool {
	for _, c := range v.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// SetClass adds or removes a single class, leaving the others in place.
func (v *VNode) SetClass(class string, on bool) {
	classes := v.Classes()
	out := classes[:0]
	for _, c := range classes {
		if c != class {
			out = append(out, c)
		}
	}
	if on {
		out = append(out, class)
	}
	if len(out) == 0 {
		v.RemoveAttr("class")
		return
	}
	v.SetAttr("class", strings.Join(out, " "))
}

// ReplaceChildren swaps every child of the node.
func (v *VNode) ReplaceChildren(children ...*VNode) {
	v.Children = v.Children[:0]
	for _, c := range children {
		if c != nil {
			v.Children = append(v.Children, c)
		}
	}
}
