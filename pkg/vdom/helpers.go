package vdom

import "strings"

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...any) *VNode {
	node := &VNode{
		Kind:     KindFragment,
		Children: make([]*VNode, 0),
	}

	for _, child := range children {
		switch v := child.(type) {
		case nil:
			continue
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		case Component:
			if r := v.Render(); r != nil {
				node.Children = append(node.Children, r)
			}
		}
	}

	return node
}

// Walk visits the node and its descendants depth-first. Returning false
// from fn skips the node's children.
func Walk(v *VNode, fn func(*VNode) bool) {
	if v == nil {
		return
	}
	if !fn(v) {
		return
	}
	for _, child := range v.Children {
		Walk(child, fn)
	}
}

// Find returns the first node, depth-first, for which match is true.
func Find(v *VNode, match func(*VNode) bool) *VNode {
	var found *VNode
	Walk(v, func(n *VNode) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// ByID matches elements by id attribute.
func ByID(id string) func(*VNode) bool {
	return func(n *VNode) bool {
		return n.Kind == KindElement && n.Props["id"] == id
	}
}

// TextContent concatenates the text of every descendant text node.
func (v *VNode) TextContent() string {
	var b strings.Builder
	Walk(v, func(n *VNode) bool {
		if n.Kind == KindText {
			b.WriteString(n.Text)
		}
		return true
	})
	return b.String()
}
