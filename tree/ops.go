package tree

import "strings"

// AddChild appends child to n's child sequence and sets its parent
// back-reference. Order is significant and preserved.
func (n *Node) AddChild(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
	n.Modified = true
}

// RemoveChild removes child from n's child sequence, if present, and
// clears its parent back-reference. Provenance is left untouched so an
// unchanged image/canvas can still be copied verbatim if later
// re-inserted (§3.4).
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			n.Modified = true
			return true
		}
	}
	return false
}

// Rename changes n's display name and marks it modified.
func (n *Node) Rename(name string) {
	n.Name = name
	n.Modified = true
}

// ChildByName returns the first child whose name case-insensitively
// matches name, or nil.
func (n *Node) ChildByName(name string) *Node {
	folded := foldName(name)
	for _, c := range n.children {
		if foldName(c.Name) == folded {
			return c
		}
	}
	return nil
}

// Walk visits n and every descendant depth-first, pre-order. visit
// returning false stops descent into that node's children (siblings still
// visited).
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(visit)
	}
}

// CountTag returns the number of descendants (n included) carrying tag.
func (n *Node) CountTag(tag Tag) int {
	count := 0
	n.Walk(func(c *Node) bool {
		if c.Tag == tag {
			count++
		}
		return true
	})
	return count
}

// Path returns the slash-joined absolute path from the root to n.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
