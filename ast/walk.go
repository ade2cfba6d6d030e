package ast

import "strings"

// WalkFunc is called for every node. path holds the nodes enclosing n, the root first; it is reused between
// calls, so a WalkFunc that keeps it must copy it. Returning false skips the children of n.
type WalkFunc func(n Node, path []Node) bool

// Walk visits the tree rooted at root in depth-first pre-order.
func Walk(root Node, fn WalkFunc) {
	if root == nil {
		return
	}
	walk(root, make([]Node, 0, 16), fn)
}

func walk(n Node, path []Node, fn WalkFunc) {
	if !fn(n, path) {
		return
	}
	path = append(path, n)
	for _, c := range n.Children() {
		if c == nil {
			continue
		}
		walk(c, path, fn)
	}
}

// Enclosing returns the nodes enclosing target in root, the innermost first. It returns nil when target is
// root or not in the tree.
func Enclosing(root, target Node) []Node {
	var found []Node
	Walk(root, func(n Node, path []Node) bool {
		if found != nil {
			return false
		}
		if n == target {
			found = make([]Node, len(path))
			for i, p := range path {
				found[len(path)-1-i] = p
			}
			return false
		}
		return true
	})
	if len(found) == 0 {
		return nil
	}
	return found
}

// Depth returns the larger of the height of the tree, where a leaf has height 1, and the deepest nesting of
// parenthesis groups. A number inside 50 groups has depth 50.
func Depth(n Node) int {
	height, parens := depth(n)
	if parens > height {
		return parens
	}
	return height
}

func depth(n Node) (int, int) {
	if n == nil {
		return 0, 0
	}
	height, parens := 0, 0
	for _, c := range n.Children() {
		h, p := depth(c)
		if h > height {
			height = h
		}
		if p > parens {
			parens = p
		}
	}
	return height + 1, parens + n.ParenCount()
}

// Count returns the number of nodes in the tree, argument lists included.
func Count(n Node) int {
	count := 0
	Walk(n, func(Node, []Node) bool {
		count++
		return true
	})
	return count
}

// Variables returns the names of the variables n refers to, in order of first appearance.
func Variables(n Node) []string {
	var names []string
	seen := map[string]struct{}{}
	Walk(n, func(n Node, _ []Node) bool {
		if v, ok := n.(*Variable); ok {
			if _, ok := seen[v.Name]; !ok {
				seen[v.Name] = struct{}{}
				names = append(names, v.Name)
			}
		}
		return true
	})
	return names
}

// Functions returns the upper-cased names of the functions n calls, in order of first appearance.
func Functions(n Node) []string {
	var names []string
	seen := map[string]struct{}{}
	Walk(n, func(n Node, _ []Node) bool {
		if f, ok := n.(*FunctionCall); ok {
			name := strings.ToUpper(f.Name)
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
		return true
	})
	return names
}
