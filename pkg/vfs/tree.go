// Package vfs provides the read-only product tree browsed with cd, ls and cat.
package vfs

import (
	"path"
	"strings"

	"github.com/clicafe/clicafe/pkg/protocol"
)

// Home is the session path of the tree root.
const Home = "~"

// Node is a file or directory in the product tree. Files carry a product.
type Node struct {
	Name     string
	Path     string // canonical absolute path, "/" for the root
	IsDir    bool
	Product  *protocol.Product
	Children []*Node
}

// Tree is an immutable product tree.
type Tree struct {
	root *Node
}

// New builds a tree from root, filling in canonical paths.
func New(root *Node) *Tree {
	root.Path = "/"
	root.IsDir = true
	setPaths(root)
	return &Tree{root: root}
}

func setPaths(n *Node) {
	for _, child := range n.Children {
		child.Path = BuildChildPath(n.Path, child.Name)
		setPaths(child)
	}
}

// Root returns the root directory.
func (t *Tree) Root() *Node {
	return t.root
}

// Lookup walks segments from the root. Names match case-insensitively, and
// also with extensions stripped on both sides ("veracruzblend" finds
// "VeracruzBlend.coffee"). It returns nil on any miss.
func (t *Tree) Lookup(segments []string) *Node {
	node := t.root
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		node = child(node, seg)
		if node == nil {
			return nil
		}
	}
	return node
}

func child(dir *Node, name string) *Node {
	if dir == nil || !dir.IsDir {
		return nil
	}
	for _, c := range dir.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	bare := stripExt(name)
	for _, c := range dir.Children {
		if strings.EqualFold(stripExt(c.Name), bare) {
			return c
		}
	}
	return nil
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// List returns the child names of the directory at segments, with "/"
// appended to directories. ok is false if segments is not a directory.
func (t *Tree) List(segments []string) (names []string, ok bool) {
	dir := t.Lookup(segments)
	if dir == nil || !dir.IsDir {
		return nil, false
	}
	names = make([]string, 0, len(dir.Children))
	for _, c := range dir.Children {
		if c.IsDir {
			names = append(names, c.Name+"/")
		} else {
			names = append(names, c.Name)
		}
	}
	return names, true
}

// Resolve applies target (as typed after cd) to cwd. It understands "..",
// "~", absolute "/a/b" and relative paths, and returns the node reached or
// nil. The root has no parent, so ".." there stays at the root.
func (t *Tree) Resolve(cwd []string, target string) *Node {
	target = strings.TrimSpace(target)
	if target == "" || target == Home || target == "/" {
		return t.root
	}

	var segs []string
	switch {
	case strings.HasPrefix(target, "~/"):
		target = strings.TrimPrefix(target, "~/")
	case strings.HasPrefix(target, "/"):
	default:
		segs = append(segs, cwd...)
	}

	for _, part := range strings.Split(target, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, part)
		}
	}
	return t.Lookup(segs)
}

// Walk calls fn for every node in depth-first order.
func (t *Tree) Walk(fn func(*Node) error) error {
	return walk(t.root, fn)
}

func walk(n *Node, fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// CountNodes counts all nodes below and including the root.
func (t *Tree) CountNodes() int {
	count := 0
	t.Walk(func(*Node) error { count++; return nil })
	return count
}

// Split turns a session path ("~", "/", "/Molido/Kilo") into segments.
func Split(p string) []string {
	p = strings.Trim(strings.TrimPrefix(p, Home), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// SessionPath renders a node path the way the prompt shows it: "~" for the
// root, the absolute path otherwise.
func SessionPath(n *Node) string {
	if n == nil || n.Path == "/" || n.Path == "" {
		return Home
	}
	return n.Path
}

// BuildChildPath constructs a child path from parent + name.
func BuildChildPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}
