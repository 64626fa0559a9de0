package tree

import (
	"sort"
	"strings"
)

// Loader retrieves child entries for a particular node path.
type Loader interface {
	List(path string) ([]*Node, error)
}

// Node represents a single entry in the file tree.
type Node struct {
	Name     string
	Path     string
	IsDir    bool
	Open     bool
	Parent   *Node
	Children []*Node

	loader Loader
	loaded bool
}

// NewRoot creates the root node for the tree.
func NewRoot(name string, loader Loader) *Node {
	return &Node{
		Name:   name,
		Path:   "",
		IsDir:  true,
		Open:   true,
		loader: loader,
	}
}

// ChildByName returns the child node with the given name if it exists.
func (n *Node) ChildByName(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// EnsureLoaded lazily loads child entries for directory nodes.
func (n *Node) EnsureLoaded() error {
	if !n.IsDir || n.loaded || n.loader == nil {
		return nil
	}

	children, err := n.loader.List(n.Path)
	if err != nil {
		return err
	}

	n.Children = children
	for _, child := range n.Children {
		child.Parent = n
		child.loader = n.loader
	}
	n.sortChildren()
	n.loaded = true
	return nil
}

// Invalidate drops cached children so the next EnsureLoaded re-reads the
// directory. Open state of surviving subdirectories is carried over by name.
func (n *Node) Invalidate() error {
	if !n.IsDir || !n.loaded {
		return nil
	}
	previous := n.Children
	n.loaded = false
	n.Children = nil
	if err := n.EnsureLoaded(); err != nil {
		n.Children = previous
		n.loaded = true
		return err
	}
	for _, old := range previous {
		if !old.IsDir || !old.Open {
			continue
		}
		if fresh := n.ChildByName(old.Name); fresh != nil && fresh.IsDir {
			fresh.Open = true
			fresh.Children = old.Children
			fresh.loaded = old.loaded
			for _, grandchild := range fresh.Children {
				grandchild.Parent = fresh
			}
		}
	}
	return nil
}

// FindDir walks down from n following the slash-separated relative path and
// returns the directory node at that path, or nil if no loaded node matches.
func (n *Node) FindDir(relPath string) *Node {
	if relPath == "" || relPath == "." {
		if n.IsDir {
			return n
		}
		return nil
	}
	current := n
	for _, part := range strings.Split(relPath, "/") {
		child := current.ChildByName(part)
		if child == nil || !child.IsDir {
			return nil
		}
		current = child
	}
	return current
}

func (n *Node) sortChildren() {
	sort.Slice(n.Children, func(i, j int) bool {
		ci, cj := n.Children[i], n.Children[j]
		switch {
		case ci.IsDir == cj.IsDir:
			return strings.ToLower(ci.Name) < strings.ToLower(cj.Name)
		case ci.IsDir:
			return true
		default:
			return false
		}
	})
}
