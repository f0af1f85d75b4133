package domain

import (
	"fmt"
	"sort"

	"github.com/SscSPs/maika_backend/internal/apperrors"
)

// Tag is a node of the category forest. Entities hang from tags and
// scoped permissions reference them.
type Tag struct {
	Name       string  `json:"name"`
	ParentName *string `json:"parentName,omitempty"`
}

// TagTree is an immutable arena representation of the tag forest with a
// precomputed descendant closure. Build a new one whenever tags change.
type TagTree struct {
	ids      map[string]int
	names    []string
	parent   []int // -1 for roots
	children [][]int
	closure  [][]string // closure[i] holds node i and all of its descendants, sorted
}

// NewTagTree builds the tree, rejecting unknown parents and cycles.
func NewTagTree(tags []Tag) (*TagTree, error) {
	t := &TagTree{
		ids:      make(map[string]int, len(tags)),
		names:    make([]string, 0, len(tags)),
		parent:   make([]int, 0, len(tags)),
		children: make([][]int, len(tags)),
		closure:  make([][]string, len(tags)),
	}
	for _, tag := range tags {
		if tag.Name == "" {
			return nil, fmt.Errorf("%w: tag name cannot be empty", apperrors.ErrValidation)
		}
		if _, dup := t.ids[tag.Name]; dup {
			return nil, fmt.Errorf("%w: tag %q declared twice", apperrors.ErrValidation, tag.Name)
		}
		t.ids[tag.Name] = len(t.names)
		t.names = append(t.names, tag.Name)
		t.parent = append(t.parent, -1)
	}
	for i, tag := range tags {
		if tag.ParentName == nil || *tag.ParentName == "" {
			continue
		}
		p, ok := t.ids[*tag.ParentName]
		if !ok {
			return nil, fmt.Errorf("%w: tag %q references unknown parent %q", apperrors.ErrValidation, tag.Name, *tag.ParentName)
		}
		if p == i {
			return nil, fmt.Errorf("%w: tag %q cannot be its own parent", apperrors.ErrValidation, tag.Name)
		}
		t.parent[i] = p
		t.children[p] = append(t.children[p], i)
	}

	// Every node must reach a root; otherwise it sits on a cycle.
	for i := range t.names {
		steps := 0
		for n := i; n != -1; n = t.parent[n] {
			if steps > len(t.names) {
				return nil, fmt.Errorf("%w: tag %q is part of a cycle", apperrors.ErrValidation, t.names[i])
			}
			steps++
		}
	}

	for i := range t.names {
		var acc []string
		stack := []int{i}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			acc = append(acc, t.names[n])
			stack = append(stack, t.children[n]...)
		}
		sort.Strings(acc)
		t.closure[i] = acc
	}
	return t, nil
}

// Contains reports whether the tag exists in the tree.
func (t *TagTree) Contains(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.ids[name]
	return ok
}

// Descendants returns the tag itself plus all transitive children.
// Unknown tags yield only themselves so that permissions naming a deleted
// tag keep matching entities still carrying it.
func (t *TagTree) Descendants(name string) []string {
	if t == nil {
		return []string{name}
	}
	i, ok := t.ids[name]
	if !ok {
		return []string{name}
	}
	out := make([]string, len(t.closure[i]))
	copy(out, t.closure[i])
	return out
}

// IsDescendant reports whether tag is ancestor or lies below it.
func (t *TagTree) IsDescendant(tag, ancestor string) bool {
	if tag == ancestor {
		return true
	}
	if t == nil {
		return false
	}
	n, ok := t.ids[tag]
	if !ok {
		return false
	}
	a, ok := t.ids[ancestor]
	if !ok {
		return false
	}
	for n != -1 {
		if n == a {
			return true
		}
		n = t.parent[n]
	}
	return false
}

// Parent returns the parent name of a tag, if any.
func (t *TagTree) Parent(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.ids[name]
	if !ok || t.parent[i] == -1 {
		return "", false
	}
	return t.names[t.parent[i]], true
}

// Children returns the direct children of a tag.
func (t *TagTree) Children(name string) []string {
	if t == nil {
		return nil
	}
	i, ok := t.ids[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.children[i]))
	for _, c := range t.children[i] {
		out = append(out, t.names[c])
	}
	sort.Strings(out)
	return out
}

// Tags returns the tree as a flat list, ordered by name.
func (t *TagTree) Tags() []Tag {
	if t == nil {
		return nil
	}
	out := make([]Tag, 0, len(t.names))
	for i, name := range t.names {
		tag := Tag{Name: name}
		if t.parent[i] != -1 {
			p := t.names[t.parent[i]]
			tag.ParentName = &p
		}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
