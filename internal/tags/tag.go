// Package tags implements the hierarchical gameplay tag taxonomy and the
// containers used to match against it.
//
// A tag satisfies a requirement for itself or for any of its ancestors, so
// an entity holding "Status.Stunned.Heavy" meets a requirement of "Status".
// The reverse never holds.
package tags

import (
	"strings"
	"sync"

	apperr "github.com/KirkDiggler/ability-system/internal/errors"
)

// RootName is the name of the implicit root of every collection
const RootName = "Root"

// Separator joins tag names into a path
const Separator = "."

// Tag is an immutable node in a tag tree. Tags are compared by identity.
type Tag struct {
	name     string
	path     string
	parent   *Tag
	children []*Tag
	depth    int
}

// Name returns the last path segment
func (t *Tag) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Path returns the dotted path below the root, e.g. "Status.Stunned"
func (t *Tag) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// String implements fmt.Stringer
func (t *Tag) String() string {
	return t.Path()
}

// Parent returns the parent tag, nil for a root
func (t *Tag) Parent() *Tag {
	if t == nil {
		return nil
	}
	return t.parent
}

// Children returns a copy of the ordered child list
func (t *Tag) Children() []*Tag {
	if t == nil || len(t.children) == 0 {
		return nil
	}
	children := make([]*Tag, len(t.children))
	copy(children, t.children)
	return children
}

// Depth is the number of parent links between the tag and its root
func (t *Tag) Depth() int {
	if t == nil {
		return 0
	}
	return t.depth
}

// IsRoot reports whether the tag has no parent
func (t *Tag) IsRoot() bool {
	return t != nil && t.parent == nil
}

// IsChildOf reports whether ancestor is t itself or one of its ancestors.
// The check walks parent links; it never compares path strings.
func (t *Tag) IsChildOf(ancestor *Tag) bool {
	if t == nil || ancestor == nil {
		return false
	}
	for cur := t; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Collection owns a single tag tree. Tags are added while authoring; the
// runtime only reads them.
type Collection struct {
	mu     sync.RWMutex
	root   *Tag
	byPath map[string]*Tag
	order  []*Tag
}

// NewCollection creates a collection holding only the root tag
func NewCollection() *Collection {
	root := &Tag{name: RootName}
	return &Collection{
		root:   root,
		byPath: make(map[string]*Tag),
	}
}

// Root returns the collection's root tag
func (c *Collection) Root() *Tag {
	return c.root
}

// Add creates a child of parent. A nil parent means the root.
func (c *Collection) Add(parent *Tag, name string) (*Tag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.add(parent, name)
}

func (c *Collection) add(parent *Tag, name string) (*Tag, error) {
	if name == "" {
		return nil, apperr.InvalidArgument("tag name cannot be empty")
	}
	if strings.Contains(name, Separator) {
		return nil, apperr.InvalidArgumentf("tag name %q cannot contain %q", name, Separator)
	}

	if parent == nil {
		parent = c.root
	}
	if !parent.IsChildOf(c.root) {
		return nil, apperr.InvalidArgumentf("parent %q belongs to another collection", parent.Path())
	}

	path := name
	if !parent.IsRoot() {
		path = parent.path + Separator + name
	}
	if _, exists := c.byPath[path]; exists {
		return nil, apperr.AlreadyExistsf("tag %q already exists", path)
	}

	tag := &Tag{
		name:   name,
		path:   path,
		parent: parent,
		depth:  parent.depth + 1,
	}
	parent.children = append(parent.children, tag)
	c.byPath[path] = tag
	c.order = append(c.order, tag)

	return tag, nil
}

// Ensure returns the tag at path, creating any missing segments
func (c *Collection) Ensure(path string) (*Tag, error) {
	if path == "" {
		return nil, apperr.InvalidArgument("tag path cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	parent := c.root
	for _, name := range strings.Split(path, Separator) {
		next := parent.path + Separator + name
		if parent.IsRoot() {
			next = name
		}

		if existing, ok := c.byPath[next]; ok {
			parent = existing
			continue
		}

		created, err := c.add(parent, name)
		if err != nil {
			return nil, apperr.Wrapf(err, "failed to ensure tag %q", path)
		}
		parent = created
	}

	return parent, nil
}

// MustEnsure is Ensure for statically known paths; it panics on a malformed
// path and is meant for authoring code and tests.
func (c *Collection) MustEnsure(path string) *Tag {
	tag, err := c.Ensure(path)
	if err != nil {
		panic(err)
	}
	return tag
}

// Get looks up a tag by path
func (c *Collection) Get(path string) (*Tag, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tag, ok := c.byPath[path]
	return tag, ok
}

// Request returns the tag at path or nil when absent
func (c *Collection) Request(path string) *Tag {
	tag, _ := c.Get(path)
	return tag
}

// All returns every non-root tag in creation order
func (c *Collection) All() []*Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]*Tag, len(c.order))
	copy(all, c.order)
	return all
}

// Len returns the number of non-root tags
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.order)
}
