package tags

import "github.com/KirkDiggler/ability-system/internal/observer"

// TagEvent is raised when a tag enters or leaves a CountingContainer
type TagEvent struct {
	Tag *Tag
}

// CountEvent is raised on every count mutation
type CountEvent struct {
	Tag   *Tag
	Count int
}

// CountingContainer is a reference-counted multiset of tags. A tag is
// present iff its count is above zero. Independent holders of the same tag
// nest: the tag only leaves once every holder has removed it.
type CountingContainer struct {
	counts map[*Tag]int
	order  []*Tag

	// TagAdded fires when a count goes 0 -> 1
	TagAdded observer.List[TagEvent]
	// TagRemoved fires when a count goes 1 -> 0
	TagRemoved observer.List[TagEvent]
	// CountChanged fires after every mutation
	CountChanged observer.List[CountEvent]
}

// NewCountingContainer creates a container seeded with tags
func NewCountingContainer(initial ...*Tag) *CountingContainer {
	c := &CountingContainer{counts: make(map[*Tag]int)}
	for _, t := range initial {
		c.AddTag(t)
	}
	return c
}

// AddTag increments the count of tag
func (c *CountingContainer) AddTag(tag *Tag) {
	if tag == nil {
		return
	}

	count, exists := c.counts[tag]
	count++
	c.counts[tag] = count
	if !exists {
		c.order = append(c.order, tag)
		c.TagAdded.Notify(TagEvent{Tag: tag})
	}

	c.CountChanged.Notify(CountEvent{Tag: tag, Count: count})
}

// RemoveTag decrements the count of tag. Absent tags are ignored.
func (c *CountingContainer) RemoveTag(tag *Tag) {
	count, exists := c.counts[tag]
	if !exists {
		return
	}

	count--
	if count <= 0 {
		count = 0
		delete(c.counts, tag)
		c.dropOrder(tag)
		c.TagRemoved.Notify(TagEvent{Tag: tag})
	} else {
		c.counts[tag] = count
	}

	c.CountChanged.Notify(CountEvent{Tag: tag, Count: count})
}

// AddTags increments every tag of container in order
func (c *CountingContainer) AddTags(container Container) {
	for _, t := range container {
		c.AddTag(t)
	}
}

// RemoveTags decrements every tag of container in order
func (c *CountingContainer) RemoveTags(container Container) {
	for _, t := range container {
		c.RemoveTag(t)
	}
}

// Clear drops every tag without raising events
func (c *CountingContainer) Clear() {
	c.counts = make(map[*Tag]int)
	c.order = nil
}

// Count returns the reference count of tag, zero when absent
func (c *CountingContainer) Count(tag *Tag) int {
	if c == nil {
		return 0
	}
	return c.counts[tag]
}

// Len returns the number of distinct tags present
func (c *CountingContainer) Len() int {
	if c == nil {
		return 0
	}
	return len(c.counts)
}

// ContainsTag reports exact membership
func (c *CountingContainer) ContainsTag(tag *Tag) bool {
	return c.Count(tag) > 0
}

// ContainsChildOf reports whether the container holds tag or a descendant
func (c *CountingContainer) ContainsChildOf(tag *Tag) bool {
	if c == nil {
		return false
	}
	for existing := range c.counts {
		if existing.IsChildOf(tag) {
			return true
		}
	}
	return false
}

// ContainsParentOf reports whether the container holds tag or an ancestor
func (c *CountingContainer) ContainsParentOf(tag *Tag) bool {
	if c == nil {
		return false
	}
	for existing := range c.counts {
		if tag.IsChildOf(existing) {
			return true
		}
	}
	return false
}

// AnyTagsMatch reports whether any tag of container is satisfied
func (c *CountingContainer) AnyTagsMatch(container Container) bool {
	for _, t := range container {
		if c.ContainsChildOf(t) {
			return true
		}
	}
	return false
}

// AllTagsMatch reports whether every tag of container is satisfied. An
// empty container always matches.
func (c *CountingContainer) AllTagsMatch(container Container) bool {
	for _, t := range container {
		if !c.ContainsChildOf(t) {
			return false
		}
	}
	return true
}

// NoTagsMatch reports whether no tag of container is satisfied
func (c *CountingContainer) NoTagsMatch(container Container) bool {
	return !c.AnyTagsMatch(container)
}

// Tags returns the present tags in first-added order
func (c *CountingContainer) Tags() Container {
	if c == nil {
		return nil
	}
	tags := make(Container, len(c.order))
	copy(tags, c.order)
	return tags
}

// Counts returns a path -> count copy, used for snapshots and display
func (c *CountingContainer) Counts() map[string]int {
	counts := make(map[string]int, c.Len())
	if c == nil {
		return counts
	}
	for t, n := range c.counts {
		counts[t.Path()] = n
	}
	return counts
}

func (c *CountingContainer) dropOrder(tag *Tag) {
	for i, t := range c.order {
		if t == tag {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
