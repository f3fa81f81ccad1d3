package tags

// Container is an ordered, authored list of tags. It is treated as immutable
// once placed on a template.
type Container []*Tag

// NewContainer builds a container from tags, skipping nils
func NewContainer(tags ...*Tag) Container {
	c := make(Container, 0, len(tags))
	for _, t := range tags {
		if t != nil {
			c = append(c, t)
		}
	}
	return c
}

// IsEmpty reports whether the container holds no tags
func (c Container) IsEmpty() bool {
	return len(c) == 0
}

// HasTag reports exact membership
func (c Container) HasTag(tag *Tag) bool {
	for _, t := range c {
		if t == tag {
			return true
		}
	}
	return false
}

// HasChildOf reports whether any tag in c is tag or a descendant of it
func (c Container) HasChildOf(tag *Tag) bool {
	for _, t := range c {
		if t.IsChildOf(tag) {
			return true
		}
	}
	return false
}

// AnyTagsMatch reports whether c satisfies any tag of other
func (c Container) AnyTagsMatch(other Container) bool {
	for _, t := range other {
		if c.HasChildOf(t) {
			return true
		}
	}
	return false
}

// AllTagsMatch reports whether c satisfies every tag of other
func (c Container) AllTagsMatch(other Container) bool {
	for _, t := range other {
		if !c.HasChildOf(t) {
			return false
		}
	}
	return true
}

// Paths returns the tag paths in order
func (c Container) Paths() []string {
	paths := make([]string, len(c))
	for i, t := range c {
		paths[i] = t.Path()
	}
	return paths
}

// Requirements pairs required and ignored tags. They are met when the owner
// holds a descendant-or-self of every required tag and of no ignored tag.
type Requirements struct {
	Required Container
	Ignored  Container
}

// IsEmpty reports whether neither list has tags
func (r Requirements) IsEmpty() bool {
	return r.Required.IsEmpty() && r.Ignored.IsEmpty()
}

// Met evaluates the requirements against an owned tag set
func (r Requirements) Met(owned *CountingContainer) bool {
	return owned.AllTagsMatch(r.Required) && owned.NoTagsMatch(r.Ignored)
}

// Tags returns required followed by ignored tags
func (r Requirements) Tags() Container {
	all := make(Container, 0, len(r.Required)+len(r.Ignored))
	all = append(all, r.Required...)
	return append(all, r.Ignored...)
}
