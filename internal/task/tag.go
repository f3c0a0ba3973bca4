package task

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var tagRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Tag is a handle to an interned tag name. Tasks stored in a book hold
// registry handles, so renaming a handle renames the tag everywhere.
type Tag struct {
	Name string
}

// NewTag validates name and returns a free-standing handle.
func NewTag(name string) (*Tag, error) {
	name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	if !tagRe.MatchString(name) {
		return nil, &ValidationError{Field: "tag", Err: fmt.Errorf("tag %q must be alphanumeric", name)}
	}
	return &Tag{Name: name}, nil
}

// NewTags validates every name and drops duplicates.
func NewTags(names ...string) ([]*Tag, error) {
	seen := make(map[string]struct{}, len(names))
	tags := make([]*Tag, 0, len(names))
	for _, n := range names {
		tag, err := NewTag(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag.Name]; ok {
			continue
		}
		seen[tag.Name] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Registry interns tags by name.
type Registry struct {
	byName map[string]*Tag
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Tag)}
}

// Intern returns the registry handle for name, creating it if needed.
func (r *Registry) Intern(name string) *Tag {
	if tag, ok := r.byName[name]; ok {
		return tag
	}
	tag := &Tag{Name: name}
	r.byName[name] = tag
	return tag
}

// InternAll maps every tag onto its registry handle, dropping duplicates.
func (r *Registry) InternAll(tags []*Tag) []*Tag {
	out := make([]*Tag, 0, len(tags))
	seen := make(map[*Tag]struct{}, len(tags))
	for _, t := range tags {
		h := r.Intern(t.Name)
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func (r *Registry) Lookup(name string) (*Tag, bool) {
	tag, ok := r.byName[name]
	return tag, ok
}

// Rename changes the name of the handle for from. When to is already
// interned, the existing handle is returned as the survivor and the caller
// must repoint holders of the old handle.
func (r *Registry) Rename(from, to string) (old, survivor *Tag, ok bool) {
	old, ok = r.byName[from]
	if !ok {
		return nil, nil, false
	}
	if from == to {
		return old, old, true
	}
	delete(r.byName, from)
	if existing, dup := r.byName[to]; dup {
		return old, existing, true
	}
	old.Name = to
	r.byName[to] = old
	return old, old, true
}

func (r *Registry) Len() int { return len(r.byName) }

// Names returns interned names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the registry and returns the handle remapping so
// tasks can be pointed at the copies.
func (r *Registry) Clone() (*Registry, map[*Tag]*Tag) {
	out := NewRegistry()
	remap := make(map[*Tag]*Tag, len(r.byName))
	for name, tag := range r.byName {
		cp := &Tag{Name: tag.Name}
		out.byName[name] = cp
		remap[tag] = cp
	}
	return out, remap
}
