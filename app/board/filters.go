// Package board implements the job board core: the set of active tag filters and the
// render engine keeping job cards and the filter bar in sync with it.
//
// FilterSet holds active tags in insertion order and notifies subscribers on every change.
// Engine subscribes to a FilterSet and redraws both surfaces into a Sink on each change.
// Nothing here is safe for concurrent use, callers serialize access the same way a UI
// event loop would.
package board

import (
	"strings"

	"github.com/umputun/jobboard/app/store"
)

// Op is a kind of filter set mutation
type Op int

// filter set mutations
const (
	OpAdd Op = iota + 1
	OpRemove
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Change describes a filter set mutation delivered to subscribers
type Change struct {
	Op          Op
	Tag         string   // added or removed tag, empty for clear
	Tags        []string // active tags after the change
	BecameEmpty bool     // set had tags before and has none now
}

// FilterSet is an ordered set of active tags. Zero value is an empty set.
type FilterSet struct {
	tags      []string
	listeners []func(Change)
}

// NewFilterSet makes a filter set seeded with tags, duplicates and blank tags skipped.
// Seeding doesn't signal anything.
func NewFilterSet(tags ...string) *FilterSet {
	f := &FilterSet{}
	for _, t := range tags {
		if strings.TrimSpace(t) != "" && !f.Has(t) {
			f.tags = append(f.tags, t)
		}
	}
	return f
}

// Subscribe registers fn to be called after every change
func (f *FilterSet) Subscribe(fn func(Change)) {
	f.listeners = append(f.listeners, fn)
}

// Add appends tag if not present yet and signals the change. Tag is kept as is,
// it has to match record languages exactly.
// Returns false (and signals nothing) for a tag already in the set or a blank one.
func (f *FilterSet) Add(tag string) bool {
	if strings.TrimSpace(tag) == "" || f.Has(tag) {
		return false
	}
	f.tags = append(f.tags, tag)
	f.notify(Change{Op: OpAdd, Tag: tag})
	return true
}

// Remove deletes tag if present and signals the change. Removing absent tag is a no-op.
func (f *FilterSet) Remove(tag string) bool {
	idx := f.index(tag)
	if idx < 0 {
		return false
	}
	f.tags = append(f.tags[:idx], f.tags[idx+1:]...)
	f.notify(Change{Op: OpRemove, Tag: tag, BecameEmpty: len(f.tags) == 0})
	return true
}

// Clear empties the set. Always signals, BecameEmpty set only if there was something to clear.
func (f *FilterSet) Clear() {
	hadTags := len(f.tags) > 0
	f.tags = nil
	f.notify(Change{Op: OpClear, BecameEmpty: hadTags})
}

// Matches checks if record visible under the current filters: set is empty
// or every active tag is one of record languages.
func (f *FilterSet) Matches(rec store.JobRecord) bool {
	for _, t := range f.tags {
		if !rec.HasLanguage(t) {
			return false
		}
	}
	return true
}

// Has checks if tag is active
func (f *FilterSet) Has(tag string) bool { return f.index(tag) >= 0 }

// Tags returns a copy of active tags in insertion order
func (f *FilterSet) Tags() []string {
	res := make([]string, len(f.tags))
	copy(res, f.tags)
	return res
}

// Len returns number of active tags
func (f *FilterSet) Len() int { return len(f.tags) }

// Empty checks if no tags active
func (f *FilterSet) Empty() bool { return len(f.tags) == 0 }

func (f *FilterSet) index(tag string) int {
	for i, t := range f.tags {
		if t == tag {
			return i
		}
	}
	return -1
}

func (f *FilterSet) notify(c Change) {
	c.Tags = f.Tags()
	for _, fn := range f.listeners {
		fn(c)
	}
}
