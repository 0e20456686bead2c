package domain

import (
	"sort"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// Hierarchy indexes a corpus by its parent links for containment walks.
type Hierarchy struct {
	byID     map[string]*Document
	children map[string][]string
	roots    []string
}

// NewHierarchy builds the containment index and validates it: parent
// references must resolve within the corpus and levels must not decrease
// along parent to child edges.
func NewHierarchy(docs []*Document) (*Hierarchy, error) {
	h := &Hierarchy{
		byID:     make(map[string]*Document, len(docs)),
		children: make(map[string][]string),
	}
	for _, d := range docs {
		if _, dup := h.byID[d.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "duplicate document id", nil).
				WithDetail("id", d.ID)
		}
		h.byID[d.ID] = d
	}
	for _, d := range docs {
		if d.ParentID == "" {
			h.roots = append(h.roots, d.ID)
			continue
		}
		parent, ok := h.byID[d.ParentID]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "parent not in corpus", nil).
				WithDetail("id", d.ID).WithDetail("parent_id", d.ParentID)
		}
		if d.Level < parent.Level {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "level decreases under parent", nil).
				WithDetail("id", d.ID).WithDetail("parent_id", d.ParentID)
		}
		h.children[d.ParentID] = append(h.children[d.ParentID], d.ID)
	}
	for id := range h.children {
		sort.Strings(h.children[id])
	}
	sort.Strings(h.roots)
	return h, nil
}

// Get returns the document with the given id, if present.
func (h *Hierarchy) Get(id string) (*Document, bool) {
	d, ok := h.byID[id]
	return d, ok
}

// Children returns the direct children of id in stable order.
func (h *Hierarchy) Children(id string) []*Document {
	ids := h.children[id]
	out := make([]*Document, 0, len(ids))
	for _, cid := range ids {
		out = append(out, h.byID[cid])
	}
	return out
}

// Roots returns the documents without a parent, in stable order.
func (h *Hierarchy) Roots() []*Document {
	out := make([]*Document, 0, len(h.roots))
	for _, id := range h.roots {
		out = append(out, h.byID[id])
	}
	return out
}

// Ancestors walks parent links from id to the root, nearest first.
func (h *Hierarchy) Ancestors(id string) []*Document {
	var out []*Document
	d, ok := h.byID[id]
	for ok && d.ParentID != "" {
		d, ok = h.byID[d.ParentID]
		if ok {
			out = append(out, d)
		}
	}
	return out
}

// Descendants returns every transitive child of id using an iterative
// stack walk, so deep hierarchies cannot overflow.
func (h *Hierarchy) Descendants(id string) []*Document {
	var out []*Document
	stack := append([]string(nil), h.children[id]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, h.byID[cur])
		stack = append(stack, h.children[cur]...)
	}
	return out
}
