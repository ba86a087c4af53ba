package edit

import (
	"slices"
	"sort"
)

// Pages maps 1-indexed page numbers to the edits on that page, in insertion
// order. A Pages value is immutable: every update returns a new value that
// shares the untouched page lists with the old one. Pages without edits have
// no entry.
type Pages struct {
	m map[int][]Edit
}

// Get returns the edits on page in z-order (first drawn first). The result
// must not be modified.
func (p Pages) Get(page int) []Edit {
	return p.m[page]
}

// Has reports whether page has at least one edit.
func (p Pages) Has(page int) bool {
	return len(p.m[page]) > 0
}

// Numbers returns the pages that carry edits, ascending.
func (p Pages) Numbers() []int {
	nums := make([]int, 0, len(p.m))
	for n := range p.m {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Count returns the total number of edits across all pages.
func (p Pages) Count() int {
	n := 0
	for _, list := range p.m {
		n += len(list)
	}
	return n
}

// Find looks up an edit by id on page.
func (p Pages) Find(page int, id string) (Edit, bool) {
	for _, e := range p.m[page] {
		if e.EditID() == id {
			return e, true
		}
	}
	return nil, false
}

// Append adds e on top of the edits of page.
func (p Pages) Append(page int, e Edit) Pages {
	list := p.m[page]
	next := make([]Edit, len(list), len(list)+1)
	copy(next, list)
	return p.with(page, append(next, e))
}

// Replace swaps the edit with the same id as e on page. If no such edit
// exists p is returned as is.
func (p Pages) Replace(page int, e Edit) Pages {
	list := p.m[page]
	i := slices.IndexFunc(list, func(x Edit) bool { return x.EditID() == e.EditID() })
	if i < 0 {
		return p
	}
	next := slices.Clone(list)
	next[i] = e
	return p.with(page, next)
}

// Remove deletes the edit with id from page. The page entry disappears with
// its last edit.
func (p Pages) Remove(page int, id string) Pages {
	list := p.m[page]
	i := slices.IndexFunc(list, func(x Edit) bool { return x.EditID() == id })
	if i < 0 {
		return p
	}
	next := make([]Edit, 0, len(list)-1)
	next = append(next, list[:i]...)
	next = append(next, list[i+1:]...)
	return p.with(page, next)
}

func (p Pages) with(page int, list []Edit) Pages {
	m := make(map[int][]Edit, len(p.m)+1)
	for k, v := range p.m {
		m[k] = v
	}
	if len(list) == 0 {
		delete(m, page)
	} else {
		m[page] = list
	}
	return Pages{m: m}
}
