package btree

import "bytes"

// Relation is the comparator used by Navigator.Find: which record to
// return relative to a search key when no exact match is required.
type Relation int

const (
	RelEq Relation = iota // exact match only
	RelLe                 // last record <= key
	RelGe                 // first record >= key
	RelLt                 // last record < key
	RelGt                 // first record > key
)

// action is the outcome of testing one page against a search key.
type action int

const (
	actRecurse action = iota
	actEq
	actLt
	actGt
)

// floorSearch returns the upper-bound-minus-one index of key within
// page's entries: the last position i such that page.Key(i) <= key (or
// -1 if no such position exists).
func floorSearch(page *Page, key []byte) int {
	first, last := 0, page.Len()
	for first < last {
		mid := (first + last) >> 1
		if bytes.Compare(key, page.Key(mid)) < 0 {
			last = mid
		} else {
			first = mid + 1
		}
	}
	return first - 1
}

// classify tests key against one page, returning the action to take and
// the entry index it applies to (-1 when recursing via the preceding
// pointer of an index page with no entry <= key).
func classify(page *Page, key []byte) (action, int) {
	i := floorSearch(page, key)
	if i < 0 {
		if page.IsIndex() {
			return actRecurse, -1
		}
		return actGt, 0
	}
	if bytes.Equal(page.Key(i), key) {
		return actEq, i
	}
	if page.IsIndex() {
		return actRecurse, i
	}
	return actLt, i
}

// Find descends the tree to locate key, then repositions the resulting
// cursor per rel (C6). A nil Cursor with a nil error means "no such
// record" for rel == RelEq; for the relational comparators, Eof() on
// the returned cursor plays the same role (e.g. RelGt past the last
// key).
func (n *Navigator) Find(rel Relation, key []byte) (*Cursor, error) {
	page, err := n.ReadPage(n.RootPage())
	if err != nil {
		return nil, err
	}

	var stack []frame
	var act action
	var idx int

	for {
		act, idx = classify(page, key)
		stack = append(stack, frame{page, idx})
		if act != actRecurse {
			break
		}
		child, err := n.ReadPage(page.Child(idx))
		if err != nil {
			return nil, err
		}
		page = child
	}

	cur := &Cursor{nav: n, stack: stack}

	switch rel {
	case RelEq:
		if act != actEq {
			return nil, nil
		}
	case RelLe:
		if act == actGt {
			if err := cur.Prev(); err != nil {
				return nil, err
			}
		}
	case RelLt:
		if act == actEq || act == actGt {
			if err := cur.Prev(); err != nil {
				return nil, err
			}
		}
	case RelGe:
		if act == actLt {
			if err := cur.Next(); err != nil {
				return nil, err
			}
		}
	case RelGt:
		if act == actEq || act == actLt {
			if err := cur.Next(); err != nil {
				return nil, err
			}
		}
	}

	return cur, nil
}
