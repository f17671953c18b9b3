package btree

// frame is one stack entry of a Cursor: a page and the entry index the
// cursor currently sits at within it. index == -1 means "positioned at
// the page's preceding-child pointer", used only for index pages.
type frame struct {
	page  *Page
	index int
}

// Cursor is a position within a B-tree (C5), represented as an explicit
// stack of (page, entry index) frames from root to the current entry,
// which may sit on a leaf or an index page. Navigation never recurses: Next/Prev walk the stack directly.
type Cursor struct {
	nav   *Navigator
	stack []frame
}

// Eof reports whether the cursor has walked off either end of the tree.
func (c *Cursor) Eof() bool { return len(c.stack) == 0 }

// Key returns the key at the cursor's current position. Invalid to call
// when Eof().
func (c *Cursor) Key() []byte {
	top := c.stack[len(c.stack)-1]
	return top.page.Key(top.index)
}

// Value returns the value at the cursor's current position. Invalid to
// call when Eof().
func (c *Cursor) Value() []byte {
	top := c.stack[len(c.stack)-1]
	return top.page.Value(top.index)
}

// Next advances the cursor to the following record in key order. A
// no-op once Eof().
func (c *Cursor) Next() error {
	if len(c.stack) == 0 {
		return nil
	}

	n := len(c.stack) - 1
	page, idx := c.stack[n].page, c.stack[n].index
	c.stack = c.stack[:n]

	if page.IsLeaf() {
		idx++
		for len(c.stack) > 0 && idx == page.Len() {
			n = len(c.stack) - 1
			page, idx = c.stack[n].page, c.stack[n].index
			c.stack = c.stack[:n]
			idx++
		}
		if idx < page.Len() {
			c.stack = append(c.stack, frame{page, idx})
		}
		return nil
	}

	// Index page: descend to the leftmost leaf of the next child.
	c.stack = append(c.stack, frame{page, idx})
	child, err := c.nav.ReadPage(page.Child(idx))
	if err != nil {
		return err
	}
	page = child
	for page.IsIndex() {
		c.stack = append(c.stack, frame{page, -1})
		next, err := c.nav.ReadPage(page.Child(-1))
		if err != nil {
			return err
		}
		page = next
	}
	c.stack = append(c.stack, frame{page, 0})
	return nil
}

// Prev retreats the cursor to the preceding record in key order. A
// no-op once Eof().
func (c *Cursor) Prev() error {
	if len(c.stack) == 0 {
		return nil
	}

	n := len(c.stack) - 1
	page, idx := c.stack[n].page, c.stack[n].index
	c.stack = c.stack[:n]
	idx--

	if page.IsLeaf() {
		for len(c.stack) > 0 && idx < 0 {
			n = len(c.stack) - 1
			page, idx = c.stack[n].page, c.stack[n].index
			c.stack = c.stack[:n]
		}
		if idx >= 0 {
			c.stack = append(c.stack, frame{page, idx})
		}
		return nil
	}

	// Index page: descend to the rightmost leaf of the prior child.
	c.stack = append(c.stack, frame{page, idx})
	for page.IsIndex() {
		child, err := c.nav.ReadPage(page.Child(idx))
		if err != nil {
			return err
		}
		page = child
		idx = page.Len() - 1
		c.stack = append(c.stack, frame{page, idx})
	}
	return nil
}
