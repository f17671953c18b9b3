package btree

import (
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scigolib/idbtree/internal/utils"
)

// Navigator is the B-tree's page-reading and descent primitive (C4): it
// owns the section reader and meta-header, and reads/decodes pages by
// number on demand, optionally through an LRU cache.
type Navigator struct {
	r    io.ReaderAt
	meta *MetaHeader

	cache *lru.Cache[uint32, *Page]
}

// NewNavigator reads page zero of r to recover the meta-header, then
// returns a Navigator ready to read further pages. cache may be nil to
// disable page caching entirely.
func NewNavigator(r io.ReaderAt, cache *lru.Cache[uint32, *Page]) (*Navigator, error) {
	head := make([]byte, 64)
	if _, err := r.ReadAt(head, 0); err != nil && err != io.EOF {
		return nil, utils.WrapError("reading btree meta-header", err)
	}

	meta, err := ParseMetaHeader(head)
	if err != nil {
		return nil, err
	}

	return &Navigator{r: r, meta: meta, cache: cache}, nil
}

// Meta returns the decoded meta-header.
func (n *Navigator) Meta() *MetaHeader { return n.meta }

// RootPage returns the page number to begin a descent from.
func (n *Navigator) RootPage() uint32 { return n.meta.RootPage }

// ReadPage reads and decodes page number pn, satisfying it from the
// cache when present.
func (n *Navigator) ReadPage(pn uint32) (*Page, error) {
	if n.cache != nil {
		if p, ok := n.cache.Get(pn); ok {
			return p, nil
		}
	}

	buf := make([]byte, n.meta.PageSize)
	off := int64(pn) * int64(n.meta.PageSize)
	read, err := n.r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, utils.WrapError("reading page", err)
	}
	if uint32(read) < n.meta.PageSize {
		return nil, utils.WrapError("reading page", utils.ErrShortRead)
	}

	page, err := DecodePage(buf, n.meta.Variant)
	if err != nil {
		return nil, err
	}

	if n.cache != nil {
		n.cache.Add(pn, page)
	}
	return page, nil
}
