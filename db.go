// Package idbtree reads Hex-Rays IDA Pro databases: both the bundled
// single-file (.idb/.i64) layout and the older directory-of-sibling-
// files layout, exposing the primary B-tree through a typed key/value
// overlay.
package idbtree

import (
	"io"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/scigolib/idbtree/idkey"
	"github.com/scigolib/idbtree/internal/btree"
	"github.com/scigolib/idbtree/internal/container"
	"github.com/scigolib/idbtree/internal/utils"
)

// DB is an open IDA database: the decoded container header (nil for a
// directory-mode database), the primary B-tree navigator, and the
// typed overlay built on top of it.
type DB struct {
	sessionID    uuid.UUID
	header       *container.Header
	addressWidth int

	nav     *btree.Navigator
	overlay *idkey.Overlay
	cache   *lru.Cache[uint32, *btree.Page]

	closer func() error
}

type options struct {
	cacheSize int
}

// OpenOption configures Open/OpenFile/OpenDir.
type OpenOption func(*options)

// WithPageCache enables an in-memory LRU cache of decoded B-tree pages,
// holding up to size entries. Disabled (size 0) by default.
func WithPageCache(size int) OpenOption {
	return func(o *options) { o.cacheSize = size }
}

// Open opens path, which may be either a bundle file (.idb/.i64) or a
// directory containing the classic sibling .id0/.id1/.nam/... files.
func Open(path string, opts ...OpenOption) (*DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, utils.WrapError("opening database", err)
	}
	if info.IsDir() {
		return OpenDir(path, 4, opts...)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapError("opening database", err)
	}
	db, err := OpenFile(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return db, nil
}

// OpenFile opens an already-open bundle file. The DB takes ownership of
// f and closes it on Close.
func OpenFile(f *os.File, opts ...OpenOption) (*DB, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	header, err := container.ReadHeader(f)
	if err != nil {
		return nil, wrapSession(uuid.New(), err)
	}

	db := &DB{
		sessionID:    uuid.New(),
		header:       header,
		addressWidth: header.AddressWidth,
		closer:       f.Close,
	}

	sec, encoding, err := header.OpenSection(f, container.SectionID0)
	if err != nil {
		return nil, db.wrap(err)
	}
	if sec == nil {
		return nil, db.wrap(utils.WrapError("opening primary btree", utils.ErrNotFound))
	}
	if encoding == 2 {
		return nil, db.wrap(utils.WrapError("opening primary btree", utils.ErrNotImplemented))
	}

	if err := db.attachPrimary(sec, cfg); err != nil {
		return nil, db.wrap(err)
	}

	return db, nil
}

// OpenDir opens a directory-mode database: a set of sibling files named
// by their classic extensions (id0, id1, nam, seg, til, id2) rather than
// one bundle. addressWidth (4 or 8) must be supplied by the caller since
// there is no container header to infer it from.
func OpenDir(dir string, addressWidth int, opts ...OpenOption) (*DB, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	id0Path, err := findSibling(dir, "id0")
	if err != nil {
		return nil, wrapSession(uuid.New(), err)
	}

	f, err := os.Open(id0Path)
	if err != nil {
		return nil, wrapSession(uuid.New(), utils.WrapError("opening id0 file", err))
	}

	db := &DB{
		sessionID:    uuid.New(),
		header:       nil,
		addressWidth: addressWidth,
		closer:       f.Close,
	}

	if err := db.attachPrimary(f, cfg); err != nil {
		f.Close()
		return nil, db.wrap(err)
	}

	return db, nil
}

// findSibling locates the single sibling file with the given extension
// within dir. Directory-mode databases name their sibling files with an
// arbitrary base name and a fixed extension, so discovery is by glob
// rather than by a fixed filename.
func findSibling(dir, ext string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
	if err != nil {
		return "", utils.WrapError("discovering sibling files", err)
	}
	if len(matches) == 0 {
		return "", utils.WrapError("discovering sibling files", utils.ErrNotFound)
	}
	return matches[0], nil
}

func (db *DB) attachPrimary(r io.ReaderAt, cfg *options) error {
	var cache *lru.Cache[uint32, *btree.Page]
	if cfg.cacheSize > 0 {
		c, err := lru.New[uint32, *btree.Page](cfg.cacheSize)
		if err != nil {
			return utils.WrapError("creating page cache", err)
		}
		cache = c
	}

	nav, err := btree.NewNavigator(r, cache)
	if err != nil {
		return err
	}

	db.nav = nav
	db.cache = cache
	db.overlay = idkey.NewOverlay(nav, db.addressWidth)
	return nil
}

// Close releases the underlying file handle(s).
func (db *DB) Close() error {
	if db.closer == nil {
		return nil
	}
	return db.closer()
}

// Reader returns the typed key/value overlay over the primary B-tree.
func (db *DB) Reader() *idkey.Overlay { return db.overlay }

// Navigator returns the raw B-tree navigator, for callers that need
// relational find/cursor access below the typed overlay.
func (db *DB) Navigator() *btree.Navigator { return db.nav }

// AddressWidth returns 4 or 8, the container's node/address byte width.
func (db *DB) AddressWidth() int { return db.addressWidth }

// ContainerVersion returns the container's file_version field, or 0 for
// a directory-mode database (which carries no container header) or an
// unversioned pre-v1 bundle.
func (db *DB) ContainerVersion() uint16 {
	if db.header == nil {
		return 0
	}
	return db.header.FileVersion
}

// SessionID returns the random identifier generated when this DB was
// opened, useful for correlating multiple opens of the same file in
// logs. OpenFile and OpenDir prefix the errors they return with a
// session ID; errors from Close and from lookups made through Reader or
// Navigator carry none.
func (db *DB) SessionID() uuid.UUID { return db.sessionID }

func (db *DB) wrap(err error) error { return wrapSession(db.sessionID, err) }

func wrapSession(id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	return utils.WrapError("session "+id.String(), err)
}
