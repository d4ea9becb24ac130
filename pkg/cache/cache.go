// Package cache implements a persistent, content-addressed cache of
// compiled CodeBlocks, keyed by pkg/codehash's source hash. It is
// grounded on the teacher's lib/runtime/persistence.go (database/sql
// against a SQLite file, one table, INSERT OR REPLACE) and its
// vm/dist/chunk.go content-addressed chunk store (hash-keyed opaque
// blobs), combined with pkg/bytecode's CBOR wire format instead of the
// teacher's hand-rolled JSON blobs. The blob column is zstd-compressed
// with github.com/klauspost/compress/zstd, since compiled code blocks
// compress well (repeated opcodes, repeated symbol names) and the
// teacher never had an analogous binary payload to compress.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/codehash"
	"github.com/chazu/quill/pkg/value"
)

// MacroRecord captures one defmacro side effect from the compilation an
// Entry represents, so a cache hit can reinstall the macro into the
// current Context's package registry the same way the original
// Compiler.Compile call did, instead of silently skipping it.
type MacroRecord struct {
	PackageName string
	SymbolName  string
	Params      []string
	Dotted      bool
	// BlockIndex is the position within Entry.Blocks (not a Store
	// handle) of the macro body's own code block.
	BlockIndex int
}

// Entry is everything one cache hit must restore: every code block the
// original compilation registered (its own top-level block plus any
// nested lambda or defmacro bodies, in registration order — see
// pkg/compiler.Compiler.LastCompileRange), and any macros that
// compilation installed as a side effect.
type Entry struct {
	Blocks []*bytecode.CodeBlock
	Macros []MacroRecord
}

// macroDTO is the wire form of a MacroRecord.
type macroDTO struct {
	Package string   `cbor:"1,keyasint"`
	Name    string   `cbor:"2,keyasint"`
	Params  []string `cbor:"3,keyasint,omitempty"`
	Dotted  bool     `cbor:"4,keyasint,omitempty"`
	Block   int      `cbor:"5,keyasint"`
}

// entryDTO is the wire form of an Entry: a bytecode.MarshalUnit blob
// (every block the compilation produced) plus its macro installs.
type entryDTO struct {
	Unit   []byte     `cbor:"1,keyasint"`
	Macros []macroDTO `cbor:"2,keyasint,omitempty"`
}

// Cache is a SQLite-backed store of (source hash) -> serialized Entry.
// A zero Cache is not usable; construct with Open.
type Cache struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	mu  sync.Mutex
}

// Open opens (creating if necessary) a cache database at path, creating
// path's parent directory too if it doesn't already exist — quill.toml's
// documented zero-config default (pkg/config.Default's ".quill/cache")
// otherwise fails outright on a stock checkout with no ".quill"
// directory yet. Pass ":memory:" for an ephemeral, process-local cache,
// which skips directory creation entirely.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS code_blocks (
		hash TEXT PRIMARY KEY,
		blob BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating table: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating zstd decoder: %w", err)
	}
	return &Cache{db: db, enc: enc, dec: dec}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	c.dec.Close()
	return c.db.Close()
}

// Put stores entry under hash, replacing any existing entry.
func (c *Cache) Put(hash codehash.Hash, entry *Entry) error {
	unit, err := bytecode.MarshalUnit(entry.Blocks)
	if err != nil {
		return fmt.Errorf("cache: marshaling blocks: %w", err)
	}
	dto := entryDTO{Unit: unit}
	for _, m := range entry.Macros {
		dto.Macros = append(dto.Macros, macroDTO{
			Package: m.PackageName, Name: m.SymbolName,
			Params: m.Params, Dotted: m.Dotted, Block: m.BlockIndex,
		})
	}
	raw, err := cbor.Marshal(dto)
	if err != nil {
		return fmt.Errorf("cache: marshaling entry: %w", err)
	}

	c.mu.Lock()
	compressed := c.enc.EncodeAll(raw, nil)
	c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO code_blocks (hash, blob) VALUES (?, ?)",
		hash.String(), compressed,
	)
	if err != nil {
		return fmt.Errorf("cache: storing %s: %w", hash, err)
	}
	return nil
}

// Get retrieves the Entry stored under hash, or (nil, false, nil) if
// absent. internPackage resolves symbol constants against the caller's
// live Packages registry, mirroring bytecode.UnmarshalUnit. The returned
// Entry's blocks still carry run-relative OpMakeClosure operands
// (bytecode.InstallUnit resolves them against the caller's own Store).
func (c *Cache) Get(hash codehash.Hash, internPackage func(name string) *value.Package) (*Entry, bool, error) {
	var compressed []byte
	err := c.db.QueryRow("SELECT blob FROM code_blocks WHERE hash = ?", hash.String()).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: querying %s: %w", hash, err)
	}

	c.mu.Lock()
	raw, err := c.dec.DecodeAll(compressed, nil)
	c.mu.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("cache: decompressing %s: %w", hash, err)
	}

	var dto entryDTO
	if err := cbor.Unmarshal(raw, &dto); err != nil {
		return nil, false, fmt.Errorf("cache: unmarshaling %s: %w", hash, err)
	}
	blocks, err := bytecode.UnmarshalUnit(dto.Unit, internPackage)
	if err != nil {
		return nil, false, fmt.Errorf("cache: unmarshaling %s: %w", hash, err)
	}
	entry := &Entry{Blocks: blocks}
	for _, m := range dto.Macros {
		entry.Macros = append(entry.Macros, MacroRecord{
			PackageName: m.Package, SymbolName: m.Name,
			Params: m.Params, Dotted: m.Dotted, BlockIndex: m.Block,
		})
	}
	return entry, true, nil
}

// Delete removes hash's entry, if any.
func (c *Cache) Delete(hash codehash.Hash) error {
	_, err := c.db.Exec("DELETE FROM code_blocks WHERE hash = ?", hash.String())
	if err != nil {
		return fmt.Errorf("cache: deleting %s: %w", hash, err)
	}
	return nil
}

// Len reports how many entries the cache currently holds.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM code_blocks").Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: counting entries: %w", err)
	}
	return n, nil
}
