package quillctx

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/cache"
	"github.com/chazu/quill/pkg/codehash"
	"github.com/chazu/quill/pkg/reader"
	"github.com/chazu/quill/pkg/value"
)

// Execute is the host API's "feed source text; receive a list of
// per-top-form results" operation (spec.md §6). Each complete top-level
// form found in text is parsed, compiled, and run to completion in order;
// parsing stops cleanly (with whatever results were already produced) if
// text ends mid-form, since the underlying Stream is happy to receive the
// remainder in a later call.
func (c *Context) Execute(text string) ([]FormResult, error) {
	c.stream.Add(text)
	var results []FormResult

	for {
		form, err := c.Reader.ParseNext(c.stream)
		if errors.Is(err, reader.ErrEOF) {
			return results, nil
		}
		if err != nil {
			return results, err
		}

		start := time.Now()
		before := len(c.Store.Handles())
		closure, err := c.compileForm(form)
		if err != nil {
			return results, err
		}
		val, err := c.VM.Execute(closure, nil)
		if err != nil {
			return results, err
		}
		after := c.Store.Handles()

		results = append(results, FormResult{
			Source:   value.Print(form),
			Handles:  newHandlesSince(before, after),
			Value:    val,
			Duration: time.Since(start),
		})
	}
}

// newHandlesSince returns the handles in after beyond position
// beforeCount, i.e. those newly registered by this form's compilation
// (spec.md §6, "compilation summary (handles of newly emitted code
// blocks)").
func newHandlesSince(beforeCount int, after []int) []int {
	if beforeCount >= len(after) {
		return nil
	}
	out := make([]int, len(after)-beforeCount)
	copy(out, after[beforeCount:])
	return out
}

// compileForm compiles form, consulting and populating the compiled-code
// cache (pkg/cache) when one is configured, keyed by pkg/codehash's hash
// of the current package's name plus the form's canonical printed text.
//
// A compilation is more than its own top-level block: a lambda or
// defmacro body nested inside form registers its own separate block in
// the Store (pkg/compiler.Compiler.LastCompileRange), and a defmacro
// additionally installs a macro directly on its owning package as a Go-
// level side effect of Compiler.Compile, not through any bytecode
// instruction (pkg/compiler.compileDefmacro). A cache hit has to redo
// both: reinstall every nested block (remapping the OpMakeClosure
// references between them to this Context's own freshly assigned
// handles) and replay every macro install against this Context's own
// Packages, or nested closures resolve to the wrong block and macros
// like lib/stdlib.scm's let/define/cond silently vanish the moment a
// second Context reuses the same cache.
func (c *Context) compileForm(form value.Value) (value.Value, error) {
	if c.Cache == nil {
		return c.Compiler.Compile(form)
	}

	text := value.Print(form)
	hash := codehash.HashSource(c.Packages.Current().Name, text)

	entry, ok, err := c.Cache.Get(hash, c.Packages.FindOrCreate)
	if err != nil {
		return value.Nil, err
	}
	if ok {
		handles := bytecode.InstallUnit(c.Store, entry.Blocks)
		if len(handles) == 0 {
			return value.Nil, fmt.Errorf("compileForm: cached entry for %q has no blocks", text)
		}
		for _, m := range entry.Macros {
			if m.BlockIndex < 0 || m.BlockIndex >= len(handles) {
				return value.Nil, fmt.Errorf("compileForm: macro %s's block index %d out of range", m.SymbolName, m.BlockIndex)
			}
			pkg := c.Packages.FindOrCreate(m.PackageName)
			sym := pkg.Intern(m.SymbolName)
			params := make([]*value.Symbol, len(m.Params))
			for i, name := range m.Params {
				params[i] = pkg.Intern(name)
			}
			macroClosure := &value.Closure{
				CodeHandle: handles[m.BlockIndex], Env: nil,
				Name: m.SymbolName, Params: params, Dotted: m.Dotted,
			}
			if err := pkg.DefineMacro(sym, &value.Macro{
				Name: m.SymbolName, Params: params, Dotted: m.Dotted, Body: value.FromClosure(macroClosure),
			}); err != nil {
				return value.Nil, err
			}
		}
		primary := handles[len(handles)-1]
		return value.FromClosure(&value.Closure{CodeHandle: primary}), nil
	}

	closure, err := c.Compiler.Compile(form)
	if err != nil {
		return value.Nil, err
	}
	from, to := c.Compiler.LastCompileRange()
	macros := c.Compiler.TakeMacroInstalls()

	blocks := make([]*bytecode.CodeBlock, 0, to-from+1)
	for h := from; h <= to; h++ {
		b, err := c.Store.Get(h)
		if err != nil {
			return closure, nil // compiled fine; caching is best-effort
		}
		blocks = append(blocks, b)
	}
	out := &cache.Entry{Blocks: blocks}
	for _, m := range macros {
		out.Macros = append(out.Macros, cache.MacroRecord{
			PackageName: m.PackageName, SymbolName: m.SymbolName,
			Params: m.Params, Dotted: m.Dotted, BlockIndex: m.Handle - from,
		})
	}
	_ = c.Cache.Put(hash, out)
	return closure, nil
}

// CompileOnly parses and compiles every complete top-level form in text
// without executing any of them, for callers (cmd/quill-lsp) that must
// surface reader/compiler errors without running code as a side effect
// of a keystroke. Unlike Execute, it reads text through a Stream scoped
// to this one call rather than the Context's own: an editor resends the
// full document on every edit, so there is no continuation to carry
// forward, and reusing c.stream would just accumulate every version of
// the document a caller ever compiled. A form left incomplete at the end
// of text (the user mid-typing an open paren) is simply dropped rather
// than reported as an error.
func (c *Context) CompileOnly(text string) error {
	stream := reader.NewStream()
	stream.Add(text)
	for {
		form, err := c.Reader.ParseNext(stream)
		if errors.Is(err, reader.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := c.compileForm(form); err != nil {
			return err
		}
	}
}

// Handles enumerates every live code block handle, per spec.md §6's
// "enumerate code blocks for debugging".
func (c *Context) Handles() []int {
	return c.Store.Handles()
}

// Disassemble retrieves a pretty-printed form of the code block at
// handle, per spec.md §6's "retrieve a pretty-printed form".
func (c *Context) Disassemble(handle int) (string, error) {
	block, err := c.Store.Get(handle)
	if err != nil {
		return "", err
	}
	return bytecode.Disassemble(block), nil
}
