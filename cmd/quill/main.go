// Command quill is a batch driver, not the excluded interactive REPL
// (spec.md's Non-goals): it reads one or more source files named on the
// command line, runs each through a Context, and prints each top-level
// form's result. Grounded on the teacher's cmd/mag/main.go for its
// flag-parsing and verbose-logging shape; the REPL/image/class-loading
// logic in that file has no domain-appropriate analogue here.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/quill/pkg/config"
	"github.com/chazu/quill/pkg/quillctx"
	"github.com/chazu/quill/pkg/value"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	skipStdlib := flag.Bool("no-stdlib", false, "Skip loading the standard library")
	cachePath := flag.String("cache", "", "Path to a persistent compiled-code cache (overrides quill.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quill [options] file...\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and runs each file's top-level forms in order.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quill main.scm            # run one file\n")
		fmt.Fprintf(os.Stderr, "  quill -v a.scm b.scm      # run two files, verbosely\n")
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(paths, *verbose, *skipStdlib, *cachePath); err != nil {
		fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		os.Exit(1)
	}
}

func run(paths []string, verbose, skipStdlib bool, cachePath string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.FindAndLoad(dir)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("config: stdlib.load=%v cache.enabled=%v (dir %s)\n", cfg.Stdlib.Load, cfg.Cache.Enabled, cfg.Dir)
	}

	opts := []quillctx.Option{quillctx.WithConfig(cfg)}
	if skipStdlib {
		opts = append(opts, quillctx.SkipStdlib())
	}
	switch {
	case cachePath != "":
		opts = append(opts, quillctx.WithCachePath(cachePath))
	case cfg.Cache.Enabled:
		opts = append(opts, quillctx.WithCachePath(cfg.CacheDirPath()))
	}

	ctx, err := quillctx.New(opts...)
	if err != nil {
		return fmt.Errorf("initializing context: %w", err)
	}
	defer ctx.Close()

	if verbose {
		fmt.Printf("context %s ready\n", ctx.ID)
	}

	for _, path := range paths {
		if err := runFile(ctx, path, verbose); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func runFile(ctx *quillctx.Context, path string, verbose bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return err
	}

	results, err := ctx.Execute(string(src))
	for _, r := range results {
		if verbose {
			fmt.Printf("%s\n  handles=%v value=%s (%s)\n", r.Source, r.Handles, value.Print(r.Value), r.Duration)
		} else {
			fmt.Println(value.Print(r.Value))
		}
	}
	return err
}
