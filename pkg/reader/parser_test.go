package reader

import (
	"errors"
	"testing"

	"github.com/chazu/quill/pkg/value"
)

func parseOne(t *testing.T, src string) value.Value {
	t.Helper()
	pkgs := value.NewPackages()
	p := New(pkgs)
	s := NewStream()
	s.Add(src)
	v, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext(%q): %v", src, err)
	}
	return v
}

func TestParseAtoms(t *testing.T) {
	cases := map[string]string{
		"42":     "42",
		"-7":     "-7",
		"3.5":    "3.5",
		"#t":     "#t",
		"#f":     "#f",
		`"hi"`:   `"hi"`,
		"()":     "()",
		"(1 2 3)": "(1 2 3)",
		"(1 . 2)": "(1 . 2)",
	}
	for src, want := range cases {
		got := value.Print(parseOne(t, src))
		if got != want {
			t.Errorf("Print(parse(%q)) = %q, want %q", src, got, want)
		}
	}
}

func TestParseQuote(t *testing.T) {
	got := value.Print(parseOne(t, "'foo"))
	if got != "(quote foo)" {
		t.Errorf("got %q", got)
	}
}

func TestParseEOFOnIncompleteForm(t *testing.T) {
	pkgs := value.NewPackages()
	p := New(pkgs)
	s := NewStream()
	s.Add("(1 2")
	_, err := p.ParseNext(s)
	if !errors.Is(err, ErrEOF) {
		t.Fatalf("expected ErrEOF, got %v", err)
	}
	// Stream must be restored so a later Add can complete the form.
	s.Add(" 3)")
	v, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext after completing form: %v", err)
	}
	if got := value.Print(v); got != "(1 2 3)" {
		t.Errorf("got %q", got)
	}
}

func TestParseUnmatchedCloseParen(t *testing.T) {
	pkgs := value.NewPackages()
	p := New(pkgs)
	s := NewStream()
	s.Add(")")
	if _, err := p.ParseNext(s); err == nil {
		t.Fatal("expected syntax error for unexpected ')'")
	}
}

func TestBackquoteUnquote(t *testing.T) {
	got := value.Print(parseOne(t, "`(1 ,(+ 1 1) 3)"))
	want := "(core:list (quote 1) (+ 1 1) (quote 3))"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBackquoteSplice(t *testing.T) {
	got := value.Print(parseOne(t, "`(1 ,@x 3)"))
	want := "(core:append (core:list (quote 1)) x (core:list (quote 3)))"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPackagePrefixedSymbol(t *testing.T) {
	pkgs := value.NewPackages()
	pkgs.FindOrCreate("util")
	p := New(pkgs)
	s := NewStream()
	s.Add("util:foo")
	v, err := p.ParseNext(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := value.Print(v); got != "util:foo" {
		t.Errorf("got %q", got)
	}
}

func TestUnknownPackagePrefixAutoVivifies(t *testing.T) {
	pkgs := value.NewPackages()
	p := New(pkgs)
	s := NewStream()
	s.Add("bogus:foo")
	v, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	sym := v.SymbolVal()
	if sym.Name != "foo" || sym.Pkg.Name != "bogus" {
		t.Fatalf("expected foo interned in a freshly created bogus package, got %s:%s", sym.Pkg.Name, sym.Name)
	}
	if _, ok := pkgs.Find("bogus"); !ok {
		t.Fatal("expected package-prefixed symbol to create the named package")
	}
}
