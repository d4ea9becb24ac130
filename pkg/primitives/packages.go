package primitives

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

func wrapPackage(p *value.Package) value.Value {
	name := p.Name
	if name == "" {
		name = "(global)"
	}
	return value.FromObject(&value.Object{TypeName: "package", Native: p, String: name})
}

func unwrapPackage(v value.Value) (*value.Package, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("primitives: expected a package object, got %s", value.Print(v))
	}
	obj := v.ObjectVal()
	pkg, ok := obj.Native.(*value.Package)
	if !ok {
		return nil, fmt.Errorf("primitives: expected a package object, got %s", obj.TypeName)
	}
	return pkg, nil
}

func registerPackageControl(t *Table) {
	t.Register(&Primitive{Name: "package-set", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		name := ""
		if a[0].IsString() {
			name = a[0].StringVal()
		} else if !a[0].IsNil() {
			return value.Nil, fmt.Errorf("primitives: package-set: expected a string or nil")
		}
		t.Packages.SetCurrent(name)
		// package-set echoes its own argument back verbatim (spec.md §8
		// scenario 7: `(package-set "foo")` prints `"foo"`, `(package-set
		// nil)` prints `()`), not the package it switched to.
		return a[0], nil
	}})
	t.Register(&Primitive{Name: "package-get", MinArity: 0, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return wrapPackage(t.Packages.Current()), nil
	}})
	t.Register(&Primitive{Name: "package-get", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if !a[0].IsString() {
			return value.Nil, fmt.Errorf("primitives: package-get: expected a string")
		}
		return wrapPackage(t.Packages.FindOrCreate(a[0].StringVal())), nil
	}})
	t.Register(&Primitive{Name: "package-import", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if !a[0].IsString() {
			return value.Nil, fmt.Errorf("primitives: package-import: expected a package name string")
		}
		source := t.Packages.FindOrCreate(a[0].StringVal())
		t.Packages.Current().Import(source)
		return value.Nil, nil
	}})
	t.Register(&Primitive{Name: "package-imports", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		pkg, err := unwrapPackage(a[0])
		if err != nil {
			return value.Nil, err
		}
		imports := pkg.Imports()
		out := make([]value.Value, len(imports))
		for i, imp := range imports {
			out[i] = wrapPackage(imp)
		}
		return value.List(out...), nil
	}})
	t.Register(&Primitive{Name: "package-export", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		pkg, err := unwrapPackage(a[0])
		if err != nil {
			return value.Nil, err
		}
		if !a[1].IsSymbol() {
			return value.Nil, fmt.Errorf("primitives: package-export: expected a symbol")
		}
		sym := a[1].SymbolVal()
		if err := pkg.Export(sym); err != nil {
			return value.Nil, err
		}
		return a[1], nil
	}})
	t.Register(&Primitive{Name: "package-exports", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		pkg, err := unwrapPackage(a[0])
		if err != nil {
			return value.Nil, err
		}
		var out []value.Value
		for _, sym := range pkg.ExportedSymbols() {
			out = append(out, value.FromSymbol(sym))
		}
		return value.List(out...), nil
	}})
}
