package value

// Packages is the process-scoped (in practice, Context-scoped — see
// pkg/quillctx) registry of every interned package plus the single
// "current" package the reader interns new bare symbols into, per
// spec.md §3's "Packages registry".
type Packages struct {
	Global   *Package // the unnamed package
	Keywords *Package // name is the empty string; :name symbols live here
	Core     *Package // primitives; auto-imported by every user package

	byName  map[string]*Package
	current *Package
}

// NewPackages builds a fresh registry in its baseline state: Global,
// Keywords, and Core exist, every future user package auto-imports Core,
// and Global is current.
func NewPackages() *Packages {
	p := &Packages{
		byName: make(map[string]*Package),
	}
	p.Global = NewPackage("")
	p.Core = NewPackage("core")
	p.Keywords = NewPackage("")
	p.Keywords.IsKeywords = true

	// Global is a user package like any other for import purposes (spec.md
	// §8 scenario 1 runs `(+ 1 2)` with no package-set beforehand, which
	// only resolves if the default current package already sees core).
	p.Global.Import(p.Core)

	p.byName["core"] = p.Core
	p.current = p.Global
	return p
}

// Current returns the package the parser interns bare symbols into.
func (p *Packages) Current() *Package { return p.current }

// SetCurrent switches the current package by name, creating it (and
// auto-importing Core) if it does not exist. name == "" switches back to
// the Global package, matching scenario 7 of spec.md §8
// ("(package-set nil)").
func (p *Packages) SetCurrent(name string) *Package {
	if name == "" {
		p.current = p.Global
		return p.current
	}
	p.current = p.FindOrCreate(name)
	return p.current
}

// FindOrCreate returns the named user package, creating it (auto-importing
// Core) if absent. name == "" returns Global rather than creating a
// second, distinct empty-named package, so that a symbol interned in the
// unnamed package round-trips correctly through anything (pkg/codehash,
// pkg/cache) that resolves packages by name alone.
func (p *Packages) FindOrCreate(name string) *Package {
	if name == "" {
		return p.Global
	}
	if pkg, ok := p.byName[name]; ok {
		return pkg
	}
	pkg := NewPackage(name)
	pkg.Import(p.Core)
	p.byName[name] = pkg
	return pkg
}

// Find looks up a named package without creating one.
func (p *Packages) Find(name string) (*Package, bool) {
	pkg, ok := p.byName[name]
	return pkg, ok
}

// Names returns every user package name known to the registry (excludes
// Global, Keywords, and Core, which are reached via their own fields).
func (p *Packages) Names() []string {
	names := make([]string, 0, len(p.byName))
	for n := range p.byName {
		if n == p.Core.Name {
			continue
		}
		names = append(names, n)
	}
	return names
}
