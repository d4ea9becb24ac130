package compiler

import "github.com/chazu/quill/pkg/value"

// expandMacroCall runs macro's body through the VM with argForms (the
// unevaluated cdr of the call site) as its arguments, per spec.md §4.3.
func (c *Compiler) expandMacroCall(macro *value.Macro, argForms value.Value) (value.Value, error) {
	if c.Exec == nil {
		return value.Nil, compileErrorf("defmacro %s: no VM wired for macro expansion", macro.Name)
	}
	args, err := value.ListToSlice(argForms)
	if err != nil {
		return value.Nil, compileErrorf("macro call to %s: improper argument list", macro.Name)
	}
	return c.Exec.Execute(macro.Body, args)
}

// ExpandOnce performs a single macro expansion step on form if its head
// names a macro, otherwise returns form unchanged. It implements the `mx1`
// primitive's reflection hook (spec.md §4.5) via pkg/primitives.Expander.
func (c *Compiler) ExpandOnce(form value.Value) (value.Value, error) {
	if !form.IsCons() {
		return form, nil
	}
	cons := form.ConsVal()
	sym, ok := headSymbol(cons.Car)
	if !ok {
		return form, nil
	}
	macro, ok := sym.Pkg.LookupMacro(sym)
	if !ok {
		return form, nil
	}
	return c.expandMacroCall(macro, cons.Cdr)
}

// ExpandFull repeatedly expands form's head, then recurses into every
// sub-expression, until a full pass produces no further change — the
// `mx` primitive's reflection hook (spec.md §4.5).
func (c *Compiler) ExpandFull(form value.Value) (value.Value, error) {
	for {
		expanded, err := c.ExpandOnce(form)
		if err != nil {
			return value.Nil, err
		}
		if value.Equal(expanded, form) {
			break
		}
		form = expanded
	}
	if !form.IsCons() {
		return form, nil
	}
	cons := form.ConsVal()
	car, err := c.ExpandFull(cons.Car)
	if err != nil {
		return value.Nil, err
	}
	cdr, err := c.ExpandFull(cons.Cdr)
	if err != nil {
		return value.Nil, err
	}
	if value.Equal(car, cons.Car) && value.Equal(cdr, cons.Cdr) {
		return form, nil
	}
	return value.NewCons(car, cdr), nil
}
