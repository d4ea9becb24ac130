package reader

import "github.com/chazu/quill/pkg/value"

// backquoteRewrite implements the spec.md §4.2 backquote transform on the
// intermediate form produced by parseBackquoted (where `,X` / `,@X` have
// already become `(unquote X)` / `(unquote-splice X)` markers).
func backquoteRewrite(pkgs *value.Packages, form value.Value) value.Value {
	if !form.IsCons() {
		return quoteForm(pkgs, "quote", form)
	}
	if head, ok := headSymbolName(form); ok && head == "unquote" {
		return second(form)
	}
	return backquoteList(pkgs, form)
}

// headSymbolName returns the name of form's car if it is a symbol.
func headSymbolName(form value.Value) (string, bool) {
	if !form.IsCons() {
		return "", false
	}
	car := form.ConsVal().Car
	if !car.IsSymbol() {
		return "", false
	}
	return car.SymbolVal().Name, true
}

// backquoteList handles the "otherwise" branch: `(a b c …)` rewrites to
// `(append [a] [b] [c] …)`, collapsing to a single `(list …)` when every
// bracketed argument turned out to be a `(list …)` form.
func backquoteList(pkgs *value.Packages, form value.Value) value.Value {
	if head, ok := headSymbolName(form); ok && head == "unquote" {
		return second(form)
	}

	var appendArgs []value.Value
	cur := form
	for cur.IsCons() {
		c := cur.ConsVal()
		if !c.Cdr.IsCons() && !c.Cdr.IsNil() {
			// dotted tail: (a . b) — treat the tail as its own bracketed element.
			appendArgs = append(appendArgs, bracket(pkgs, c.Car))
			appendArgs = append(appendArgs, backquoteRewrite(pkgs, c.Cdr))
			cur = value.Nil
			break
		}
		appendArgs = append(appendArgs, bracket(pkgs, c.Car))
		cur = c.Cdr
	}

	if allListForms(appendArgs) {
		var elems []value.Value
		for _, a := range appendArgs {
			elems = append(elems, listArgs(a)...)
		}
		return listForm(pkgs, elems)
	}
	return applyForm(pkgs, "append", appendArgs)
}

// bracket implements the `[A]` transform used for each list element.
func bracket(pkgs *value.Packages, a value.Value) value.Value {
	if head, ok := headSymbolName(a); ok {
		switch head {
		case "unquote":
			return listForm(pkgs, []value.Value{second(a)})
		case "unquote-splice":
			return second(a)
		}
	}
	return listForm(pkgs, []value.Value{backquoteRewrite(pkgs, a)})
}

func second(form value.Value) value.Value {
	return form.ConsVal().Cdr.ConsVal().Car
}

func listForm(pkgs *value.Packages, elems []value.Value) value.Value {
	return applyForm(pkgs, "list", elems)
}

func applyForm(pkgs *value.Packages, head string, args []value.Value) value.Value {
	sym := value.FromSymbol(pkgs.Core.Intern(head))
	return value.NewCons(sym, value.List(args...))
}

func allListForms(forms []value.Value) bool {
	if len(forms) == 0 {
		return false
	}
	for _, f := range forms {
		head, ok := headSymbolName(f)
		if !ok || head != "list" {
			return false
		}
	}
	return true
}

func listArgs(listForm value.Value) []value.Value {
	elems, err := value.ListToSlice(listForm.ConsVal().Cdr)
	if err != nil {
		return nil
	}
	return elems
}
