package compiler

// State is the (used, final) pair spec.md §4.3 threads through every
// recursive compile call. It drives tail-call elimination and pop/return
// emission.
//
// spec.md's own descriptive paragraph and its opcode-emission table
// disagree about which polarity of "final" means "tail position" — the
// paragraph assigns tail position to final=false, the table's "RETURN_VAL
// if final" phrasing only makes sense if final=true means tail position.
// This implementation follows the table, since it is the operationally
// load-bearing half of the spec (see DESIGN.md, "compiler state
// polarity"): Final=true means "nothing follows this form in the
// enclosing closure — emit RETURN_VAL (or a tail JMP_CLOSURE) here."
type State struct {
	Used  bool
	Final bool
}

// discard is the state for a middle form of a begin: its value is thrown
// away and more code follows.
var discard = State{Used: false, Final: false}

// nonTail is the state for a subexpression whose value feeds another
// expression (an argument, an operator, a predicate): it must leave a
// value on the stack, but is never itself a return point.
var nonTail = State{Used: true, Final: false}

// tail is the state for the last form of a closure body, or the whole of
// a top-level form: it must leave a value that becomes the return value.
var tail = State{Used: true, Final: true}
