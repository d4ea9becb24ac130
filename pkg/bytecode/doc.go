// Package bytecode provides the shared Instruction/Code-Store data
// structures described in spec.md §3–4: the Opcode set, the assembled
// Instruction stream, and a handle-addressed, append-only Store of
// compiled CodeBlocks.
//
// Both pkg/compiler (which emits Instructions and assembles labels into
// program counters) and pkg/vm (which fetches CodeBlocks by handle and
// executes their Instructions) depend on this package; it holds no
// compilation or execution logic of its own, only the wire format and
// the Store's lifecycle operations.
//
// CodeBlocks are additionally serializable via Marshal/Unmarshal (CBOR,
// github.com/fxamacker/cbor); pkg/cache's content-addressed,
// SQLite-backed compiled-code cache stores whole compilation units
// through MarshalUnit/UnmarshalUnit.
package bytecode
