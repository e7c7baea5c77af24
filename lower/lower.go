// Package lower flattens a structured WebAssembly function body into the
// representation consumed by the Marlin execution core: a linear byte stream
// addressed by program counter plus an explicit table of
// (source PC, target PC) branch pairs.
//
// Nested block/loop/if scopes have no hardware counterpart, so every branch,
// else, and if is resolved to an absolute jump. Resolution runs in two
// passes over the same instruction records: the first pairs each block-open
// with its end, the second walks the live scopes and emits the table. The
// split exists because a forward branch needs the end offset of a block that
// a single pass would not have finished scanning.
package lower

import (
	"github.com/pgavlin/warp/wasm"
)

// A Program is the flat lowering of one function body.
type Program struct {
	Bytes    []byte
	Branches []Entry
}

// ComputeBranchTable resolves every branch in a function byte stream. The
// result is a pure function of the input: identical bodies produce identical
// tables.
func ComputeBranchTable(body []byte) ([]Entry, error) {
	instrs, err := Scan(body)
	if err != nil {
		return nil, err
	}
	return ResolveBranches(instrs, EndOffsets(instrs))
}

// Lower extracts the first function body of a module and resolves its branch
// table.
func Lower(m *wasm.Module) (Program, error) {
	body, err := FunctionBody(m)
	if err != nil {
		return Program{}, err
	}

	branches, err := ComputeBranchTable(body)
	if err != nil {
		return Program{}, err
	}

	return Program{Bytes: body, Branches: branches}, nil
}
