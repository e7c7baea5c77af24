package lower

import (
	"errors"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"
)

// ErrNoCodeSection indicates a module that carries no function bodies.
var ErrNoCodeSection = errors.New("wasmic: no code section found in module")

// FunctionBody returns the operator bytes of the first function in a module.
// The locals declarations are not part of the returned stream: its first byte
// is the first real instruction, at PC 0.
//
// The hardware core has no implicit end-of-function semantics, so a trailing
// structural end opcode is rewritten to an explicit return.
func FunctionBody(m *wasm.Module) ([]byte, error) {
	if m.Code == nil || len(m.Code.Bodies) == 0 {
		return nil, ErrNoCodeSection
	}

	body := m.Code.Bodies[0].Code
	stream := make([]byte, len(body))
	copy(stream, body)

	if n := len(stream); n > 0 && stream[n-1] == code.OpEnd {
		stream[n-1] = code.OpReturn
	}
	return stream, nil
}
