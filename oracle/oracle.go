// Package oracle computes the expected result of a test program by running
// it on the warp reference interpreter. The result is only used to check the
// hardware's output; it never influences lowering.
package oracle

import (
	"fmt"

	"github.com/pgavlin/warp/exec"
	"github.com/pgavlin/warp/interpreter"
	"github.com/pgavlin/warp/wasm"
)

// Run instantiates a module and calls its exported main, which must have
// signature () -> i32.
func Run(m *wasm.Module) (result int32, err error) {
	store := exec.NewStore(exec.MapResolver{
		"main": interpreter.NewModuleDefinition(m),
	})

	mod, err := store.InstantiateModule("main")
	if err != nil {
		return 0, fmt.Errorf("instantiating module: %w", err)
	}

	main, err := mod.GetFunction("main")
	if err != nil {
		return 0, fmt.Errorf("module must export a function 'main' with signature () -> i32: %w", err)
	}

	sig := main.GetSignature()
	if len(sig.ParamTypes) != 0 || len(sig.ReturnTypes) != 1 || sig.ReturnTypes[0] != wasm.ValueTypeI32 {
		return 0, fmt.Errorf("exported function 'main' must have signature () -> i32")
	}

	defer func() {
		if x := recover(); x != nil {
			if trap, ok := x.(exec.Trap); ok {
				err = fmt.Errorf("executing main: %w", trap)
				return
			}
			panic(x)
		}
	}()

	thread := exec.NewThread(0)
	defer thread.Close()

	returns := make([]uint64, 1)
	main.UncheckedCall(&thread, nil, returns)
	return int32(returns[0]), nil
}
