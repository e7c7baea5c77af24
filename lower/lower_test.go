package lower

import (
	"errors"
	"strings"
	"testing"

	"github.com/pgavlin/warp/load"
	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerWAT(t *testing.T, source string) Program {
	mod, err := load.LoadModule(strings.NewReader(source))
	require.NoError(t, err)

	program, err := Lower(mod)
	require.NoError(t, err)
	return program
}

func TestLowerAdd(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32)
		i32.const 10
		i32.const 20
		i32.add))`)

	assert.Len(t, program.Branches, 0)
	assert.Equal(t, byte(code.OpReturn), program.Bytes[len(program.Bytes)-1])
}

func TestLowerExpr(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32)
		i32.const 3
		i32.const 5
		i32.add
		i32.const 2
		i32.mul))`)

	assert.Len(t, program.Branches, 0)
}

func TestLowerSub(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32)
		i32.const 20
		i32.const 7
		i32.sub))`)

	assert.Len(t, program.Branches, 0)
}

func TestLowerBlockBr(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32)
		block
		  br 0
		end
		i32.const 99))`)

	// block@0, br@2, end@4, i32.const@5, return@8
	require.Len(t, program.Branches, 1)
	assert.Equal(t, Entry{SourcePC: 2, TargetPC: 5}, program.Branches[0])
	assert.Greater(t, program.Branches[0].TargetPC, program.Branches[0].SourcePC)
}

func TestLowerIfElse(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32)
		i32.const 1
		if (result i32)
		  i32.const 42
		else
		  i32.const 0
		end))`)

	// i32.const@0, if@2, i32.const@4, else@6, i32.const@7, end@9, return@10
	require.Len(t, program.Branches, 2)
	assert.Equal(t, Entry{SourcePC: 2, TargetPC: 7}, program.Branches[0])
	assert.Equal(t, Entry{SourcePC: 6, TargetPC: 10}, program.Branches[1])
	assert.Greater(t, program.Branches[1].TargetPC, program.Branches[0].TargetPC)
}

func TestLowerLoop(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32) (local i32)
		loop
		  local.get 0
		  i32.const 1
		  i32.add
		  local.set 0
		  local.get 0
		  i32.const 5
		  i32.lt_s
		  br_if 0
		end
		local.get 0))`)

	// The loop target is the loop body, a backward branch.
	require.Len(t, program.Branches, 1)
	assert.Equal(t, Entry{SourcePC: 14, TargetPC: 2}, program.Branches[0])
	assert.LessOrEqual(t, program.Branches[0].TargetPC, program.Branches[0].SourcePC)
}

func TestLowerNestedBlocks(t *testing.T) {
	program := lowerWAT(t, `(module (func (export "main") (result i32)
		block
		  block
		    br 1
		  end
		end
		i32.const 7))`)

	// block@0, block@2, br@4, end@6, end@7: br 1 lands past the outer end.
	require.Len(t, program.Branches, 1)
	assert.Equal(t, Entry{SourcePC: 4, TargetPC: 8}, program.Branches[0])
}

func TestLowerDeterministic(t *testing.T) {
	const source = `(module (func (export "main") (result i32)
		i32.const 0
		if (result i32)
		  i32.const 1
		else
		  block
		    br 0
		  end
		  i32.const 2
		end))`

	first := lowerWAT(t, source)
	second := lowerWAT(t, source)

	assert.Equal(t, first.Bytes, second.Bytes)
	assert.Equal(t, first.Branches, second.Branches)
}

func TestFunctionBodyRewritesEnd(t *testing.T) {
	mod, err := load.LoadModule(strings.NewReader(`(module (func (export "main") (result i32)
		i32.const 1))`))
	require.NoError(t, err)

	body, err := FunctionBody(mod)
	require.NoError(t, err)

	require.NotEmpty(t, body)
	assert.NotEqual(t, byte(code.OpEnd), body[len(body)-1])
	assert.Equal(t, byte(code.OpReturn), body[len(body)-1])

	// The module itself is untouched.
	raw := mod.Code.Bodies[0].Code
	assert.Equal(t, byte(code.OpEnd), raw[len(raw)-1])
}

func TestFunctionBodyNoCodeSection(t *testing.T) {
	_, err := FunctionBody(wasm.NewModule())
	assert.True(t, errors.Is(err, ErrNoCodeSection))
}
