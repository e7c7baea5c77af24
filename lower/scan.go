package lower

import (
	"errors"
	"fmt"
	"io"

	"github.com/pgavlin/warp/wasm/code"
	"github.com/pgavlin/warp/wasm/leb128"
	"github.com/willf/bitset"
)

// ErrInvalidInstruction indicates an opcode byte that is not part of the WASM
// MVP instruction set.
var ErrInvalidInstruction = errors.New("wasmic: invalid instruction")

// A DecodeError indicates that a function body could not be fully decoded
// into instructions.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wasmic: malformed instruction at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Kind classifies a decoded instruction. The lowering passes only interpret
// the structural opcodes; everything else is KindOpaque.
type Kind int

const (
	KindOpaque Kind = iota
	KindBlock
	KindLoop
	KindIf
	KindElse
	KindEnd
	KindBr
	KindBrIf
)

// An Instruction is an offset-tagged instruction record. Offset is the byte
// offset of the instruction's opcode within the function body, which is the
// program counter the hardware core uses to address it. Depth is only
// meaningful for KindBr and KindBrIf.
type Instruction struct {
	Offset int
	Kind   Kind
	Depth  uint32
}

// soloOps holds every valid opcode that carries no immediate and is not
// otherwise handled by scanInstruction.
var soloOps = func() *bitset.BitSet {
	b := bitset.New(256)
	b.Set(code.OpUnreachable)
	b.Set(code.OpNop)
	b.Set(code.OpReturn)
	b.Set(code.OpDrop)
	b.Set(code.OpSelect)
	for op := uint(code.OpI32Eqz); op <= code.OpI64Extend32S; op++ {
		b.Set(op)
	}
	return b
}()

// Scan decodes a function body into instruction records in increasing offset
// order. Operand bytes are consumed but not separately recorded.
func Scan(body []byte) ([]Instruction, error) {
	instrs := make([]Instruction, 0, len(body)/2)
	rest := body
	for len(rest) > 0 {
		offset := len(body) - len(rest)
		instr, r, err := scanInstruction(offset, rest)
		if err != nil {
			return nil, &DecodeError{Offset: offset, Err: err}
		}
		instrs = append(instrs, instr)
		rest = r
	}
	return instrs, nil
}

func scanInstruction(offset int, body []byte) (Instruction, []byte, error) {
	opcode := body[0]
	body = body[1:]

	instr := Instruction{Offset: offset, Kind: KindOpaque}

	var err error
	switch opcode {
	case code.OpBlock:
		instr.Kind = KindBlock
		if body, err = skipBlockType(body); err != nil {
			return Instruction{}, nil, err
		}
	case code.OpLoop:
		instr.Kind = KindLoop
		if body, err = skipBlockType(body); err != nil {
			return Instruction{}, nil, err
		}
	case code.OpIf:
		instr.Kind = KindIf
		if body, err = skipBlockType(body); err != nil {
			return Instruction{}, nil, err
		}
	case code.OpElse:
		instr.Kind = KindElse
	case code.OpEnd:
		instr.Kind = KindEnd
	case code.OpBr, code.OpBrIf:
		depth, read, err := leb128.GetVarUint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		if opcode == code.OpBr {
			instr.Kind = KindBr
		} else {
			instr.Kind = KindBrIf
		}
		instr.Depth, body = depth, body[read:]
	case code.OpBrTable:
		numLabels, read, err := leb128.GetVarUint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]

		// Labels plus the default label.
		for i := 0; i < int(numLabels)+1; i++ {
			if _, read, err = leb128.GetVarUint32(body); err != nil {
				return Instruction{}, nil, err
			}
			body = body[read:]
		}
	case code.OpCall, code.OpLocalGet, code.OpLocalSet, code.OpLocalTee, code.OpGlobalGet, code.OpGlobalSet:
		// Index encoding
		_, read, err := leb128.GetVarUint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]
	case code.OpCallIndirect:
		_, read, err := leb128.GetVarUint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]

		if len(body) == 0 {
			return Instruction{}, nil, io.ErrUnexpectedEOF
		}
		if body[0] != 0x00 {
			return Instruction{}, nil, ErrInvalidInstruction
		}
		body = body[1:]
	case code.OpI32Load, code.OpI64Load, code.OpF32Load, code.OpF64Load, code.OpI32Load8S, code.OpI32Load8U, code.OpI32Load16S, code.OpI32Load16U, code.OpI64Load8S, code.OpI64Load8U, code.OpI64Load16S, code.OpI64Load16U, code.OpI64Load32S, code.OpI64Load32U, code.OpI32Store, code.OpI64Store, code.OpF32Store, code.OpF64Store, code.OpI32Store8, code.OpI32Store16, code.OpI64Store8, code.OpI64Store16, code.OpI64Store32:
		// Memory encoding: align then offset
		_, read, err := leb128.GetVarUint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]

		if _, read, err = leb128.GetVarUint32(body); err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]
	case code.OpMemorySize, code.OpMemoryGrow:
		if len(body) == 0 {
			return Instruction{}, nil, io.ErrUnexpectedEOF
		}
		if body[0] != 0x00 {
			return Instruction{}, nil, ErrInvalidInstruction
		}
		body = body[1:]
	case code.OpI32Const:
		_, read, err := leb128.GetVarint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]
	case code.OpI64Const:
		_, read, err := leb128.GetVarint64(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]
	case code.OpF32Const:
		if len(body) < 4 {
			return Instruction{}, nil, io.ErrUnexpectedEOF
		}
		body = body[4:]
	case code.OpF64Const:
		if len(body) < 8 {
			return Instruction{}, nil, io.ErrUnexpectedEOF
		}
		body = body[8:]
	case code.OpPrefix:
		// Saturating truncation encoding
		_, read, err := leb128.GetVarUint32(body)
		if err != nil {
			return Instruction{}, nil, err
		}
		body = body[read:]
	default:
		if !soloOps.Test(uint(opcode)) {
			return Instruction{}, nil, ErrInvalidInstruction
		}
	}

	return instr, body, nil
}

// skipBlockType consumes a block-type immediate. Value types and the empty
// block type are a single byte; type indices are a signed LEB128.
func skipBlockType(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	switch body[0] {
	case 0x40, 0x7f, 0x7e, 0x7d, 0x7c:
		return body[1:], nil
	default:
		_, read, err := leb128.GetVarint64(body)
		if err != nil {
			return nil, err
		}
		return body[read:], nil
	}
}
