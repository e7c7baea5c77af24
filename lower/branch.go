package lower

import (
	"fmt"
)

// An Entry is a single branch table row: when the core reaches SourcePC and
// takes the branch, it continues at TargetPC.
type Entry struct {
	SourcePC uint32
	TargetPC uint32
}

// A DepthError indicates a br or br_if whose relative depth is not
// satisfiable by the blocks open at its position.
type DepthError struct {
	Offset  int
	Depth   uint32
	Nesting int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("wasmic: br depth %d exceeds block nesting %d at offset %d", e.Depth, e.Nesting, e.Offset)
}

// An UnresolvedEndError indicates a branch to a block whose end was never
// found. Structurally valid input cannot produce this.
type UnresolvedEndError struct {
	Offset int
}

func (e *UnresolvedEndError) Error() string {
	return fmt.Sprintf("wasmic: no end found for block at offset %d", e.Offset)
}

type blockKind int

const (
	blockBlock blockKind = iota
	blockLoop
	blockIf
)

// A scope is a live nesting level during the second pass. index is the
// position of the opening instruction's record, the key into the pass-1 end
// offsets. body is where the core lands when it (re-)enters the block: every
// block-open instruction has a fixed 2-byte header of opcode plus block type.
type scope struct {
	kind       blockKind
	index      int
	start      int
	body       int
	elseOffset int
}

// ResolveBranches performs the second resolution pass, producing the branch
// table in discovery order. ends is the pass-1 result for the same records.
//
// The per-record policy:
//
//   - else under an innermost if emits the false-branch jump into the else
//     body; an else under anything other than an if is ignored.
//   - end of an if emits the jump that skips the (possibly empty) else
//     region: from the if when there is no else, from the else otherwise.
//     Ends of blocks and loops emit nothing, as does an end with no open
//     scope.
//   - br and br_if emit one entry each: loops are targeted at their body
//     (backward, re-entering the header), blocks and ifs just past their end
//     (forward).
func ResolveBranches(instrs []Instruction, ends []int) ([]Entry, error) {
	var entries []Entry
	var stack []scope

	for i, instr := range instrs {
		switch instr.Kind {
		case KindBlock, KindLoop, KindIf:
			kind := blockBlock
			switch instr.Kind {
			case KindLoop:
				kind = blockLoop
			case KindIf:
				kind = blockIf
			}
			stack = append(stack, scope{
				kind:       kind,
				index:      i,
				start:      instr.Offset,
				body:       instr.Offset + 2,
				elseOffset: -1,
			})

		case KindElse:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == blockIf {
					top.elseOffset = instr.Offset
					entries = append(entries, Entry{
						SourcePC: uint32(top.start),
						TargetPC: uint32(instr.Offset + 1),
					})
				}
			}

		case KindEnd:
			if len(stack) == 0 {
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if top.kind != blockIf {
				break
			}
			if top.elseOffset >= 0 {
				entries = append(entries, Entry{
					SourcePC: uint32(top.elseOffset),
					TargetPC: uint32(instr.Offset + 1),
				})
			} else {
				entries = append(entries, Entry{
					SourcePC: uint32(top.start),
					TargetPC: uint32(instr.Offset + 1),
				})
			}

		case KindBr, KindBrIf:
			if int(instr.Depth) >= len(stack) {
				return nil, &DepthError{Offset: instr.Offset, Depth: instr.Depth, Nesting: len(stack)}
			}
			target := &stack[len(stack)-1-int(instr.Depth)]

			var targetPC int
			if target.kind == blockLoop {
				targetPC = target.body
			} else {
				end := ends[target.index]
				if end < 0 {
					return nil, &UnresolvedEndError{Offset: target.start}
				}
				targetPC = end + 1
			}

			entries = append(entries, Entry{
				SourcePC: uint32(instr.Offset),
				TargetPC: uint32(targetPC),
			})
		}
	}

	return entries, nil
}
