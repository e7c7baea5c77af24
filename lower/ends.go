package lower

// EndOffsets performs the first resolution pass: a single forward scan that
// pairs every block-open instruction with its matching end. The result maps
// the index of a block-open record in instrs to the byte offset of its end,
// or -1 when the block is never closed.
//
// An end with no open block records nothing.
func EndOffsets(instrs []Instruction) []int {
	ends := make([]int, len(instrs))
	for i := range ends {
		ends[i] = -1
	}

	var open []int
	for i, instr := range instrs {
		switch instr.Kind {
		case KindBlock, KindLoop, KindIf:
			open = append(open, i)
		case KindEnd:
			if len(open) > 0 {
				ends[open[len(open)-1]] = instr.Offset
				open = open[:len(open)-1]
			}
		}
	}
	return ends
}
