// Package hexfile renders lowering artifacts in the text formats the
// hardware-side loader reads. The shapes are bit-exact contracts: two
// uppercase hex digits per program byte, two 8-digit uppercase hex fields
// per branch entry, and a decimal expected value, one line each.
package hexfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/marlinhw/wasmic/lower"
)

// WriteProgram writes one program byte per line in stream order.
func WriteProgram(w io.Writer, program []byte) error {
	for _, b := range program {
		if _, err := fmt.Fprintf(w, "%02X\n", b); err != nil {
			return err
		}
	}
	return nil
}

// WriteBranchTable writes one entry per line in discovery order.
func WriteBranchTable(w io.Writer, entries []lower.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%08X %08X\n", e.SourcePC, e.TargetPC); err != nil {
			return err
		}
	}
	return nil
}

// WriteExpected writes the oracle's result as decimal text.
func WriteExpected(w io.Writer, value int32) error {
	_, err := fmt.Fprintf(w, "%d\n", value)
	return err
}

// WriteProgramFile writes a program byte file at path.
func WriteProgramFile(path string, program []byte) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteProgram(w, program)
	})
}

// WriteBranchTableFile writes a branch table file at path.
func WriteBranchTableFile(path string, entries []lower.Entry) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteBranchTable(w, entries)
	})
}

// WriteExpectedFile writes an expected value file at path.
func WriteExpectedFile(path string, value int32) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteExpected(w, value)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
