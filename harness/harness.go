// Package harness builds SystemVerilog test tasks for the Marlin core's
// testbench. Each WAT source becomes one task that loads the lowered
// program and branch table, runs the core, and checks the stack top against
// the reference interpreter's result.
package harness

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pgavlin/warp/load"

	"github.com/marlinhw/wasmic/lower"
	"github.com/marlinhw/wasmic/oracle"
)

// skipNames lists test programs the hardware does not support yet.
//
// TODO: remove "loop" once the core implements backward branch-table hits.
var skipNames = map[string]bool{
	"loop": true,
}

// Skip reports whether harness generation should ignore the named program.
func Skip(name string) bool {
	return skipNames[name]
}

// A Case is one generated hardware test: a named program, its branch table,
// and the expected result.
type Case struct {
	Name     string
	Program  []byte
	Branches []lower.Entry
	Expected int32
}

// Compile builds a Case from a WAT source file.
func Compile(path string) (Case, error) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	mod, err := load.LoadFile(path)
	if err != nil {
		return Case{}, fmt.Errorf("loading %s: %w", path, err)
	}

	program, err := lower.Lower(mod)
	if err != nil {
		return Case{}, fmt.Errorf("lowering %s: %w", path, err)
	}

	expected, err := oracle.Run(mod)
	if err != nil {
		return Case{}, fmt.Errorf("running %s: %w", path, err)
	}

	return Case{
		Name:     name,
		Program:  program.Bytes,
		Branches: program.Branches,
		Expected: expected,
	}, nil
}

// Write renders the test tasks for cases, one run_wat_<name> task each plus
// a run_all_wat_tests task that invokes them in order.
func Write(w io.Writer, cases []Case) error {
	if _, err := fmt.Fprintf(w, "// Auto-generated by wasmic gen-tests. Do not edit.\n\n"); err != nil {
		return err
	}

	for _, c := range cases {
		if _, err := fmt.Fprintf(w, "task run_wat_%s;\n", c.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    do_reset();\n"); err != nil {
			return err
		}

		for i, b := range c.Program {
			if _, err := fmt.Fprintf(w, "    prog_rom[%d] = 8'h%02X;\n", i, b); err != nil {
				return err
			}
		}
		for _, e := range c.Branches {
			if _, err := fmt.Fprintf(w, "    bt_write(32'h%08X, 32'h%08X);\n", e.SourcePC, e.TargetPC); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "    run_program();\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    check_wat(\"%s\", 32'sd%d);\n", c.Name, c.Expected); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "endtask\n\n"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "task run_all_wat_tests;\n"); err != nil {
		return err
	}
	for _, c := range cases {
		if _, err := fmt.Fprintf(w, "    run_wat_%s();\n", c.Name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "endtask\n")
	return err
}
