package stats

import (
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/pgavlin/warp/load"
	"github.com/spf13/cobra"

	"github.com/marlinhw/wasmic/lower"
	"github.com/marlinhw/wasmic/oracle"
)

// rows:
// - program
//     - body size, record counts per kind, branch table size, expected value

type row struct {
	Program       string `csv:"program"`
	Bytes         int    `csv:"bytes"`
	Instructions  int    `csv:"instructions"`
	Blocks        int    `csv:"blocks"`
	Loops         int    `csv:"loops"`
	Ifs           int    `csv:"ifs"`
	Elses         int    `csv:"elses"`
	Ends          int    `csv:"ends"`
	Brs           int    `csv:"brs"`
	BrIfs         int    `csv:"br_ifs"`
	Opaque        int    `csv:"opaque"`
	BranchEntries int    `csv:"branch entries"`
	Expected      int32  `csv:"expected"`
}

func Command() *cobra.Command {
	command := &cobra.Command{
		Use:   "stats [files]",
		Short: "Dump per-program lowering statistics as CSV",
		Long:  "Dump per-program lowering statistics as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("expected at least one argument")
			}

			csvWriter := csv.NewWriter(cmd.OutOrStdout())
			defer csvWriter.Flush()

			encoder := csvutil.NewEncoder(csvWriter)

			for _, path := range args {
				mod, err := load.LoadFile(path)
				if err != nil {
					return err
				}

				body, err := lower.FunctionBody(mod)
				if err != nil {
					return err
				}
				instrs, err := lower.Scan(body)
				if err != nil {
					return err
				}
				branches, err := lower.ResolveBranches(instrs, lower.EndOffsets(instrs))
				if err != nil {
					return err
				}
				expected, err := oracle.Run(mod)
				if err != nil {
					return err
				}

				name := filepath.Base(path)
				name = strings.TrimSuffix(name, filepath.Ext(name))
				r := row{
					Program:       name,
					Bytes:         len(body),
					Instructions:  len(instrs),
					BranchEntries: len(branches),
					Expected:      expected,
				}
				for _, instr := range instrs {
					switch instr.Kind {
					case lower.KindBlock:
						r.Blocks++
					case lower.KindLoop:
						r.Loops++
					case lower.KindIf:
						r.Ifs++
					case lower.KindElse:
						r.Elses++
					case lower.KindEnd:
						r.Ends++
					case lower.KindBr:
						r.Brs++
					case lower.KindBrIf:
						r.BrIfs++
					default:
						r.Opaque++
					}
				}

				if err = encoder.Encode(r); err != nil {
					return err
				}
			}

			return nil
		},
	}

	return command
}
