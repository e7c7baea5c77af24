package compile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgavlin/warp/load"
	"github.com/spf13/cobra"

	"github.com/marlinhw/wasmic/hexfile"
	"github.com/marlinhw/wasmic/lower"
	"github.com/marlinhw/wasmic/oracle"
)

func Command() *cobra.Command {
	var outDir string

	command := &cobra.Command{
		Use:   "compile [file]",
		Short: "Lower a WAT file to hex files for the Marlin core",
		Long:  "Lower a WAT file to hex files for the Marlin core",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}

			mod, err := load.LoadFile(args[0])
			if err != nil {
				return err
			}

			program, err := lower.Lower(mod)
			if err != nil {
				return err
			}

			expected, err := oracle.Run(mod)
			if err != nil {
				return err
			}

			if err = os.MkdirAll(outDir, 0755); err != nil {
				return err
			}
			if err = hexfile.WriteProgramFile(filepath.Join(outDir, "prog.hex"), program.Bytes); err != nil {
				return err
			}
			if err = hexfile.WriteBranchTableFile(filepath.Join(outDir, "branch.hex"), program.Branches); err != nil {
				return err
			}
			if err = hexfile.WriteExpectedFile(filepath.Join(outDir, "expected.txt"), expected); err != nil {
				return err
			}

			baseName := filepath.Base(args[0])
			baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, %d branch entries, expected=%d\n",
				baseName, len(program.Bytes), len(program.Branches), expected)

			return nil
		},
	}

	command.PersistentFlags().StringVar(&outDir, "out-dir", ".", "the output directory for the hex files")

	return command
}
