package gentests

import (
	"bufio"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marlinhw/wasmic/harness"
)

func Command() *cobra.Command {
	var watDir string
	var outputPath string

	command := &cobra.Command{
		Use:   "gen-tests",
		Short: "Generate a SystemVerilog header with test tasks for all WAT files",
		Long:  "Generate a SystemVerilog header with test tasks for all WAT files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watDir == "" || outputPath == "" {
				return errors.New("both --wat-dir and --output must be specified")
			}

			// ioutil.ReadDir sorts by filename, which fixes the order of the
			// generated tasks.
			entries, err := ioutil.ReadDir(watDir)
			if err != nil {
				return err
			}

			var cases []harness.Case
			for _, entry := range entries {
				if entry.IsDir() || filepath.Ext(entry.Name()) != ".wat" {
					continue
				}
				name := strings.TrimSuffix(entry.Name(), ".wat")
				if harness.Skip(name) {
					continue
				}

				c, err := harness.Compile(filepath.Join(watDir, entry.Name()))
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d bytes, %d branches, expected=%d\n",
					c.Name, len(c.Program), len(c.Branches), c.Expected)
				cases = append(cases, c)
			}

			if dir := filepath.Dir(outputPath); dir != "" {
				if err = os.MkdirAll(dir, 0755); err != nil {
					return err
				}
			}

			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			defer f.Close()

			w := bufio.NewWriter(f)
			if err = harness.Write(w, cases); err != nil {
				return err
			}
			if err = w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s with %d WAT test(s)\n", outputPath, len(cases))
			return nil
		},
	}

	command.PersistentFlags().StringVar(&watDir, "wat-dir", "", "the directory containing WAT files")
	command.PersistentFlags().StringVar(&outputPath, "output", "", "the path for the output .svh file")

	return command
}
