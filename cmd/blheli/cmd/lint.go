package cmd

import (
	"fmt"
	"os"

	"github.com/anupcshan/blheli/blheli"
	"github.com/anupcshan/blheli/intelhex"
	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint FILE",
	Short: "Check every record of a hex file",
	Long: `Check every record of a hex file for structure and checksum, and that the
file ends with an end-of-file record. Exits non-zero if anything is wrong.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		problems := intelhex.Lint(blheli.SplitLines(data))
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %v\n", args[0], p.Index+1, p.Err)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d problems in %s", len(problems), args[0])
		}
		return nil
	},
}
