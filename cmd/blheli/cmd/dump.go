package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Hex dump the raw settings block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readCodec(args[0])
		if err != nil {
			return err
		}
		span, err := c.Span()
		if err != nil {
			return err
		}
		block, err := c.Block()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s settings block at 0x%04X, lines %d-%d, %d bytes\n",
			c.Family(), c.Family().StartAddress(), span.FirstLine+1, span.LastLine+1, len(block))
		spew.Fdump(out, block)
		return nil
	},
}
