package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print every setting in a hex file",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := readCodec(args[0])
	if err != nil {
		return err
	}
	settings, err := c.Settings()
	if err != nil {
		return err
	}

	name := color.New(color.FgCyan).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	// Two settings per row.
	for i := 0; i < len(settings); i += 2 {
		for j := i; j < i+2 && j < len(settings); j++ {
			s := settings[j]
			value := s.Value.String()
			if s.Err != nil {
				value = bad(fmt.Sprintf("<0x%02x?>", s.Value.Raw))
			}
			fmt.Fprintf(w, "%s\t%s\t", name(s.Name), value)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
