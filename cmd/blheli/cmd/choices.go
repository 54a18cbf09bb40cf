package cmd

import (
	"fmt"

	"github.com/anupcshan/blheli/blheli"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var choicesCmd = &cobra.Command{
	Use:   "choices [NAME]",
	Short: "List settings, or the accepted values of one setting",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChoices,
}

func runChoices(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	c := blheli.New()

	if len(args) == 0 {
		for _, name := range c.ListFieldNames() {
			f, _ := c.Describe(name)
			fmt.Fprintf(out, "%-24s %s\n", name, f.Encoding)
		}
		return nil
	}

	f, err := c.Describe(args[0])
	if err != nil {
		return err
	}

	code := color.New(color.FgMagenta).SprintFunc()
	switch f.Encoding {
	case blheli.EnumMap:
		choices, _ := c.ConstraintsFor(f.Name)
		for _, k := range choices.Codes() {
			fmt.Fprintf(out, "%s  %s\n", code(k), choices[k])
		}
	case blheli.Affine:
		fmt.Fprintf(out, "integer from %d to %d in steps of %d\n", f.Bias, 0xFF*f.Scale+f.Bias, f.Scale)
	case blheli.RawInt:
		fmt.Fprintln(out, "integer from 0 to 255")
	default:
		fmt.Fprintln(out, "read-only")
	}
	return nil
}
