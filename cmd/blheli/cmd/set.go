package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/anupcshan/blheli/blheli"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set FILE NAME=VALUE...",
	Short: "Change settings and write the result to a new hex file",
	Long: `Change one or more settings and write the patched hex file.

Enumerated settings take either the numeric code or the label shown by
"blheli choices NAME". PPM throttle settings take microseconds.

Example:
  blheli set esc.hex closed-loop=Off ppm-min-throttle=1140 -o esc-new.hex`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringP("out", "o", "", "Output hex file (required)")
	setCmd.Flags().Bool("verify", true, "Re-parse the output and check the settings bytes before writing")
	//nolint:errcheck
	setCmd.MarkFlagRequired("out")
}

// parseAssignments splits NAME=VALUE arguments, keeping their order.
func parseAssignments(args []string) ([][2]string, error) {
	assignments := make([][2]string, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected NAME=VALUE, got %q", arg)
		}
		assignments = append(assignments, [2]string{name, value})
	}
	return assignments, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	outputFile, _ := cmd.Flags().GetString("out")
	verify, _ := cmd.Flags().GetBool("verify")

	assignments, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	var opts []blheli.Option
	if verify {
		opts = append(opts, blheli.WithVerify())
	}
	c, err := readCodec(args[0], opts...)
	if err != nil {
		return err
	}

	for _, a := range assignments {
		if err := c.SetText(a[0], a[1]); err != nil {
			return err
		}
	}

	if err := writeCodec(c, outputFile); err != nil {
		return err
	}

	var size string
	if fi, err := os.Stat(outputFile); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	logrus.WithFields(logrus.Fields{
		"changed": c.Changed(),
		"size":    size,
	}).Infof("Wrote settings: %s -> %s", args[0], outputFile)
	return nil
}
