package cmd

import (
	"os"
	"runtime"

	"github.com/anupcshan/blheli/blheli"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Save the mutable settings of a hex file as a profile",
	Long: `Save every mutable setting of a hex file as a profile that "blheli apply"
can write into other dumps. Profiles ending in .cbor are written as CBOR,
everything else as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var applyCmd = &cobra.Command{
	Use:   "apply PROFILE FILE...",
	Short: "Write a profile's settings into one or more hex files",
	Long: `Write a profile's settings into one or more hex files. Each FILE is written
to FILE plus --suffix; the input files are never modified.

Example:
  blheli apply race.json front-left.hex front-right.hex rear-left.hex rear-right.hex`,
	Args: cobra.MinimumNArgs(2),
	RunE: runApply,
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Output profile (required)")
	//nolint:errcheck
	exportCmd.MarkFlagRequired("out")

	applyCmd.Flags().String("suffix", ".new", "Suffix appended to each output file name")
}

func runExport(cmd *cobra.Command, args []string) error {
	outputFile, _ := cmd.Flags().GetString("out")

	c, err := readCodec(args[0])
	if err != nil {
		return err
	}
	p, err := c.Export()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := blheli.EncodeProfile(f, p, blheli.FormatFor(outputFile)); err != nil {
		return errors.Wrap(err, "encoding profile")
	}

	logrus.WithField("id", p.ID).Infof("Exported %d settings to %s", len(p.Settings), outputFile)
	return f.Close()
}

func loadProfile(path string) (*blheli.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return blheli.DecodeProfile(f, blheli.FormatFor(path))
}

func runApply(cmd *cobra.Command, args []string) error {
	suffix, _ := cmd.Flags().GetString("suffix")
	if suffix == "" {
		return errors.New("--suffix must not be empty")
	}

	p, err := loadProfile(args[0])
	if err != nil {
		return errors.Wrapf(err, "loading profile %s", args[0])
	}

	// Each file gets its own codec.
	eg := new(errgroup.Group)
	eg.SetLimit(runtime.NumCPU())
	for _, path := range args[1:] {
		path := path
		eg.Go(func() error {
			c, err := readCodec(path, blheli.WithVerify())
			if err != nil {
				return err
			}
			if err := c.Apply(p); err != nil {
				return errors.Wrap(err, path)
			}
			if err := writeCodec(c, path+suffix); err != nil {
				return errors.Wrap(err, path)
			}
			logrus.WithFields(logrus.Fields{
				"profile": p.ID,
				"changed": c.Changed(),
			}).Infof("Applied profile: %s -> %s", path, path+suffix)
			return nil
		})
	}
	return eg.Wait()
}
