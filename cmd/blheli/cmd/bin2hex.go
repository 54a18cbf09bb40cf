package cmd

import (
	"bytes"
	"os"

	"github.com/anupcshan/blheli/blheli"
	"github.com/anupcshan/blheli/intelhex"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var bin2hexCmd = &cobra.Command{
	Use:   "bin2hex FILE",
	Short: "Convert a flat binary image into a hex file",
	Long: `Convert a flat binary image, such as one produced by "blheli hex2bin", back
into Intel HEX. The image is placed at --base.`,
	Args: cobra.ExactArgs(1),
	RunE: runBin2Hex,
}

func init() {
	bin2hexCmd.Flags().StringP("out", "o", "", "Output hex file (required)")
	bin2hexCmd.Flags().Uint32("base", 0, "Address of the first byte of the image")
	bin2hexCmd.Flags().Int("record-size", blheli.RecordSize, "Data bytes per record")
	//nolint:errcheck
	bin2hexCmd.MarkFlagRequired("out")
}

func runBin2Hex(cmd *cobra.Command, args []string) error {
	outputFile, _ := cmd.Flags().GetString("out")
	base, _ := cmd.Flags().GetUint32("base")
	width, _ := cmd.Flags().GetInt("record-size")

	image, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if uint64(base)+uint64(len(image)) > 1<<32 {
		return errors.Errorf("%s image does not fit above 0x%08X", humanize.Bytes(uint64(len(image))), base)
	}

	records := intelhex.DataRecords(base, len(image), width)
	lines, err := intelhex.NewEncoder(bytes.NewReader(image), records).EncodeRecords()
	if err != nil {
		return errors.Wrap(err, "encoding records")
	}
	eof, err := intelhex.RenderLine(0, intelhex.RecordEOF, nil)
	if err != nil {
		return err
	}
	lines = append(lines, eof, "")

	if err := os.WriteFile(outputFile, blheli.JoinLines(lines), 0644); err != nil {
		return err
	}

	logrus.WithField("records", len(records)).Infof("Wrote %s image to %s", humanize.Bytes(uint64(len(image))), outputFile)
	return nil
}
