package cmd

import (
	"io"
	"os"

	"github.com/anupcshan/blheli/intelhex"
	"github.com/anupcshan/blheli/membuf"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var hex2binCmd = &cobra.Command{
	Use:   "hex2bin FILE",
	Short: "Convert a hex file into a flat binary image",
	Long: `Convert a hex file into a flat binary image. Gaps between records are filled
with --fill. By default the image starts at the first data record; pass
--absolute to start it at address 0.`,
	Args: cobra.ExactArgs(1),
	RunE: runHex2Bin,
}

func init() {
	hex2binCmd.Flags().StringP("out", "o", "", "Output bin file (required)")
	hex2binCmd.Flags().Bool("absolute", false, "Place data at its absolute address")
	hex2binCmd.Flags().Uint8("fill", 0xFF, "Byte used for gaps between records")
	//nolint:errcheck
	hex2binCmd.MarkFlagRequired("out")
}

func runHex2Bin(cmd *cobra.Command, args []string) error {
	outputFile, _ := cmd.Flags().GetString("out")
	absolute, _ := cmd.Flags().GetBool("absolute")
	fill, _ := cmd.Flags().GetUint8("fill")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var opts []intelhex.ParserOption
	if absolute {
		opts = append(opts, intelhex.WithDisableCompactOutput())
	}

	buf := membuf.NewMemBufferWithFill(fill)
	parser := intelhex.NewParser(f, buf, opts...)
	for parser.HasNext() {
		if err := parser.ReadRecord(); err != nil {
			return err
		}
	}

	outF, err := os.OpenFile(outputFile, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer outF.Close()

	n, err := io.Copy(outF, buf.Reader())
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"records": len(parser.Records),
		"runs":    buf.Runs(),
	}).Infof("Wrote %s image to %s", humanize.Bytes(uint64(n)), outputFile)
	return outF.Close()
}
