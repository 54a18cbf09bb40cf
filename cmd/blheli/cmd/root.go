package cmd

import (
	"os"

	"github.com/anupcshan/blheli/blheli"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	atmel           bool
	verbose         bool
	strictChecksums bool
	metricsTextfile string
)

var rootCmd = &cobra.Command{
	Use:   "blheli",
	Short: "Inspect and edit BLHeli ESC settings in Intel HEX dumps",
	Long: `blheli reads the settings block embedded in a BLHeli ESC firmware or EEPROM
dump stored as Intel HEX, shows every setting by name, and writes edited
settings back. Every line outside the settings block is preserved as is.

SiLabs dumps keep the settings at address 0x1A00; pass --atmel for Atmel
EEPROM dumps, which keep them at 0x0000.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000000",
		})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if metricsTextfile != "" {
		if merr := writeMetrics(metricsTextfile); merr != nil {
			logrus.WithError(merr).Error("Failed to write metrics")
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&atmel, "atmel", false, "Dump is from an Atmel ESC (settings at 0x0000)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVar(&strictChecksums, "strict-checksums", false, "Fail on record checksum mismatches instead of warning")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write run counters to this file in Prometheus text format")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(choicesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(hex2binCmd)
	rootCmd.AddCommand(bin2hexCmd)
}

func codecOptions(extra ...blheli.Option) []blheli.Option {
	opts := []blheli.Option{blheli.WithLogger(logrus.StandardLogger())}
	if strictChecksums {
		opts = append(opts, blheli.WithStrictChecksums())
	}
	return append(opts, extra...)
}

// readCodec opens path with a fresh codec and accounts for the read.
func readCodec(path string, extra ...blheli.Option) (*blheli.Codec, error) {
	c := blheli.New(codecOptions(extra...)...)
	if err := c.Read(path, blheli.FamilyFor(atmel)); err != nil {
		readFailures.Inc()
		return nil, err
	}
	filesRead.Inc()
	checksumWarnings.Add(float64(len(c.Warnings())))
	return c, nil
}

// writeCodec saves c to path and accounts for the changed settings.
func writeCodec(c *blheli.Codec, path string) error {
	if err := c.Write(path); err != nil {
		return err
	}
	filesWritten.Inc()
	for _, name := range c.Changed() {
		settingsChanged.WithLabelValues(name).Inc()
	}
	return nil
}
