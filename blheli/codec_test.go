package blheli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/anupcshan/blheli/intelhex"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(opts ...Option) *Codec {
	log, _ := quietLogger()
	return New(append([]Option{WithLogger(log)}, opts...)...)
}

func TestCodecSignatureScenario(t *testing.T) {
	c := newCodec()
	require.NoError(t, c.Read(writeHex(t, sampleLines(t, sampleBlock())), SiLabs))

	hi, err := c.Get("signature-hi")
	require.NoError(t, err)
	assert.Equal(t, "0x55", hi.String())

	lo, err := c.Get("signature-lo")
	require.NoError(t, err)
	assert.Equal(t, "0xaa", lo.String())
}

func TestCodecNotYetRead(t *testing.T) {
	c := newCodec()

	_, err := c.Get("fw-rev")
	assert.ErrorIs(t, err, ErrNotYetRead)
	assert.ErrorIs(t, c.Set("closed-loop", 1), ErrNotYetRead)
	assert.ErrorIs(t, c.SetText("closed-loop", "Off"), ErrNotYetRead)
	assert.ErrorIs(t, c.Write(filepath.Join(t.TempDir(), "out.hex")), ErrNotYetRead)
	_, err = c.Lines()
	assert.ErrorIs(t, err, ErrNotYetRead)
	_, err = c.Settings()
	assert.ErrorIs(t, err, ErrNotYetRead)
	_, err = c.Span()
	assert.ErrorIs(t, err, ErrNotYetRead)
	_, err = c.Export()
	assert.ErrorIs(t, err, ErrNotYetRead)

	var unknown *UnknownFieldError
	_, err = c.Get("nope")
	assert.True(t, errors.As(err, &unknown), "unknown names are reported first")
	assert.True(t, errors.As(c.Set("nope", 1), &unknown))
	assert.True(t, errors.As(c.SetText("nope", "1"), &unknown))

	assert.Len(t, c.ListFieldNames(), 19)
	_, ok := c.ConstraintsFor("pwm-freq")
	assert.True(t, ok)
}

func TestCodecWritePreservesOtherLines(t *testing.T) {
	original := sampleLines(t, sampleBlock())
	in := writeHex(t, original)

	c := newCodec(WithVerify())
	require.NoError(t, c.Read(in, SiLabs))
	require.NoError(t, c.Set("closed-loop", 2))
	require.NoError(t, c.Set("temp-protection", 2))
	require.NoError(t, c.Set("ppm-min-throttle", 1140))
	require.NoError(t, c.SetText("motor-direction", "Reversed"))
	assert.Equal(t, []string{"temp-protection", "motor-direction", "closed-loop"}, c.Changed())

	out := filepath.Join(t.TempDir(), "out.hex")
	require.NoError(t, c.Write(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	written := SplitLines(data)
	require.Len(t, written, len(original))

	span, err := c.Span()
	require.NoError(t, err)
	for i := range original {
		if i >= span.FirstLine && i <= span.LastLine {
			continue
		}
		assert.Equal(t, original[i], written[i], "line %d", i)
	}
	assert.True(t, bytes.HasSuffix(data, []byte(":00000001FF\n")))

	reread := newCodec()
	require.NoError(t, reread.Read(out, SiLabs))
	for name, want := range map[string]string{
		"closed-loop":      "MidRange",
		"temp-protection":  "Disabled",
		"ppm-min-throttle": "1140",
		"motor-direction":  "Reversed",
		"pwm-freq":         "High",
	} {
		v, err := reread.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want, v.String(), name)
	}
	assert.Empty(t, reread.Changed())
}

func TestCodecIdempotentRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		family Family
		lines  []string
	}{
		{name: "silabs lf", family: SiLabs, lines: sampleLines(t, sampleBlock())},
		{name: "silabs crlf", family: SiLabs, lines: withCRLF(sampleLines(t, sampleBlock()))},
		{name: "atmel", family: Atmel, lines: atmelLines(t, sampleBlock())},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := writeHex(t, tc.lines)
			c := newCodec(WithVerify())
			require.NoError(t, c.Read(in, tc.family))
			before, err := c.Settings()
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), "same.hex")
			require.NoError(t, c.Write(out))

			inData, err := os.ReadFile(in)
			require.NoError(t, err)
			outData, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, string(inData), string(outData), "unchanged settings reproduce the file")

			again := newCodec()
			require.NoError(t, again.Read(out, tc.family))
			after, err := again.Settings()
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestCodecKeepsBytesBeyondLayout(t *testing.T) {
	block := append(sampleBlock(), 0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C)
	lines := sampleLines(t, block)

	c := newCodec(WithVerify())
	require.NoError(t, c.ReadLines(lines, SiLabs))
	span, err := c.Span()
	require.NoError(t, err)
	assert.Equal(t, Span{FirstLine: 3, LastLine: 6}, span)

	require.NoError(t, c.Set("beep-strength", 1))
	out, err := c.Lines()
	require.NoError(t, err)
	require.Len(t, out, len(lines))

	raw, err := c.Block()
	require.NoError(t, err)
	assert.Len(t, raw, 52)
	assert.Equal(t, block[36:], raw[36:])
	assert.Equal(t, lines[6], out[6])
}

func TestCodecSetTextReadOnly(t *testing.T) {
	c := newCodec()
	block := sampleBlock()
	require.NoError(t, c.ReadLines(sampleLines(t, block), SiLabs))

	for _, name := range []string{"fw-rev", "signature-hi", "signature-lo"} {
		for _, text := range []string{"0x55", "abc", "14"} {
			err := c.SetText(name, text)
			var ro *ReadOnlyFieldError
			require.True(t, errors.As(err, &ro), "%s=%q: %v", name, text, err)
		}
	}
	got, err := c.Block()
	require.NoError(t, err)
	assert.Equal(t, block, got)
	assert.Empty(t, c.Changed())
}

func TestCodecShortBlock(t *testing.T) {
	lines := []string{
		render(t, 0x1A00, code(16, 1)),
		render(t, 0x1A10, code(4, 1)),
		":00000001FF",
	}
	c := newCodec()
	err := c.ReadLines(lines, SiLabs)
	var malformed *MalformedBlockError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Equal(t, 1, malformed.Line)
	assert.Contains(t, malformed.Reason, "layout needs 36")
}

func TestCodecFailedReadKeepsState(t *testing.T) {
	c := newCodec()
	require.NoError(t, c.ReadLines(sampleLines(t, sampleBlock()), SiLabs))
	require.NoError(t, c.Set("pwm-freq", 3))

	err := c.ReadLines([]string{":00000001FF"}, SiLabs)
	var notFound *BlockNotFoundError
	require.True(t, errors.As(err, &notFound))

	v, err := c.Get("pwm-freq")
	require.NoError(t, err)
	assert.Equal(t, "DampedLight", v.String())
}

func TestCodecReadWrongFamily(t *testing.T) {
	c := newCodec()
	err := c.Read(writeHex(t, atmelLines(t, sampleBlock())), SiLabs)
	var notFound *BlockNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Contains(t, err.Error(), "esc.hex")
}

func TestCodecReadMissingFile(t *testing.T) {
	c := newCodec()
	err := c.Read(filepath.Join(t.TempDir(), "missing.hex"), SiLabs)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCodecSettingsReportsUndecodable(t *testing.T) {
	block := sampleBlock()
	block[10] = 0x7F
	c := newCodec()
	require.NoError(t, c.ReadLines(sampleLines(t, block), SiLabs))

	settings, err := c.Settings()
	require.NoError(t, err)
	require.Len(t, settings, 19)
	for _, s := range settings {
		if s.Name == "pwm-freq" {
			var invalid *InvalidEncodedValueError
			assert.True(t, errors.As(s.Err, &invalid))
			assert.Equal(t, byte(0x7F), s.Value.Raw)
		} else {
			assert.NoError(t, s.Err, s.Name)
		}
	}
}

func TestCodecVerifySkippedWithWarnings(t *testing.T) {
	log, hook := quietLogger()
	lines := sampleLines(t, sampleBlock())
	lines[1] = corrupt(lines[1])

	c := New(WithLogger(log), WithVerify())
	require.NoError(t, c.ReadLines(lines, SiLabs))
	require.Len(t, c.Warnings(), 1)

	out, err := c.Lines()
	require.NoError(t, err)
	assert.Equal(t, lines[1], out[1], "corrupt lines outside the block are kept as they were")
	assert.Equal(t, "Skipping image verification of a file read with warnings", hook.LastEntry().Message)
}

func TestCodecKeepsMalformedLineAheadOfBlock(t *testing.T) {
	lines := sampleLines(t, sampleBlock())
	lines = append([]string{"; dumped with avrdude"}, lines...)

	c := newCodec(WithVerify())
	require.NoError(t, c.ReadLines(lines, SiLabs))
	require.Len(t, c.Warnings(), 1)
	assert.Equal(t, 0, c.Warnings()[0].Line)

	require.NoError(t, c.SetText("closed-loop", "Off"))
	out, err := c.Lines()
	require.NoError(t, err)
	assert.Equal(t, "; dumped with avrdude", out[0])

	reread := newCodec(WithStrictChecksums())
	err = reread.ReadLines(out, SiLabs)
	var malformed *intelhex.MalformedLineError
	require.True(t, errors.As(err, &malformed), "got %v", err)

	require.NoError(t, reread.ReadLines(out[1:], SiLabs))
	v, err := reread.Get("closed-loop")
	require.NoError(t, err)
	assert.Equal(t, "Off", v.String())
}

func TestVerifyImage(t *testing.T) {
	block := sampleBlock()
	lines := sampleLines(t, block)
	require.NoError(t, VerifyImage(lines, 0x1A00, block))
	require.NoError(t, VerifyImage(withCRLF(lines), 0x1A00, block))

	other := sampleBlock()
	other[20] = 0x42
	err := VerifyImage(lines, 0x1A00, other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x1A14")

	err = VerifyImage(lines[:len(lines)-2], 0x1A00, block)
	assert.Error(t, err, "missing EOF record")
}
