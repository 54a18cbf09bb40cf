package blheli

import (
	"testing"

	"github.com/anupcshan/blheli/intelhex"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	log, _ := quietLogger()
	block := sampleBlock()
	lines := sampleLines(t, block)

	located, err := Locate(lines, 0x1A00, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, Span{FirstLine: 3, LastLine: 5}, located.Span)
	assert.Equal(t, block, located.Data)
	assert.Empty(t, located.Warnings)
}

func TestLocateAtmel(t *testing.T) {
	log, _ := quietLogger()
	block := sampleBlock()

	located, err := Locate(atmelLines(t, block), Atmel.StartAddress(), WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, Span{FirstLine: 0, LastLine: 2}, located.Span)
	assert.Equal(t, block, located.Data)
}

func TestLocateCRLF(t *testing.T) {
	log, _ := quietLogger()
	located, err := Locate(withCRLF(sampleLines(t, sampleBlock())), 0x1A00, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, "\r", located.Span.EOL)
}

func TestLocateNotFound(t *testing.T) {
	log, _ := quietLogger()
	lines := []string{render(t, 0x0000, code(16, 1)), ":00000001FF"}

	_, err := Locate(lines, 0x1A00, WithLogger(log))
	var notFound *BlockNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Equal(t, uint16(0x1A00), notFound.StartAddress)
	assert.Contains(t, err.Error(), "0x1A00")
}

func TestLocateSingleShortRecord(t *testing.T) {
	log, _ := quietLogger()
	lines := []string{render(t, 0x1A00, []byte{1, 2, 3}), ":00000001FF"}

	located, err := Locate(lines, 0x1A00, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, Span{FirstLine: 0, LastLine: 0}, located.Span)
	assert.Equal(t, []byte{1, 2, 3}, located.Data)
}

func fullRecords(t *testing.T, n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = render(t, 0x1A00+uint16(i*RecordSize), code(RecordSize, byte(i)))
	}
	return lines
}

func TestLocateTerminatorBound(t *testing.T) {
	log, _ := quietLogger()

	t.Run("terminator on tenth line", func(t *testing.T) {
		lines := append(fullRecords(t, 9), render(t, 0x1A90, []byte{1}), ":00000001FF")
		located, err := Locate(lines, 0x1A00, WithLogger(log))
		require.NoError(t, err)
		assert.Equal(t, 9, located.Span.LastLine)
		assert.Len(t, located.Data, 9*RecordSize+1)
	})

	t.Run("terminator on eleventh line", func(t *testing.T) {
		lines := append(fullRecords(t, 10), render(t, 0x1AA0, []byte{1}), ":00000001FF")
		_, err := Locate(lines, 0x1A00, WithLogger(log))
		var malformed *MalformedBlockError
		require.True(t, errors.As(err, &malformed), "got %v", err)
		assert.Equal(t, 10, malformed.Line)
	})

	t.Run("custom bound", func(t *testing.T) {
		lines := append(fullRecords(t, 10), render(t, 0x1AA0, []byte{1}), ":00000001FF")
		located, err := Locate(lines, 0x1A00, WithLogger(log), WithMaxBlockLines(11))
		require.NoError(t, err)
		assert.Equal(t, 10, located.Span.LastLine)
	})
}

func TestLocateUnterminated(t *testing.T) {
	log, _ := quietLogger()

	tests := []struct {
		name   string
		lines  []string
		reason string
	}{
		{
			name:   "full record followed by eof record",
			lines:  append(fullRecords(t, 2), ":00000001FF"),
			reason: "record type 1",
		},
		{
			name:   "file ends",
			lines:  fullRecords(t, 3),
			reason: "file ends",
		},
		{
			name:   "blank line",
			lines:  append(fullRecords(t, 1), "", render(t, 0x1A10, []byte{1})),
			reason: "blank line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Locate(tt.lines, 0x1A00, WithLogger(log))
			var malformed *MalformedBlockError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Contains(t, malformed.Reason, tt.reason)
		})
	}
}

func TestLocateChecksumAdvisory(t *testing.T) {
	log, hook := quietLogger()
	block := sampleBlock()
	lines := sampleLines(t, block)
	lines[1] = corrupt(lines[1])
	lines[4] = corrupt(lines[4])

	located, err := Locate(lines, 0x1A00, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, block, located.Data)
	require.Len(t, located.Warnings, 2)
	assert.Equal(t, 1, located.Warnings[0].Line)
	assert.Equal(t, 4, located.Warnings[1].Line)
	assert.Contains(t, located.Warnings[1].String(), "line 5")

	var warned int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
		}
	}
	assert.Equal(t, 2, warned)

	_, err = Locate(lines, 0x1A00, WithLogger(log), WithStrictChecksums())
	var mismatch *intelhex.ChecksumMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLocateMalformedLine(t *testing.T) {
	log, _ := quietLogger()

	t.Run("ahead of block is skipped", func(t *testing.T) {
		block := sampleBlock()
		lines := sampleLines(t, block)
		lines[1] = "; bootloader v16.7"
		lines[2] = lines[2][:20]

		located, err := Locate(lines, 0x1A00, WithLogger(log))
		require.NoError(t, err)
		assert.Equal(t, block, located.Data)
		require.Len(t, located.Warnings, 2)
		assert.Equal(t, 1, located.Warnings[0].Line)
		assert.Equal(t, 2, located.Warnings[1].Line)
		var malformed *intelhex.MalformedLineError
		assert.True(t, errors.As(located.Warnings[0].Err, &malformed))
	})

	t.Run("ahead of block with strict checks", func(t *testing.T) {
		lines := sampleLines(t, sampleBlock())
		lines[2] = "not a record"

		_, err := Locate(lines, 0x1A00, WithLogger(log), WithStrictChecksums())
		var malformed *intelhex.MalformedLineError
		require.True(t, errors.As(err, &malformed), "got %v", err)
		assert.Contains(t, err.Error(), "line 3")
	})

	t.Run("inside block", func(t *testing.T) {
		lines := sampleLines(t, sampleBlock())
		lines[4] = "not a record"

		_, err := Locate(lines, 0x1A00, WithLogger(log))
		var malformed *intelhex.MalformedLineError
		require.True(t, errors.As(err, &malformed), "got %v", err)
		assert.Contains(t, err.Error(), "line 5")
	})
}

func TestLocateNonContiguousWarns(t *testing.T) {
	log, hook := quietLogger()
	lines := []string{
		render(t, 0x1A00, code(16, 0)),
		render(t, 0x1A40, code(4, 0)),
	}

	located, err := Locate(lines, 0x1A00, WithLogger(log))
	require.NoError(t, err)
	assert.Len(t, located.Data, 20)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "1A10", hook.LastEntry().Data["expected"])
}
