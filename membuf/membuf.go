package membuf

import (
	"fmt"
	"io"
	"sort"
)

type offsetBuffer struct {
	offset int64
	buf    []byte
}

func (b *offsetBuffer) end() int64 {
	return b.offset + int64(len(b.buf))
}

// memBuffer is a sparse firmware image. Writes that continue an existing run
// are appended to it; gaps between runs read back as the fill byte.
type memBuffer struct {
	buffers []*offsetBuffer
	fill    byte
}

func NewMemBuffer() *memBuffer {
	return &memBuffer{}
}

// NewMemBufferWithFill returns a buffer whose gaps read back as fill. Erased
// flash is usually 0xFF.
func NewMemBufferWithFill(fill byte) *memBuffer {
	return &memBuffer{fill: fill}
}

func (m *memBuffer) findWriteBuffer(off int64) *offsetBuffer {
	for _, buf := range m.buffers {
		if buf.end() == off {
			return buf
		}
	}

	return nil
}

func (m *memBuffer) overlaps(p []byte, off int64) *offsetBuffer {
	for _, buf := range m.buffers {
		if off < buf.end() && buf.offset < off+int64(len(p)) {
			return buf
		}
	}
	return nil
}

func (m *memBuffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if buf := m.overlaps(p, off); buf != nil {
		return 0, fmt.Errorf("write of %d bytes at offset %d overlaps data at [%d, %d)", len(p), off, buf.offset, buf.end())
	}

	writeBuf := m.findWriteBuffer(off)
	if writeBuf == nil {
		writeBuf = &offsetBuffer{
			offset: off,
		}
		m.buffers = append(m.buffers, writeBuf)
		sort.Slice(m.buffers, func(i, j int) bool {
			return m.buffers[i].offset < m.buffers[j].offset
		})
	}

	writeBuf.buf = append(writeBuf.buf, p...)
	m.merge()
	return len(p), nil
}

// merge joins runs that became adjacent after a write.
func (m *memBuffer) merge() {
	for i := 0; i+1 < len(m.buffers); {
		cur, next := m.buffers[i], m.buffers[i+1]
		if cur.end() == next.offset {
			cur.buf = append(cur.buf, next.buf...)
			m.buffers = append(m.buffers[:i+1], m.buffers[i+2:]...)
			continue
		}
		i++
	}
}

func (m *memBuffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}

	size := m.Len()
	if off >= size {
		return 0, io.EOF
	}

	n := len(p)
	if remaining := size - off; int64(n) > remaining {
		n = int(remaining)
	}

	for i := 0; i < n; i++ {
		p[i] = m.fill
	}

	for _, buf := range m.buffers {
		left := max(off, buf.offset)
		right := min(off+int64(n), buf.end())
		if left >= right {
			continue
		}
		copy(p[left-off:right-off], buf.buf[left-buf.offset:right-buf.offset])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Len is one past the highest written offset.
func (m *memBuffer) Len() int64 {
	var lastByte int64
	for _, buf := range m.buffers {
		if curLB := buf.end(); curLB > lastByte {
			lastByte = curLB
		}
	}
	return lastByte
}

// Runs returns the number of disjoint written regions.
func (m *memBuffer) Runs() int {
	return len(m.buffers)
}

func (m *memBuffer) Reader() io.Reader {
	return io.NewSectionReader(m, 0, m.Len())
}

var _ io.WriterAt = (*memBuffer)(nil)
var _ io.ReaderAt = (*memBuffer)(nil)
