package stream

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// frame returns body prefixed with its total length.
func frame(body []byte) []byte {
	out := make([]byte, frameLenSize, frameLenSize+len(body))
	binary.BigEndian.PutUint32(out, uint32(frameLenSize+len(body)))
	return append(out, body...)
}

func TestSeqCmp(t *testing.T) {
	assert.Zero(t, SeqCmp(7, 7))
	assert.Positive(t, SeqCmp(8, 7))
	assert.Negative(t, SeqCmp(7, 8))
	assert.Positive(t, SeqCmp(5, 0xFFFFFFF0), "wraparound")
	assert.Negative(t, SeqCmp(0xFFFFFFF0, 5))
}

func TestReassembler_OutOfOrderPermutations(t *testing.T) {
	whole := frame([]byte("ABCDEF"))
	parts := []struct {
		seq  uint32
		data []byte
	}{
		{100, whole[0:3]},
		{103, whole[3:6]},
		{106, whole[6:10]},
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, order := range orders {
		r := NewReassembler(0, 0)
		r.Rebase(100, t0)

		var got [][]byte
		for _, i := range order {
			got = append(got, r.Push(parts[i].seq, parts[i].data, t0)...)
		}
		require.Len(t, got, 1, "order %v", order)
		assert.Equal(t, whole, got[0], "order %v", order)
		assert.Zero(t, r.Cached())
		next, ok := r.NextSeq()
		assert.True(t, ok)
		assert.Equal(t, uint32(110), next)
	}
}

func TestReassembler_SequenceWrap(t *testing.T) {
	whole := frame([]byte("ABCDEF"))

	t.Run("out of order", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0xFFFFFFFA, t0)

		assert.Empty(t, r.Push(0, whole[6:], t0))
		assert.Equal(t, 1, r.Cached())
		frames := r.Push(0xFFFFFFFA, whole[:6], t0)
		require.Len(t, frames, 1)
		assert.Equal(t, whole, frames[0])

		next, ok := r.NextSeq()
		assert.True(t, ok)
		assert.Equal(t, uint32(4), next)
	})

	t.Run("in order", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0xFFFFFFFE, t0)

		assert.Empty(t, r.Push(0xFFFFFFFE, whole[:5], t0))
		frames := r.Push(3, whole[5:], t0)
		require.Len(t, frames, 1)
		assert.Equal(t, whole, frames[0])

		next, _ := r.NextSeq()
		assert.Equal(t, uint32(8), next)

		// the pre-wrap sequence is now behind
		assert.Empty(t, r.Push(0xFFFFFFFE, whole, t0))
	})
}

func TestReassembler_DuplicatesAndStale(t *testing.T) {
	whole := frame([]byte("ABCDEF"))
	r := NewReassembler(0, 0)
	r.Rebase(100, t0)

	assert.Empty(t, r.Push(105, whole[5:], t0))
	assert.Empty(t, r.Push(105, whole[5:], t0))
	frames := r.Push(100, whole[:5], t0)
	require.Len(t, frames, 1)
	assert.Equal(t, whole, frames[0])

	// Data behind the expected sequence is ignored.
	assert.Empty(t, r.Push(100, whole, t0))
	assert.Zero(t, r.Cached())
	assert.Empty(t, r.Buffered())
}

func TestReassembler_Bootstrap(t *testing.T) {
	r := NewReassembler(0, 0)

	// An implausible length prefix does not establish the stream.
	assert.Empty(t, r.Push(50, []byte{0xFF, 0xFF, 0xFF, 0xFF, 1, 2}, t0))
	_, ok := r.NextSeq()
	assert.False(t, ok)

	f := frame([]byte("hello"))
	frames := r.Push(1000, f, t0)
	require.Len(t, frames, 1)
	assert.Equal(t, f, frames[0])
	next, ok := r.NextSeq()
	assert.True(t, ok)
	assert.Equal(t, uint32(1000+len(f)), next)
}

func TestReassembler_GapResync(t *testing.T) {
	r := NewReassembler(2*time.Second, 0)
	r.Rebase(100, t0)

	assert.Empty(t, r.Push(200, frame([]byte("lost")), t0))
	assert.Equal(t, 1, r.Cached())

	// Still within the gap timeout.
	assert.Empty(t, r.Push(250, frame([]byte("wait")), t0.Add(time.Second)))

	f := frame([]byte("resync"))
	frames := r.Push(300, f, t0.Add(3*time.Second))
	require.Len(t, frames, 1)
	assert.Equal(t, f, frames[0])
	assert.Zero(t, r.Cached())
	next, _ := r.NextSeq()
	assert.Equal(t, uint32(300+len(f)), next)
}

func TestReassembler_FrameExtraction(t *testing.T) {
	t.Run("length at most four drops one byte", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0, t0)
		assert.Empty(t, r.Push(0, []byte{0, 0, 0, 4}, t0))
		assert.Equal(t, []byte{0, 0, 4}, r.Buffered())
	})

	t.Run("oversized length drops one byte", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0, t0)
		assert.Empty(t, r.Push(0, []byte{0x00, 0x10, 0x00, 0x00}, t0))
		assert.Equal(t, []byte{0x10, 0x00, 0x00}, r.Buffered())
	})

	t.Run("short buffer waits", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0, t0)
		assert.Empty(t, r.Push(0, []byte{0, 0, 0, 10, 1, 2}, t0))
		assert.Len(t, r.Buffered(), 6)

		frames := r.Push(6, []byte{3, 4, 5, 6}, t0)
		require.Len(t, frames, 1)
		assert.Equal(t, []byte{0, 0, 0, 10, 1, 2, 3, 4, 5, 6}, frames[0])
		assert.Empty(t, r.Buffered())
	})

	t.Run("garbage before a frame realigns", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0, t0)
		f := frame([]byte("ok"))
		data := append([]byte{0xFF, 0xEE}, f...)
		frames := r.Push(0, data, t0)
		require.Len(t, frames, 1)
		assert.Equal(t, f, frames[0])
	})

	t.Run("several frames in one segment", func(t *testing.T) {
		r := NewReassembler(0, 0)
		r.Rebase(0, t0)
		a, b := frame([]byte("one")), frame([]byte("two"))
		frames := r.Push(0, bytes.Join([][]byte{a, b}, nil), t0)
		assert.Equal(t, [][]byte{a, b}, frames)
	})
}

func TestReassembler_FramesDoNotAliasInput(t *testing.T) {
	r := NewReassembler(0, 0)
	r.Rebase(0, t0)
	payload := frame([]byte("abc"))
	frames := r.Push(0, payload, t0)
	require.Len(t, frames, 1)
	payload[5] = 'X'
	assert.Equal(t, byte('b'), frames[0][5])
}

func TestReassembler_Reset(t *testing.T) {
	r := NewReassembler(0, 0)
	r.Rebase(10, t0)
	r.Push(20, []byte{1, 2, 3}, t0)
	r.Reset()

	_, ok := r.NextSeq()
	assert.False(t, ok)
	assert.Zero(t, r.Cached())
	assert.True(t, r.LastActivity().IsZero())
}
