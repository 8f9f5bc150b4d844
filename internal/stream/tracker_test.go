package stream

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/bpsniff/internal/core"
)

var (
	server = core.Endpoint{Addr: netip.MustParseAddr("172.16.0.9"), Port: 5003}
	client = core.Endpoint{Addr: netip.MustParseAddr("192.168.1.20"), Port: 51000}
	other  = core.Endpoint{Addr: netip.MustParseAddr("10.1.1.1"), Port: 7000}
)

func seg(src, dst core.Endpoint, seq uint32, at time.Time, payload []byte) core.Segment {
	return core.Segment{Timestamp: at, Src: src, Dst: dst, Seq: seq, Payload: payload}
}

func TestConversation(t *testing.T) {
	c := Conversation{Src: server, Dst: client}
	assert.True(t, c.Matches(server, client))
	assert.True(t, c.Matches(client, server))
	assert.False(t, c.Matches(server, other))
	assert.Equal(t, "172.16.0.9:5003 -> 192.168.1.20:51000", c.String())
}

func TestTracker_DetectThenReassemble(t *testing.T) {
	tr := NewTracker(Options{})

	res := tr.Handle(seg(client, other, 1, t0, []byte("GET / HTTP/1.1\r\n\r\n")))
	assert.Nil(t, res.ServerChange)

	login := loginPayload(98)
	res = tr.Handle(seg(server, client, 5000, t0, login))
	require.NotNil(t, res.ServerChange)
	assert.Equal(t, "172.16.0.9:5003 -> 192.168.1.20:51000", res.ServerChange.String())
	assert.Empty(t, res.Frames, "detecting segment is not decoded")

	f := frame([]byte("payload"))
	res = tr.Handle(seg(server, client, 5098, t0.Add(time.Second), f))
	assert.Nil(t, res.ServerChange)
	require.Len(t, res.Frames, 1)
	assert.Equal(t, f, res.Frames[0])

	cur, ok := tr.Current()
	assert.True(t, ok)
	assert.Equal(t, server, cur.Src)
}

func TestTracker_IgnoresOthersWhileActive(t *testing.T) {
	tr := NewTracker(Options{})
	require.NotNil(t, tr.Handle(seg(server, client, 0, t0, loginPayload(98))).ServerChange)

	res := tr.Handle(seg(other, client, 0, t0.Add(5*time.Second), loginPayload(98)))
	assert.Nil(t, res.ServerChange)
	cur, _ := tr.Current()
	assert.Equal(t, server, cur.Src)
}

func TestTracker_IdleConversationIsReplaced(t *testing.T) {
	tr := NewTracker(Options{IdleTimeout: 10 * time.Second})
	require.NotNil(t, tr.Handle(seg(server, client, 0, t0, loginPayload(98))).ServerChange)

	res := tr.Handle(seg(other, client, 0, t0.Add(11*time.Second), loginPayload(98)))
	require.NotNil(t, res.ServerChange)
	assert.Equal(t, other, res.ServerChange.Src)
}

func TestTracker_IdleReconnect(t *testing.T) {
	t.Run("revalidated", func(t *testing.T) {
		tr := NewTracker(Options{IdleTimeout: 10 * time.Second})
		require.NotNil(t, tr.Handle(seg(server, client, 0, t0, loginPayload(98))).ServerChange)

		res := tr.Handle(seg(server, client, 9000, t0.Add(12*time.Second), embeddedPayload()))
		require.NotNil(t, res.ServerChange)
		next, ok := tr.reasm.NextSeq()
		assert.True(t, ok)
		assert.Equal(t, uint32(9000+len(embeddedPayload())), next)
	})

	t.Run("discarded", func(t *testing.T) {
		tr := NewTracker(Options{IdleTimeout: 10 * time.Second})
		require.NotNil(t, tr.Handle(seg(server, client, 0, t0, loginPayload(98))).ServerChange)

		res := tr.Handle(seg(server, client, 98, t0.Add(12*time.Second), frame([]byte("x"))))
		assert.Nil(t, res.ServerChange)
		assert.Empty(t, res.Frames)
		_, ok := tr.Current()
		assert.False(t, ok)
	})
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(Options{})
	require.NotNil(t, tr.Handle(seg(server, client, 0, t0, loginPayload(98))).ServerChange)
	tr.Reset()
	_, ok := tr.Current()
	assert.False(t, ok)

	res := tr.Handle(seg(server, client, 98, t0, frame([]byte("x"))))
	assert.Nil(t, res.ServerChange)
	assert.Empty(t, res.Frames)
}
