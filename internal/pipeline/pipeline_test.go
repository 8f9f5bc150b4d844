package pipeline

import (
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/protocol"
	"firestige.xyz/bpsniff/internal/protocol/pb"
	"firestige.xyz/bpsniff/internal/sink"
)

var (
	server = core.Endpoint{Addr: netip.MustParseAddr("172.16.0.9"), Port: 5003}
	client = core.Endpoint{Addr: netip.MustParseAddr("192.168.1.20"), Port: 51000}
	other  = core.Endpoint{Addr: netip.MustParseAddr("172.16.0.10"), Port: 5003}
	t0     = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

const (
	monsterUUID = int64(0x7B0041)
	goldenNappo = 10900
)

func playerUUID(uid int64) int64 { return uid<<16 | 640 }

// loginReturn is the 98-byte login frame that identifies the game server.
func loginReturn() []byte {
	p := make([]byte, 0x62)
	copy(p, []byte{
		0x00, 0x00, 0x00, 0x62, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x11, 0x45, 0x14, 0x00, 0x00, 0x00, 0x00, 0x0a, 0x4e,
		0x08, 0x01, 0x22, 0x24,
	})
	return p
}

func seg(src, dst core.Endpoint, seq uint32, at time.Time, payload []byte) core.Segment {
	return core.Segment{Timestamp: at, Src: src, Dst: dst, Seq: seq, Payload: payload}
}

func damageFrame(compressed bool) []byte {
	msg := pb.SyncNearDeltaInfo{DeltaInfos: []pb.AoiSyncDelta{{
		UUID: monsterUUID,
		SkillEffects: &pb.SkillEffect{Damages: []pb.SyncDamageInfo{
			{OwnerID: 1, AttackerUUID: playerUUID(7), Value: 1500, TypeFlag: 1},
		}},
	}}}
	return protocol.NotifyFrame(protocol.MethodSyncNearDeltaInfo, msg.Marshal(), compressed)
}

func monsterFrame() []byte {
	msg := pb.SyncNearEntities{Appear: []pb.Entity{{
		UUID:    monsterUUID,
		EntType: pb.EntityTypeMonster,
		Attrs: &pb.AttrCollection{Attrs: []pb.Attr{
			{ID: pb.AttrID, RawData: protowire.AppendVarint(nil, goldenNappo)},
			{ID: pb.AttrPos, RawData: (&pb.Vector3{X: 4, Y: 5, Z: 6}).Marshal()},
		}},
	}}}
	return protocol.NotifyFrame(protocol.MethodSyncNearEntities, msg.Marshal(), false)
}

func newPipeline(t *testing.T, clearOnChange bool) (*Pipeline, *sink.Queue) {
	t.Helper()
	q := sink.NewQueue(128)
	dec := config.Default().Decoder
	dec.ClearRegistryOnServerChange = clearOnChange
	p, err := NewBuilder().WithDecoder(dec).WithOutput(q).Build()
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, q
}

func TestNew_RequiresOutput(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err)
}

func TestPipeline_DetectThenDecode(t *testing.T) {
	p, q := newPipeline(t, false)

	// noise before detection is ignored
	p.HandleSegment(seg(other, client, 1, t0, damageFrame(false)))
	assert.Nil(t, q.Drain())

	login := loginReturn()
	p.HandleSegment(seg(server, client, 1000, t0, login))
	conv, ok := p.Conversation()
	require.True(t, ok)
	assert.Equal(t, server, conv.Src)

	next := uint32(1000 + len(login))
	stream := append(damageFrame(true), monsterFrame()...)
	split := len(stream) - 5
	p.HandleSegment(seg(server, client, next, t0.Add(time.Millisecond), stream[:split]))
	p.HandleSegment(seg(client, server, 77, t0.Add(2*time.Millisecond), []byte("client traffic")))
	p.HandleSegment(seg(server, client, next+uint32(split), t0.Add(3*time.Millisecond), stream[split:]))

	want := []event.Event{
		event.ServerChange{ServerEndpoint: "172.16.0.9:5003 -> 192.168.1.20:51000"},
		event.Damage{PlayerUID: 7, Damage: 1500, IsCrit: true},
		event.EntityPosition{
			UUID:       monsterUUID,
			EntityType: event.EntityMonster,
			Position:   &event.Position{X: 4, Y: 5, Z: 6},
			MobBaseID:  func() *uint32 { v := uint32(goldenNappo); return &v }(),
		},
	}
	if diff := cmp.Diff(want, q.Drain()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, p.Registry().Len())

	stats := p.Stats()
	assert.Equal(t, uint64(5), stats.Segments)
	assert.Equal(t, uint64(1), stats.ServerChanges)
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(3), stats.Events)
}

func TestPipeline_ResetDropsState(t *testing.T) {
	p, q := newPipeline(t, false)
	login := loginReturn()
	p.HandleSegment(seg(server, client, 1000, t0, login))
	p.HandleSegment(seg(server, client, 1000+uint32(len(login)), t0, monsterFrame()))
	require.Equal(t, 1, p.Registry().Len())
	q.Drain()

	p.Reset()
	_, ok := p.Conversation()
	assert.False(t, ok)
	assert.Zero(t, p.Registry().Len())
	assert.Equal(t, uint64(1), p.Stats().Resets)

	// stream data without a fresh detection produces nothing
	p.HandleSegment(seg(server, client, 1000+uint32(len(login)), t0, damageFrame(false)))
	assert.Nil(t, q.Drain())
}

func TestPipeline_ServerChangeRegistryPolicy(t *testing.T) {
	for _, clearOnChange := range []bool{false, true} {
		p, q := newPipeline(t, clearOnChange)
		login := loginReturn()
		p.HandleSegment(seg(server, client, 1000, t0, login))
		p.HandleSegment(seg(server, client, 1000+uint32(len(login)), t0, monsterFrame()))
		require.Equal(t, 1, p.Registry().Len())

		// the old conversation goes idle and a new server shows up
		later := t0.Add(11 * time.Second)
		p.HandleSegment(seg(other, client, 5000, later, login))

		evs := q.Drain()
		require.NotEmpty(t, evs)
		assert.Equal(t, event.ServerChange{ServerEndpoint: "172.16.0.10:5003 -> 192.168.1.20:51000"}, evs[len(evs)-1])

		if clearOnChange {
			assert.Zero(t, p.Registry().Len())
		} else {
			assert.Equal(t, 1, p.Registry().Len())
		}
	}
}

func TestPipeline_MalformedFrameDoesNotStop(t *testing.T) {
	p, q := newPipeline(t, false)
	login := loginReturn()
	p.HandleSegment(seg(server, client, 1000, t0, login))
	q.Drain()

	bad := protocol.NotifyFrame(protocol.MethodSyncNearDeltaInfo, []byte{0xff, 0xff}, false)
	data := append(bad, damageFrame(false)...)
	p.HandleSegment(seg(server, client, 1000+uint32(len(login)), t0, data))

	assert.Equal(t, []event.Event{event.Damage{PlayerUID: 7, Damage: 1500, IsCrit: true}}, q.Drain())
}
