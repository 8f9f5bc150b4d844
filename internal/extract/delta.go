package extract

import (
	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/protocol/pb"
)

func (x *Extractor) nearDelta(msg *pb.SyncNearDeltaInfo) []event.Event {
	var out []event.Event
	for i := range msg.DeltaInfos {
		delta := &msg.DeltaInfos[i]
		if ev, ok := x.monsterUpdate(delta); ok {
			out = append(out, ev)
		}
		out = append(out, combatEvents(delta)...)
	}
	return out
}

// monsterUpdate reports a tracked monster's position and HP. Without a
// position in this delta the update is HP-only.
func (x *Extractor) monsterUpdate(delta *pb.AoiSyncDelta) (event.EntityPosition, bool) {
	bag := pb.NewAttrBag(delta.Attrs)

	baseID, ok := bag.Identity()
	if ok {
		x.registry.Set(delta.UUID, baseID)
	} else if baseID, ok = x.registry.Get(delta.UUID); !ok {
		return event.EntityPosition{}, false
	}
	if delta.Attrs == nil || !x.catalog.IsTracked(baseID) {
		return event.EntityPosition{}, false
	}

	pos, hasPos := bag.Position()
	if !hasPos && !bag.HasHP() {
		return event.EntityPosition{}, false
	}
	ev := event.EntityPosition{
		UUID:       delta.UUID,
		EntityType: event.EntityMonster,
		MobBaseID:  &baseID,
		CurrentHP:  optionalHP(bag.CurrentHP()),
		MaxHP:      optionalHP(bag.MaxHP()),
	}
	if hasPos {
		p := position(pos)
		ev.Position = &p
	}
	return ev, true
}

func (x *Extractor) toMeDelta(msg *pb.SyncToMeDeltaInfo) []event.Event {
	delta := msg.DeltaInfo
	if delta == nil {
		return nil
	}
	if delta.UUID != 0 && delta.UUID != x.local {
		x.log.WithField("uuid", delta.UUID).Debug("local player changed")
		x.local = delta.UUID
	}
	if delta.BaseDelta == nil {
		return nil
	}

	var out []event.Event
	if pos, ok := pb.NewAttrBag(delta.BaseDelta.Attrs).Position(); ok {
		out = append(out, event.LocalPlayerPosition{Position: position(pos)})
	}
	return append(out, combatEvents(delta.BaseDelta)...)
}
