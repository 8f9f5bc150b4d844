package extract

import (
	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/protocol/pb"
)

func (x *Extractor) nearEntities(msg *pb.SyncNearEntities) []event.Event {
	var out []event.Event
	for i := range msg.Appear {
		e := &msg.Appear[i]
		switch e.EntType {
		case pb.EntityTypeChar:
			out = append(out, x.playerAppear(e)...)
		case pb.EntityTypeMonster:
			if ev, ok := x.monsterAppear(e); ok {
				out = append(out, ev)
			}
		}
	}
	return out
}

func (x *Extractor) playerAppear(e *pb.Entity) []event.Event {
	uid := PlayerUID(e.UUID)
	if uid == 0 {
		return nil
	}
	bag := pb.NewAttrBag(e.Attrs)

	var out []event.Event
	if name, ok := bag.Name(); ok && name != "" {
		out = append(out, event.PlayerName{PlayerUID: uid, Name: name})
	}
	if pos, ok := bag.Position(); ok {
		p := position(pos)
		out = append(out, event.EntityPosition{
			UUID:       e.UUID,
			EntityType: event.EntityPlayer,
			Position:   &p,
			CurrentHP:  optionalHP(bag.CurrentHP()),
			MaxHP:      optionalHP(bag.MaxHP()),
		})
	}
	return out
}

func (x *Extractor) monsterAppear(e *pb.Entity) (event.EntityPosition, bool) {
	bag := pb.NewAttrBag(e.Attrs)

	baseID, ok := bag.Identity()
	if !ok {
		baseID = uint32(PlayerUID(e.UUID))
		x.log.WithField("uuid", e.UUID).WithField("base_id", baseID).
			Warn("monster without identity attribute, deriving base id from uuid")
	}
	if baseID == 0 {
		return event.EntityPosition{}, false
	}
	x.registry.Set(e.UUID, baseID)

	if !x.catalog.IsTracked(baseID) {
		return event.EntityPosition{}, false
	}
	pos, ok := bag.Position()
	if !ok {
		return event.EntityPosition{}, false
	}
	p := position(pos)
	return event.EntityPosition{
		UUID:       e.UUID,
		EntityType: event.EntityMonster,
		Position:   &p,
		MobBaseID:  &baseID,
		CurrentHP:  optionalHP(bag.CurrentHP()),
		MaxHP:      optionalHP(bag.MaxHP()),
	}, true
}
