package extract

import (
	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/protocol/pb"
)

// combatEvents classifies the damage records attached to delta. The target of
// every record is the delta's entity.
func combatEvents(delta *pb.AoiSyncDelta) []event.Event {
	if delta == nil || delta.SkillEffects == nil {
		return nil
	}

	target := delta.UUID
	targetIsPlayer := IsPlayer(target)

	var out []event.Event
	for i := range delta.SkillEffects.Damages {
		d := &delta.SkillEffects.Damages[i]
		if d.OwnerID == 0 {
			continue
		}

		attacker := d.TopSummonerID
		if attacker == 0 {
			attacker = d.AttackerUUID
		}
		if attacker == 0 {
			continue
		}

		amount := d.Value
		if d.LuckyValue != 0 {
			amount = d.LuckyValue
		}
		miss := d.IsMiss || d.Type == pb.DamageTypeMiss
		if amount == 0 && !miss {
			continue
		}

		crit := d.TypeFlag&1 == 1
		lucky := d.LuckyValue != 0

		switch {
		case miss:
			// A miss never reduces HP, whatever value it carries.
			if targetIsPlayer {
				out = append(out, event.DamageTaken{
					PlayerUID: PlayerUID(target),
					IsMiss:    true,
					IsDead:    d.IsDead,
				})
			}
		case d.Type == pb.DamageTypeHeal:
			if IsPlayer(attacker) && targetIsPlayer {
				out = append(out, event.Healing{
					PlayerUID: PlayerUID(attacker),
					Healing:   amount,
					IsCrit:    crit,
					IsLucky:   lucky,
				})
			}
		default:
			if IsPlayer(attacker) {
				out = append(out, event.Damage{
					PlayerUID: PlayerUID(attacker),
					Damage:    amount,
					IsCrit:    crit,
					IsLucky:   lucky,
				})
			}
			if targetIsPlayer {
				lessen := d.HpLessenValue
				if lessen <= 0 {
					lessen = amount
				}
				out = append(out, event.DamageTaken{
					PlayerUID: PlayerUID(target),
					HpLessen:  lessen,
					IsDead:    d.IsDead,
				})
			}
		}
	}
	return out
}
