package pb

import (
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// The Marshal methods produce proto3 encodings (zero scalars omitted, repeated
// scalars packed). They are used to synthesise captures for replay tests.

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

// appendMessage always emits the field, so that an empty sub-message stays present.
func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendPacked(b []byte, num protowire.Number, vs []int32) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(int64(v)))
	}
	return appendBytes(b, num, packed)
}

func (m *Attr) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldAttrID, uint64(int64(m.ID)))
	return appendBytes(b, fieldAttrRawData, m.RawData)
}

func (m *AttrCollection) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldAttrCollectionUUID, uint64(m.UUID))
	for i := range m.Attrs {
		b = appendMessage(b, fieldAttrCollectionAttrs, m.Attrs[i].Marshal())
	}
	return b
}

func (m *Vector3) Marshal() []byte {
	var b []byte
	b = appendFloat(b, fieldVectorX, m.X)
	b = appendFloat(b, fieldVectorY, m.Y)
	return appendFloat(b, fieldVectorZ, m.Z)
}

func (m *SyncDamageInfo) Marshal() []byte {
	var b []byte
	b = appendBool(b, fieldDamageIsMiss, m.IsMiss)
	b = appendBool(b, fieldDamageIsCrit, m.IsCrit)
	b = appendVarint(b, fieldDamageType, uint64(int64(m.Type)))
	b = appendVarint(b, fieldDamageTypeFlag, uint64(int64(m.TypeFlag)))
	b = appendVarint(b, fieldDamageValue, uint64(m.Value))
	b = appendVarint(b, fieldDamageLuckyValue, uint64(m.LuckyValue))
	b = appendVarint(b, fieldDamageHpLessenValue, uint64(m.HpLessenValue))
	b = appendVarint(b, fieldDamageAttackerUUID, uint64(m.AttackerUUID))
	b = appendVarint(b, fieldDamageOwnerID, uint64(int64(m.OwnerID)))
	b = appendBool(b, fieldDamageIsDead, m.IsDead)
	return appendVarint(b, fieldDamageTopSummonerID, uint64(m.TopSummonerID))
}

func (m *SkillEffect) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldSkillEffectUUID, uint64(m.UUID))
	for i := range m.Damages {
		b = appendMessage(b, fieldSkillEffectDamages, m.Damages[i].Marshal())
	}
	return b
}

func (m *AoiSyncDelta) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldDeltaUUID, uint64(m.UUID))
	if m.Attrs != nil {
		b = appendMessage(b, fieldDeltaAttrs, m.Attrs.Marshal())
	}
	if m.SkillEffects != nil {
		b = appendMessage(b, fieldDeltaSkillEffects, m.SkillEffects.Marshal())
	}
	return b
}

func (m *SyncNearDeltaInfo) Marshal() []byte {
	var b []byte
	for i := range m.DeltaInfos {
		b = appendMessage(b, fieldNearDeltaInfos, m.DeltaInfos[i].Marshal())
	}
	return b
}

func (m *AoiSyncToMeDelta) Marshal() []byte {
	var b []byte
	if m.BaseDelta != nil {
		b = appendMessage(b, fieldToMeBaseDelta, m.BaseDelta.Marshal())
	}
	return appendVarint(b, fieldToMeUUID, uint64(m.UUID))
}

func (m *SyncToMeDeltaInfo) Marshal() []byte {
	if m.DeltaInfo == nil {
		return nil
	}
	return appendMessage(nil, fieldToMeDeltaInfo, m.DeltaInfo.Marshal())
}

func (m *Entity) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldEntityUUID, uint64(m.UUID))
	b = appendVarint(b, fieldEntityType, uint64(int64(m.EntType)))
	if m.Attrs != nil {
		b = appendMessage(b, fieldEntityAttrs, m.Attrs.Marshal())
	}
	return b
}

func (m *SyncNearEntities) Marshal() []byte {
	var b []byte
	for i := range m.Appear {
		b = appendMessage(b, fieldNearEntitiesAppear, m.Appear[i].Marshal())
	}
	for _, d := range m.Disappear {
		b = appendMessage(b, fieldNearEntitiesDisappear, appendVarint(nil, fieldDisappearUUID, uint64(d.UUID)))
	}
	return b
}

func (m *SyncContainerData) Marshal() []byte {
	if m.VData == nil {
		return nil
	}
	return appendMessage(nil, fieldContainerVData, m.VData.Marshal())
}

func (m *CharSerialize) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldCharID, uint64(m.CharID))
	if m.CharBase != nil {
		var cb []byte
		cb = appendVarint(cb, fieldCharBaseCharID, uint64(m.CharBase.CharID))
		cb = appendBytes(cb, fieldCharBaseAccountID, []byte(m.CharBase.AccountID))
		cb = appendBytes(cb, fieldCharBaseName, []byte(m.CharBase.Name))
		b = appendMessage(b, fieldCharBase, cb)
	}
	if m.SceneData != nil {
		b = appendMessage(b, fieldCharSceneData, appendVarint(nil, fieldSceneLineID, uint64(m.SceneData.LineID)))
	}
	if m.ItemPackage != nil {
		b = appendMessage(b, fieldCharItemPackage, m.ItemPackage.Marshal())
	}
	if m.Mod != nil {
		b = appendMessage(b, fieldCharMod, m.Mod.Marshal())
	}
	return b
}

func mapEntryBytes(key uint64, value []byte) []byte {
	var e []byte
	e = appendVarint(e, fieldMapKey, key)
	return appendMessage(e, fieldMapValue, value)
}

func (m *ItemPackage) Marshal() []byte {
	keys := make([]int32, 0, len(m.Packages))
	for k := range m.Packages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b []byte
	for _, k := range keys {
		pkg := m.Packages[k]
		b = appendMessage(b, fieldItemPackagePackages, mapEntryBytes(uint64(int64(k)), pkg.Marshal()))
	}
	return b
}

func (m *Package) Marshal() []byte {
	keys := make([]int64, 0, len(m.Items))
	for k := range m.Items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b []byte
	b = appendVarint(b, fieldPackageType, uint64(int64(m.Type)))
	for _, k := range keys {
		item := m.Items[k]
		var ib []byte
		ib = appendVarint(ib, fieldItemUUID, uint64(item.UUID))
		ib = appendVarint(ib, fieldItemConfigID, uint64(int64(item.ConfigID)))
		if item.ModNewAttr != nil {
			ib = appendMessage(ib, fieldItemModNewAttr, appendPacked(nil, fieldModNewAttrModParts, item.ModNewAttr.ModParts))
		}
		b = appendMessage(b, fieldPackageItems, mapEntryBytes(uint64(k), ib))
	}
	return b
}

func (m *Mod) Marshal() []byte {
	keys := make([]int64, 0, len(m.ModInfos))
	for k := range m.ModInfos {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b []byte
	for _, k := range keys {
		info := appendPacked(nil, fieldModInfoInitLinkNums, m.ModInfos[k].InitLinkNums)
		b = appendMessage(b, fieldModModInfos, mapEntryBytes(uint64(k), info))
	}
	return b
}
