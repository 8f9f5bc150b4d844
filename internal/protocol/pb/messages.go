package pb

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

type Attr struct {
	ID      int32
	RawData []byte
}

type AttrCollection struct {
	UUID  int64
	Attrs []Attr
}

type Vector3 struct {
	X, Y, Z float32
}

type SyncDamageInfo struct {
	IsMiss        bool
	IsCrit        bool
	Type          DamageType
	TypeFlag      int32
	Value         int64
	LuckyValue    int64
	HpLessenValue int64
	AttackerUUID  int64
	OwnerID       int32
	IsDead        bool
	TopSummonerID int64
}

type SkillEffect struct {
	UUID    int64
	Damages []SyncDamageInfo
}

type AoiSyncDelta struct {
	UUID         int64
	Attrs        *AttrCollection
	SkillEffects *SkillEffect
}

type SyncNearDeltaInfo struct {
	DeltaInfos []AoiSyncDelta
}

type AoiSyncToMeDelta struct {
	BaseDelta *AoiSyncDelta
	UUID      int64
}

type SyncToMeDeltaInfo struct {
	DeltaInfo *AoiSyncToMeDelta
}

type Entity struct {
	UUID    int64
	EntType EntityType
	Attrs   *AttrCollection
}

type DisappearEntity struct {
	UUID int64
}

type SyncNearEntities struct {
	Appear    []Entity
	Disappear []DisappearEntity
}

type SyncContainerData struct {
	VData *CharSerialize
}

type CharSerialize struct {
	CharID      int64
	CharBase    *CharBaseInfo
	SceneData   *SceneData
	ItemPackage *ItemPackage
	Mod         *Mod
}

type CharBaseInfo struct {
	CharID    int64
	AccountID string
	Name      string
}

type SceneData struct {
	LineID uint32
}

type ItemPackage struct {
	Packages map[int32]Package
}

type Package struct {
	Type  int32
	Items map[int64]Item
}

type Item struct {
	UUID       int64
	ConfigID   int32
	ModNewAttr *ModNewAttr
}

type ModNewAttr struct {
	ModParts []int32
}

type Mod struct {
	ModInfos map[int64]ModInfo
}

type ModInfo struct {
	InitLinkNums []int32
}

// fieldFunc consumes the value of one field and returns the bytes used.
// Returning 0 leaves the field to be skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

// The helpers below return n == 0 when the wire type does not match so that
// walk skips the field instead of misreading it.

func varint(typ protowire.Type, b []byte, dst *uint64) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n > 0 {
		*dst = v
	}
	return n
}

func int64Field(typ protowire.Type, b []byte, dst *int64) int {
	var v uint64
	n := varint(typ, b, &v)
	if n > 0 {
		*dst = int64(v)
	}
	return n
}

func int32Field(typ protowire.Type, b []byte, dst *int32) int {
	var v uint64
	n := varint(typ, b, &v)
	if n > 0 {
		*dst = int32(v)
	}
	return n
}

func boolField(typ protowire.Type, b []byte, dst *bool) int {
	var v uint64
	n := varint(typ, b, &v)
	if n > 0 {
		*dst = protowire.DecodeBool(v)
	}
	return n
}

func floatField(typ protowire.Type, b []byte, dst *float32) int {
	if typ != protowire.Fixed32Type {
		return 0
	}
	v, n := protowire.ConsumeFixed32(b)
	if n > 0 {
		*dst = math.Float32frombits(v)
	}
	return n
}

func bytesField(typ protowire.Type, b []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n > 0 {
		*dst = v
	}
	return n
}

// message decodes a length-delimited sub-message with unmarshal.
func message(typ protowire.Type, b []byte, unmarshal func([]byte) error) (int, error) {
	var raw []byte
	n := bytesField(typ, b, &raw)
	if n <= 0 {
		return n, nil
	}
	return n, unmarshal(raw)
}

// repeatedInt32 accepts both packed and unpacked encodings.
func repeatedInt32(typ protowire.Type, b []byte, dst *[]int32) int {
	switch typ {
	case protowire.VarintType:
		var v int32
		n := int32Field(typ, b, &v)
		if n > 0 {
			*dst = append(*dst, v)
		}
		return n
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return m
			}
			*dst = append(*dst, int32(v))
			packed = packed[m:]
		}
		return n
	}
	return 0
}

// mapEntry splits a map entry into its key bytes and value handling.
func mapEntry(raw []byte, key func(protowire.Type, []byte) int, value func(protowire.Type, []byte) (int, error)) error {
	return walk(raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldMapKey:
			return key(typ, b), nil
		case fieldMapValue:
			return value(typ, b)
		}
		return 0, nil
	})
}

func (m *Attr) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAttrID:
			return int32Field(typ, b, &m.ID), nil
		case fieldAttrRawData:
			return bytesField(typ, b, &m.RawData), nil
		}
		return 0, nil
	})
}

func (m *AttrCollection) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAttrCollectionUUID:
			return int64Field(typ, b, &m.UUID), nil
		case fieldAttrCollectionAttrs:
			var a Attr
			n, err := message(typ, b, a.Unmarshal)
			if n > 0 && err == nil {
				m.Attrs = append(m.Attrs, a)
			}
			return n, err
		}
		return 0, nil
	})
}

func (m *Vector3) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldVectorX:
			return floatField(typ, b, &m.X), nil
		case fieldVectorY:
			return floatField(typ, b, &m.Y), nil
		case fieldVectorZ:
			return floatField(typ, b, &m.Z), nil
		}
		return 0, nil
	})
}

func (m *SyncDamageInfo) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldDamageIsMiss:
			return boolField(typ, b, &m.IsMiss), nil
		case fieldDamageIsCrit:
			return boolField(typ, b, &m.IsCrit), nil
		case fieldDamageType:
			var v int32
			n := int32Field(typ, b, &v)
			m.Type = DamageType(v)
			return n, nil
		case fieldDamageTypeFlag:
			return int32Field(typ, b, &m.TypeFlag), nil
		case fieldDamageValue:
			return int64Field(typ, b, &m.Value), nil
		case fieldDamageLuckyValue:
			return int64Field(typ, b, &m.LuckyValue), nil
		case fieldDamageHpLessenValue:
			return int64Field(typ, b, &m.HpLessenValue), nil
		case fieldDamageAttackerUUID:
			return int64Field(typ, b, &m.AttackerUUID), nil
		case fieldDamageOwnerID:
			return int32Field(typ, b, &m.OwnerID), nil
		case fieldDamageIsDead:
			return boolField(typ, b, &m.IsDead), nil
		case fieldDamageTopSummonerID:
			return int64Field(typ, b, &m.TopSummonerID), nil
		}
		return 0, nil
	})
}

func (m *SkillEffect) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldSkillEffectUUID:
			return int64Field(typ, b, &m.UUID), nil
		case fieldSkillEffectDamages:
			var d SyncDamageInfo
			n, err := message(typ, b, d.Unmarshal)
			if n > 0 && err == nil {
				m.Damages = append(m.Damages, d)
			}
			return n, err
		}
		return 0, nil
	})
}

func (m *AoiSyncDelta) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldDeltaUUID:
			return int64Field(typ, b, &m.UUID), nil
		case fieldDeltaAttrs:
			m.Attrs = &AttrCollection{}
			return message(typ, b, m.Attrs.Unmarshal)
		case fieldDeltaSkillEffects:
			m.SkillEffects = &SkillEffect{}
			return message(typ, b, m.SkillEffects.Unmarshal)
		}
		return 0, nil
	})
}

func (m *SyncNearDeltaInfo) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldNearDeltaInfos {
			return 0, nil
		}
		var d AoiSyncDelta
		n, err := message(typ, b, d.Unmarshal)
		if n > 0 && err == nil {
			m.DeltaInfos = append(m.DeltaInfos, d)
		}
		return n, err
	})
}

func (m *AoiSyncToMeDelta) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldToMeBaseDelta:
			m.BaseDelta = &AoiSyncDelta{}
			return message(typ, b, m.BaseDelta.Unmarshal)
		case fieldToMeUUID:
			return int64Field(typ, b, &m.UUID), nil
		}
		return 0, nil
	})
}

func (m *SyncToMeDeltaInfo) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldToMeDeltaInfo {
			return 0, nil
		}
		m.DeltaInfo = &AoiSyncToMeDelta{}
		return message(typ, b, m.DeltaInfo.Unmarshal)
	})
}

func (m *Entity) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldEntityUUID:
			return int64Field(typ, b, &m.UUID), nil
		case fieldEntityType:
			var v int32
			n := int32Field(typ, b, &v)
			m.EntType = EntityType(v)
			return n, nil
		case fieldEntityAttrs:
			m.Attrs = &AttrCollection{}
			return message(typ, b, m.Attrs.Unmarshal)
		}
		return 0, nil
	})
}

func (m *SyncNearEntities) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldNearEntitiesAppear:
			var e Entity
			n, err := message(typ, b, e.Unmarshal)
			if n > 0 && err == nil {
				m.Appear = append(m.Appear, e)
			}
			return n, err
		case fieldNearEntitiesDisappear:
			var d DisappearEntity
			n, err := message(typ, b, func(raw []byte) error {
				return walk(raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
					if num == fieldDisappearUUID {
						return int64Field(typ, b, &d.UUID), nil
					}
					return 0, nil
				})
			})
			if n > 0 && err == nil {
				m.Disappear = append(m.Disappear, d)
			}
			return n, err
		}
		return 0, nil
	})
}

func (m *SyncContainerData) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldContainerVData {
			return 0, nil
		}
		m.VData = &CharSerialize{}
		return message(typ, b, m.VData.Unmarshal)
	})
}

func (m *CharSerialize) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldCharID:
			return int64Field(typ, b, &m.CharID), nil
		case fieldCharBase:
			m.CharBase = &CharBaseInfo{}
			return message(typ, b, m.CharBase.Unmarshal)
		case fieldCharSceneData:
			m.SceneData = &SceneData{}
			return message(typ, b, m.SceneData.Unmarshal)
		case fieldCharItemPackage:
			m.ItemPackage = &ItemPackage{}
			return message(typ, b, m.ItemPackage.Unmarshal)
		case fieldCharMod:
			m.Mod = &Mod{}
			return message(typ, b, m.Mod.Unmarshal)
		}
		return 0, nil
	})
}

func (m *CharBaseInfo) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var raw []byte
		switch num {
		case fieldCharBaseCharID:
			return int64Field(typ, b, &m.CharID), nil
		case fieldCharBaseAccountID:
			n := bytesField(typ, b, &raw)
			m.AccountID = string(raw)
			return n, nil
		case fieldCharBaseName:
			n := bytesField(typ, b, &raw)
			m.Name = string(raw)
			return n, nil
		}
		return 0, nil
	})
}

func (m *SceneData) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldSceneLineID {
			return 0, nil
		}
		var v uint64
		n := varint(typ, b, &v)
		m.LineID = uint32(v)
		return n, nil
	})
}

func (m *ItemPackage) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldItemPackagePackages {
			return 0, nil
		}
		var (
			key int32
			pkg Package
		)
		n, err := message(typ, b, func(raw []byte) error {
			return mapEntry(raw,
				func(typ protowire.Type, b []byte) int { return int32Field(typ, b, &key) },
				func(typ protowire.Type, b []byte) (int, error) { return message(typ, b, pkg.Unmarshal) })
		})
		if n > 0 && err == nil {
			if m.Packages == nil {
				m.Packages = make(map[int32]Package)
			}
			m.Packages[key] = pkg
		}
		return n, err
	})
}

func (m *Package) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldPackageType:
			return int32Field(typ, b, &m.Type), nil
		case fieldPackageItems:
			var (
				key  int64
				item Item
			)
			n, err := message(typ, b, func(raw []byte) error {
				return mapEntry(raw,
					func(typ protowire.Type, b []byte) int { return int64Field(typ, b, &key) },
					func(typ protowire.Type, b []byte) (int, error) { return message(typ, b, item.Unmarshal) })
			})
			if n > 0 && err == nil {
				if m.Items == nil {
					m.Items = make(map[int64]Item)
				}
				m.Items[key] = item
			}
			return n, err
		}
		return 0, nil
	})
}

func (m *Item) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldItemUUID:
			return int64Field(typ, b, &m.UUID), nil
		case fieldItemConfigID:
			return int32Field(typ, b, &m.ConfigID), nil
		case fieldItemModNewAttr:
			m.ModNewAttr = &ModNewAttr{}
			return message(typ, b, func(raw []byte) error {
				return walk(raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
					if num == fieldModNewAttrModParts {
						return repeatedInt32(typ, b, &m.ModNewAttr.ModParts), nil
					}
					return 0, nil
				})
			})
		}
		return 0, nil
	})
}

func (m *Mod) Unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldModModInfos {
			return 0, nil
		}
		var (
			key  int64
			info ModInfo
		)
		n, err := message(typ, b, func(raw []byte) error {
			return mapEntry(raw,
				func(typ protowire.Type, b []byte) int { return int64Field(typ, b, &key) },
				func(typ protowire.Type, b []byte) (int, error) {
					return message(typ, b, func(raw []byte) error {
						return walk(raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
							if num == fieldModInfoInitLinkNums {
								return repeatedInt32(typ, b, &info.InitLinkNums), nil
							}
							return 0, nil
						})
					})
				})
		})
		if n > 0 && err == nil {
			if m.ModInfos == nil {
				m.ModInfos = make(map[int64]ModInfo)
			}
			m.ModInfos[key] = info
		}
		return n, err
	})
}
