// Package pb decodes the protobuf messages carried in Notify payloads.
//
// The messages are walked at the wire level with protowire; there is no
// generated code. Field numbers are collected here so that a schema change is
// a one-file edit.
package pb

import "google.golang.org/protobuf/encoding/protowire"

// Attr
const (
	fieldAttrID      protowire.Number = 1
	fieldAttrRawData protowire.Number = 2
)

// AttrCollection
const (
	fieldAttrCollectionUUID  protowire.Number = 1
	fieldAttrCollectionAttrs protowire.Number = 2
)

// Vector3
const (
	fieldVectorX protowire.Number = 1
	fieldVectorY protowire.Number = 2
	fieldVectorZ protowire.Number = 3
)

// SyncDamageInfo
const (
	fieldDamageIsMiss        protowire.Number = 2
	fieldDamageIsCrit        protowire.Number = 3
	fieldDamageType          protowire.Number = 4
	fieldDamageTypeFlag      protowire.Number = 5
	fieldDamageValue         protowire.Number = 6
	fieldDamageLuckyValue    protowire.Number = 8
	fieldDamageHpLessenValue protowire.Number = 9
	fieldDamageAttackerUUID  protowire.Number = 11
	fieldDamageOwnerID       protowire.Number = 12
	fieldDamageIsDead        protowire.Number = 17
	fieldDamageTopSummonerID protowire.Number = 21
)

// SkillEffect
const (
	fieldSkillEffectUUID    protowire.Number = 1
	fieldSkillEffectDamages protowire.Number = 2
)

// AoiSyncDelta
const (
	fieldDeltaUUID         protowire.Number = 1
	fieldDeltaAttrs        protowire.Number = 2
	fieldDeltaSkillEffects protowire.Number = 7
)

// SyncNearDeltaInfo
const fieldNearDeltaInfos protowire.Number = 1

// AoiSyncToMeDelta
const (
	fieldToMeBaseDelta protowire.Number = 1
	fieldToMeUUID      protowire.Number = 5
)

// SyncToMeDeltaInfo
const fieldToMeDeltaInfo protowire.Number = 1

// Entity, DisappearEntity
const (
	fieldEntityUUID    protowire.Number = 1
	fieldEntityType    protowire.Number = 2
	fieldEntityAttrs   protowire.Number = 3
	fieldDisappearUUID protowire.Number = 1
)

// SyncNearEntities
const (
	fieldNearEntitiesAppear    protowire.Number = 1
	fieldNearEntitiesDisappear protowire.Number = 2
)

// SyncContainerData
const fieldContainerVData protowire.Number = 1

// CharSerialize
const (
	fieldCharID          protowire.Number = 1
	fieldCharBase        protowire.Number = 2
	fieldCharSceneData   protowire.Number = 3
	fieldCharItemPackage protowire.Number = 7
	fieldCharMod         protowire.Number = 54
)

// CharBaseInfo
const (
	fieldCharBaseCharID    protowire.Number = 1
	fieldCharBaseAccountID protowire.Number = 2
	fieldCharBaseName      protowire.Number = 5
)

// SceneData
const fieldSceneLineID protowire.Number = 5

// ItemPackage, Package, Item, ModNewAttr
const (
	fieldItemPackagePackages protowire.Number = 1
	fieldPackageType         protowire.Number = 1
	fieldPackageItems        protowire.Number = 3
	fieldItemUUID            protowire.Number = 1
	fieldItemConfigID        protowire.Number = 2
	fieldItemModNewAttr      protowire.Number = 18
	fieldModNewAttrModParts  protowire.Number = 1
)

// Mod, ModInfo
const (
	fieldModModInfos         protowire.Number = 2
	fieldModInfoInitLinkNums protowire.Number = 3
)

// map<K, V> entries
const (
	fieldMapKey   protowire.Number = 1
	fieldMapValue protowire.Number = 2
)

// EntityType is the EEntityType enum.
type EntityType int32

const (
	EntityTypeMonster EntityType = 1
	EntityTypeChar    EntityType = 10
)

// DamageType is the EDamageType enum.
type DamageType int32

const (
	DamageTypeNormal DamageType = 0
	DamageTypeMiss   DamageType = 1
	DamageTypeHeal   DamageType = 2
)
