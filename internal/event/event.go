// Package event defines the events produced by the protocol decoder.
package event

import (
	"encoding/json"
	"math"
)

// Kind names an event variant on the wire.
type Kind string

const (
	KindDamage              Kind = "damage"
	KindHealing             Kind = "healing"
	KindDamageTaken         Kind = "damage_taken"
	KindPlayerName          Kind = "player_name"
	KindEntityPosition      Kind = "entity_position"
	KindLocalPlayerPosition Kind = "local_player_position"
	KindServerChange        Kind = "server_change"
	KindPlayerAccountInfo   Kind = "player_account_info"
	KindPlayerLineInfo      Kind = "player_line_info"
	KindModuleData          Kind = "module_data"
)

// Event is one decoded combat or telemetry event.
type Event interface {
	Kind() Kind
}

type Damage struct {
	PlayerUID int64 `json:"player_uid"`
	Damage    int64 `json:"damage"`
	IsCrit    bool  `json:"is_crit"`
	IsLucky   bool  `json:"is_lucky"`
}

type Healing struct {
	PlayerUID int64 `json:"player_uid"`
	Healing   int64 `json:"healing"`
	IsCrit    bool  `json:"is_crit"`
	IsLucky   bool  `json:"is_lucky"`
}

type DamageTaken struct {
	PlayerUID int64 `json:"player_uid"`
	HpLessen  int64 `json:"hp_lessen"`
	IsMiss    bool  `json:"is_miss"`
	IsDead    bool  `json:"is_dead"`
}

type PlayerName struct {
	PlayerUID int64  `json:"player_uid"`
	Name      string `json:"name"`
}

// EntityType distinguishes players from monsters in position updates.
type EntityType string

const (
	EntityPlayer  EntityType = "player"
	EntityMonster EntityType = "monster"
)

type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// EntityPosition reports an entity's position and HP. A nil Position marks
// an HP-only update.
type EntityPosition struct {
	UUID       int64      `json:"uuid"`
	EntityType EntityType `json:"entity_type"`
	Position   *Position  `json:"position"`
	MobBaseID  *uint32    `json:"mob_base_id,omitempty"`
	CurrentHP  *uint64    `json:"current_hp,omitempty"`
	MaxHP      *uint64    `json:"max_hp,omitempty"`
}

// SentinelPosition is the legacy encoding of "no position": all axes -Inf.
func SentinelPosition() Position {
	inf := float32(math.Inf(-1))
	return Position{X: inf, Y: inf, Z: inf}
}

// IsSentinel reports whether p is the legacy HP-only marker.
func (p Position) IsSentinel() bool {
	return math.IsInf(float64(p.X), -1) && math.IsInf(float64(p.Y), -1) && math.IsInf(float64(p.Z), -1)
}

// WirePosition returns the position in the legacy encoding, substituting the
// sentinel for HP-only updates.
func (e EntityPosition) WirePosition() Position {
	if e.Position == nil {
		return SentinelPosition()
	}
	return *e.Position
}

// PositionFromWire maps a legacy-encoded position back to the optional form.
func PositionFromWire(p Position) *Position {
	if p.IsSentinel() {
		return nil
	}
	return &p
}

// HPOnly reports whether the update carries no position.
func (e EntityPosition) HPOnly() bool { return e.Position == nil }

type LocalPlayerPosition struct {
	Position Position `json:"position"`
}

type ServerChange struct {
	ServerEndpoint string `json:"server_endpoint"`
}

type PlayerAccountInfo struct {
	AccountID string `json:"account_id"`
	UID       int64  `json:"uid"`
}

type PlayerLineInfo struct {
	LineID uint32 `json:"line_id"`
}

type ModuleData struct {
	Modules []Module `json:"modules"`
}

func (Damage) Kind() Kind              { return KindDamage }
func (Healing) Kind() Kind             { return KindHealing }
func (DamageTaken) Kind() Kind         { return KindDamageTaken }
func (PlayerName) Kind() Kind          { return KindPlayerName }
func (EntityPosition) Kind() Kind      { return KindEntityPosition }
func (LocalPlayerPosition) Kind() Kind { return KindLocalPlayerPosition }
func (ServerChange) Kind() Kind        { return KindServerChange }
func (PlayerAccountInfo) Kind() Kind   { return KindPlayerAccountInfo }
func (PlayerLineInfo) Kind() Kind      { return KindPlayerLineInfo }
func (ModuleData) Kind() Kind          { return KindModuleData }

// Envelope is the JSON form of an event: {"type": kind, "data": {...}}.
type Envelope struct {
	Type Kind  `json:"type"`
	Data Event `json:"data"`
}

// Marshal encodes ev as a JSON envelope.
func Marshal(ev Event) ([]byte, error) {
	return json.Marshal(Envelope{Type: ev.Kind(), Data: ev})
}
