package pb

import (
	"math"

	"firestige.xyz/bpsniff/internal/protocol/wire"
)

// Attribute ids inside an AttrCollection.
const (
	AttrName  int32 = 0x01
	AttrID    int32 = 0x0A
	AttrPos   int32 = 52
	AttrHp    int32 = 0x2C2E
	AttrMaxHp int32 = 0x2C38
)

// maxCoord bounds plausible world coordinates on the x and z axes. All three
// axes must be finite.
const maxCoord = 100000

// AttrBag is a typed view of an AttrCollection. Each known attribute is
// decoded once when the bag is built; malformed values are treated as absent.
//
// Name, identity and position keep the first valid occurrence, HP values the last.
type AttrBag struct {
	name    string
	id      uint32
	pos     Vector3
	hp      uint64
	maxHP   uint64
	hasName bool
	hasID   bool
	hasPos  bool
	hasHP   bool
	hasMax  bool
}

// NewAttrBag decodes the known attributes of c. A nil collection yields an empty bag.
func NewAttrBag(c *AttrCollection) AttrBag {
	var bag AttrBag
	if c == nil {
		return bag
	}
	for _, a := range c.Attrs {
		switch a.ID {
		case AttrName:
			if bag.hasName {
				continue
			}
			if s, err := wire.String(a.RawData); err == nil {
				bag.name, bag.hasName = s, true
			}
		case AttrID:
			if bag.hasID {
				continue
			}
			if v, err := wire.Uint32(a.RawData); err == nil {
				bag.id, bag.hasID = v, true
			}
		case AttrPos:
			if bag.hasPos {
				continue
			}
			var v Vector3
			if err := v.Unmarshal(a.RawData); err == nil && plausible(v) {
				bag.pos, bag.hasPos = v, true
			}
		case AttrHp:
			if v, err := wire.Int64(a.RawData); err == nil && v >= 0 {
				bag.hp, bag.hasHP = uint64(v), true
			}
		case AttrMaxHp:
			if v, err := wire.Int64(a.RawData); err == nil && v >= 0 {
				bag.maxHP, bag.hasMax = uint64(v), true
			}
		}
	}
	return bag
}

func plausible(v Vector3) bool {
	if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
		return false
	}
	return math.Abs(float64(v.X)) < maxCoord && math.Abs(float64(v.Z)) < maxCoord
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

func (b AttrBag) Name() (string, bool)      { return b.name, b.hasName }
func (b AttrBag) Identity() (uint32, bool)  { return b.id, b.hasID }
func (b AttrBag) Position() (Vector3, bool) { return b.pos, b.hasPos }
func (b AttrBag) CurrentHP() (uint64, bool) { return b.hp, b.hasHP }
func (b AttrBag) MaxHP() (uint64, bool)     { return b.maxHP, b.hasMax }

// HasHP reports whether either HP attribute was present.
func (b AttrBag) HasHP() bool { return b.hasHP || b.hasMax }
