// Package mobs provides the monster lookup used to decide which entities are
// reported with positions.
package mobs

import "strings"

// Mob types.
const (
	TypeBoss            = "boss"
	TypeMagicalCreature = "magical_creature"
)

// Mob describes one tracked monster kind.
type Mob struct {
	ID        uint32         `yaml:"id"`
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	Locations map[int]string `yaml:"locations,omitempty"`
}

// RequiresLocationNumber reports whether spawns of m are told apart by a
// location number rather than by line alone.
func (m Mob) RequiresLocationNumber() bool {
	return len(m.Locations) > 0
}

// LocationName returns the display name of spawn location n.
func (m Mob) LocationName(n int) (string, bool) {
	name, ok := m.Locations[n]
	return name, ok
}

// Catalog looks up tracked monsters. Implementations must be safe for
// concurrent use.
type Catalog interface {
	ByID(id uint32) (Mob, bool)
	ByName(name string) (Mob, bool)
	IsTracked(id uint32) bool
}

// Table is an immutable Catalog built from a list of mobs.
type Table struct {
	byID   map[uint32]Mob
	byName map[string]Mob
}

// NewTable indexes mobs by id and by case-insensitive name. Later entries
// replace earlier ones with the same id.
func NewTable(mobs []Mob) *Table {
	t := &Table{
		byID:   make(map[uint32]Mob, len(mobs)),
		byName: make(map[string]Mob, len(mobs)),
	}
	for _, m := range mobs {
		t.byID[m.ID] = m
		t.byName[strings.ToLower(m.Name)] = m
	}
	return t
}

func (t *Table) ByID(id uint32) (Mob, bool) {
	m, ok := t.byID[id]
	return m, ok
}

func (t *Table) ByName(name string) (Mob, bool) {
	m, ok := t.byName[strings.ToLower(name)]
	return m, ok
}

func (t *Table) IsTracked(id uint32) bool {
	_, ok := t.byID[id]
	return ok
}

// Len returns the number of mobs in the table.
func (t *Table) Len() int { return len(t.byID) }
