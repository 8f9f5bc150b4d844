package extract

// playerDiscriminant is the low 16 bits of a player entity UUID.
const playerDiscriminant = 640

// IsPlayer reports whether uuid identifies a player character.
func IsPlayer(uuid int64) bool {
	return uuid&0xFFFF == playerDiscriminant
}

// PlayerUID derives the player-facing numeric id from an entity UUID.
func PlayerUID(uuid int64) int64 {
	return uuid >> 16
}
