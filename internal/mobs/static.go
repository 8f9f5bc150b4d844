package mobs

var defaultMobs = []Mob{
	{ID: 10007, Name: "Storm Goblin King", Type: TypeBoss},
	{ID: 10009, Name: "Frost Ogre", Type: TypeBoss},
	{ID: 10010, Name: "Tempest Ogre", Type: TypeBoss},
	{ID: 10018, Name: "Inferno Ogre", Type: TypeBoss},
	{ID: 10029, Name: "Muku King", Type: TypeBoss},
	{ID: 10032, Name: "Golden Juggernaut", Type: TypeBoss},
	{ID: 10056, Name: "Brigand Leader", Type: TypeBoss},
	{ID: 10059, Name: "Muku Chief", Type: TypeBoss},
	{ID: 10069, Name: "Phantom Arachnocrab", Type: TypeBoss},
	{ID: 10077, Name: "Venobzzar Incubator", Type: TypeBoss},
	{ID: 10081, Name: "Iron Fang", Type: TypeBoss},
	{ID: 10084, Name: "Celestial Flier", Type: TypeBoss},
	{ID: 10085, Name: "Lizardman King", Type: TypeBoss},
	{ID: 10086, Name: "Goblin King", Type: TypeBoss},
	{ID: 10900, Name: "Golden Nappo", Type: TypeMagicalCreature, Locations: map[int]string{
		1: "Beach", 2: "Cliff Ruins", 3: "Muku", 4: "Farm", 5: "Brigand Leader", 6: "Ruins E",
	}},
	{ID: 10901, Name: "Silver Nappo", Type: TypeMagicalCreature, Locations: map[int]string{
		1: "Beach", 2: "Lone", 3: "Cliff Ruins", 4: "Scout N", 5: "Scout E", 6: "Kana Road",
		7: "Muku", 8: "Farm", 9: "Brigand Leader", 10: "Ruins N", 11: "Ruins E",
	}},
	{ID: 10902, Name: "Lovely Boarlet", Type: TypeMagicalCreature},
	{ID: 10903, Name: "Breezy Boarlet", Type: TypeMagicalCreature},
	{ID: 10904, Name: "Loyal Boarlet", Type: TypeMagicalCreature, Locations: map[int]string{
		1: "Cliff Ruins", 2: "Scout NW", 3: "Scout E", 4: "Scout NE", 5: "Kana", 6: "Farm", 7: "Tent", 8: "Andra",
	}},
}

// Static returns the built-in catalog of tracked bosses and magical creatures.
func Static() *Table {
	return NewTable(defaultMobs)
}
