package catalog

// Provider status and type code tables. Unmapped codes get no label.

var gameStatusNames = map[int]string{
	0: "Released",
	2: "Alpha",
	3: "Beta",
	4: "Early Access",
	5: "Offline",
	6: "Cancelled",
	7: "Rumored",
	8: "Delisted",
}

var gameTypeNames = map[int]string{
	0:  "Main Game",
	1:  "DLC/Addon",
	2:  "Expansion",
	3:  "Bundle",
	4:  "Standalone Expansion",
	5:  "Mod",
	6:  "Episode",
	7:  "Season",
	8:  "Remake",
	9:  "Remaster",
	10: "Expanded Game",
	11: "Port",
	12: "Fork",
	13: "Pack",
	14: "Update",
}

// Game types never admitted by ingestion.
const (
	GameTypeMod    = 5
	GameTypePack   = 13
	GameTypeUpdate = 14

	GameTypeEpisode = 6
	GameTypeSeason  = 7
)

func GameStatusName(code int) (string, bool) {
	name, ok := gameStatusNames[code]
	return name, ok
}

func GameTypeName(code int) (string, bool) {
	name, ok := gameTypeNames[code]
	return name, ok
}

// IsExcludedGameType reports whether a type code is one of the
// mod/pack/update categories the quality filter rejects.
func IsExcludedGameType(code int) bool {
	return code == GameTypeMod || code == GameTypePack || code == GameTypeUpdate
}
