package data

// ResetCadence selects how often an instance lock expires.
type ResetCadence int32

const (
	ResetDaily  ResetCadence = iota // every day at the configured hour
	ResetWeekly                     // every week at the configured weekday+hour
)

// MapDifficulty describes the lock policy for one (map, difficulty) pair.
// Mirrors the MapDifficulty DBC entry: which lock id the pair shares,
// whether progress is tracked per encounter or per instance id, and how
// often the lock resets.
type MapDifficulty struct {
	MapID        int32
	DifficultyID int32
	LockID       int32 // locks with the same (map, lockID) are interchangeable
	Cadence      ResetCadence

	// HasLocks: entering this map+difficulty binds the player at all.
	// EncounterLocks: progress saved per encounter (private payload per
	// player) rather than per instance id.
	// Flex: players may join any instance id, gated only by
	// completed-encounter comparison.
	HasLocks       bool
	EncounterLocks bool
	Flex           bool
}

// UsesLocks returns true if entering this map+difficulty binds the player.
func (md *MapDifficulty) UsesLocks() bool { return md.HasLocks }

// UsesEncounterLocks returns true if progress is saved per encounter.
func (md *MapDifficulty) UsesEncounterLocks() bool { return md.EncounterLocks }

// IsFlexLocking returns true if the flex join rule applies.
func (md *MapDifficulty) IsFlexLocking() bool { return md.Flex && md.EncounterLocks }

// IsInstanceIDBound returns true if the lock payload is shared by everyone
// inside one instance id (classic raid binding).
func (md *MapDifficulty) IsInstanceIDBound() bool { return md.HasLocks && !md.EncounterLocks }

// DungeonEncounter is the static definition of one tracked boss fight.
type DungeonEncounter struct {
	ID         int32
	Name       string
	Bit        int32 // completion bit index in the lock bitmask, 0..31
	OrderIndex int32
}

// CompletedMask returns the bitmask contribution of this encounter.
func (e *DungeonEncounter) CompletedMask() uint32 {
	if e.Bit < 0 || e.Bit > 31 {
		return 0
	}
	return 1 << uint32(e.Bit)
}

type mapDifficultyKey struct {
	mapID        int32
	difficultyID int32
}

// mapDifficultyTable is keyed by (mapID, difficultyID).
// Static seed data; the full table is generated from client DBC dumps.
var mapDifficultyTable = map[mapDifficultyKey]*MapDifficulty{
	// Utgarde Keep: 5-man, daily reset, per-encounter locks on heroic.
	{574, 1}: {MapID: 574, DifficultyID: 1, LockID: 574, Cadence: ResetDaily},
	{574, 2}: {MapID: 574, DifficultyID: 2, LockID: 574, Cadence: ResetDaily, HasLocks: true, EncounterLocks: true},

	// Naxxramas: weekly raid, instance-id bound.
	{533, 3}: {MapID: 533, DifficultyID: 3, LockID: 533, Cadence: ResetWeekly, HasLocks: true},
	{533, 4}: {MapID: 533, DifficultyID: 4, LockID: 533, Cadence: ResetWeekly, HasLocks: true},

	// Siege of Orgrimmar: weekly, flexible per-encounter locking.
	{1136, 14}: {MapID: 1136, DifficultyID: 14, LockID: 1136, Cadence: ResetWeekly, HasLocks: true, EncounterLocks: true, Flex: true},
	{1136, 15}: {MapID: 1136, DifficultyID: 15, LockID: 1136, Cadence: ResetWeekly, HasLocks: true, EncounterLocks: true},
}

// dungeonEncounterTable is keyed by encounter ID.
var dungeonEncounterTable = map[int32]*DungeonEncounter{
	1084: {ID: 1084, Name: "Prince Keleseth", Bit: 0, OrderIndex: 0},
	1085: {ID: 1085, Name: "Skarvald & Dalronn", Bit: 1, OrderIndex: 1},
	1086: {ID: 1086, Name: "Ingvar the Plunderer", Bit: 2, OrderIndex: 2},

	1107: {ID: 1107, Name: "Anub'Rekhan", Bit: 0, OrderIndex: 0},
	1108: {ID: 1108, Name: "Grand Widow Faerlina", Bit: 1, OrderIndex: 1},
	1109: {ID: 1109, Name: "Maexxna", Bit: 2, OrderIndex: 2},
	1110: {ID: 1110, Name: "Noth the Plaguebringer", Bit: 3, OrderIndex: 3},
}

// GetMapDifficulty returns the lock rule set for a map+difficulty.
// Returns nil if the pair is not instanced.
func GetMapDifficulty(mapID, difficultyID int32) *MapDifficulty {
	return mapDifficultyTable[mapDifficultyKey{mapID, difficultyID}]
}

// GetDungeonEncounter returns a dungeon encounter definition by ID.
// Returns nil if not found.
func GetDungeonEncounter(id int32) *DungeonEncounter {
	return dungeonEncounterTable[id]
}

// GetMapDifficulties returns all entries for a map, any difficulty.
func GetMapDifficulties(mapID int32) []*MapDifficulty {
	var result []*MapDifficulty
	for key, md := range mapDifficultyTable {
		if key.mapID == mapID {
			result = append(result, md)
		}
	}
	return result
}

// RegisterMapDifficulty adds or replaces a map difficulty entry.
// Used by data loaders and tests.
func RegisterMapDifficulty(md *MapDifficulty) {
	mapDifficultyTable[mapDifficultyKey{md.MapID, md.DifficultyID}] = md
}

// RegisterDungeonEncounter adds or replaces an encounter definition.
// Used by data loaders and tests.
func RegisterDungeonEncounter(e *DungeonEncounter) {
	dungeonEncounterTable[e.ID] = e
}
