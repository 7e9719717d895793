// Package script implements the per-instance encounter state machine:
// boss states, door and minion propagation, spawn-group gating, the
// combat resurrection economy and the persisted save-data codec.
package script

import (
	"log/slog"

	"github.com/udisondev/wowgo/internal/data"
	"github.com/udisondev/wowgo/internal/game/instancelock"
)

// EncounterState is the lifecycle state of one boss encounter.
type EncounterState int32

const (
	StateToBeDecided EncounterState = iota // load-time sentinel, never persisted
	StateNotStarted
	StateInProgress
	StateFail
	StateDone // terminal: regression is rejected
	StateSpecial
)

// String returns a human-readable state name.
func (s EncounterState) String() string {
	switch s {
	case StateToBeDecided:
		return "TO_BE_DECIDED"
	case StateNotStarted:
		return "NOT_STARTED"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateFail:
		return "FAIL"
	case StateDone:
		return "DONE"
	case StateSpecial:
		return "SPECIAL"
	default:
		return "UNKNOWN"
	}
}

// valid reports whether a numeric value decodes to a known state.
func (s EncounterState) valid() bool {
	return s >= StateToBeDecided && s <= StateSpecial
}

// bit returns the state as a bitmask bit for spawn-group rules.
func (s EncounterState) bit() uint8 { return 1 << uint8(s) }

// DoorType is the semantic role of a door relative to its boss.
type DoorType int32

const (
	DoorRoom      DoorType = iota // closed only while the boss is in progress
	DoorPassage                   // opens once the boss is done
	DoorSpawnHole                 // open only while the boss is in progress
)

// DoorData declares a door template governed by a boss.
type DoorData struct {
	Entry  uint32 // game object template id
	BossID uint32
	Type   DoorType
}

// MinionData declares a creature template linked to a boss.
type MinionData struct {
	Entry     uint32 // creature template id
	BossID    uint32
	WorldBoss bool // a live world-boss minion blocks the Done transition
}

// DoorHandle is a live door object the script can open and close.
type DoorHandle interface {
	SetOpen(open bool)
}

// MinionHandle is a live linked creature.
type MinionHandle interface {
	IsAlive() bool
	InCombat() bool
	Respawn()
	EnterEvade()
	Engage()
}

// InstanceMap is the live instance the script belongs to.
type InstanceMap interface {
	InstanceID() uint64
	OccupantCount() int
	TeamID() Faction
	// EnterCombatAll runs the entering-combat hooks for every occupant.
	EnterCombatAll()
}

// Faction is the owning faction of an instance.
type Faction int32

const (
	FactionAlliance Faction = 0
	FactionHorde    Faction = 1
)

// MessageType tags an occupant-notification broadcast.
type MessageType int32

const (
	MessageEncounterEngage MessageType = iota
	MessageEncounterEnd
	MessageBossKillCredit
)

// Message is a typed notification pushed to all occupants.
type Message struct {
	Type        MessageType
	BossID      uint32
	EncounterID int32
}

// Broadcaster pushes a message to every current occupant.
type Broadcaster interface {
	Broadcast(msg Message)
}

// doorRule is one (boss, type) governor of a door template.
type doorRule struct {
	bossID   uint32
	doorType DoorType
}

// liveDoor is a registered door object.
type liveDoor struct {
	entry  uint32
	handle DoorHandle
}

// liveMinion is a registered linked creature.
type liveMinion struct {
	boss      *BossInfo
	worldBoss bool
	handle    MinionHandle
}

// BossInfo tracks one boss slot: its state, the live doors and minions
// linked to it, and up to 4 difficulty-specific encounter definitions.
type BossInfo struct {
	id         uint32
	state      EncounterState
	doors      map[uint64]*liveDoor
	minions    map[uint64]*liveMinion
	encounters [4]*data.DungeonEncounter // indexed by difficulty slot
}

// State returns the boss's current encounter state.
func (b *BossInfo) State() EncounterState { return b.state }

// InstanceScript drives encounter state for one live instance.
//
// Not internally synchronized: per the instance threading model only the
// worker owning the live instance ever mutates it.
type InstanceScript struct {
	header string
	md     *data.MapDifficulty

	instance    InstanceMap
	broadcaster Broadcaster
	bosses      []BossInfo

	doorRules  map[uint32][]doorRule // door entry → governing rules
	doors      map[uint64]*liveDoor
	minionData map[uint32]MinionData // creature entry → boss link
	minions    map[uint64]*liveMinion

	spawnRules   []SpawnGroupRule
	spawnCtl     SpawnGroupController
	activeGroups map[uint32]bool

	combatRes CombatResurrection

	entranceLocID uint32

	persistentNames  []string // registration order, drives encode order
	persistentValues map[string]float64

	// checkRequiredBosses validates prerequisite ordering on load;
	// nil accepts everything.
	checkRequiredBosses func(bossID uint32) bool

	// creditCriteria credits the player-facing completion criteria.
	creditCriteria func(encounter *data.DungeonEncounter)

	// pushLockUpdate hands a durable progress write to the lock registry.
	pushLockUpdate func(ev instancelock.UpdateEvent)

	// difficultySlot selects which encounters entry applies, 0..3.
	difficultySlot int
}

// Config wires an InstanceScript to its collaborators and topology.
type Config struct {
	Header         string
	MapDifficulty  *data.MapDifficulty
	Instance       InstanceMap
	Broadcaster    Broadcaster
	BossCount      int
	Doors          []DoorData
	Minions        []MinionData
	SpawnRules     []SpawnGroupRule
	SpawnCtl       SpawnGroupController
	DifficultySlot int

	CheckRequiredBosses func(bossID uint32) bool
	CreditCriteria      func(encounter *data.DungeonEncounter)
	PushLockUpdate      func(ev instancelock.UpdateEvent)
}

// New creates an instance script with all bosses at the load sentinel.
func New(cfg Config) *InstanceScript {
	s := &InstanceScript{
		header:              cfg.Header,
		md:                  cfg.MapDifficulty,
		instance:            cfg.Instance,
		broadcaster:         cfg.Broadcaster,
		bosses:              make([]BossInfo, cfg.BossCount),
		doorRules:           make(map[uint32][]doorRule, len(cfg.Doors)),
		doors:               make(map[uint64]*liveDoor, 8),
		minions:             make(map[uint64]*liveMinion, 8),
		spawnRules:          cfg.SpawnRules,
		spawnCtl:            cfg.SpawnCtl,
		activeGroups:        make(map[uint32]bool, 8),
		persistentValues:    make(map[string]float64, 4),
		checkRequiredBosses: cfg.CheckRequiredBosses,
		creditCriteria:      cfg.CreditCriteria,
		pushLockUpdate:      cfg.PushLockUpdate,
		difficultySlot:      cfg.DifficultySlot,
	}
	for i := range s.bosses {
		s.bosses[i].id = uint32(i)
		s.bosses[i].state = StateToBeDecided
		s.bosses[i].doors = make(map[uint64]*liveDoor, 2)
		s.bosses[i].minions = make(map[uint64]*liveMinion, 2)
	}
	for _, d := range cfg.Doors {
		if int(d.BossID) >= len(s.bosses) {
			slog.Warn("door data references unknown boss", "entry", d.Entry, "bossID", d.BossID)
			continue
		}
		s.doorRules[d.Entry] = append(s.doorRules[d.Entry], doorRule{bossID: d.BossID, doorType: d.Type})
	}
	s.minionData = make(map[uint32]MinionData, len(cfg.Minions))
	for _, md := range cfg.Minions {
		if int(md.BossID) >= len(s.bosses) {
			slog.Warn("minion data references unknown boss", "entry", md.Entry, "bossID", md.BossID)
			continue
		}
		s.minionData[md.Entry] = md
	}
	return s
}

// Header returns the script's save-data format tag.
func (s *InstanceScript) Header() string { return s.header }

// BossCount returns the number of tracked boss slots.
func (s *InstanceScript) BossCount() int { return len(s.bosses) }

// GetBossState returns the state of a boss slot, or StateToBeDecided for
// an out-of-range id.
func (s *InstanceScript) GetBossState(id uint32) EncounterState {
	if int(id) >= len(s.bosses) {
		return StateToBeDecided
	}
	return s.bosses[id].state
}

// SetEncounter assigns an encounter definition to a boss's difficulty slot.
func (s *InstanceScript) SetEncounter(bossID uint32, slot int, enc *data.DungeonEncounter) {
	if int(bossID) >= len(s.bosses) || slot < 0 || slot >= len(s.bosses[bossID].encounters) {
		return
	}
	s.bosses[bossID].encounters[slot] = enc
}

// CombatResurrectionPool returns the charge pool for external ticking.
func (s *InstanceScript) CombatResurrectionPool() *CombatResurrection { return &s.combatRes }

// EntranceLocation returns the chosen entrance world-safe-loc id.
func (s *InstanceScript) EntranceLocation() uint32 { return s.entranceLocID }

// SetEntranceLocation records the entrance location and, for lock-using
// maps, pushes it to the lock registry so re-entering players spawn there.
func (s *InstanceScript) SetEntranceLocation(worldSafeLocID uint32) {
	s.entranceLocID = worldSafeLocID
	if s.md.UsesLocks() && s.pushLockUpdate != nil {
		loc := worldSafeLocID
		s.pushLockUpdate(instancelock.UpdateEvent{
			InstanceID:             s.instance.InstanceID(),
			UpdatedData:            s.Save(),
			EntranceWorldSafeLocID: &loc,
		})
	}
}

// SetBossState transitions a boss slot. Returns true if the transition
// was applied as a live transition with side effects.
func (s *InstanceScript) SetBossState(id uint32, state EncounterState) bool {
	if int(id) >= len(s.bosses) {
		slog.Error("set boss state out of range", "bossID", id, "state", state.String(), "bosses", len(s.bosses))
		return false
	}
	boss := &s.bosses[id]

	if boss.state == StateToBeDecided {
		// Load-time initialization, no side effects fired.
		boss.state = state
		return false
	}
	if boss.state == state {
		return false
	}
	if boss.state == StateDone {
		// Done is terminal; only an explicit external reset may clear it.
		slog.Error("boss state regression rejected",
			"bossID", id, "from", boss.state.String(), "to", state.String())
		return false
	}
	if state == StateDone {
		for _, minion := range boss.minions {
			if minion.worldBoss && minion.handle.IsAlive() {
				slog.Error("boss cannot complete while world boss minion lives",
					"bossID", id)
				return false
			}
		}
	}

	boss.state = state

	switch state {
	case StateInProgress:
		occupants := s.instance.OccupantCount()
		s.combatRes.Reset()
		s.combatRes.Seed(occupants)
		s.broadcaster.Broadcast(Message{Type: MessageEncounterEngage, BossID: id})
		s.instance.EnterCombatAll()
	case StateFail:
		s.combatRes.Reset()
		s.broadcaster.Broadcast(Message{Type: MessageEncounterEnd, BossID: id})
	case StateDone:
		s.combatRes.Reset()
		s.broadcaster.Broadcast(Message{Type: MessageEncounterEnd, BossID: id})
		if enc := boss.encounters[s.difficultySlot]; enc != nil {
			if s.creditCriteria != nil {
				s.creditCriteria(enc)
			}
			s.broadcaster.Broadcast(Message{Type: MessageBossKillCredit, BossID: id, EncounterID: enc.ID})
			if s.md.UsesEncounterLocks() && s.pushLockUpdate != nil {
				s.pushLockUpdate(instancelock.UpdateEvent{
					InstanceID:         s.instance.InstanceID(),
					UpdatedData:        s.Save(),
					CompletedEncounter: enc,
				})
			}
		}
	}

	s.updateDoors(boss)
	s.updateMinions(boss)
	s.UpdateSpawnGroups()

	slog.Debug("boss state changed", "bossID", id, "state", state.String())
	return true
}

// CompletedEncountersMask returns the running completion total of this
// instance: one bit per encounter whose boss is Done.
func (s *InstanceScript) CompletedEncountersMask() uint32 {
	var mask uint32
	for i := range s.bosses {
		if s.bosses[i].state != StateDone {
			continue
		}
		if enc := s.bosses[i].encounters[s.difficultySlot]; enc != nil {
			mask |= enc.CompletedMask()
		}
	}
	return mask
}

// OnGameObjectCreate registers a live door if its entry is governed.
func (s *InstanceScript) OnGameObjectCreate(guid uint64, entry uint32, handle DoorHandle) {
	rules, ok := s.doorRules[entry]
	if !ok {
		return
	}
	door := &liveDoor{entry: entry, handle: handle}
	s.doors[guid] = door
	for _, rule := range rules {
		s.bosses[rule.bossID].doors[guid] = door
	}
	handle.SetOpen(s.doorOpen(door))
}

// OnGameObjectRemove forgets a live door.
func (s *InstanceScript) OnGameObjectRemove(guid uint64) {
	door, ok := s.doors[guid]
	if !ok {
		return
	}
	delete(s.doors, guid)
	for _, rule := range s.doorRules[door.entry] {
		delete(s.bosses[rule.bossID].doors, guid)
	}
}

// OnCreatureCreate registers a live minion if its entry is linked.
func (s *InstanceScript) OnCreatureCreate(guid uint64, entry uint32, handle MinionHandle) {
	md, ok := s.minionData[entry]
	if !ok {
		return
	}
	boss := &s.bosses[md.BossID]
	minion := &liveMinion{boss: boss, worldBoss: md.WorldBoss, handle: handle}
	s.minions[guid] = minion
	boss.minions[guid] = minion
	s.updateMinionState(minion, boss.state)
}

// OnCreatureRemove forgets a live minion.
func (s *InstanceScript) OnCreatureRemove(guid uint64) {
	minion, ok := s.minions[guid]
	if !ok {
		return
	}
	delete(s.minions, guid)
	delete(minion.boss.minions, guid)
}

// doorOpen evaluates the open policy over every rule governing a door.
// The door is open only if all governing rules evaluate open.
func (s *InstanceScript) doorOpen(door *liveDoor) bool {
	for _, rule := range s.doorRules[door.entry] {
		state := s.bosses[rule.bossID].state
		var open bool
		switch rule.doorType {
		case DoorRoom:
			open = state != StateInProgress
		case DoorPassage:
			open = state == StateDone
		case DoorSpawnHole:
			open = state == StateInProgress
		default:
			open = true
		}
		if !open {
			return false
		}
	}
	return true
}

// updateDoors recomputes openness of every door linked to a boss.
func (s *InstanceScript) updateDoors(boss *BossInfo) {
	for _, door := range boss.doors {
		door.handle.SetOpen(s.doorOpen(door))
	}
}

// updateMinions propagates the boss state to every linked minion.
func (s *InstanceScript) updateMinions(boss *BossInfo) {
	for _, minion := range boss.minions {
		s.updateMinionState(minion, boss.state)
	}
}

func (s *InstanceScript) updateMinionState(minion *liveMinion, state EncounterState) {
	switch state {
	case StateNotStarted:
		if !minion.handle.IsAlive() {
			minion.handle.Respawn()
		} else if minion.handle.InCombat() {
			minion.handle.EnterEvade()
		}
	case StateInProgress:
		if !minion.handle.IsAlive() {
			minion.handle.Respawn()
		} else if !minion.handle.InCombat() {
			minion.handle.Engage()
		}
	}
}
