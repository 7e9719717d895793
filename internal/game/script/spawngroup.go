package script

// SpawnGroupFlags qualify how a spawn-group rule applies.
type SpawnGroupFlags uint32

const (
	// FlagActivateSpawn spawns the group when the rule matches.
	FlagActivateSpawn SpawnGroupFlags = 1 << iota
	// FlagBlockSpawn force-blocks the group when the rule matches;
	// sticky against any other rule for the same group.
	FlagBlockSpawn
	// FlagAllianceOnly restricts the rule to alliance-owned instances.
	FlagAllianceOnly
	// FlagHordeOnly restricts the rule to horde-owned instances.
	FlagHordeOnly
)

// SpawnGroupRule gates one spawn group on a boss state and faction.
type SpawnGroupRule struct {
	GroupID   uint32
	BossID    uint32
	StateMask uint8 // accepted EncounterState bits (1 << state)
	Flags     SpawnGroupFlags
}

// SpawnGroupController is the spatial layer's spawn-group surface.
type SpawnGroupController interface {
	// SpawnGroup activates a group, spawning its members.
	SpawnGroup(groupID uint32)
	// SetGroupRespawning marks an active group as (non-)respawning
	// without despawning existing members.
	SetGroupRespawning(groupID uint32, respawn bool)
}

// spawnOutcome is the tri-state result of evaluating a group's rules.
type spawnOutcome int

const (
	outcomeBlock spawnOutcome = iota // default: group stays down
	outcomeSpawn
	outcomeForceBlock // sticky, cannot be overridden
)

// UpdateSpawnGroups re-evaluates every spawn-group rule against the
// current boss states and faction, transitioning groups accordingly.
func (s *InstanceScript) UpdateSpawnGroups() {
	if s.spawnCtl == nil || len(s.spawnRules) == 0 {
		return
	}

	// Every ruled group starts at Block; rules may upgrade to Spawn or
	// pin to ForceBlock.
	outcomes := make(map[uint32]spawnOutcome, len(s.spawnRules))
	for _, rule := range s.spawnRules {
		outcomes[rule.GroupID] = outcomeBlock
	}
	team := s.instance.TeamID()

	for _, rule := range s.spawnRules {
		if outcomes[rule.GroupID] == outcomeForceBlock {
			continue
		}
		if rule.Flags&FlagAllianceOnly != 0 && team != FactionAlliance {
			continue
		}
		if rule.Flags&FlagHordeOnly != 0 && team != FactionHorde {
			continue
		}
		if int(rule.BossID) >= len(s.bosses) {
			continue
		}
		if s.bosses[rule.BossID].state.bit()&rule.StateMask == 0 {
			continue
		}
		if rule.Flags&FlagBlockSpawn != 0 {
			outcomes[rule.GroupID] = outcomeForceBlock
		} else if rule.Flags&FlagActivateSpawn != 0 {
			outcomes[rule.GroupID] = outcomeSpawn
		}
	}

	for groupID, outcome := range outcomes {
		shouldSpawn := outcome == outcomeSpawn
		active := s.activeGroups[groupID]
		switch {
		case shouldSpawn && !active:
			s.spawnCtl.SpawnGroup(groupID)
			s.activeGroups[groupID] = true
		case !shouldSpawn && active:
			// Existing members stay; they just stop respawning.
			s.spawnCtl.SetGroupRespawning(groupID, false)
			s.activeGroups[groupID] = false
		}
	}
}
