package script

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// saveData is the persisted payload layout:
//
//	{"Header": "...", "BossStates": [4,0,...], "AdditionalData": {"Name": 1.5}}
//
// AdditionalData is omitted when no persistent values are registered.
type saveData struct {
	Header         string             `json:"Header"`
	BossStates     []int32            `json:"BossStates"`
	AdditionalData map[string]float64 `json:"AdditionalData,omitempty"`
}

// decodedSave is the validated in-memory form of a parsed payload.
type decodedSave struct {
	bossStates []EncounterState
	additional map[string]float64
}

// RegisterPersistentValue registers a named numeric field that survives
// in the save blob's AdditionalData. Must be called before Load.
func (s *InstanceScript) RegisterPersistentValue(name string) {
	if _, ok := s.persistentValues[name]; ok {
		return
	}
	s.persistentNames = append(s.persistentNames, name)
	s.persistentValues[name] = 0
}

// GetPersistentValue returns a registered persistent value.
func (s *InstanceScript) GetPersistentValue(name string) (float64, bool) {
	v, ok := s.persistentValues[name]
	return v, ok
}

// SetPersistentValue updates a registered persistent value. Writes to
// unregistered names are dropped and logged.
func (s *InstanceScript) SetPersistentValue(name string, value float64) {
	if _, ok := s.persistentValues[name]; !ok {
		slog.Error("write to unregistered persistent value", "name", name)
		return
	}
	s.persistentValues[name] = value
}

// Save encodes the live state: header, full boss-state array and, when
// persistent values are registered, the additional-data object.
func (s *InstanceScript) Save() string {
	out := saveData{
		Header:     s.header,
		BossStates: make([]int32, len(s.bosses)),
	}
	for i := range s.bosses {
		out.BossStates[i] = int32(s.bosses[i].state)
	}
	if len(s.persistentNames) > 0 {
		out.AdditionalData = make(map[string]float64, len(s.persistentNames))
		for _, name := range s.persistentNames {
			out.AdditionalData[name] = s.persistentValues[name]
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the guard anyway.
		slog.Error("encode instance save data", "error", err)
		return ""
	}
	return string(raw)
}

// SaveDefaults encodes a placeholder payload with every boss NotStarted
// and all persistent values zeroed. Used to normalize an unparsable
// legacy payload before patching individual fields.
func (s *InstanceScript) SaveDefaults() string {
	out := saveData{
		Header:     s.header,
		BossStates: make([]int32, len(s.bosses)),
	}
	for i := range out.BossStates {
		out.BossStates[i] = int32(StateNotStarted)
	}
	if len(s.persistentNames) > 0 {
		out.AdditionalData = make(map[string]float64, len(s.persistentNames))
		for _, name := range s.persistentNames {
			out.AdditionalData[name] = 0
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		slog.Error("encode default save data", "error", err)
		return ""
	}
	return string(raw)
}

// decode validates a payload in one strict pass. Any violation yields a
// typed failure and nothing is applied.
func (s *InstanceScript) decode(payload string) (*decodedSave, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStructure, err)
	}
	if root == nil {
		return nil, ErrBadStructure
	}

	rawHeader, ok := root["Header"]
	if !ok {
		return nil, fmt.Errorf("%w: header missing", ErrUnexpectedHeader)
	}
	var header string
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrWrongValueType, err)
	}
	if header != s.header {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedHeader, header, s.header)
	}

	out := &decodedSave{}
	if rawStates, ok := root["BossStates"]; ok {
		var states []json.Number
		if err := json.Unmarshal(rawStates, &states); err != nil {
			return nil, fmt.Errorf("%w: boss states: %v", ErrWrongValueType, err)
		}
		if len(states) > len(s.bosses) {
			return nil, fmt.Errorf("%w: %d states, %d bosses", ErrBossStateOutOfRange, len(states), len(s.bosses))
		}
		out.bossStates = make([]EncounterState, len(states))
		for i, num := range states {
			v, err := num.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: boss state %d: %v", ErrWrongValueType, i, err)
			}
			state := EncounterState(v)
			if !state.valid() {
				return nil, fmt.Errorf("%w: boss state %d value %d", ErrWrongValueType, i, v)
			}
			out.bossStates[i] = state
		}
	}

	if rawAdditional, ok := root["AdditionalData"]; ok {
		var additional map[string]json.Number
		if err := json.Unmarshal(rawAdditional, &additional); err != nil {
			return nil, fmt.Errorf("%w: additional data: %v", ErrWrongValueType, err)
		}
		out.additional = make(map[string]float64, len(additional))
		for name, num := range additional {
			if _, registered := s.persistentValues[name]; !registered {
				return nil, fmt.Errorf("%w: %q", ErrUnknownAdditionalField, name)
			}
			v, err := num.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: additional %q: %v", ErrWrongValueType, name, err)
			}
			out.additional[name] = v
		}
	}

	return out, nil
}

// Load restores boss states from a save payload.
//
// Transient states (InProgress, Fail, Special) clamp to NotStarted: only
// Done persists across a reload. Done states failing the required-bosses
// precondition downgrade to NotStarted. On parse failure nothing is
// applied and every boss initializes to NotStarted.
func (s *InstanceScript) Load(payload string) error {
	decoded, err := s.decode(payload)
	if err != nil {
		s.initDefaults()
		return err
	}

	for i := range s.bosses {
		state := StateNotStarted
		if i < len(decoded.bossStates) && decoded.bossStates[i] == StateDone {
			state = StateDone
		}
		s.bosses[i].state = state
	}

	// Monotonic prerequisite ordering: a later Done the scripting layer
	// rejects is downgraded rather than trusted.
	if s.checkRequiredBosses != nil {
		for i := range s.bosses {
			if s.bosses[i].state == StateDone && !s.checkRequiredBosses(uint32(i)) {
				slog.Warn("boss completion rejected by required-bosses check",
					"bossID", i)
				s.bosses[i].state = StateNotStarted
			}
		}
	}

	for name, v := range decoded.additional {
		s.persistentValues[name] = v
	}

	s.applyLoadedState()
	return nil
}

// initDefaults resets every boss to NotStarted (failed-load fallback).
func (s *InstanceScript) initDefaults() {
	for i := range s.bosses {
		s.bosses[i].state = StateNotStarted
	}
	s.applyLoadedState()
}

// applyLoadedState propagates the fully-loaded states to doors, minions
// and spawn-group gating in one pass.
func (s *InstanceScript) applyLoadedState() {
	for i := range s.bosses {
		s.updateDoors(&s.bosses[i])
		s.updateMinions(&s.bosses[i])
	}
	s.UpdateSpawnGroups()
}
