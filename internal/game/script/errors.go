package script

import (
	"errors"
	"fmt"
)

// ErrMalformedSaveData is the root of every save-blob parse failure.
// A failed load aborts wholesale: no partial boss states are applied and
// the instance falls back to the all-NotStarted defaults.
var ErrMalformedSaveData = errors.New("malformed instance save data")

// Typed parse failures, all matching ErrMalformedSaveData via errors.Is.
var (
	ErrBadStructure           = fmt.Errorf("%w: root is not a structured object", ErrMalformedSaveData)
	ErrUnexpectedHeader       = fmt.Errorf("%w: unexpected header", ErrMalformedSaveData)
	ErrBossStateOutOfRange    = fmt.Errorf("%w: more boss states than bosses", ErrMalformedSaveData)
	ErrWrongValueType         = fmt.Errorf("%w: wrong value type", ErrMalformedSaveData)
	ErrUnknownAdditionalField = fmt.Errorf("%w: unregistered additional data field", ErrMalformedSaveData)
)
