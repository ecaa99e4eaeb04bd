// Package plan holds the training-plan grid model: a week → day →
// session(am/pm) → exercise-block hierarchy, the lenient payload normalizer,
// and the merge/flatten operations between the grid and the remote wire
// shape. The wire JSON field names are owned by the backend contract; this
// package only round-trips them.
package plan

import (
	"encoding/json"
)

// Slot identifies one of the two fixed daily training windows.
type Slot string

const (
	SlotAM Slot = "am"
	SlotPM Slot = "pm"
)

// Slots lists the two slots in display order.
var Slots = [2]Slot{SlotAM, SlotPM}

// DaysPerWeek is fixed: every week has Monday through Sunday.
const DaysPerWeek = 7

// Session intensity values. Empty means unset.
const (
	IntensityRecovery     = "recovery"
	IntensityEasy         = "easy"
	IntensityIntermediate = "intermediate"
	IntensitySustained    = "sustained"
	IntensitySpecific     = "specific"
)

// Primary focus disciplines.
const (
	FocusCourse      = "course"
	FocusVelo        = "velo"
	FocusPiscine     = "piscine"
	FocusMusculation = "musculation"
)

// Block metric values: which magnitude field governs the block.
const (
	MetricDistance = "distance"
	MetricDuration = "duration"
)

// Block types.
const (
	BlockTarget   = "target"
	BlockRecovery = "recovery"
	BlockInterval = "interval"
)

// Block is one exercise/interval/recovery unit inside a session payload.
// Magnitude fields are free-form strings because the persisted data is
// inconsistently shaped; consumers must tolerate empty values. Unknown wire
// fields are preserved in Extra for round-trip.
type Block struct {
	Type      string
	Metric    string
	Distance  string // km
	Duration  string // mm:ss
	Reps      string
	Recovery  string // mm:ss
	PassTime  string // mm:ss
	Pace      string // pace-profile key or free text
	PaceValue string // resolved/overridden display value, mm:ss
	Title     string
	MediaURL  string

	Extra map[string]json.RawMessage
}

// BlockSet is a session's ordered block list. Never empty after
// normalization.
type BlockSet struct {
	Blocks []Block
}

// Session is one am/pm training window. A disabled session carries no
// content: it is excluded from metrics and from flattening.
type Session struct {
	Slot           Slot
	Disabled       bool
	Title          string
	Intensity      string
	PrimaryFocus   string
	SecondaryFocus string
	Notes          string
	Payload        BlockSet
}

// Day holds the two slot sessions for one weekday (Monday=0).
type Day struct {
	DayOfWeek int
	Sessions  [2]Session
}

// Session returns the session for the given slot, or nil for an unknown slot.
func (d *Day) Session(slot Slot) *Session {
	switch slot {
	case SlotAM:
		return &d.Sessions[0]
	case SlotPM:
		return &d.Sessions[1]
	default:
		return nil
	}
}

// Week is one Monday-to-Sunday row of the grid.
type Week struct {
	Index int
	Days  [DaysPerWeek]Day
}

// SlotKey addresses one session in the grid.
type SlotKey struct {
	Week int  `json:"weekIndex"`
	Day  int  `json:"dayOfWeek"`
	Slot Slot `json:"slot"`
}

// Plan is a whole training plan as edited in memory. Weeks are
// index-addressed; persisted data may contain gaps, which the grid
// tolerates.
type Plan struct {
	Title       string
	Description string
	StartDate   string // wire format, may be empty or unparsable
	WeekCount   int    // declared metadata week count
	Weeks       []Week
}

// SessionRecord is the flat wire shape of one persisted session. Payload
// stays raw until normalized: its historical shapes include a JSON string, a
// legacy flat object, and {"blocks": [...]}.
type SessionRecord struct {
	WeekIndex      int             `json:"weekIndex"`
	DayOfWeek      int             `json:"dayOfWeek"`
	DayIndex       int             `json:"dayIndex"`
	Slot           Slot            `json:"slot"`
	Title          string          `json:"title,omitempty"`
	Intensity      string          `json:"intensity,omitempty"`
	PrimaryFocus   string          `json:"primaryFocus,omitempty"`
	SecondaryFocus string          `json:"secondaryFocus,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// BlankSession returns the empty default for a slot: enabled, no content,
// one default block.
func BlankSession(slot Slot) Session {
	return Session{
		Slot:    slot,
		Payload: BlockSet{Blocks: []Block{DefaultBlock()}},
	}
}

// Clone returns a deep copy of the session (blocks and their Extra maps
// included).
func (s Session) Clone() Session {
	out := s
	out.Payload = s.Payload.Clone()
	return out
}

// Clone returns a deep copy of the block set.
func (bs BlockSet) Clone() BlockSet {
	out := BlockSet{Blocks: make([]Block, len(bs.Blocks))}
	for i, b := range bs.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// Clone returns a deep copy of the block, including preserved unknown
// fields.
func (b Block) Clone() Block {
	out := b
	if b.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(b.Extra))
		for k, v := range b.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// CloneWeeks deep-copies a week slice so callers can mutate the copy freely.
func CloneWeeks(weeks []Week) []Week {
	out := make([]Week, len(weeks))
	for i, w := range weeks {
		out[i] = w
		for d := range w.Days {
			for s := range w.Days[d].Sessions {
				out[i].Days[d].Sessions[s] = w.Days[d].Sessions[s].Clone()
			}
		}
	}
	return out
}
