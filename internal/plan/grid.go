package plan

import "encoding/json"

// BuildEmptyWeeks produces count weeks of 7 days × 2 sessions, all enabled
// except the slots listed in disabledSlots, which are created pre-disabled.
func BuildEmptyWeeks(count int, disabledSlots []SlotKey) []Week {
	disabled := make(map[SlotKey]bool, len(disabledSlots))
	for _, k := range disabledSlots {
		disabled[k] = true
	}

	weeks := make([]Week, 0, max(count, 0))
	for w := 0; w < count; w++ {
		weeks = append(weeks, emptyWeek(w, disabled))
	}
	return weeks
}

// EmptyWeek synthesizes a single blank week at the given index. Used when
// navigation reaches past the current horizon.
func EmptyWeek(index int) Week {
	return emptyWeek(index, nil)
}

func emptyWeek(index int, disabled map[SlotKey]bool) Week {
	week := Week{Index: index}
	for d := 0; d < DaysPerWeek; d++ {
		day := Day{DayOfWeek: d}
		for i, slot := range Slots {
			s := BlankSession(slot)
			if disabled[SlotKey{Week: index, Day: d, Slot: slot}] {
				s.Disabled = true
			}
			day.Sessions[i] = s
		}
		week.Days[d] = day
	}
	return week
}

// MergeSessions overlays persisted session records onto a deep copy of
// baseWeeks. A record overwrites its matching slot wholesale, with its
// payload normalized; a slot that receives real data is forced enabled — a
// session present in storage is by definition active. Records addressing a
// week or day outside the base grid are silently dropped: merge never grows
// the grid.
func MergeSessions(records []SessionRecord, baseWeeks []Week) []Week {
	weeks := CloneWeeks(baseWeeks)

	index := make(map[int]int, len(weeks))
	for i, w := range weeks {
		index[w.Index] = i
	}

	for _, rec := range records {
		wi, ok := index[rec.WeekIndex]
		if !ok || rec.DayOfWeek < 0 || rec.DayOfWeek >= DaysPerWeek {
			continue
		}
		sess := weeks[wi].Days[rec.DayOfWeek].Session(rec.Slot)
		if sess == nil {
			continue
		}
		*sess = Session{
			Slot:           rec.Slot,
			Disabled:       false,
			Title:          rec.Title,
			Intensity:      rec.Intensity,
			PrimaryFocus:   rec.PrimaryFocus,
			SecondaryFocus: rec.SecondaryFocus,
			Notes:          rec.Notes,
			Payload:        NormalizePayload(rec.Payload),
		}
	}
	return weeks
}

// Flatten emits one wire record per non-disabled session, with the derived
// absolute-day index. Disabled slots carry no record; their disabled-ness is
// persisted separately via DisabledSlots.
func Flatten(weeks []Week) []SessionRecord {
	var records []SessionRecord
	for _, w := range weeks {
		for _, day := range w.Days {
			for _, slot := range Slots {
				sess := day.Session(slot)
				if sess.Disabled {
					continue
				}
				payload, err := json.Marshal(sess.Payload)
				if err != nil {
					// A BlockSet of string fields cannot fail to marshal.
					payload = nil
				}
				records = append(records, SessionRecord{
					WeekIndex:      w.Index,
					DayOfWeek:      day.DayOfWeek,
					DayIndex:       w.Index*DaysPerWeek + day.DayOfWeek,
					Slot:           slot,
					Title:          sess.Title,
					Intensity:      sess.Intensity,
					PrimaryFocus:   sess.PrimaryFocus,
					SecondaryFocus: sess.SecondaryFocus,
					Notes:          sess.Notes,
					Payload:        payload,
				})
			}
		}
	}
	return records
}

// DisabledSlots extracts the explicitly disabled slots for persistence as
// plan metadata.
func DisabledSlots(weeks []Week) []SlotKey {
	var keys []SlotKey
	for _, w := range weeks {
		for _, day := range w.Days {
			for _, slot := range Slots {
				if day.Session(slot).Disabled {
					keys = append(keys, SlotKey{Week: w.Index, Day: day.DayOfWeek, Slot: slot})
				}
			}
		}
	}
	return keys
}

// MaxWeekIndex returns the highest week index present in the records, or -1
// when there are none.
func MaxWeekIndex(records []SessionRecord) int {
	maxIdx := -1
	for _, rec := range records {
		if rec.WeekIndex > maxIdx {
			maxIdx = rec.WeekIndex
		}
	}
	return maxIdx
}

// SetDisabled applies the slot toggle policy: disabling resets the session
// to its blank defaults and marks it disabled — content is discarded, not
// remembered. Re-enabling yields a blank active session.
func SetDisabled(sess *Session, disabled bool) {
	slot := sess.Slot
	*sess = BlankSession(slot)
	sess.Disabled = disabled
}
