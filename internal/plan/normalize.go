package plan

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Known block wire fields. Anything else is preserved verbatim in
// Block.Extra so newer backend fields survive an edit round-trip.
var blockFields = map[string]bool{
	"type": true, "metric": true, "distance": true, "duration": true,
	"reps": true, "recovery": true, "passTime": true, "pace": true,
	"paceValue": true, "title": true, "mediaUrl": true,
}

// DefaultBlock returns the template every persisted block is defaulted
// against.
func DefaultBlock() Block {
	return Block{Type: BlockTarget, Metric: MetricDistance}
}

// MarshalJSON writes the block in wire shape, merging preserved unknown
// fields back in.
func (b Block) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Extra)+11)
	for k, v := range b.Extra {
		m[k] = v
	}
	m["type"] = b.Type
	m["metric"] = b.Metric
	m["distance"] = b.Distance
	m["duration"] = b.Duration
	m["reps"] = b.Reps
	m["recovery"] = b.Recovery
	m["passTime"] = b.PassTime
	m["pace"] = b.Pace
	m["paceValue"] = b.PaceValue
	m["title"] = b.Title
	m["mediaUrl"] = b.MediaURL
	return json.Marshal(m)
}

// UnmarshalJSON reads a block leniently: missing fields stay at their zero
// value (defaulted later by Normalize), numeric values where strings are
// expected are stringified, unknown fields are kept in Extra.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Type = stringField(raw, "type")
	b.Metric = stringField(raw, "metric")
	b.Distance = stringField(raw, "distance")
	b.Duration = stringField(raw, "duration")
	b.Reps = stringField(raw, "reps")
	b.Recovery = stringField(raw, "recovery")
	b.PassTime = stringField(raw, "passTime")
	b.Pace = stringField(raw, "pace")
	b.PaceValue = stringField(raw, "paceValue")
	b.Title = stringField(raw, "title")
	b.MediaURL = stringField(raw, "mediaUrl")

	b.Extra = nil
	for k, v := range raw {
		if blockFields[k] {
			continue
		}
		if b.Extra == nil {
			b.Extra = map[string]json.RawMessage{}
		}
		b.Extra[k] = v
	}
	return nil
}

// MarshalJSON writes the canonical payload shape {"blocks": [...]}.
func (bs BlockSet) MarshalJSON() ([]byte, error) {
	type wire struct {
		Blocks []Block `json:"blocks"`
	}
	return json.Marshal(wire{Blocks: bs.Blocks})
}

// UnmarshalJSON accepts any historical payload shape; see NormalizePayload.
func (bs *BlockSet) UnmarshalJSON(data []byte) error {
	*bs = NormalizePayload(data)
	return nil
}

// NormalizePayload converts a loosely-shaped persisted payload into a
// canonical block set. Accepted shapes: absent/null, a JSON-encoded string
// wrapping any of the others, a bare block array, {"blocks": [...]}, or a
// legacy flat object carrying a single implicit block. Anything unparsable
// yields one default block — malformed stored data must never surface as an
// error.
func NormalizePayload(raw json.RawMessage) BlockSet {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return defaultBlockSet()
	}

	switch data[0] {
	case '"':
		// Double-encoded payload: unwrap the string and re-normalize.
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return defaultBlockSet()
		}
		return NormalizePayload([]byte(s))

	case '[':
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return defaultBlockSet()
		}
		return normalizeBlocks(blocks)

	case '{':
		var probe struct {
			Blocks json.RawMessage `json:"blocks"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return defaultBlockSet()
		}
		if len(probe.Blocks) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Blocks), []byte("null")) {
			var blocks []Block
			if err := json.Unmarshal(probe.Blocks, &blocks); err != nil {
				return defaultBlockSet()
			}
			return normalizeBlocks(blocks)
		}
		// Legacy flat object: the payload itself is one implicit block
		// with title/distance/duration/media at the top level.
		var legacy map[string]json.RawMessage
		if err := json.Unmarshal(data, &legacy); err != nil {
			return defaultBlockSet()
		}
		b := DefaultBlock()
		b.Title = stringField(legacy, "title")
		b.Distance = stringField(legacy, "distance")
		b.Duration = stringField(legacy, "duration")
		b.MediaURL = stringField(legacy, "media")
		return normalizeBlocks([]Block{b})

	default:
		return defaultBlockSet()
	}
}

// Normalize defaults every block in the set and guarantees at least one
// block. Normalizing an already-normalized set changes nothing.
func (bs BlockSet) Normalize() BlockSet {
	return normalizeBlocks(bs.Blocks)
}

func normalizeBlocks(blocks []Block) BlockSet {
	if len(blocks) == 0 {
		return defaultBlockSet()
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = normalizeBlock(b)
	}
	return BlockSet{Blocks: out}
}

func normalizeBlock(b Block) Block {
	if b.Type == "" {
		b.Type = BlockTarget
	}
	// Coerce the metric to exactly distance or duration.
	if b.Metric != MetricDuration {
		b.Metric = MetricDistance
	}
	return b
}

func defaultBlockSet() BlockSet {
	return BlockSet{Blocks: []Block{DefaultBlock()}}
}

// stringField reads a wire field as a string, stringifying bare numbers.
// Persisted payloads are inconsistent about quoting magnitudes.
func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
