package docstore

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
)

const timestampKey = "__timestamp"

// Encode serializes document data to JSON, replacing time.Time values with a
// timestamp marker object so they decode back as native timestamps.
func Encode(data map[string]any) ([]byte, error) {
	raw, err := json.Marshal(encodeValue(data))
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}
	return raw, nil
}

// Decode is the inverse of Encode. Integral numbers decode as int64, other
// numbers as float64.
func Decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	if out == nil {
		return map[string]any{}, nil
	}
	decoded, _ := decodeValue(out).(map[string]any)
	return decoded, nil
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return map[string]any{timestampKey: v.UTC().Format(time.RFC3339Nano)}
	case *time.Time:
		if v == nil {
			return nil
		}
		return encodeValue(*v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = encodeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = encodeValue(item)
		}
		return out
	default:
		return v
	}
}

func decodeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 1 {
			if stamp, ok := v[timestampKey].(string); ok {
				if parsed, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
					return parsed.UTC()
				}
			}
		}
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = decodeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = decodeValue(item)
		}
		return out
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	default:
		return v
	}
}

// applyUpdate writes each patch key into an encoded document. Plain keys
// replace top-level fields, dotted keys replace nested ones.
func applyUpdate(raw []byte, patch map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := raw
	for _, key := range keys {
		value, err := json.Marshal(encodeValue(patch[key]))
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", key)
		}
		out, err = sjson.SetRawBytes(out, key, value)
		if err != nil {
			return nil, errors.Wrapf(err, "set %s", key)
		}
	}
	return out, nil
}
