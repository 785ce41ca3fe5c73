package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotLoaded marks a payload field whose value was intentionally never
// fetched. Sanitize drops the key instead of serializing a zero value.
type notLoaded struct{}

var NotLoaded = notLoaded{}

// SerializationError reports a payload value outside the closed set of
// broadcastable kinds. The publisher logs and drops the event; it never
// guesses at a representation.
type SerializationError struct {
	Key  string
	Kind string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("payload key %q holds unsupported kind %s", e.Key, e.Kind)
}

// SanitizePayload normalizes a payload map to plain JSON-safe values. The
// accepted kinds are closed on purpose: anything new must be added here
// explicitly rather than leaking through reflection.
func SanitizePayload(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return nil, nil
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		clean, drop, err := sanitizeValue(key, value)
		if err != nil {
			return nil, err
		}
		if drop {
			continue
		}
		out[key] = clean
	}
	return out, nil
}

func sanitizeValue(key string, value any) (clean any, drop bool, err error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, false, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), false, nil
	case uuid.UUID:
		return v.String(), false, nil
	case *uuid.UUID:
		if v == nil {
			return nil, false, nil
		}
		return v.String(), false, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(v), false, nil
	case json.RawMessage:
		return v, false, nil
	case notLoaded:
		return nil, true, nil
	case []any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			cleanItem, dropItem, itemErr := sanitizeValue(key, item)
			if itemErr != nil {
				return nil, false, itemErr
			}
			if dropItem {
				continue
			}
			items = append(items, cleanItem)
		}
		return items, false, nil
	case []string:
		return v, false, nil
	case map[string]any:
		nested, nestedErr := SanitizePayload(v)
		if nestedErr != nil {
			return nil, false, nestedErr
		}
		return nested, false, nil
	default:
		return nil, false, &SerializationError{Key: key, Kind: fmt.Sprintf("%T", value)}
	}
}
