package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint derives the dedup key for a signal
// shape is source:actor:type:hash8 where hash8 is the first 8 hex chars of the
// SHA-256 digest of the canonical metadata serialization, so connectors that
// retry or double-deliver always land on the same key
func Fingerprint(source SourceType, actorID string, sigType SignalType, meta map[string]any) string {
	actor := actorID
	if actor == "" {
		actor = AnonymousActor
	}
	sum := sha256.Sum256([]byte(Canonicalize(meta)))
	hash8 := hex.EncodeToString(sum[:])[:8]
	return string(source) + ":" + actor + ":" + string(sigType) + ":" + hash8
}

// Canonicalize serializes v deterministically: object keys sorted
// lexicographically, array order preserved, nil and absent values as the
// empty string. Field order in the source payload never affects the output
func Canonicalize(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		// empty string by convention
	case string:
		b.WriteString(x)
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case float64:
		// json.Unmarshal delivers all numbers as float64
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case int:
		b.WriteString(strconv.Itoa(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case []any:
		b.WriteByte('[')
		for i, el := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, el)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			writeCanonical(b, x[k])
		}
		b.WriteByte('}')
	default:
		// unmodeled scalar, fall back to the %v form
		fmt.Fprintf(b, "%v", x)
	}
}
