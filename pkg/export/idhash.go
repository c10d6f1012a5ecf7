package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NodeID produces a deterministic 64-hex-char content ID for a node from its
// labels and properties. Label order and property key order
// never affect the result: both are sorted during canonicalization.
func NodeID(labels []string, properties map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString("node")

	sortedLabels := make([]string, len(labels))
	copy(sortedLabels, labels)
	sort.Strings(sortedLabels)
	b.WriteByte('L')
	for _, l := range sortedLabels {
		b.WriteString(canonicalString(l))
	}

	b.WriteByte('P')
	if err := canonicalizeMap(&b, properties); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataCorruption, err)
	}

	return hashHex(b.String()), nil
}

// RelationshipID produces a deterministic 64-hex-char content ID for a
// relationship from its type, endpoint IDs, and properties.
func RelationshipID(relType, startID, endID string, properties map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString("rel")
	b.WriteByte('T')
	b.WriteString(canonicalString(relType))
	b.WriteByte('S')
	b.WriteString(canonicalString(startID))
	b.WriteByte('E')
	b.WriteString(canonicalString(endID))

	b.WriteByte('P')
	if err := canonicalizeMap(&b, properties); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataCorruption, err)
	}

	return hashHex(b.String()), nil
}

// hashHex feeds the canonical representation into SHA-256 and emits a
// lowercase hex string, 64 characters over [0-9a-f].
func hashHex(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// canonicalString emits a length-prefixed, type-tagged string token so that,
// e.g., the two-element list ["a", "b"] can never collide with the single
// string "ab" in the canonical byte stream.
func canonicalString(s string) string {
	return "s" + strconv.Itoa(len(s)) + ":" + s
}

// canonicalizeMap writes a deterministic representation of a property map:
// keys sorted lexicographically by code point, values canonicalized
// recursively.
func canonicalizeMap(b *strings.Builder, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for _, k := range keys {
		b.WriteString(canonicalString(k))
		b.WriteByte('=')
		if err := canonicalizeValue(b, m[k]); err != nil {
			return err
		}
		b.WriteByte(';')
	}
	b.WriteByte('}')
	return nil
}

// canonicalizeValue writes a type-tagged, deterministic token for a single
// property value. Floats are normalized via strconv's shortest round-trip
// representation so that 1.0 and 1.00 (if both ever materialize from a
// driver) hash identically.
func canonicalizeValue(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("n")
	case bool:
		if val {
			b.WriteString("bT")
		} else {
			b.WriteString("bF")
		}
	case string:
		b.WriteString(canonicalString(val))
	case []byte:
		b.WriteString("x" + strconv.Itoa(len(val)) + ":" + hex.EncodeToString(val))
	case int:
		b.WriteString("i" + strconv.FormatInt(int64(val), 10))
	case int8:
		b.WriteString("i" + strconv.FormatInt(int64(val), 10))
	case int16:
		b.WriteString("i" + strconv.FormatInt(int64(val), 10))
	case int32:
		b.WriteString("i" + strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString("i" + strconv.FormatInt(val, 10))
	case uint:
		b.WriteString("i" + strconv.FormatUint(uint64(val), 10))
	case uint8:
		b.WriteString("i" + strconv.FormatUint(uint64(val), 10))
	case uint16:
		b.WriteString("i" + strconv.FormatUint(uint64(val), 10))
	case uint32:
		b.WriteString("i" + strconv.FormatUint(uint64(val), 10))
	case uint64:
		b.WriteString("i" + strconv.FormatUint(val, 10))
	case float32:
		b.WriteString("f" + strconv.FormatFloat(float64(val), 'g', -1, 64))
	case float64:
		b.WriteString("f" + strconv.FormatFloat(val, 'g', -1, 64))
	case []any:
		b.WriteByte('[')
		for _, item := range val {
			if err := canonicalizeValue(b, item); err != nil {
				return err
			}
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case map[string]any:
		return canonicalizeMap(b, val)
	default:
		return fmt.Errorf("unsupported property type %T in canonical id input", v)
	}
	return nil
}
