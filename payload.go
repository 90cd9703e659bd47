package loggly

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Message is the caller-supplied value to ship: either free text or a
// structured (JSON-shaped) value. The variant is fixed when the Message is
// created, so preparation follows a single well-typed path instead of
// inspecting the value at runtime.
type Message struct {
	text       string
	value      any
	structured bool
}

// Text wraps free-form text as a Message.
func Text(s string) Message { return Message{text: s} }

// Structured wraps a JSON-shaped value (map, struct, slice, ...) as a
// Message.
func Structured(v any) Message { return Message{value: v, structured: true} }

// PreparedPayload is the wire-ready form of one Message, plus a flag noting
// whether the body was cut down to the configured maximum size.
type PreparedPayload struct {
	Body      string
	Truncated bool
}

// defaultMaxEventBytes caps the serialized size of a single event.
const defaultMaxEventBytes = 1_000_000

// preparePayload serializes m and enforces the maximum-size policy.
//
// Structured values are serialized first; if the primary encoder fails
// (cyclic values, unsupported types), a cycle-safe fallback encoder is used
// instead, so serialization never fails. The byte length of the textual
// form, not the rune count, is measured against maxBytes; oversized text is
// sliced at the byte boundary and flagged rather than rejected. When the
// client is in structured mode, text that did not start out structured is
// wrapped in a single-field {"message": ...} envelope after truncation;
// structured input is already JSON-shaped and is emitted as-is. In plain
// mode the text is emitted verbatim.
func preparePayload(m Message, structuredMode bool, maxBytes int) PreparedPayload {
	if maxBytes < 1 {
		maxBytes = defaultMaxEventBytes
	}

	text := m.text
	if m.structured {
		text = encodeValue(m.value)
	}

	var truncated bool
	if len(text) > maxBytes {
		// byte-boundary slice; a malformed trailing multi-byte sequence is
		// an accepted outcome here
		text = text[:maxBytes]
		truncated = true
	}

	if structuredMode && !m.structured {
		text = encodeValue(map[string]string{"message": text})
	}

	return PreparedPayload{Body: text, Truncated: truncated}
}

// encodeValue renders v as JSON text. The primary encoder is encoding/json;
// when it fails, the value is re-encoded with a cycle-safe walker so that
// preparation itself never fails.
func encodeValue(v any) string {
	b, err := json.Marshal(v)
	if err == nil {
		return string(b)
	}
	return encodeSafe(v)
}

// cycleMarker replaces references already on the path from the root, the
// way resilient JSON renderers mark self-referential values.
const cycleMarker = `"[Circular]"`

// encodeSafe serializes values the primary encoder rejected, most commonly
// due to circular references.
func encodeSafe(v any) string {
	return safeText(reflect.ValueOf(v), make(map[uintptr]bool))
}

func safeText(rv reflect.Value, seen map[uintptr]bool) string {
	if !rv.IsValid() {
		return "null"
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return safeText(rv.Elem(), seen)

	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		p := rv.Pointer()
		if seen[p] {
			return cycleMarker
		}
		seen[p] = true
		s := safeText(rv.Elem(), seen)
		delete(seen, p)
		return s

	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}
		p := rv.Pointer()
		if seen[p] {
			return cycleMarker
		}
		seen[p] = true
		keys := rv.MapKeys()
		parts := make([]string, 0, len(keys))
		for i := 0; i < len(keys); i++ {
			k := encodeString(fmt.Sprint(keys[i].Interface()))
			parts = append(parts, k+":"+safeText(rv.MapIndex(keys[i]), seen))
		}
		// deterministic key order, matching the primary encoder
		sort.Strings(parts)
		delete(seen, p)
		return "{" + strings.Join(parts, ",") + "}"

	case reflect.Slice:
		if rv.IsNil() {
			return "null"
		}
		p := rv.Pointer()
		if seen[p] {
			return cycleMarker
		}
		seen[p] = true
		s := safeElems(rv, seen)
		delete(seen, p)
		return s

	case reflect.Array:
		return safeElems(rv, seen)

	case reflect.Struct:
		t := rv.Type()
		parts := make([]string, 0, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
				continue
			} else if tag != "" {
				name = tag
			}
			parts = append(parts, encodeString(name)+":"+safeText(rv.Field(i), seen))
		}
		return "{" + strings.Join(parts, ",") + "}"

	case reflect.String:
		return encodeString(rv.String())

	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// not representable in JSON; emit the textual form instead
			return encodeString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return strconv.FormatFloat(f, 'g', -1, 64)

	default:
		// funcs, channels, complex values
		return encodeString(rv.Type().String())
	}
}

func safeElems(rv reflect.Value, seen map[uintptr]bool) string {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = safeText(rv.Index(i), seen)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// encodeString renders s as a JSON string literal.
func encodeString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
