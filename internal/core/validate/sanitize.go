package validate

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LastJSONObject returns the last top-level JSON object embedded in out.
// Interpreters like Rscript print warnings and messages around the result.
func LastJSONObject(out []byte) ([]byte, bool) {
	var last json.RawMessage
	for i := 0; i < len(out); i++ {
		if out[i] != '{' {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(out[i:]))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err != nil || len(obj) == 0 || obj[0] != '{' {
			continue
		}
		last = obj
		i += int(dec.InputOffset()) - 1
	}
	if last == nil {
		return nil, false
	}
	return last, true
}

// SanitizeResult normalizes lenient engine output so it can pass the schema:
// null lists become empty, a numeric string confidence becomes a number.
// It returns the fields it touched.
func SanitizeResult(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var changed []string
	for _, k := range []string{"errors", "warnings"} {
		v, ok := m[k]
		if !ok || v == nil {
			m[k] = []any{}
			changed = append(changed, k)
		}
	}

	if s, ok := m["confidence"].(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			m["confidence"] = f
			changed = append(changed, "confidence")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, changed, nil
}
