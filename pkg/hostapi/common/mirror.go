package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MirrorEntry is a single key/value pair of a Mirror.
type MirrorEntry struct {
	Key   string
	Value string
}

// Mirror is a frozen key/value view of an enumeration for consumers that
// cannot use Go constants (scripts, JSON configuration, the JS shell).
//
// A Mirror has no mutators. Map returns a fresh copy on every call, so
// writing to the returned map never changes the mirror itself.
type Mirror struct {
	name    string
	entries []MirrorEntry
}

func newMirror[T ~string](name string, values []T) Mirror {
	entries := make([]MirrorEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, MirrorEntry{Key: string(v), Value: string(v)})
	}
	return Mirror{name: name, entries: entries}
}

// RuntimeScopeMirror derives the RuntimeScope mirror from the scope table.
func RuntimeScopeMirror() Mirror {
	return newMirror("RuntimeScope", runtimeScopes[:])
}

// ThemeMirror derives the Theme mirror from the theme table.
func ThemeMirror() Mirror {
	return newMirror("Theme", themes[:])
}

// Mirrors returns every mirrored enumeration in export order.
func Mirrors() []Mirror {
	return []Mirror{RuntimeScopeMirror(), ThemeMirror()}
}

// Name returns the enumeration name.
func (m Mirror) Name() string { return m.name }

// Len returns the number of keys.
func (m Mirror) Len() int { return len(m.entries) }

// Get returns the value stored under key.
func (m Mirror) Get(key string) (string, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in declaration order.
func (m Mirror) Keys() []string {
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Key)
	}
	return out
}

// Entries returns a copy of the key/value pairs in declaration order.
func (m Mirror) Entries() []MirrorEntry {
	out := make([]MirrorEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Map returns a copy of the mirror as a plain map.
func (m Mirror) Map() map[string]string {
	out := make(map[string]string, len(m.entries))
	for _, e := range m.entries {
		out[e.Key] = e.Value
	}
	return out
}

// MarshalJSON encodes the mirror as a JSON object preserving key order.
func (m Mirror) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSModule renders the mirrors as a CommonJS module exporting one
// Object.freeze'd object per enumeration.
func WriteJSModule(w io.Writer, mirrors ...Mirror) error {
	if len(mirrors) == 0 {
		mirrors = Mirrors()
	}
	var buf bytes.Buffer
	for _, m := range mirrors {
		body, err := m.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode %s: %w", m.name, err)
		}
		fmt.Fprintf(&buf, "const %s = Object.freeze(%s);\n", m.name, body)
	}
	buf.WriteString("\nmodule.exports = {\n")
	for i, m := range mirrors {
		sep := ","
		if i == len(mirrors)-1 {
			sep = ""
		}
		fmt.Fprintf(&buf, "  %s%s\n", m.name, sep)
	}
	buf.WriteString("};\n")
	_, err := w.Write(buf.Bytes())
	return err
}
