package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as [].
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

// Len counts the non-empty entries.
func (l StringList) Len() int {
	n := 0
	for _, s := range l {
		if s != "" {
			n++
		}
	}
	return n
}

// IntMap is a map[string]int stored as a JSON object column.
type IntMap map[string]int

// Value implements driver.Valuer.
func (m IntMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *IntMap) Scan(src any) error {
	return scanJSON(src, m)
}

// JSONDoc is a raw JSON document column (AI results, drafts, inputs).
type JSONDoc json.RawMessage

// Value implements driver.Valuer.
func (d JSONDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "null", nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return string(d), nil
}

// Scan implements sql.Scanner.
func (d *JSONDoc) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append((*d)[:0], v...)
	case string:
		*d = JSONDoc(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	return nil
}

// MarshalJSON emits the document as is.
func (d JSONDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps a copy of the document.
func (d *JSONDoc) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

func scanJSON(src any, dst any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
