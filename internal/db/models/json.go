package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/tumcps/tupli/pkg/schema"
)

// scanJSON decodes a JSON column into dst, tolerating []byte and string
// representations across drivers.
func scanJSON(value any, dst any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("failed to scan JSON column: expected []byte or string, got %T", value)
	}
}

// StringList is a JSON-encoded []string column.
type StringList []string

// Scan implements sql.Scanner for reading from database
func (l *StringList) Scan(value any) error {
	*l = nil
	return scanJSON(value, l)
}

// Value implements driver.Valuer for writing to database
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	bytes, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// JSONMap is a JSON-encoded object column with free-form keys.
type JSONMap map[string]any

func (m *JSONMap) Scan(value any) error {
	*m = nil
	return scanJSON(value, m)
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// MembershipList is a JSON-encoded list of group memberships.
type MembershipList []schema.Membership

func (l *MembershipList) Scan(value any) error {
	*l = nil
	return scanJSON(value, l)
}

func (l MembershipList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	bytes, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// BenchmarkMeta is a JSON-encoded benchmark metadata column.
type BenchmarkMeta schema.BenchmarkMetadata

func (m *BenchmarkMeta) Scan(value any) error {
	*m = BenchmarkMeta{}
	return scanJSON(value, m)
}

func (m BenchmarkMeta) Value() (driver.Value, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// TupleList is a JSON-encoded list of environment steps.
type TupleList []schema.RLTuple

func (l *TupleList) Scan(value any) error {
	*l = nil
	return scanJSON(value, l)
}

func (l TupleList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	bytes, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}
