package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores a value in a jsonb column. A NULL column scans to the zero value.
type JSON[T any] struct {
	V T
}

// Value implements driver.Valuer.
func (j JSON[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (j *JSON[T]) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		var zero T
		j.V = zero
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan json column: unsupported type %T", src)
	}
	if err := json.Unmarshal(data, &j.V); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
