package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Pagination captures list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Vector is a float64 slice stored as a JSONB array.
type Vector []float64

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	var raw []byte
	switch data := src.(type) {
	case []byte:
		raw = data
	case string:
		raw = []byte(data)
	default:
		return fmt.Errorf("unsupported vector source type %T", src)
	}
	return json.Unmarshal(raw, v)
}
