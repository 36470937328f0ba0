package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"shg-finance/internal/core/domain"
)

// StringList is stored as a JSON array in a text column
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// UintList is stored as a JSON array in a text column
type UintList []uint

func (l UintList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uint(l))
	return string(b), err
}

func (l *UintList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Contains reports whether id is present
func (l UintList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// PollOptions is stored as a JSON array of {value,label}
type PollOptions []domain.PollOption

func (o PollOptions) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]domain.PollOption(o))
	return string(b), err
}

func (o *PollOptions) Scan(src interface{}) error {
	return scanJSON(src, o)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
