package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Service struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	Features     Features  `json:"features"`
	DisplayOrder int       `json:"display_order"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateServiceRequest struct {
	Title       string   `json:"title" validate:"notblank"`
	Description string   `json:"description" validate:"notblank"`
	Icon        string   `json:"icon"`
	Features    Features `json:"features" validate:"dive,notblank"`
}

type UpdateServiceRequest struct {
	ID           string    `json:"id" validate:"required,uuid"`
	Title        *string   `json:"title" validate:"omitnil,notblank"`
	Description  *string   `json:"description" validate:"omitnil,notblank"`
	Icon         *string   `json:"icon"`
	Features     *Features `json:"features" validate:"omitnil,dive,notblank"`
	DisplayOrder *int      `json:"display_order"`
	IsVisible    *bool     `json:"is_visible"`
}

// Features is a list of bullet points, kept as a JSON array in a text column.
type Features []string

func (f Features) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(f))
	return string(data), err
}

func (f *Features) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = Features{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("features: cannot scan %T", src)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	*f = list
	return nil
}
