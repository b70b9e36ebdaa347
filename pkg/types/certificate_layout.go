package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldPlacement positions one text field on the certificate template.
type FieldPlacement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
}

// CertificateLayout is the jsonb layout configuration stored on the root event.
// Two named fields are supported: the recipient name and the hours string.
type CertificateLayout struct {
	Name  FieldPlacement `json:"name"`
	Hours FieldPlacement `json:"hours"`
}

// Validate checks the layout carries usable placements for both fields.
func (l CertificateLayout) Validate() error {
	for field, placement := range map[string]FieldPlacement{
		"name":  l.Name,
		"hours": l.Hours,
	} {
		if placement.FontSize <= 0 {
			return fmt.Errorf("layout field %q: font size must be positive", field)
		}
		if err := validateHexColor(placement.Color); err != nil {
			return fmt.Errorf("layout field %q: %w", field, err)
		}
	}
	return nil
}

func validateHexColor(value string) error {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) != 6 {
		return fmt.Errorf("color %q must be #RRGGBB", value)
	}
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("color %q must be #RRGGBB", value)
		}
	}
	return nil
}

// Value implements driver.Valuer for jsonb storage.
func (l CertificateLayout) Value() (driver.Value, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshaling certificate layout: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for jsonb storage.
func (l *CertificateLayout) Scan(src any) error {
	if src == nil {
		*l = CertificateLayout{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("certificate layout: unsupported scan type %T", src)
	}

	return json.Unmarshal(data, l)
}
