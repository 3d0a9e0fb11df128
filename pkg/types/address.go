package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSnapshot is the immutable copy of a postal address stored on an
// order. It is persisted as a JSON document (jsonb on Postgres).
type AddressSnapshot struct {
	FullName   string  `json:"fullName" validate:"required,max=120"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"omitempty,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=2"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// Normalize trims every field and upper-cases the country code.
func (a AddressSnapshot) Normalize() AddressSnapshot {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = trimOptional(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.Phone = trimOptional(a.Phone)
	return a
}

// Missing returns the json names of required fields that are blank.
func (a AddressSnapshot) Missing() []string {
	missing := []string{}
	for name, value := range map[string]string{
		"fullName":   a.FullName,
		"line1":      a.Line1,
		"city":       a.City,
		"postalCode": a.PostalCode,
		"country":    a.Country,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Value marshals the snapshot as JSON text.
func (a AddressSnapshot) Value() (driver.Value, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address snapshot: %w", err)
	}
	return string(payload), nil
}

// Scan decodes a JSON document produced by Value.
func (a *AddressSnapshot) Scan(value interface{}) error {
	if value == nil {
		*a = AddressSnapshot{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("address snapshot: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, a)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
