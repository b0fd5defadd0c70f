package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address as marketplaces and carriers exchange it.
// StreetLines holds up to three lines; CountryCode is ISO 3166-1 alpha-2.
type Address struct {
	StreetLines         []string `json:"streetLines,omitempty"`
	City                string   `json:"city,omitempty"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string   `json:"postalCode,omitempty"`
	CountryCode         string   `json:"countryCode,omitempty"`
}

const maxStreetLines = 3

// NewAddress builds a normalized Address. Blank street lines are dropped and the
// country code is upper-cased.
func NewAddress(lines []string, city, state, postalCode, countryCode string) Address {
	a := Address{
		City:                strings.TrimSpace(city),
		StateOrProvinceCode: strings.TrimSpace(state),
		PostalCode:          strings.TrimSpace(postalCode),
		CountryCode:         strings.ToUpper(strings.TrimSpace(countryCode)),
	}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if len(a.StreetLines) == maxStreetLines {
			// carriers reject a fourth line, fold the rest into the last one
			a.StreetLines[maxStreetLines-1] += " " + l
			continue
		}
		a.StreetLines = append(a.StreetLines, l)
	}
	return a
}

// IsEmpty returns true if no field is set
func (a Address) IsEmpty() bool {
	return len(a.StreetLines) == 0 && a.City == "" && a.StateOrProvinceCode == "" &&
		a.PostalCode == "" && a.CountryCode == ""
}

// MissingFields returns the names of required fields that are blank, prefixed
// with prefix (e.g. "recipient.address"). State/province is optional because
// many countries have none.
func (a Address) MissingFields(prefix string) []string {
	var missing []string
	if len(a.StreetLines) == 0 {
		missing = append(missing, prefix+".streetLines")
	}
	if a.City == "" {
		missing = append(missing, prefix+".city")
	}
	if a.PostalCode == "" {
		missing = append(missing, prefix+".postalCode")
	}
	if a.CountryCode == "" {
		missing = append(missing, prefix+".countryCode")
	}
	return missing
}

// SameCountry compares country codes case-insensitively
func (a Address) SameCountry(other Address) bool {
	return strings.EqualFold(strings.TrimSpace(a.CountryCode), strings.TrimSpace(other.CountryCode))
}

// String returns a single-line representation
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(a.StreetLines)+4)
	parts = append(parts, a.StreetLines...)
	for _, p := range []string{a.City, a.StateOrProvinceCode, a.PostalCode, a.CountryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	if len(a.StreetLines) != len(other.StreetLines) {
		return false
	}
	for i := range a.StreetLines {
		if a.StreetLines[i] != other.StreetLines[i] {
			return false
		}
	}
	return a.City == other.City &&
		a.StateOrProvinceCode == other.StateOrProvinceCode &&
		a.PostalCode == other.PostalCode &&
		a.CountryCode == other.CountryCode
}

// Value implements driver.Valuer so an Address can be stored as a JSON column
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
