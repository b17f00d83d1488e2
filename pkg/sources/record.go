package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/agentstation/pubmap/pkg/catalogs"
)

// RawRecord is one publication as a source reports it, before any cleanup.
type RawRecord struct {
	ID      string       `json:"id,omitempty" yaml:"id,omitempty"` // provider-native identifier, if any
	Title   string       `json:"title" yaml:"title"`
	Authors string       `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue   string       `json:"venue,omitempty" yaml:"venue,omitempty"`
	Year    FlexibleYear `json:"year,omitempty" yaml:"year,omitempty"`
	Link    string       `json:"link,omitempty" yaml:"link,omitempty"`
	DOI     string       `json:"doi,omitempty" yaml:"doi,omitempty"`
	Source  ID           `json:"-" yaml:"-"`
}

// FlexibleYear holds a year whose type the source does not guarantee: a
// number, a numeric string, an empty string or nothing at all.
type FlexibleYear struct {
	Raw   string // text as received, for diagnostics
	Value int
	Valid bool
}

// YearOf builds a FlexibleYear from any loosely typed value.
func YearOf(v any) FlexibleYear {
	if v == nil {
		return FlexibleYear{}
	}
	y := FlexibleYear{Raw: fmt.Sprint(v)}
	y.Value, y.Valid = catalogs.ParseYear(v)
	return y
}

// Int returns the parsed year and whether it is valid.
func (y FlexibleYear) Int() (int, bool) {
	return y.Value, y.Valid
}

// IsZero reports whether no value was received.
func (y FlexibleYear) IsZero() bool {
	return y.Raw == "" && !y.Valid
}

// String returns the raw text.
func (y FlexibleYear) String() string {
	if y.Valid {
		return strconv.Itoa(y.Value)
	}
	return y.Raw
}

// UnmarshalJSON implements json.Unmarshaler.
func (y *FlexibleYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = FlexibleYear{}
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	*y = YearOf(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (y FlexibleYear) MarshalJSON() ([]byte, error) {
	if y.Valid {
		return []byte(strconv.Itoa(y.Value)), nil
	}
	if y.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(y.Raw)
}

// UnmarshalYAML implements the goccy/go-yaml InterfaceUnmarshaler.
func (y *FlexibleYear) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	*y = YearOf(v)
	return nil
}
