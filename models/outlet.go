package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexID accepts both string and integer identifiers from the upstream API
// and normalizes them to their string form.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		*id = FlexID(unquoted)
		return nil
	}
	*id = FlexID(s)
	return nil
}

// FlexFloat accepts numeric-or-numeric-string coordinate values. Anything
// absent, null, or unparseable decodes to NaN rather than failing the whole
// outlet payload; geo computations treat NaN as "incomparable".
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			s = strings.TrimSpace(unquoted)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		*f = FlexFloat(math.NaN())
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

// Valid reports whether the value carries a usable coordinate component.
func (f FlexFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Outlet is a single retail location as served by the upstream backend.
// Coordinates may arrive as numbers or strings; outlets with unusable
// coordinates still render in name/address listings but are excluded from
// every geo computation.
type Outlet struct {
	ID             FlexID     `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	Latitude       FlexFloat  `json:"latitude"`
	Longitude      FlexFloat  `json:"longitude"`
	OperatingHours []DayHours `json:"operating_hours,omitempty"`
	WazeLink       string     `json:"waze_link,omitempty"`
}

// UnmarshalJSON seeds the coordinates with NaN so that fields absent from
// the payload stay invalid instead of defaulting to (0, 0).
func (o *Outlet) UnmarshalJSON(data []byte) error {
	type alias Outlet
	tmp := alias{
		Latitude:  FlexFloat(math.NaN()),
		Longitude: FlexFloat(math.NaN()),
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*o = Outlet(tmp)
	return nil
}

// HasCoordinates reports whether both coordinate components are usable.
func (o Outlet) HasCoordinates() bool {
	return o.Latitude.Valid() && o.Longitude.Valid()
}

// DayHours is one weekday's operating window. At most one entry exists per
// day_of_week; a missing day means the status for that day is unknown.
type DayHours struct {
	DayOfWeek   string `json:"day_of_week"`
	IsClosed    bool   `json:"is_closed"`
	OpeningTime string `json:"opening_time,omitempty"`
	ClosingTime string `json:"closing_time,omitempty"`
}
