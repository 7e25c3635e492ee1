// Package model defines the records exchanged between data loaders, the siting
// engine, and output encoders.
package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hospital-siting/internal/geo"
)

// HospitalType classifies an existing facility.
type HospitalType string

// Hospital types.
const (
	HospitalGeneral     HospitalType = "General"
	HospitalSpecialized HospitalType = "Specialized"
	HospitalClinic      HospitalType = "Clinic"
)

// ParseHospitalType maps a case-insensitive name to a HospitalType.
func ParseHospitalType(s string) (HospitalType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general":
		return HospitalGeneral, nil
	case "specialized", "specialised":
		return HospitalSpecialized, nil
	case "clinic":
		return HospitalClinic, nil
	}
	return "", eris.Wrapf(ErrInvalidRecord, "unknown hospital type %q", s)
}

// UnmarshalJSON accepts any casing of the known type names.
func (t *HospitalType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "model: hospital type")
	}
	parsed, err := ParseHospitalType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalYAML accepts any casing of the known type names.
func (t *HospitalType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return eris.Wrap(err, "model: hospital type")
	}
	parsed, err := ParseHospitalType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Hospital is an existing facility. It is reference data and never mutated by
// the engine.
type Hospital struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Location geo.Coordinate `json:"location" yaml:"location"`
	Capacity int            `json:"capacity" yaml:"capacity"`
	Type     HospitalType   `json:"type" yaml:"type"`
}

// Validate rejects hospitals the engine cannot use. Type is optional; when set
// it must be one of the known hospital types.
func (h Hospital) Validate() error {
	if h.ID == "" {
		return eris.Wrap(ErrInvalidRecord, "hospital: missing id")
	}
	if h.Location.IsZero() {
		return eris.Wrapf(ErrInvalidRecord, "hospital %s: missing location (coordinate (0,0) treated as missing)", h.ID)
	}
	if err := h.Location.Validate(); err != nil {
		return eris.Wrapf(ErrInvalidRecord, "hospital %s: %v", h.ID, err)
	}
	if h.Capacity < 0 {
		return eris.Wrapf(ErrInvalidRecord, "hospital %s: negative capacity %d", h.ID, h.Capacity)
	}
	if h.Type != "" {
		if _, err := ParseHospitalType(string(h.Type)); err != nil {
			return eris.Wrapf(err, "hospital %s", h.ID)
		}
	}
	return nil
}

// Locations returns the coordinates of the given hospitals in order.
func Locations(hospitals []Hospital) []geo.Coordinate {
	out := make([]geo.Coordinate, len(hospitals))
	for i, h := range hospitals {
		out[i] = h.Location
	}
	return out
}
