package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingDesignation is returned for a NEO row without a primary designation.
var ErrMissingDesignation = errors.New("missing primary designation")

// hazardousMarker is the only PHA flag value treated as hazardous.
const hazardousMarker = "Y"

// NEORecord is a raw NEO row as produced by the loaders.
type NEORecord struct {
	Designation string
	Name        string
	Diameter    string
	Hazardous   string
}

// NearEarthObject is a near-Earth object with its linked close approaches.
//
// Name is nil when the object has no IAU name. Diameter is NaN when unknown.
// Approaches is empty until the object is linked by the database.
type NearEarthObject struct {
	Designation string
	Name        *string
	Diameter    float64
	Hazardous   bool
	Approaches  []*CloseApproach
}

// NewNearEarthObject normalizes a raw record. Missing optional fields become
// sentinels rather than errors.
func NewNearEarthObject(rec NEORecord) (*NearEarthObject, error) {
	designation := strings.TrimSpace(rec.Designation)
	if designation == "" {
		return nil, ErrMissingDesignation
	}

	neo := &NearEarthObject{
		Designation: designation,
		Diameter:    math.NaN(),
		Hazardous:   rec.Hazardous == hazardousMarker,
	}

	if name := strings.TrimSpace(rec.Name); name != "" {
		neo.Name = &name
	}

	if raw := strings.TrimSpace(rec.Diameter); raw != "" {
		if d, err := strconv.ParseFloat(raw, 64); err == nil {
			neo.Diameter = d
		}
	}

	return neo, nil
}

// NameOrEmpty returns the name, or "" if the object has none.
func (n *NearEarthObject) NameOrEmpty() string {
	if n.Name == nil {
		return ""
	}
	return *n.Name
}

// HasDiameter reports whether the diameter is known.
func (n *NearEarthObject) HasDiameter() bool {
	return !math.IsNaN(n.Diameter)
}

// FullName is the designation followed by the parenthesized name, if any.
func (n *NearEarthObject) FullName() string {
	if n.Name == nil {
		return n.Designation
	}
	return fmt.Sprintf("%s (%s)", n.Designation, *n.Name)
}

func (n *NearEarthObject) String() string {
	diameter := "an unknown diameter"
	if n.HasDiameter() {
		diameter = fmt.Sprintf("a diameter of %.3f km", n.Diameter)
	}
	hazard := "is not potentially hazardous"
	if n.Hazardous {
		hazard = "is potentially hazardous"
	}
	return fmt.Sprintf("NEO %s has %s and %s", n.FullName(), diameter, hazard)
}

type neoJSON struct {
	Designation string   `json:"designation"`
	Name        *string  `json:"name"`
	DiameterKm  *float64 `json:"diameter_km"`
	Hazardous   bool     `json:"potentially_hazardous"`
}

// MarshalJSON encodes an unknown diameter as null.
func (n *NearEarthObject) MarshalJSON() ([]byte, error) {
	out := neoJSON{
		Designation: n.Designation,
		Name:        n.Name,
		Hazardous:   n.Hazardous,
	}
	if n.HasDiameter() {
		d := n.Diameter
		out.DiameterKm = &d
	}
	return json.Marshal(out)
}
