package filters

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"neowatch/internal/utils"
)

// ErrInvalidCriteria is returned for criteria that can never be satisfied or
// cannot be parsed.
var ErrInvalidCriteria = errors.New("invalid criteria")

// Option keys accepted by ParseCriteria.
const (
	KeyDate        = "date"
	KeyStartDate   = "start_date"
	KeyEndDate     = "end_date"
	KeyDistanceMin = "distance_min"
	KeyDistanceMax = "distance_max"
	KeyVelocityMin = "velocity_min"
	KeyVelocityMax = "velocity_max"
	KeyDiameterMin = "diameter_min"
	KeyDiameterMax = "diameter_max"
	KeyHazardous   = "hazardous"
)

// Criteria is the set of user options for an approach query. A nil field
// means no constraint; a zero value is a real bound.
type Criteria struct {
	Date        *civil.Date `json:"date,omitempty"`
	StartDate   *civil.Date `json:"start_date,omitempty"`
	EndDate     *civil.Date `json:"end_date,omitempty"`
	DistanceMin *float64    `json:"distance_min,omitempty"`
	DistanceMax *float64    `json:"distance_max,omitempty"`
	VelocityMin *float64    `json:"velocity_min,omitempty"`
	VelocityMax *float64    `json:"velocity_max,omitempty"`
	DiameterMin *float64    `json:"diameter_min,omitempty"`
	DiameterMax *float64    `json:"diameter_max,omitempty"`
	Hazardous   *bool       `json:"hazardous,omitempty"`
}

// Create translates criteria into filters, AND-combined by the database.
// The output order is fixed: date, start, end, then min/max pairs for
// distance, velocity and diameter, then hazardous.
func Create(c Criteria) []Filter {
	var fs []Filter
	if c.Date != nil {
		fs = append(fs, Date(OpEq, *c.Date))
	}
	if c.StartDate != nil {
		fs = append(fs, Date(OpGe, *c.StartDate))
	}
	if c.EndDate != nil {
		fs = append(fs, Date(OpLe, *c.EndDate))
	}
	if c.DistanceMin != nil {
		fs = append(fs, Distance(OpGe, *c.DistanceMin))
	}
	if c.DistanceMax != nil {
		fs = append(fs, Distance(OpLe, *c.DistanceMax))
	}
	if c.VelocityMin != nil {
		fs = append(fs, Velocity(OpGe, *c.VelocityMin))
	}
	if c.VelocityMax != nil {
		fs = append(fs, Velocity(OpLe, *c.VelocityMax))
	}
	if c.DiameterMin != nil {
		fs = append(fs, Diameter(OpGe, *c.DiameterMin))
	}
	if c.DiameterMax != nil {
		fs = append(fs, Diameter(OpLe, *c.DiameterMax))
	}
	if c.Hazardous != nil {
		fs = append(fs, Hazardous(OpEq, *c.Hazardous))
	}
	return fs
}

// IsEmpty reports whether no option is set.
func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Validate rejects NaN or negative bounds and inverted ranges.
func (c Criteria) Validate() error {
	bounds := []struct {
		key string
		v   *float64
	}{
		{KeyDistanceMin, c.DistanceMin},
		{KeyDistanceMax, c.DistanceMax},
		{KeyVelocityMin, c.VelocityMin},
		{KeyVelocityMax, c.VelocityMax},
		{KeyDiameterMin, c.DiameterMin},
		{KeyDiameterMax, c.DiameterMax},
	}
	for _, b := range bounds {
		if b.v == nil {
			continue
		}
		if math.IsNaN(*b.v) || math.IsInf(*b.v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidCriteria, b.key)
		}
		if *b.v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidCriteria, b.key)
		}
	}

	if err := checkRange(KeyDistanceMin, KeyDistanceMax, c.DistanceMin, c.DistanceMax); err != nil {
		return err
	}
	if err := checkRange(KeyVelocityMin, KeyVelocityMax, c.VelocityMin, c.VelocityMax); err != nil {
		return err
	}
	if err := checkRange(KeyDiameterMin, KeyDiameterMax, c.DiameterMin, c.DiameterMax); err != nil {
		return err
	}
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidCriteria, KeyStartDate, KeyEndDate)
	}
	return nil
}

func checkRange(minKey, maxKey string, lo, hi *float64) error {
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%w: %s is greater than %s", ErrInvalidCriteria, minKey, maxKey)
	}
	return nil
}

// ParseCriteria reads textual options keyed by the Key* constants. Empty
// values are treated as unset.
func ParseCriteria(opts map[string]string) (Criteria, error) {
	var c Criteria
	var err error

	dates := []struct {
		key string
		dst **civil.Date
	}{
		{KeyDate, &c.Date},
		{KeyStartDate, &c.StartDate},
		{KeyEndDate, &c.EndDate},
	}
	for _, d := range dates {
		raw := strings.TrimSpace(opts[d.key])
		if raw == "" {
			continue
		}
		v, perr := utils.ParseDate(raw)
		if perr != nil {
			return Criteria{}, fmt.Errorf("%w: %s: %v", ErrInvalidCriteria, d.key, perr)
		}
		*d.dst = &v
	}

	numbers := []struct {
		key string
		dst **float64
	}{
		{KeyDistanceMin, &c.DistanceMin},
		{KeyDistanceMax, &c.DistanceMax},
		{KeyVelocityMin, &c.VelocityMin},
		{KeyVelocityMax, &c.VelocityMax},
		{KeyDiameterMin, &c.DiameterMin},
		{KeyDiameterMax, &c.DiameterMax},
	}
	for _, n := range numbers {
		raw := strings.TrimSpace(opts[n.key])
		if raw == "" {
			continue
		}
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			return Criteria{}, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidCriteria, n.key, raw)
		}
		*n.dst = &v
	}

	if raw := strings.TrimSpace(opts[KeyHazardous]); raw != "" {
		h, perr := strconv.ParseBool(raw)
		if perr != nil {
			return Criteria{}, fmt.Errorf("%w: %s: %q is not a boolean", ErrInvalidCriteria, KeyHazardous, raw)
		}
		c.Hazardous = &h
	}

	if err = c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}
