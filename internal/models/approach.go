package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"neowatch/internal/utils"
)

// ApproachRecord is a raw close approach row as produced by the loaders.
type ApproachRecord struct {
	Designation string
	Time        string
	Distance    string
	Velocity    string
}

// TimeParser converts the compact source datetime into a UTC time.
type TimeParser func(string) (time.Time, error)

// CloseApproach is a single close approach of a NEO to Earth.
//
// Distance is in astronomical units and Velocity in km/s, both rounded to two
// decimal places. The NEO reference is nil until the database links it.
type CloseApproach struct {
	designation string
	Time        time.Time
	Distance    float64
	Velocity    float64
	neo         *NearEarthObject
}

// NewCloseApproach builds an approach from a raw record using parseTime for
// the datetime column.
func NewCloseApproach(rec ApproachRecord, parseTime TimeParser) (*CloseApproach, error) {
	designation := strings.TrimSpace(rec.Designation)
	if designation == "" {
		return nil, ErrMissingDesignation
	}

	ts, err := parseTime(rec.Time)
	if err != nil {
		return nil, fmt.Errorf("approach %s: %w", designation, err)
	}

	distance, err := utils.RoundTo2(rec.Distance)
	if err != nil {
		return nil, fmt.Errorf("approach %s distance: %w", designation, err)
	}

	velocity, err := utils.RoundTo2(rec.Velocity)
	if err != nil {
		return nil, fmt.Errorf("approach %s velocity: %w", designation, err)
	}

	return &CloseApproach{
		designation: designation,
		Time:        ts.UTC(),
		Distance:    distance,
		Velocity:    velocity,
	}, nil
}

// Designation is the raw foreign key of the approached NEO.
func (a *CloseApproach) Designation() string {
	return a.designation
}

// NEO returns the linked object, or nil if the approach is unlinked.
func (a *CloseApproach) NEO() *NearEarthObject {
	return a.neo
}

// Link attaches the approach to neo and appends it to neo's approaches.
// Linking to the current NEO again is a no-op; linking to another NEO first
// removes the approach from the previous one. A nil neo detaches it.
func (a *CloseApproach) Link(neo *NearEarthObject) {
	if a.neo == neo {
		return
	}
	if a.neo != nil {
		a.neo.Approaches = slices.DeleteFunc(a.neo.Approaches, func(other *CloseApproach) bool {
			return other == a
		})
	}
	a.neo = neo
	if neo != nil {
		neo.Approaches = append(neo.Approaches, a)
	}
}

// TimeString formats the approach time as "YYYY-MM-DD HH:MM".
func (a *CloseApproach) TimeString() string {
	return utils.FormatTime(a.Time)
}

// Date is the calendar date of the approach.
func (a *CloseApproach) Date() civil.Date {
	return civil.DateOf(a.Time)
}

func (a *CloseApproach) String() string {
	who := a.designation
	if a.neo != nil {
		who = a.neo.FullName()
	}
	return fmt.Sprintf("On %s, '%s' approaches Earth at a distance of %.2f au and a velocity of %.2f km/s",
		a.TimeString(), who, a.Distance, a.Velocity)
}
