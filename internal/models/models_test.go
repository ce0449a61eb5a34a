package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neowatch/internal/utils"
)

func TestNewNearEarthObject_Normalization(t *testing.T) {
	tests := []struct {
		name          string
		rec           NEORecord
		wantName      *string
		wantDiameter  float64
		wantHazardous bool
	}{
		{
			name:          "all fields present",
			rec:           NEORecord{Designation: "433", Name: "Eros", Diameter: "16.84", Hazardous: "N"},
			wantName:      strPtr("Eros"),
			wantDiameter:  16.84,
			wantHazardous: false,
		},
		{
			name:          "empty name and diameter",
			rec:           NEORecord{Designation: "2000 AB", Hazardous: "Y"},
			wantDiameter:  math.NaN(),
			wantHazardous: true,
		},
		{
			name:         "non numeric diameter",
			rec:          NEORecord{Designation: "2020 QQ", Diameter: "big"},
			wantDiameter: math.NaN(),
		},
		{
			name:         "lowercase marker is not hazardous",
			rec:          NEORecord{Designation: "2020 QQ", Hazardous: "y", Diameter: "0"},
			wantDiameter: 0,
		},
		{
			name:         "padded marker is not hazardous",
			rec:          NEORecord{Designation: "2020 QR", Hazardous: " Y "},
			wantDiameter: math.NaN(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			neo, err := NewNearEarthObject(tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, neo.Name)
			if math.IsNaN(tt.wantDiameter) {
				assert.True(t, math.IsNaN(neo.Diameter))
				assert.False(t, neo.HasDiameter())
			} else {
				assert.Equal(t, tt.wantDiameter, neo.Diameter)
			}
			assert.Equal(t, tt.wantHazardous, neo.Hazardous)
			assert.Empty(t, neo.Approaches)
		})
	}
}

func TestNewNearEarthObject_MissingDesignation(t *testing.T) {
	_, err := NewNearEarthObject(NEORecord{Name: "Nameless"})
	assert.True(t, errors.Is(err, ErrMissingDesignation))
}

func TestNearEarthObject_FullName(t *testing.T) {
	named, _ := NewNearEarthObject(NEORecord{Designation: "433", Name: "Eros"})
	unnamed, _ := NewNearEarthObject(NEORecord{Designation: "2000 AB"})

	assert.Equal(t, "433 (Eros)", named.FullName())
	assert.Equal(t, "2000 AB", unnamed.FullName())
	assert.Contains(t, unnamed.String(), "unknown diameter")
}

func TestNearEarthObject_MarshalJSON(t *testing.T) {
	neo, _ := NewNearEarthObject(NEORecord{Designation: "2000 AB"})

	data, err := json.Marshal(neo)
	require.NoError(t, err)
	assert.JSONEq(t, `{"designation":"2000 AB","name":null,"diameter_km":null,"potentially_hazardous":false}`, string(data))
}

func TestNewCloseApproach_Rounding(t *testing.T) {
	ca, err := NewCloseApproach(ApproachRecord{
		Designation: "2000 AB",
		Time:        "2020-Jan-01 00:00",
		Distance:    "0.123456",
		Velocity:    "19.995",
	}, utils.ParseCADTime)
	require.NoError(t, err)

	assert.Equal(t, 0.12, ca.Distance)
	assert.Equal(t, 20.0, ca.Velocity)
	assert.Equal(t, "2000 AB", ca.Designation())
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), ca.Time)
	assert.Equal(t, civil.Date{Year: 2020, Month: time.January, Day: 1}, ca.Date())
	assert.Nil(t, ca.NEO())
}

func TestNewCloseApproach_UsesInjectedParser(t *testing.T) {
	fixed := time.Date(1999, time.December, 31, 23, 59, 0, 0, time.UTC)
	var seen string
	parse := func(s string) (time.Time, error) {
		seen = s
		return fixed, nil
	}

	ca, err := NewCloseApproach(ApproachRecord{Designation: "X", Time: "whenever", Distance: "1", Velocity: "2"}, parse)
	require.NoError(t, err)
	assert.Equal(t, "whenever", seen)
	assert.Equal(t, "1999-12-31 23:59", ca.TimeString())
}

func TestNewCloseApproach_Errors(t *testing.T) {
	base := ApproachRecord{Designation: "X", Time: "2020-Jan-01 00:00", Distance: "0.1", Velocity: "1"}

	bad := base
	bad.Time = "yesterday"
	_, err := NewCloseApproach(bad, utils.ParseCADTime)
	assert.Error(t, err)

	bad = base
	bad.Distance = ""
	_, err = NewCloseApproach(bad, utils.ParseCADTime)
	assert.Error(t, err)

	bad = base
	bad.Designation = " "
	_, err = NewCloseApproach(bad, utils.ParseCADTime)
	assert.ErrorIs(t, err, ErrMissingDesignation)
}

func TestCloseApproach_Link(t *testing.T) {
	neo, _ := NewNearEarthObject(NEORecord{Designation: "433", Name: "Eros"})
	ca, err := NewCloseApproach(ApproachRecord{Designation: "433", Time: "1900-Dec-27 01:30", Distance: "0.31", Velocity: "5.58"}, utils.ParseCADTime)
	require.NoError(t, err)

	ca.Link(neo)

	assert.Same(t, neo, ca.NEO())
	require.Len(t, neo.Approaches, 1)
	assert.Same(t, ca, neo.Approaches[0])
	assert.Contains(t, ca.String(), "433 (Eros)")
}

func TestCloseApproach_LinkIsIdempotent(t *testing.T) {
	neo, _ := NewNearEarthObject(NEORecord{Designation: "433", Name: "Eros"})
	ca, err := NewCloseApproach(ApproachRecord{Designation: "433", Time: "1900-Dec-27 01:30", Distance: "0.31", Velocity: "5.58"}, utils.ParseCADTime)
	require.NoError(t, err)

	ca.Link(neo)
	ca.Link(neo)
	ca.Link(neo)

	require.Len(t, neo.Approaches, 1)
	assert.Same(t, ca, neo.Approaches[0])
}

func TestCloseApproach_RelinkMovesApproach(t *testing.T) {
	first, _ := NewNearEarthObject(NEORecord{Designation: "433"})
	second, _ := NewNearEarthObject(NEORecord{Designation: "433", Name: "Eros"})
	ca, err := NewCloseApproach(ApproachRecord{Designation: "433", Time: "1900-Dec-27 01:30", Distance: "0.31", Velocity: "5.58"}, utils.ParseCADTime)
	require.NoError(t, err)

	ca.Link(first)
	ca.Link(second)

	assert.Empty(t, first.Approaches)
	require.Len(t, second.Approaches, 1)
	assert.Same(t, second, ca.NEO())
}

func strPtr(s string) *string { return &s }
