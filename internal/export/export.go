// Package export writes close approach results as CSV, JSON or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strconv"
	"strings"

	"neowatch/internal/models"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is an output file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "xlsx"
)

// ParseFormat accepts csv, json, xlsx and excel.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Row is the flat form of one approach and its NEO.
type Row struct {
	DatetimeUTC string   `json:"datetime_utc"`
	DistanceAU  float64  `json:"distance_au"`
	VelocityKmS float64  `json:"velocity_km_s"`
	Designation string   `json:"designation"`
	Name        *string  `json:"name"`
	DiameterKm  *float64 `json:"diameter_km"`
	Hazardous   bool     `json:"potentially_hazardous"`
}

// NewRow flattens an approach. For an unlinked approach the raw designation is
// used and the NEO fields are left empty.
func NewRow(ca *models.CloseApproach) Row {
	row := Row{
		DatetimeUTC: ca.TimeString(),
		DistanceAU:  ca.Distance,
		VelocityKmS: ca.Velocity,
		Designation: ca.Designation(),
	}
	if neo := ca.NEO(); neo != nil {
		row.Designation = neo.Designation
		row.Name = neo.Name
		row.Hazardous = neo.Hazardous
		if neo.HasDiameter() {
			d := neo.Diameter
			row.DiameterKm = &d
		}
	}
	return row
}

// String matches the CloseApproach description of the same approach.
func (r Row) String() string {
	who := r.Designation
	if r.Name != nil {
		who = fmt.Sprintf("%s (%s)", r.Designation, *r.Name)
	}
	return fmt.Sprintf("On %s, '%s' approaches Earth at a distance of %.2f au and a velocity of %.2f km/s",
		r.DatetimeUTC, who, r.DistanceAU, r.VelocityKmS)
}

// Rows flattens a sequence of approaches.
func Rows(seq iter.Seq[*models.CloseApproach]) []Row {
	var rows []Row
	for ca := range seq {
		rows = append(rows, NewRow(ca))
	}
	return rows
}

var csvHeader = []string{
	"datetime_utc", "distance_au", "velocity_km_s",
	"designation", "name", "diameter_km", "potentially_hazardous",
}

// WriteCSV writes a header and one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rows {
		name := ""
		if r.Name != nil {
			name = *r.Name
		}
		diameter := "nan"
		if r.DiameterKm != nil {
			diameter = strconv.FormatFloat(*r.DiameterKm, 'f', 3, 64)
		}
		line := []string{
			r.DatetimeUTC,
			fmt.Sprintf("%.2f", r.DistanceAU),
			fmt.Sprintf("%.2f", r.VelocityKmS),
			r.Designation,
			name,
			diameter,
			strconv.FormatBool(r.Hazardous),
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

type jsonNEO struct {
	Designation string   `json:"designation"`
	Name        *string  `json:"name"`
	DiameterKm  *float64 `json:"diameter_km"`
	Hazardous   bool     `json:"potentially_hazardous"`
}

type jsonApproach struct {
	DatetimeUTC string  `json:"datetime_utc"`
	DistanceAU  float64 `json:"distance_au"`
	VelocityKmS float64 `json:"velocity_km_s"`
	NEO         jsonNEO `json:"neo"`
}

// WriteJSON writes rows as an indented JSON array with a nested neo object.
func WriteJSON(w io.Writer, rows []Row) error {
	out := make([]jsonApproach, 0, len(rows))
	for _, r := range rows {
		out = append(out, jsonApproach{
			DatetimeUTC: r.DatetimeUTC,
			DistanceAU:  r.DistanceAU,
			VelocityKmS: r.VelocityKmS,
			NEO: jsonNEO{
				Designation: r.Designation,
				Name:        r.Name,
				DiameterKm:  r.DiameterKm,
				Hazardous:   r.Hazardous,
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatExcel:
		return WriteExcelTo(w, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes rows to path in the given format.
func WriteFile(path string, format Format, rows []Row) error {
	switch format {
	case FormatExcel:
		return WriteExcel(path, rows)
	case FormatCSV, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == FormatCSV {
		err = WriteCSV(f, rows)
	} else {
		err = WriteJSON(f, rows)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
