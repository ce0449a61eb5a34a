// Package extract loads NEO and close approach data from the NASA CSV and
// JPL CAD JSON files.
package extract

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"neowatch/internal/models"
)

// Fallback positions when the header does not name a column.
const (
	neoDesignationCol = 3
	neoNameCol        = 4
	neoHazardousCol   = 7
	neoDiameterCol    = 15

	cadDesignationCol = 0
	cadTimeCol        = 3
	cadDistanceCol    = 4
	cadVelocityCol    = 7
)

// LoadNEOs reads NEOs from a CSV file.
func LoadNEOs(path string) ([]*models.NearEarthObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open neo file: %w", err)
	}
	defer f.Close()

	return ReadNEOs(f)
}

// ReadNEOs reads NEOs from CSV with a header row. Columns are located by the
// header names pdes, name, pha and diameter.
func ReadNEOs(r io.Reader) ([]*models.NearEarthObject, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read neo header: %w", err)
	}

	cols := indexColumns(header)
	desCol := cols.lookup("pdes", neoDesignationCol)
	nameCol := cols.lookup("name", neoNameCol)
	phaCol := cols.lookup("pha", neoHazardousCol)
	diamCol := cols.lookup("diameter", neoDiameterCol)

	var neos []*models.NearEarthObject
	for row := 2; ; row++ {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read neo row %d: %w", row, err)
		}

		neo, err := models.NewNearEarthObject(models.NEORecord{
			Designation: field(line, desCol),
			Name:        field(line, nameCol),
			Diameter:    field(line, diamCol),
			Hazardous:   field(line, phaCol),
		})
		if err != nil {
			return nil, fmt.Errorf("neo row %d: %w", row, err)
		}
		neos = append(neos, neo)
	}

	return neos, nil
}

// cadDocument is the JPL CAD API response shape.
type cadDocument struct {
	Fields []string    `json:"fields"`
	Data   [][]*string `json:"data"`
}

// LoadApproaches reads close approaches from a CAD JSON file.
func LoadApproaches(path string, parseTime models.TimeParser) ([]*models.CloseApproach, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cad file: %w", err)
	}
	defer f.Close()

	return ReadApproaches(f, parseTime)
}

// ReadApproaches decodes a CAD document. Columns are located by the field
// names des, cd, dist and v_rel.
func ReadApproaches(r io.Reader, parseTime models.TimeParser) ([]*models.CloseApproach, error) {
	var doc cadDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode cad json: %w", err)
	}

	cols := indexColumns(doc.Fields)
	desCol := cols.lookup("des", cadDesignationCol)
	timeCol := cols.lookup("cd", cadTimeCol)
	distCol := cols.lookup("dist", cadDistanceCol)
	velCol := cols.lookup("v_rel", cadVelocityCol)

	approaches := make([]*models.CloseApproach, 0, len(doc.Data))
	for i, entry := range doc.Data {
		ca, err := models.NewCloseApproach(models.ApproachRecord{
			Designation: nullable(entry, desCol),
			Time:        nullable(entry, timeCol),
			Distance:    nullable(entry, distCol),
			Velocity:    nullable(entry, velCol),
		}, parseTime)
		if err != nil {
			return nil, fmt.Errorf("cad entry %d: %w", i, err)
		}
		approaches = append(approaches, ca)
	}

	return approaches, nil
}

type columns map[string]int

func indexColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	return cols
}

func (c columns) lookup(name string, fallback int) int {
	if i, ok := c[name]; ok {
		return i
	}
	return fallback
}

func field(line []string, i int) string {
	if i < 0 || i >= len(line) {
		return ""
	}
	return line[i]
}

func nullable(entry []*string, i int) string {
	if i < 0 || i >= len(entry) || entry[i] == nil {
		return ""
	}
	return *entry[i]
}
