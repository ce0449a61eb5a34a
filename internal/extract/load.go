package extract

import (
	"neowatch/internal/neodb"
	"neowatch/internal/utils"
)

// LoadDatabase loads both data files and links them into a database.
func LoadDatabase(neoPath, cadPath string) (*neodb.Database, error) {
	neos, err := LoadNEOs(neoPath)
	if err != nil {
		return nil, err
	}
	approaches, err := LoadApproaches(cadPath, utils.ParseCADTime)
	if err != nil {
		return nil, err
	}
	return neodb.New(neos, approaches), nil
}
