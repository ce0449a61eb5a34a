// Package neodb holds the linked in-memory database of NEOs and their close
// approaches.
package neodb

import (
	"fmt"
	"iter"

	"neowatch/internal/filters"
	"neowatch/internal/models"
)

// Database owns the NEO and approach collections and their lookup indexes.
// It is read-only after New, so concurrent readers need no locking.
type Database struct {
	neos          []*models.NearEarthObject
	approaches    []*models.CloseApproach
	byDesignation map[string]*models.NearEarthObject
	byName        map[string]*models.NearEarthObject
}

// Stats summarizes the linked dataset.
type Stats struct {
	NEOs               int `json:"neos"`
	NamedNEOs          int `json:"named_neos"`
	Approaches         int `json:"approaches"`
	LinkedApproaches   int `json:"linked_approaches"`
	UnlinkedApproaches int `json:"unlinked_approaches"`
}

// New indexes neos and links approaches to them.
//
// The first NEO seen wins both the designation and the name index; later
// duplicates stay in the collection but are not indexed. Approaches whose
// designation is unknown stay unlinked.
func New(neos []*models.NearEarthObject, approaches []*models.CloseApproach) *Database {
	db := &Database{
		neos:          neos,
		approaches:    approaches,
		byDesignation: make(map[string]*models.NearEarthObject, len(neos)),
		byName:        make(map[string]*models.NearEarthObject),
	}

	for _, neo := range neos {
		if _, ok := db.byDesignation[neo.Designation]; !ok {
			db.byDesignation[neo.Designation] = neo
		}
		if neo.Name == nil || *neo.Name == "" {
			continue
		}
		if _, ok := db.byName[*neo.Name]; !ok {
			db.byName[*neo.Name] = neo
		}
	}

	for _, ca := range approaches {
		// a nil lookup detaches approaches left linked by an earlier database
		ca.Link(db.byDesignation[ca.Designation()])
	}

	return db
}

// GetByDesignation finds a NEO by exact primary designation.
func (db *Database) GetByDesignation(designation string) (*models.NearEarthObject, bool) {
	neo, ok := db.byDesignation[designation]
	return neo, ok
}

// GetByName finds a NEO by exact name. The empty name never matches.
func (db *Database) GetByName(name string) (*models.NearEarthObject, bool) {
	if name == "" {
		return nil, false
	}
	neo, ok := db.byName[name]
	return neo, ok
}

// Query returns the approaches matching every filter, in collection order.
//
// Filters are validated up front; evaluation is lazy and stops as soon as the
// consumer stops ranging.
func (db *Database) Query(fs ...filters.Filter) (iter.Seq[*models.CloseApproach], error) {
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
	}

	return func(yield func(*models.CloseApproach) bool) {
		for _, ca := range db.approaches {
			if !matchAll(fs, ca) {
				continue
			}
			if !yield(ca) {
				return
			}
		}
	}, nil
}

func matchAll(fs []filters.Filter, ca *models.CloseApproach) bool {
	for _, f := range fs {
		if !f.Match(ca) {
			return false
		}
	}
	return true
}

// NEOs returns the owned NEO collection.
func (db *Database) NEOs() []*models.NearEarthObject {
	return db.neos
}

// Approaches returns the owned approach collection.
func (db *Database) Approaches() []*models.CloseApproach {
	return db.approaches
}

// Stats counts NEOs and approaches, split by name and link state.
func (db *Database) Stats() Stats {
	s := Stats{
		NEOs:       len(db.neos),
		Approaches: len(db.approaches),
	}
	for _, neo := range db.neos {
		if neo.Name != nil {
			s.NamedNEOs++
		}
	}
	for _, ca := range db.approaches {
		if ca.NEO() != nil {
			s.LinkedApproaches++
		}
	}
	s.UnlinkedApproaches = s.Approaches - s.LinkedApproaches
	return s
}
