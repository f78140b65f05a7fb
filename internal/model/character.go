package model

import "fmt"

// Character represents a single fetched character record
type Character struct {
	Name    string `json:"name"`
	Status  string `json:"status"`  // e.g. "Alive", "Dead", "unknown"
	Species string `json:"species"` // e.g. "Human", "Alien"
}

// Validate checks that all required fields are present.
// Records missing any of them are treated as malformed input.
func (c Character) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("character record missing required field: name")
	}
	if c.Status == "" {
		return fmt.Errorf("character record missing required field: status")
	}
	if c.Species == "" {
		return fmt.Errorf("character record missing required field: species")
	}
	return nil
}

// CharacterPage is the JSON envelope returned by the character endpoint
type CharacterPage struct {
	Results []Character `json:"results"`
}

// StatusDistribution holds per-status counts. Statuses preserves the
// first-occurrence order of distinct values in the input sequence.
type StatusDistribution struct {
	Statuses []string       `json:"statuses"`
	Counts   map[string]int `json:"counts"`
}

// Total returns the sum of all counts.
func (d StatusDistribution) Total() int {
	total := 0
	for _, s := range d.Statuses {
		total += d.Counts[s]
	}
	return total
}
