package models

import (
	"encoding/json"
	"fmt"
)

// Difficulty is the problem difficulty as stored in the problem_difficulty enum
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// DifficultyFromLevel maps the catalog's ordinal level (1, 2, 3) to a Difficulty
func DifficultyFromLevel(level int) (Difficulty, error) {
	switch level {
	case 1:
		return Easy, nil
	case 2:
		return Medium, nil
	case 3:
		return Hard, nil
	default:
		return "", fmt.Errorf("invalid difficulty level: %d", level)
	}
}

// ParseDifficulty parses the textual form used by the GraphQL catalog
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s), nil
	default:
		return "", fmt.Errorf("invalid difficulty: %q", s)
	}
}

// UnmarshalJSON accepts any stored difficulty. null decodes to the empty
// difficulty and unknown names are kept as written, so a record file with odd
// values still loads. Catalog input is validated by ParseDifficulty and
// DifficultyFromLevel instead.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}

	var level int
	if err := json.Unmarshal(data, &level); err == nil {
		*d, _ = DifficultyFromLevel(level)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = Difficulty(s)
	return nil
}

// CatalogItem is one problem as described by the remote catalog
type CatalogItem struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Difficulty Difficulty `json:"difficulty"`
	PaidOnly   bool       `json:"paid_only"`
	Tags       []string   `json:"tags"`
}

// ProcessedRecord is what the scrape run stores for one sequence index
type ProcessedRecord struct {
	Name       string     `json:"name"`
	Num        int        `json:"num"`
	URL        string     `json:"url"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
}

// NewProcessedRecord builds the stored record for a fetched item
func NewProcessedRecord(item CatalogItem, url string, tags []string) ProcessedRecord {
	if tags == nil {
		tags = []string{}
	}
	return ProcessedRecord{
		Name:       item.Title,
		Num:        item.ID,
		URL:        url,
		Difficulty: item.Difficulty,
		Tags:       tags,
	}
}

// Problem is a row of the problems table. ID comes from the remote catalog.
type Problem struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Difficulty Difficulty `json:"difficulty"`
	IsPaid     bool       `json:"is_paid"`
}

// ProblemFromItem converts a catalog item to its store row
func ProblemFromItem(item CatalogItem) Problem {
	return Problem{
		ID:         item.ID,
		Name:       item.Title,
		Slug:       item.Slug,
		Difficulty: item.Difficulty,
		IsPaid:     item.PaidOnly,
	}
}

// ProblemTag links a problem to a tag. Comparable, so it can key a set.
type ProblemTag struct {
	ProblemID int `json:"problem_id"`
	TagID     int `json:"tag_id"`
}
