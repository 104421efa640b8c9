/*
Package taxonomy holds the fixed observation taxonomy: categories, their
subcategories and observation points, and the example phrases an observer can
tick for each point.

The record store never consults it. Callers use it to constrain what they save
and to render example phrases back from stored indices.
*/
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var embedded []byte

var (
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownSubCategory = errors.New("unknown subcategory")
	ErrUnknownPoint       = errors.New("unknown observation point")
	ErrExampleIndex       = errors.New("example index out of range")
	ErrUnknownStyle       = errors.New("unknown style")
)

// Taxonomy is the whole classification tree plus generation options.
type Taxonomy struct {
	Categories      []Category `yaml:"categories" json:"categories"`
	DefaultExamples []string   `yaml:"defaultExamples" json:"defaultExamples"`
	Styles          []Style    `yaml:"styles" json:"styles"`
	Lengths         []int      `yaml:"lengths" json:"lengths"`
}

type Category struct {
	Name          string        `yaml:"name" json:"name"`
	Label         string        `yaml:"label" json:"label"`
	SubCategories []SubCategory `yaml:"subCategories" json:"subCategories"`
}

type SubCategory struct {
	Name   string  `yaml:"name" json:"name"`
	Points []Point `yaml:"points" json:"points"`
}

// Point is an observation point. Examples may be empty, in which case the
// taxonomy's default examples apply.
type Point struct {
	Name     string   `yaml:"name" json:"name"`
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// Style is a requested writing style for generated text.
type Style struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
}

var loadDefault = sync.OnceValues(func() (*Taxonomy, error) {
	return Parse(embedded)
})

// Default returns the built-in taxonomy.
func Default() (*Taxonomy, error) {
	return loadDefault()
}

// Parse decodes a taxonomy document and checks it has no duplicate names.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	cats := make(map[string]bool)
	for _, c := range t.Categories {
		if c.Name == "" || cats[c.Name] {
			return nil, fmt.Errorf("taxonomy: empty or duplicate category %q", c.Name)
		}
		cats[c.Name] = true

		subs := make(map[string]bool)
		for _, sc := range c.SubCategories {
			if sc.Name == "" || subs[sc.Name] {
				return nil, fmt.Errorf("taxonomy: empty or duplicate subcategory %q in %s", sc.Name, c.Name)
			}
			subs[sc.Name] = true

			points := make(map[string]bool)
			for _, p := range sc.Points {
				if p.Name == "" || points[p.Name] {
					return nil, fmt.Errorf("taxonomy: empty or duplicate point %q in %s/%s", p.Name, c.Name, sc.Name)
				}
				points[p.Name] = true
			}
		}
	}
	return &t, nil
}

// CategoryNames lists category names in taxonomy order.
func (t *Taxonomy) CategoryNames() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// Category looks up a category by name.
func (t *Taxonomy) Category(name string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Label returns the display label of a category, or the name itself.
func (t *Taxonomy) Label(category string) string {
	if c, ok := t.Category(category); ok && c.Label != "" {
		return c.Label
	}
	return category
}

// SubCategories lists the subcategory names of category.
func (t *Taxonomy) SubCategories(category string) []string {
	c, ok := t.Category(category)
	if !ok {
		return nil
	}
	names := make([]string, len(c.SubCategories))
	for i, sc := range c.SubCategories {
		names[i] = sc.Name
	}
	return names
}

// Points lists the observation points of category/subCategory.
func (t *Taxonomy) Points(category, subCategory string) []string {
	sc, ok := t.subCategory(category, subCategory)
	if !ok {
		return nil
	}
	names := make([]string, len(sc.Points))
	for i, p := range sc.Points {
		names[i] = p.Name
	}
	return names
}

// Examples returns the example phrases for a point, falling back to the
// default examples when the point is unknown or has none.
func (t *Taxonomy) Examples(category, subCategory, point string) []string {
	if p, ok := t.point(category, subCategory, point); ok && len(p.Examples) > 0 {
		return p.Examples
	}
	return t.DefaultExamples
}

// Validate checks that the tuple names an existing observation point.
func (t *Taxonomy) Validate(category, subCategory, point string) error {
	if _, ok := t.Category(category); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if _, ok := t.subCategory(category, subCategory); !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnknownSubCategory, subCategory, category)
	}
	if _, ok := t.point(category, subCategory, point); !ok {
		return fmt.Errorf("%w: %q in %s/%s", ErrUnknownPoint, point, category, subCategory)
	}
	return nil
}

// ValidIndices checks every index addresses one of the point's examples.
func (t *Taxonomy) ValidIndices(category, subCategory, point string, indices []int) error {
	n := len(t.Examples(category, subCategory, point))
	for _, i := range indices {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: %d (point has %d examples)", ErrExampleIndex, i, n)
		}
	}
	return nil
}

// HasCategory reports whether category exists.
func (t *Taxonomy) HasCategory(category string) bool {
	_, ok := t.Category(category)
	return ok
}

// ValidateStyle checks style is one of the configured styles.
func (t *Taxonomy) ValidateStyle(style string) error {
	for _, s := range t.Styles {
		if s.Name == style {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
}

func (t *Taxonomy) subCategory(category, subCategory string) (SubCategory, bool) {
	c, ok := t.Category(category)
	if !ok {
		return SubCategory{}, false
	}
	for _, sc := range c.SubCategories {
		if sc.Name == subCategory {
			return sc, true
		}
	}
	return SubCategory{}, false
}

func (t *Taxonomy) point(category, subCategory, point string) (Point, bool) {
	sc, ok := t.subCategory(category, subCategory)
	if !ok {
		return Point{}, false
	}
	for _, p := range sc.Points {
		if p.Name == point {
			return p, true
		}
	}
	return Point{}, false
}
