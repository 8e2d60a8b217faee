package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
)

//go:embed offerings.yaml
var offeringsYAML []byte

// Offering is one service the agency sells, with copy per language.
type Offering struct {
	ID          string                   `yaml:"id"`
	Icon        string                   `yaml:"icon"`
	Title       map[i18n.Language]string `yaml:"title"`
	Description map[i18n.Language]string `yaml:"description"`
}

// Localized is an offering rendered in a single language.
type Localized struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// In renders the offering in lang, falling back to the default language
// for missing copy.
func (o Offering) In(lang i18n.Language) Localized {
	return Localized{
		ID:          o.ID,
		Icon:        o.Icon,
		Title:       pick(o.Title, lang),
		Description: pick(o.Description, lang),
	}
}

func pick(values map[i18n.Language]string, lang i18n.Language) string {
	if v := values[lang]; v != "" {
		return v
	}
	return values[i18n.Default]
}

// Parse decodes an offerings list.
func Parse(data []byte) ([]Offering, error) {
	var items []Offering
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode offerings: %w", err)
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("offering %d has no id", i)
		}
		if item.Title[i18n.Default] == "" {
			return nil, fmt.Errorf("offering %q has no %s title", item.ID, i18n.Default)
		}
	}
	return items, nil
}

// Seed returns the built-in agency offerings.
func Seed() []Offering {
	items, err := Parse(offeringsYAML)
	if err != nil {
		panic(err)
	}
	return items
}
