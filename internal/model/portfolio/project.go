package portfolio

import (
	"time"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/service/image"
)

// Project is a portfolio entry shown on the site.
type Project struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Title         string    `json:"title"`
	TitleBG       string    `json:"title_bg"`
	Description   string    `json:"description"`
	DescriptionBG string    `json:"description_bg"`
	ImageURL      string    `json:"image_url"`
	WebsiteURL    string    `json:"website_url"`
	Tags          []string  `json:"tags"`
	Featured      bool      `json:"featured"`
	Order         int       `json:"order"`

	// ImageCandidates is filled in when projects are listed over HTTP.
	ImageCandidates []image.Candidate `json:"image_candidates,omitempty"`
}

// TitleIn returns the title for lang, falling back to English.
func (p Project) TitleIn(lang i18n.Language) string {
	if lang == i18n.Bulgarian && p.TitleBG != "" {
		return p.TitleBG
	}
	return p.Title
}

// DescriptionIn returns the description for lang, falling back to English.
func (p Project) DescriptionIn(lang i18n.Language) string {
	if lang == i18n.Bulgarian && p.DescriptionBG != "" {
		return p.DescriptionBG
	}
	return p.Description
}

// WithImageCandidates computes the image candidates of every project.
// Projects with unusable image URLs get none.
func WithImageCandidates(projects []Project, opts ...image.Option) []Project {
	out := make([]Project, len(projects))
	for i, p := range projects {
		if ref, err := image.NewReference(p.ImageURL, opts...); err == nil {
			p.ImageCandidates = ref.Candidates
		}
		out[i] = p
	}
	return out
}
