package prompt

import (
	"strings"
)

// Context is the structured record prompt builders render from. Field
// sources keep their origin (per-node metadata, legacy database fields,
// profile fallbacks) so resolution order stays in one place instead of
// being re-decided inside every builder.
type Context struct {
	Product  ProductFields
	Legacy   LegacyFields
	Profile  ProfileFields
	Brand    *BrandFields
	Upstream map[string]string // content type -> upstream agent draft
}

// ProductFields is the per-node metadata edited on the canvas.
type ProductFields struct {
	Name           string
	Title          string
	ASIN           string
	KeyFeatures    string
	TargetKeywords string
	TargetAudience string
	Category       string
}

// LegacyFields are the older structured columns kept for rows created
// before the free-text metadata fields existed.
type LegacyFields struct {
	Features       []string
	Specifications []string
	Keywords       []string
}

// ProfileFields are the user-level fallbacks.
type ProfileFields struct {
	BrandName      string
	BrandVoice     string
	TargetAudience string
}

type BrandFields struct {
	Name    string
	Palette string
	Voice   string
}

// resolved is the flat view after applying the fixed priority:
// per-node product metadata > legacy database fields > profile fallback.
type resolved struct {
	Name           string
	ASIN           string
	Features       string
	Specifications string
	Keywords       string
	Audience       string
	Category       string
	BrandName      string
	BrandVoice     string
	BrandPalette   string
}

func (c Context) resolve() resolved {
	r := resolved{}

	r.Name = firstNonEmpty(c.Product.Name, c.Product.Title)
	r.ASIN = strings.TrimSpace(c.Product.ASIN)
	r.Features = firstNonEmpty(c.Product.KeyFeatures, joinList(c.Legacy.Features))
	r.Specifications = joinList(c.Legacy.Specifications)
	r.Keywords = firstNonEmpty(c.Product.TargetKeywords, joinList(c.Legacy.Keywords))
	r.Audience = firstNonEmpty(c.Product.TargetAudience, c.Profile.TargetAudience)
	r.Category = strings.TrimSpace(c.Product.Category)

	if c.Brand != nil {
		r.BrandName = firstNonEmpty(c.Brand.Name, c.Profile.BrandName)
		r.BrandVoice = firstNonEmpty(c.Brand.Voice, c.Profile.BrandVoice)
		r.BrandPalette = strings.TrimSpace(c.Brand.Palette)
	} else {
		r.BrandName = strings.TrimSpace(c.Profile.BrandName)
		r.BrandVoice = strings.TrimSpace(c.Profile.BrandVoice)
	}

	return r
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func joinList(items []string) string {
	var kept []string
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			kept = append(kept, strings.TrimSpace(it))
		}
	}
	return strings.Join(kept, ", ")
}
