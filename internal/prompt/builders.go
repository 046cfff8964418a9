package prompt

import (
	"fmt"
	"strings"

	"github.com/listforge/listforge-backend/internal/types"
)

// Prompt is a fully assembled provider request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Build assembles the prompt for one content type from the resolved
// context. Absent fields are omitted entirely rather than rendered as
// empty labels.
func Build(ct types.ContentType, pc Context) (Prompt, error) {
	if !ct.Valid() {
		return Prompt{}, fmt.Errorf("unknown content type %q", ct)
	}

	r := pc.resolve()
	p := Prompt{
		System:      systemFor(ct),
		User:        userFor(ct, r, pc.Upstream),
		MaxTokens:   maxTokensFor(ct),
		Temperature: defaultTemperature,
	}
	return p, nil
}

// BuildRefinement assembles a chat-refinement prompt: same system prompt
// plus the refine suffix, with the current draft and the user's
// instruction in the user message. Prior chat turns are included oldest
// first so the model sees the revision history.
func BuildRefinement(ct types.ContentType, pc Context, draft string, history []types.ChatMessage, instruction string) (Prompt, error) {
	base, err := Build(ct, pc)
	if err != nil {
		return Prompt{}, err
	}

	var b strings.Builder
	b.WriteString(base.User)
	b.WriteString("\n\nCurrent draft:\n")
	b.WriteString(draft)
	if len(history) > 0 {
		b.WriteString("\n\nRevision history:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Message)
		}
	}
	b.WriteString("\nInstruction: ")
	b.WriteString(instruction)

	base.System += refineSystemSuffix
	base.User = b.String()
	return base, nil
}

func systemFor(ct types.ContentType) string {
	switch ct {
	case types.ContentTypeTitle:
		return titleSystemPrompt
	case types.ContentTypeBulletPoints:
		return bulletPointsSystemPrompt
	case types.ContentTypeHeroImage:
		return heroImageSystemPrompt
	case types.ContentTypeLifestyleImage:
		return lifestyleImageSystemPrompt
	default:
		return infographicSystemPrompt
	}
}

func maxTokensFor(ct types.ContentType) int {
	switch ct {
	case types.ContentTypeTitle:
		return titleMaxTokens
	case types.ContentTypeBulletPoints:
		return bulletPointsMaxTokens
	default:
		return imagePromptMaxTokens
	}
}

func userFor(ct types.ContentType, r resolved, upstream map[string]string) string {
	var b strings.Builder

	writeField(&b, "Product name", r.Name)
	writeField(&b, "ASIN", r.ASIN)
	writeField(&b, "Category", r.Category)
	writeField(&b, "Key features", r.Features)
	writeField(&b, "Specifications", r.Specifications)
	writeField(&b, "Target keywords", r.Keywords)
	writeField(&b, "Target audience", r.Audience)
	writeField(&b, "Brand name", r.BrandName)
	writeField(&b, "Brand voice", r.BrandVoice)

	if ct.IsImage() {
		writeField(&b, "Brand colors", r.BrandPalette)
	}

	// Image types build on the approved text copy when it exists.
	if ct.IsImage() && upstream != nil {
		writeField(&b, "Approved title", upstream[string(types.ContentTypeTitle)])
		if ct == types.ContentTypeInfographic {
			writeField(&b, "Approved bullet points", upstream[string(types.ContentTypeBulletPoints)])
		}
	}
	if ct == types.ContentTypeBulletPoints && upstream != nil {
		writeField(&b, "Approved title", upstream[string(types.ContentTypeTitle)])
	}

	if b.Len() == 0 {
		b.WriteString("No product details were provided; use a generic placeholder product.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
