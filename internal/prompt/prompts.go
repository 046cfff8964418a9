package prompt

// Per-content-type system prompts and completion budgets. The image types
// produce a rendering prompt for the image model, not customer-facing
// copy, so their instructions describe a scene rather than a listing.
const (
	titleSystemPrompt = "You are an Amazon listing copywriter. Write a single product title " +
		"under 200 characters. Front-load the brand and primary keyword, include the most " +
		"important differentiators, and avoid promotional phrases, all-caps words, and " +
		"special characters Amazon rejects. Return only the title text."

	bulletPointsSystemPrompt = "You are an Amazon listing copywriter. Write exactly 5 bullet " +
		"points for the product. Each bullet starts with a short ALL-CAPS benefit phrase " +
		"followed by a colon and one or two supporting sentences. Weave in the target " +
		"keywords naturally. Return the bullets as plain lines, one per bullet, no numbering."

	heroImageSystemPrompt = "You write prompts for a product photography image model. Describe " +
		"a single hero shot: the product centered on a pure white background, studio " +
		"lighting, sharp focus, no text overlays, no props, composition suitable for an " +
		"Amazon main image. Return only the image prompt."

	lifestyleImageSystemPrompt = "You write prompts for a product photography image model. " +
		"Describe a lifestyle scene showing the product in realistic use by its target " +
		"audience, natural lighting, aspirational but believable setting, no text overlays. " +
		"Return only the image prompt."

	infographicSystemPrompt = "You write prompts for a product infographic image model. " +
		"Describe a clean infographic panel: the product photo with 3-4 short callout labels " +
		"highlighting key features, brand colors where given, legible sans-serif text, flat " +
		"modern layout. Return only the image prompt."

	refineSystemSuffix = " The user will give you the current draft and an instruction; " +
		"apply the instruction and return only the revised result in the same format."
)

const (
	titleMaxTokens        = 200
	bulletPointsMaxTokens = 600
	imagePromptMaxTokens  = 400

	defaultTemperature = 0.7
)
