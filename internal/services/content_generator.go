package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/platform/openai"
)

type GeneratedContent struct {
	Bio   string  `json:"bio"`
	Price float64 `json:"price"`
}

// ContentGenerator turns onboarding form data into marketing bio text and a
// suggested price. The external generative call may fail in any way (network,
// credential, malformed body); the caller always receives a usable result,
// falling back to deterministic templates and the base-price table.
type ContentGenerator struct {
	log    *logger.Logger
	client openai.Client
}

// NewContentGenerator accepts a nil client; generation then goes straight to
// the fallback path (missing-credential degradation).
func NewContentGenerator(baseLog *logger.Logger, client openai.Client) *ContentGenerator {
	return &ContentGenerator{
		log:    baseLog.With("service", "ContentGenerator"),
		client: client,
	}
}

const generatorSystemPrompt = `You write short marketing copy for a local services marketplace. Respond with a single JSON object of the form {"bio": string, "price": number} and nothing else. The bio is 2-3 sentences of warm, professional first-person copy. The price is a fair hourly rate in whole dollars.`

func (g *ContentGenerator) Generate(ctx context.Context, name, skill string, years int, location string) GeneratedContent {
	if g.client == nil {
		return g.fallback(name, skill, years, location)
	}

	prompt := fmt.Sprintf(
		"Write a marketplace profile for %s, a %s professional with %d years of experience based in %s. Return JSON with a \"bio\" string and a numeric \"price\".",
		name, skill, years, location,
	)

	text, err := g.client.GenerateText(ctx, generatorSystemPrompt, prompt)
	if err != nil {
		g.log.Warn("generation call failed, using fallback content", "name", name, "skill", skill, "error", err)
		return g.fallback(name, skill, years, location)
	}

	if content, ok := parseGeneratedContent(text); ok {
		return content
	}
	g.log.Warn("could not extract bio/price from generation response, using fallback content", "name", name, "skill", skill)
	return g.fallback(name, skill, years, location)
}

var (
	bioFieldRe   = regexp.MustCompile(`"bio"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	priceFieldRe = regexp.MustCompile(`"price"\s*:\s*"?(\d+(?:\.\d+)?)`)
)

// parseGeneratedContent tries strict JSON first, then a regex best-effort
// extraction for responses that wrap the object in prose or code fences.
func parseGeneratedContent(text string) (GeneratedContent, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var content GeneratedContent
	if err := json.Unmarshal([]byte(cleaned), &content); err == nil {
		if content.Bio != "" && content.Price > 0 {
			return content, true
		}
	}

	bioMatch := bioFieldRe.FindStringSubmatch(text)
	priceMatch := priceFieldRe.FindStringSubmatch(text)
	if bioMatch == nil || priceMatch == nil {
		return GeneratedContent{}, false
	}
	price, err := strconv.ParseFloat(priceMatch[1], 64)
	if err != nil || price <= 0 {
		return GeneratedContent{}, false
	}
	bio := strings.ReplaceAll(bioMatch[1], `\"`, `"`)
	bio = strings.ReplaceAll(bio, `\n`, "\n")
	if bio == "" {
		return GeneratedContent{}, false
	}
	return GeneratedContent{Bio: bio, Price: price}, true
}

var fallbackBioTemplates = []string{
	"%s is a %s professional with %d years of experience serving %s. Known for quality work and a commitment to getting the job done right.",
	"With %[3]d years of hands-on experience, %[1]s provides dependable %[2]s services throughout %[4]s. Every job gets careful attention from start to finish.",
	"%s brings %d years of %s expertise to clients in %s. Clear communication, fair pricing, and work that holds up.",
}

var skillBasePrices = map[string]float64{
	"plumbing":    300,
	"electrical":  350,
	"carpentry":   280,
	"painting":    220,
	"cleaning":    150,
	"landscaping": 200,
	"roofing":     380,
	"hvac":        360,
	"tutoring":    180,
	"photography": 320,
	"catering":    260,
}

const defaultBasePrice = 250

// fallback is fully deterministic for fixed inputs: the template index is
// derived from the input strings and the price from the base-price table
// scaled by experience.
func (g *ContentGenerator) fallback(name, skill string, years int, location string) GeneratedContent {
	idx := (len(name) + len(skill)) % len(fallbackBioTemplates)
	var bio string
	switch idx {
	case 1:
		bio = fmt.Sprintf(fallbackBioTemplates[1], name, skill, years, location)
	case 2:
		bio = fmt.Sprintf(fallbackBioTemplates[2], name, years, skill, location)
	default:
		bio = fmt.Sprintf(fallbackBioTemplates[0], name, skill, years, location)
	}
	return GeneratedContent{Bio: bio, Price: FallbackPrice(skill, years)}
}

// FallbackPrice is base * (1 + years*0.1) rounded to the nearest integer,
// with a flat default base for skills outside the table.
func FallbackPrice(skill string, years int) float64 {
	base, ok := skillBasePrices[strings.ToLower(strings.TrimSpace(skill))]
	if !ok {
		base = defaultBasePrice
	}
	return math.Round(base * (1 + float64(years)*0.1))
}
