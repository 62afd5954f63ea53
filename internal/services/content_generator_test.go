package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/localspark/marketplace-backend/internal/logger"
)

type stubAIClient struct {
	text string
	err  error
}

func (s *stubAIClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	return s.text, s.err
}

func TestGenerateParsesStrictJSON(t *testing.T) {
	g := NewContentGenerator(logger.NewNop(), &stubAIClient{
		text: `{"bio": "Expert plumbing with a personal touch.", "price": 420}`,
	})
	got := g.Generate(context.Background(), "Dana", "Plumbing", 8, "Austin")
	if got.Bio != "Expert plumbing with a personal touch." {
		t.Fatalf("bio=%q", got.Bio)
	}
	if got.Price != 420 {
		t.Fatalf("price=%v, want 420", got.Price)
	}
}

func TestGenerateParsesFencedAndWrappedResponses(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{
			name: "markdown_fenced",
			text: "```json\n{\"bio\": \"Careful carpentry.\", \"price\": 310}\n```",
		},
		{
			name: "prose_wrapped",
			text: `Sure! Here is the profile: {"bio": "Careful carpentry.", "price": 310} Let me know if you need anything else.`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewContentGenerator(logger.NewNop(), &stubAIClient{text: tc.text})
			got := g.Generate(context.Background(), "Sam", "Carpentry", 5, "Denver")
			if got.Bio != "Careful carpentry." {
				t.Fatalf("bio=%q", got.Bio)
			}
			if got.Price != 310 {
				t.Fatalf("price=%v, want 310", got.Price)
			}
		})
	}
}

func TestGenerateFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		client *stubAIClient
	}{
		{name: "nil_client", client: nil},
		{name: "network_error", client: &stubAIClient{err: fmt.Errorf("connection refused")}},
		{name: "garbage_response", client: &stubAIClient{text: "I cannot help with that."}},
		{name: "missing_price", client: &stubAIClient{text: `{"bio": "nice"}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var g *ContentGenerator
			if tc.client == nil {
				g = NewContentGenerator(logger.NewNop(), nil)
			} else {
				g = NewContentGenerator(logger.NewNop(), tc.client)
			}
			got := g.Generate(context.Background(), "Dana", "Plumbing", 8, "Austin")
			if got.Bio == "" {
				t.Fatal("fallback bio is empty")
			}
			if !strings.Contains(got.Bio, "Dana") {
				t.Fatalf("fallback bio %q does not mention the provider", got.Bio)
			}
			if got.Price != 540 {
				t.Fatalf("fallback price=%v, want 540", got.Price)
			}
		})
	}
}

func TestGenerateFallbackDeterministic(t *testing.T) {
	g := NewContentGenerator(logger.NewNop(), nil)
	first := g.Generate(context.Background(), "Dana", "Plumbing", 8, "Austin")
	second := g.Generate(context.Background(), "Dana", "Plumbing", 8, "Austin")
	if first != second {
		t.Fatalf("fallback not deterministic: %+v vs %+v", first, second)
	}
}

func TestFallbackPrice(t *testing.T) {
	cases := []struct {
		skill string
		years int
		want  float64
	}{
		{skill: "Plumbing", years: 8, want: 540},
		{skill: "plumbing", years: 0, want: 300},
		{skill: "Electrical", years: 3, want: 455},
		{skill: "Cleaning", years: 1, want: 165},
		{skill: "Beekeeping", years: 2, want: 300}, // default base 250
	}
	for _, tc := range cases {
		if got := FallbackPrice(tc.skill, tc.years); got != tc.want {
			t.Fatalf("FallbackPrice(%q, %d)=%v, want %v", tc.skill, tc.years, got, tc.want)
		}
	}
}
