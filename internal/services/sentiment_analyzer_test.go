package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

func newTestAnalyzer() *SentimentAnalyzer {
	return NewSentimentAnalyzer(logger.NewNop(), KeywordConfig{})
}

func TestAnalyzeNoKeywordMatches(t *testing.T) {
	a := newTestAnalyzer()
	cases := []string{
		"",
		"just a plain description of services",
		"I fix pipes and install water heaters in the metro area",
		"   \t  \n ",
	}
	for _, text := range cases {
		rec := a.Analyze(uuid.New(), types.ContentTypeBio, text)
		if rec.SentimentLabel != types.SentimentLabelNeutral {
			t.Fatalf("Analyze(%q) label=%s, want neutral", text, rec.SentimentLabel)
		}
		if rec.SentimentScore != 0 {
			t.Fatalf("Analyze(%q) score=%v, want 0", text, rec.SentimentScore)
		}
		if rec.Confidence != 0.5 {
			t.Fatalf("Analyze(%q) confidence=%v, want 0.5", text, rec.Confidence)
		}
		if rec.NeedsRewrite {
			t.Fatalf("Analyze(%q) needsRewrite=true, want false", text)
		}
	}
}

func TestAnalyzeScoreAndLabel(t *testing.T) {
	a := newTestAnalyzer()
	cases := []struct {
		name      string
		text      string
		wantScore float64
		wantLabel types.SentimentLabel
	}{
		{
			name:      "all_positive",
			text:      "excellent reliable professional",
			wantScore: 1,
			wantLabel: types.SentimentLabelPositive,
		},
		{
			name:      "all_negative",
			text:      "sloppy unprofessional overpriced",
			wantScore: -1,
			wantLabel: types.SentimentLabelNegative,
		},
		{
			name:      "balanced_is_neutral",
			text:      "excellent but sloppy",
			wantScore: 0,
			wantLabel: types.SentimentLabelNeutral,
		},
		{
			name:      "slightly_negative_within_threshold",
			text:      "excellent reliable sloppy overpriced poor",
			wantScore: -0.2,
			wantLabel: types.SentimentLabelNeutral,
		},
		{
			name:      "case_and_punctuation_insensitive",
			text:      "EXCELLENT, Reliable!",
			wantScore: 1,
			wantLabel: types.SentimentLabelPositive,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.Analyze(uuid.New(), types.ContentTypeBio, tc.text)
			if rec.SentimentScore != tc.wantScore {
				t.Fatalf("score=%v, want %v", rec.SentimentScore, tc.wantScore)
			}
			if rec.SentimentLabel != tc.wantLabel {
				t.Fatalf("label=%s, want %s", rec.SentimentLabel, tc.wantLabel)
			}
			if rec.SentimentScore < -1 || rec.SentimentScore > 1 {
				t.Fatalf("score %v out of [-1,1]", rec.SentimentScore)
			}
			if rec.Confidence < 0 || rec.Confidence > 1 {
				t.Fatalf("confidence %v out of [0,1]", rec.Confidence)
			}
		})
	}
}

func TestAnalyzeRewriteBoundary(t *testing.T) {
	a := newTestAnalyzer()

	// One negative word: confidence lands exactly on 0.6, which must not
	// trigger a rewrite.
	rec := a.Analyze(uuid.New(), types.ContentTypeBio, "sloppy")
	if rec.SentimentLabel != types.SentimentLabelNegative {
		t.Fatalf("label=%s, want negative", rec.SentimentLabel)
	}
	if rec.Confidence != 0.6 {
		t.Fatalf("confidence=%v, want 0.6", rec.Confidence)
	}
	if rec.NeedsRewrite {
		t.Fatal("needsRewrite=true at confidence exactly 0.6, want false")
	}

	// Two negative words push confidence past the boundary.
	rec = a.Analyze(uuid.New(), types.ContentTypeBio, "sloppy unreliable")
	if !rec.NeedsRewrite {
		t.Fatalf("needsRewrite=false at confidence %v, want true", rec.Confidence)
	}

	// Negative label is required: high-confidence positive text never needs
	// a rewrite.
	rec = a.Analyze(uuid.New(), types.ContentTypeBio, "excellent reliable professional skilled trusted friendly experienced affordable")
	if rec.NeedsRewrite {
		t.Fatal("needsRewrite=true for positive text, want false")
	}
}

func TestAnalyzeNegativeBioScenario(t *testing.T) {
	a := newTestAnalyzer()
	bio := "Unreliable service provider with poor quality work and overpriced rates."

	rec := a.Analyze(uuid.New(), types.ContentTypeBio, bio)
	if rec.SentimentLabel != types.SentimentLabelNegative {
		t.Fatalf("label=%s, want negative", rec.SentimentLabel)
	}
	if !rec.NeedsRewrite {
		t.Fatalf("needsRewrite=false (confidence=%v), want true", rec.Confidence)
	}

	want := map[string]bool{"unreliable": false, "poor": false, "overpriced": false}
	for _, kw := range rec.MatchedKeywords {
		if _, ok := want[kw]; ok {
			want[kw] = true
		}
	}
	for kw, found := range want {
		if !found {
			t.Fatalf("matched keywords %v missing %q", rec.MatchedKeywords, kw)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := newTestAnalyzer()
	profileID := uuid.New()
	text := "Reliable and professional, though occasionally overpriced."

	first := a.Analyze(profileID, types.ContentTypeBio, text)
	second := a.Analyze(profileID, types.ContentTypeBio, text)

	if first.SentimentScore != second.SentimentScore ||
		first.SentimentLabel != second.SentimentLabel ||
		first.Confidence != second.Confidence ||
		first.NeedsRewrite != second.NeedsRewrite {
		t.Fatalf("analyzer not deterministic: %+v vs %+v", first, second)
	}
	if len(first.MatchedKeywords) != len(second.MatchedKeywords) {
		t.Fatalf("matched keywords differ: %v vs %v", first.MatchedKeywords, second.MatchedKeywords)
	}
	for i := range first.MatchedKeywords {
		if first.MatchedKeywords[i] != second.MatchedKeywords[i] {
			t.Fatalf("matched keywords differ at %d: %v vs %v", i, first.MatchedKeywords, second.MatchedKeywords)
		}
	}
}

func TestAnalyzeMatchedKeywordsDeduplicated(t *testing.T) {
	a := newTestAnalyzer()
	rec := a.Analyze(uuid.New(), types.ContentTypeSocialPost, "sloppy sloppy sloppy")
	if len(rec.MatchedKeywords) != 1 || rec.MatchedKeywords[0] != "sloppy" {
		t.Fatalf("matched keywords = %v, want [sloppy]", rec.MatchedKeywords)
	}
	// Repetition still counts toward score weighting and confidence.
	if rec.SentimentScore != -1 {
		t.Fatalf("score=%v, want -1", rec.SentimentScore)
	}
	if rec.Confidence != 0.8 {
		t.Fatalf("confidence=%v, want 0.8", rec.Confidence)
	}
}
