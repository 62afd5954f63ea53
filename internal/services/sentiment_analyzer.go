package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

// Thresholds for label derivation and rewrite marking. Label is negative
// iff score < -labelThreshold, positive iff score > labelThreshold.
const (
	labelThreshold           = 0.2
	rewriteConfidenceMinimum = 0.6
)

// SentimentAnalyzer scores text polarity by weighted keyword membership.
// It is a deterministic heuristic, not a model: the same keyword lists and
// input text always produce bit-identical output.
type SentimentAnalyzer struct {
	log      *logger.Logger
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewSentimentAnalyzer(baseLog *logger.Logger, keywords KeywordConfig) *SentimentAnalyzer {
	if len(keywords.Positive) == 0 && len(keywords.Negative) == 0 {
		keywords = DefaultKeywords()
	}
	pos := make(map[string]struct{}, len(keywords.Positive))
	for _, w := range keywords.Positive {
		pos[strings.ToLower(w)] = struct{}{}
	}
	neg := make(map[string]struct{}, len(keywords.Negative))
	for _, w := range keywords.Negative {
		neg[strings.ToLower(w)] = struct{}{}
	}
	return &SentimentAnalyzer{
		log:      baseLog.With("service", "SentimentAnalyzer"),
		positive: pos,
		negative: neg,
	}
}

// Analyze tokenizes on whitespace, lower-cases, and counts membership in the
// positive and negative keyword sets.
//
//	score      = (positiveCount - negativeCount) / totalSentimentWords
//	confidence = min((5 + totalSentimentWords) / 10, 1)
//
// With no sentiment words at all, score is 0 and confidence 0.5. The 0.5
// confidence floor means a single matched word scores 0.6 confidence, which
// sits exactly on (not past) the rewrite boundary.
func (a *SentimentAnalyzer) Analyze(profileID uuid.UUID, contentType types.ContentType, text string) types.SentimentRecord {
	var (
		positiveCount int
		negativeCount int
		matched       []string
		seen          = map[string]struct{}{}
	)

	for _, token := range strings.Fields(text) {
		word := strings.Trim(strings.ToLower(token), ".,!?;:\"'()")
		if word == "" {
			continue
		}
		_, isPositive := a.positive[word]
		_, isNegative := a.negative[word]
		if !isPositive && !isNegative {
			continue
		}
		if isPositive {
			positiveCount++
		}
		if isNegative {
			negativeCount++
		}
		if _, dup := seen[word]; !dup {
			seen[word] = struct{}{}
			matched = append(matched, word)
		}
	}

	total := positiveCount + negativeCount
	score := 0.0
	confidence := 0.5
	if total > 0 {
		score = float64(positiveCount-negativeCount) / float64(total)
		// Single division keeps boundary values like 0.6 bit-identical to
		// their literals, so threshold comparisons behave exactly.
		confidence = float64(5+total) / 10
		if confidence > 1 {
			confidence = 1
		}
	}

	label := types.SentimentLabelNeutral
	switch {
	case score < -labelThreshold:
		label = types.SentimentLabelNegative
	case score > labelThreshold:
		label = types.SentimentLabelPositive
	}

	return types.SentimentRecord{
		ID:              uuid.New(),
		ProfileID:       profileID,
		ContentType:     contentType,
		Content:         text,
		SentimentScore:  score,
		SentimentLabel:  label,
		Confidence:      confidence,
		MatchedKeywords: datatypes.NewJSONSlice(matched),
		NeedsRewrite:    label == types.SentimentLabelNegative && confidence > rewriteConfidenceMinimum,
		AnalyzedAt:      time.Now().UTC(),
	}
}
