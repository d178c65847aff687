// internal/scoring/scoring.go
package scoring

import (
	"math"

	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
)

// Prominence buckets, best first
const (
	ProminenceTop    = 1
	ProminenceEarly  = 2
	ProminenceMiddle = 4
	ProminenceLate   = 7
	ProminenceBottom = 9
)

// Visibility score model
const (
	absentBase          = 2.0
	absentPerCompetitor = 0.2
	absentFloor         = 0.5
	presentBase         = 5.5
	prominenceWeight    = 0.3
	competitorPenalty   = 0.15
	maxCompetitorDrag   = 2.5
	shortResponseLen    = 200
	shortResponseBonus  = 0.5
	longResponseLen     = 4000
	longResponsePenalty = 0.3
)

// Bucket maps a first-mention position ratio (0 = start of text) to a prominence rank
func Bucket(ratio float64) int {
	switch {
	case ratio <= 0.10:
		return ProminenceTop
	case ratio <= 0.25:
		return ProminenceEarly
	case ratio <= 0.50:
		return ProminenceMiddle
	case ratio <= 0.75:
		return ProminenceLate
	default:
		return ProminenceBottom
	}
}

// Prominence is the best bucket over the first word-bounded mention of each
// brand name, or nil when no brand is given. A brand that cannot be located
// in text counts as a bottom mention.
func Prominence(text string, brands []string) *int {
	if len(brands) == 0 {
		return nil
	}

	best := ProminenceBottom
	if len(text) == 0 {
		return &best
	}
	for _, brand := range brands {
		idx := detection.FirstWordIndex(text, brand)
		if idx < 0 {
			continue
		}
		if b := Bucket(float64(idx) / float64(len(text))); b < best {
			best = b
		}
	}
	return &best
}

// VisibilityScore rates a response from 0 to 10, rounded to one decimal.
// A present brand with a nil prominence is scored as a bottom mention.
func VisibilityScore(present bool, prominence *int, competitorCount, responseLength int) float64 {
	if competitorCount < 0 {
		competitorCount = 0
	}

	var score float64
	if !present {
		score = math.Max(absentFloor, absentBase-absentPerCompetitor*float64(competitorCount))
	} else {
		p := ProminenceBottom
		if prominence != nil {
			p = *prominence
		}
		score = presentBase + float64(11-p)*prominenceWeight -
			math.Min(maxCompetitorDrag, competitorPenalty*float64(competitorCount))
		switch {
		case responseLength < shortResponseLen:
			score += shortResponseBonus
		case responseLength > longResponseLen:
			score -= longResponsePenalty
		}
	}

	score = math.Max(0, math.Min(10, score))
	return math.Round(score*10) / 10
}
