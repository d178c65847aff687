package detection

import "github.com/AI-Template-SDK/senso-visibility/internal/models"

// Outcome is the result of exactly one strategy. Strategy records which one
// produced Result so provenance survives the fallback.
type Outcome struct {
	Strategy        models.Strategy
	Result          models.ClassifiedResult
	StageCounts     models.StageCounts
	DiscoveryStatus string
	DiscoveryCost   float64
}

// SelectOutcome picks the outcome to publish. Conservative wins when it found
// competitors or when there is no liberal run. Otherwise liberal wins when it
// found competitors, or found the brand where conservative found nothing at
// all. A tie keeps conservative.
func SelectOutcome(conservative, liberal *Outcome) *Outcome {
	if conservative == nil {
		return liberal
	}
	if liberal == nil || len(conservative.Result.CompetitorsFound) > 0 {
		return conservative
	}
	if len(liberal.Result.CompetitorsFound) > 0 {
		return liberal
	}
	if len(conservative.Result.OrgBrandsFound) == 0 && len(liberal.Result.OrgBrandsFound) > 0 {
		return liberal
	}
	return conservative
}
