package scoring

import "math"

const (
	categoryRecency   = "recency"
	categoryFrequency = "frequency"
	categoryClicks    = "click_depth"
	categoryTenure    = "tenure"

	maxRecency   = 40
	maxFrequency = 25
	maxClicks    = 25
	maxTenure    = 10

	// DefaultHalfLifeDays is the inactivity after which the recency score halves.
	DefaultHalfLifeDays = 30
)

// SubscriberFeatures captures the engagement signals used for scoring.
type SubscriberFeatures struct {
	// DaysSinceActivity is nil for subscribers that never opened or clicked.
	DaysSinceActivity *int
	OpensCount        int
	ClicksCount       int
	EmailsReceived    int
	TenureDays        int
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int
	Breakdown map[string]int
}

// ComputeScore evaluates the features and returns a 0-100 score.
func ComputeScore(input SubscriberFeatures, halfLifeDays int) ScoreResult {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}

	breakdown := map[string]int{
		categoryRecency:   scoreRecency(input.DaysSinceActivity, halfLifeDays),
		categoryFrequency: scoreFrequency(input.OpensCount, input.EmailsReceived),
		categoryClicks:    scoreClicks(input.ClicksCount),
		categoryTenure:    scoreTenure(input.TenureDays),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     clamp(total, 0, 100),
		Breakdown: breakdown,
	}
}

// recency decays exponentially with the configured half life.
func scoreRecency(days *int, halfLifeDays int) int {
	if days == nil {
		return 0
	}
	d := max(*days, 0)
	return int(math.Round(maxRecency * math.Pow(0.5, float64(d)/float64(halfLifeDays))))
}

func scoreFrequency(opens, received int) int {
	if received <= 0 || opens <= 0 {
		return 0
	}
	rate := math.Min(float64(opens)/float64(received), 1)
	return int(math.Round(maxFrequency * rate))
}

func scoreClicks(clicks int) int {
	return clamp(clicks*5, 0, maxClicks)
}

// one point per full month subscribed
func scoreTenure(days int) int {
	return clamp(days/30, 0, maxTenure)
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
