package catalog

import (
	"math"

	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

// Quota shown when the API answers without usage data.
const (
	DefaultCharactersLimit  int64 = 10000
	DefaultGenerationsLimit int64 = 50
	DefaultPlan                   = "free"
)

type BarLevel string

const (
	BarNormal   BarLevel = "normal"
	BarWarning  BarLevel = "warning"
	BarCritical BarLevel = "critical"
)

// Meter is one usage counter prepared for display.
type Meter struct {
	Label   string   `json:"label"`
	Used    string   `json:"used"`
	Limit   string   `json:"limit"`
	Percent float64  `json:"percent"`
	Level   BarLevel `json:"level"`
	// ShowBar is false for unlimited or zero quotas.
	ShowBar bool `json:"show_bar"`
}

type UsageView struct {
	Plan        string `json:"plan"`
	PlanLabel   string `json:"plan_label"`
	IsFree      bool   `json:"is_free"`
	Characters  Meter  `json:"characters"`
	Generations Meter  `json:"generations"`
}

// BuildUsageView turns a subscription response into dashboard cards. A nil
// result or missing pieces fall back to the free tier defaults.
func BuildUsageView(res *ttsapi.SubscriptionResult) UsageView {
	usage := ttsapi.Usage{CharactersLimit: DefaultCharactersLimit, GenerationsLimit: DefaultGenerationsLimit}
	plan := DefaultPlan
	if res != nil {
		if res.Usage != nil {
			usage = *res.Usage
		}
		if res.Subscription != nil && res.Subscription.Plan != "" {
			plan = res.Subscription.Plan
		}
	}
	return UsageView{
		Plan:        plan,
		PlanLabel:   TitleCase(plan),
		IsFree:      plan == DefaultPlan,
		Characters:  newMeter("Characters Used", usage.CharactersUsed, usage.CharactersLimit),
		Generations: newMeter("Generations", usage.GenerationsUsed, usage.GenerationsLimit),
	}
}

func newMeter(label string, used, limit int64) Meter {
	m := Meter{
		Label: label,
		Used:  FormatNumber(used),
		Limit: FormatLimit(limit),
	}
	if limit > 0 {
		m.ShowBar = true
		m.Percent = float64(used) / float64(limit) * 100
	}
	m.Level = LevelFor(m.Percent)
	return m
}

// LevelFor colours a usage bar: above 90% is critical, above 70% a warning.
func LevelFor(percent float64) BarLevel {
	switch {
	case percent > 90:
		return BarCritical
	case percent > 70:
		return BarWarning
	default:
		return BarNormal
	}
}

// Width is the bar width in percent, capped at 100.
func (m Meter) Width() float64 {
	return math.Min(m.Percent, 100)
}
