package catalog

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

// PlanCard is one tier on the pricing page.
type PlanCard struct {
	Key              string   `json:"key"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Price            int64    `json:"price"`
	CharactersLimit  int64    `json:"characters_limit"`
	GenerationsLimit int64    `json:"generations_limit"`
	Features         []string `json:"features"`
	Highlight        bool     `json:"highlight"`
}

const PriceCurrency = "KRW/mo"

var builtinPlans = []PlanCard{
	{
		Key:              "free",
		Name:             "Free",
		Description:      "Perfect for trying out",
		Price:            0,
		CharactersLimit:  10000,
		GenerationsLimit: 50,
		Features: []string{
			"10,000 characters/month",
			"50 generations/month",
			"Basic voices",
			"Standard quality",
		},
	},
	{
		Key:              "starter",
		Name:             "Starter",
		Description:      "For content creators",
		Price:            9900,
		CharactersLimit:  100000,
		GenerationsLimit: 500,
		Features: []string{
			"100,000 characters/month",
			"500 generations/month",
			"Premium voices",
			"High quality audio",
			"Priority support",
		},
	},
	{
		Key:              "pro",
		Name:             "Pro",
		Description:      "For professionals",
		Price:            29900,
		CharactersLimit:  500000,
		GenerationsLimit: 2000,
		Features: []string{
			"500,000 characters/month",
			"2,000 generations/month",
			"All premium voices",
			"Custom voice cloning",
			"API access",
			"24/7 support",
		},
		Highlight: true,
	},
	{
		Key:              "enterprise",
		Name:             "Enterprise",
		Description:      "For large teams",
		Price:            99900,
		CharactersLimit:  ttsapi.Unlimited,
		GenerationsLimit: ttsapi.Unlimited,
		Features: []string{
			"Unlimited characters",
			"Unlimited generations",
			"All voices + custom",
			"Dedicated support",
			"SLA guarantee",
			"Custom integrations",
		},
	},
}

// BuiltinPlans returns the four standard tiers.
func BuiltinPlans() []PlanCard {
	out := make([]PlanCard, len(builtinPlans))
	for i, p := range builtinPlans {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// MergePlans overlays price and limits reported by the API onto the built-in
// cards with the same key. Plans the API does not report keep their built-in
// values; API plans without a built-in card are appended.
func MergePlans(remote []ttsapi.Plan) []PlanCard {
	cards := BuiltinPlans()
	index := make(map[string]int, len(cards))
	for i, c := range cards {
		index[c.Key] = i
	}
	for _, p := range remote {
		key := strings.ToLower(strings.TrimSpace(p.ID))
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(p.Name))
		}
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			cards[i].Price = p.Price
			cards[i].CharactersLimit = p.CharactersLimit
			cards[i].GenerationsLimit = p.GenerationsLimit
			if len(p.Features) > 0 {
				cards[i].Features = append([]string(nil), p.Features...)
			}
			continue
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = TitleCase(key)
		}
		features := append([]string(nil), p.Features...)
		if len(features) == 0 {
			features = []string{
				FormatLimit(p.CharactersLimit) + " characters/month",
				FormatLimit(p.GenerationsLimit) + " generations/month",
			}
		}
		index[key] = len(cards)
		cards = append(cards, PlanCard{
			Key:              key,
			Name:             name,
			Price:            p.Price,
			CharactersLimit:  p.CharactersLimit,
			GenerationsLimit: p.GenerationsLimit,
			Features:         features,
		})
	}
	return cards
}

var printer = message.NewPrinter(language.English)

// FormatNumber groups thousands, e.g. 29900 becomes "29,900".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatLimit renders a quota ceiling, spelling out the unlimited sentinel.
func FormatLimit(n int64) string {
	if n == ttsapi.Unlimited {
		return "Unlimited"
	}
	return FormatNumber(n)
}

// FormatPrice renders a monthly price without the currency suffix.
func FormatPrice(price int64) string {
	if price == 0 {
		return "Free"
	}
	return FormatNumber(price)
}

// TitleCase upper-cases the first letter of a plan key for display.
func TitleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
