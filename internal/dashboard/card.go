package dashboard

import (
	"strconv"
	"strings"

	"github.com/coasensus/coasensus/internal/polymarket/gammaapi"
	"github.com/shopspring/decimal"
)

// UnknownTitle is shown for events without a title
const UnknownTitle = "Unknown Event"

const eventURLPrefix = "https://polymarket.com/event/"

var (
	hundred = decimal.NewFromInt(100)
	million = decimal.NewFromInt(1_000_000)
	one     = decimal.NewFromInt(1)

	// maxVolume bounds volumes to what a decimal(20,2) millions column holds
	maxVolume = decimal.New(1, 24)
)

// Card is the display record derived from one event
type Card struct {
	Title              string  `json:"title"`
	URL                string  `json:"url,omitempty"`
	VolumeMillions     float64 `json:"volume_millions"`
	ProbabilityPercent float64 `json:"probability_percent"`
}

// Caption renders the source/volume line, e.g. "Source: Polymarket | Volume: $2.5M"
func (c Card) Caption(source string) string {
	return "Source: " + source + " | Volume: $" + formatAmount(c.VolumeMillions) + "M"
}

// ProbabilityText renders the metric value, e.g. "73.0%"
func (c Card) ProbabilityText() string {
	return strconv.FormatFloat(c.ProbabilityPercent, 'f', 1, 64) + "%"
}

// SkipReason says why an event produced no card
type SkipReason string

const (
	SkipNoMarkets SkipReason = "no_markets"
	SkipNoGroup   SkipReason = "no_group"
	SkipNoPrice   SkipReason = "no_price"
	SkipBadPrice  SkipReason = "bad_price"
)

// ExtractOptions tunes card extraction
type ExtractOptions struct {
	// MarketPriceFallback reads the market-level outcomePrices when the
	// first market carries no outcome group.
	MarketPriceFallback bool
}

// ExtractCard derives the card for event. ok is false when the event has no
// markets or no parseable primary outcome price in [0, 1]; reason then says why.
// A volume that is absent, unparseable or out of range counts as 0.
func ExtractCard(event gammaapi.Event, opts ExtractOptions) (card Card, reason SkipReason, ok bool) {
	if len(event.Markets) == 0 {
		return Card{}, SkipNoMarkets, false
	}
	market := event.Markets[0]

	var prices gammaapi.StringList
	switch {
	case len(market.Group) > 0:
		prices = market.Group[0].OutcomePrices
	case opts.MarketPriceFallback:
		prices = market.OutcomePrices
	default:
		return Card{}, SkipNoGroup, false
	}

	if len(prices) == 0 {
		return Card{}, SkipNoPrice, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(prices[0]))
	if err != nil || price.IsNegative() || price.GreaterThan(one) {
		return Card{}, SkipBadPrice, false
	}

	volume := decimal.Zero
	if v, ok := event.Volume.Decimal(); ok && v.Abs().LessThan(maxVolume) {
		volume = v
	}

	title := strings.TrimSpace(event.Title)
	if title == "" {
		title = UnknownTitle
	}

	card = Card{
		Title:              title,
		VolumeMillions:     volume.Div(million).Round(2).InexactFloat64(),
		ProbabilityPercent: price.Mul(hundred).Round(1).InexactFloat64(),
	}
	if event.Slug != "" {
		card.URL = eventURLPrefix + event.Slug
	}
	return card, "", true
}

// formatAmount prints the shortest decimal form, always with a fractional part.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
