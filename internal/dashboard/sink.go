package dashboard

// Sink receives the render calls of one cycle
type Sink interface {
	Header(page Page)
	Title(text, url string)
	Caption(text string)
	Metric(label, value string)
	Divider()
	Placeholder(text string)
	Error(text string)
	Footer(text string)
}

// ProbabilityLabel is the metric label on every card
const ProbabilityLabel = "Probability"

// Render replays view onto sink: the page header, then the error notice, the
// placeholder or one title/caption/metric/divider block per card, then the footer.
func Render(view *View, sink Sink) {
	sink.Header(view.Page)

	switch {
	case view.Error != "":
		sink.Error(view.Error)
	case len(view.Cards) == 0:
		sink.Placeholder(view.Placeholder)
	default:
		for _, card := range view.Cards {
			sink.Title(card.Title, card.URL)
			sink.Caption(card.Caption(view.Page.SourceLabel))
			sink.Metric(ProbabilityLabel, card.ProbabilityText())
			sink.Divider()
		}
	}

	sink.Footer(view.Page.Footer)
}
