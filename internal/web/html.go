package web

import (
	"html/template"
	"io"

	"github.com/coasensus/coasensus/internal/dashboard"
)

type htmlCard struct {
	Title       string
	URL         string
	Caption     string
	MetricLabel string
	MetricValue string
}

type htmlPage struct {
	Page        dashboard.Page
	Cards       []htmlCard
	Placeholder string
	Error       string
	Footer      string
	RefreshSec  int
	UpdatedAt   string
}

// htmlSink collects render calls into an htmlPage
type htmlSink struct {
	page    htmlPage
	current *htmlCard
}

func newHTMLSink(refreshSec int) *htmlSink {
	return &htmlSink{page: htmlPage{RefreshSec: refreshSec}}
}

func (s *htmlSink) Header(page dashboard.Page) { s.page.Page = page }

func (s *htmlSink) Title(text, url string) {
	s.flush()
	s.current = &htmlCard{Title: text, URL: url}
}

func (s *htmlSink) Caption(text string) {
	if s.current != nil {
		s.current.Caption = text
	}
}

func (s *htmlSink) Metric(label, value string) {
	if s.current != nil {
		s.current.MetricLabel = label
		s.current.MetricValue = value
	}
}

func (s *htmlSink) Divider()                { s.flush() }
func (s *htmlSink) Placeholder(text string) { s.page.Placeholder = text }
func (s *htmlSink) Error(text string)       { s.page.Error = text }

func (s *htmlSink) Footer(text string) {
	s.flush()
	s.page.Footer = text
}

func (s *htmlSink) flush() {
	if s.current != nil {
		s.page.Cards = append(s.page.Cards, *s.current)
		s.current = nil
	}
}

func (s *htmlSink) Render(w io.Writer) error {
	return pageTemplate.Execute(w, s.page)
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.RefreshSec}}">
<title>{{.Page.Title}}</title>
<link rel="icon" href="data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>{{.Page.Icon}}</text></svg>">
<style>
body{font-family:system-ui,sans-serif;max-width:46rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
h1{margin-bottom:0}.tagline{margin-top:.25rem;color:#4b5563}
.card{display:flex;justify-content:space-between;align-items:center;gap:1rem}
.card h3{margin:.5rem 0}.caption{color:#6b7280;font-size:.85rem}
.metric{text-align:right}.metric .label{font-size:.8rem;color:#6b7280}.metric .value{font-size:1.8rem}
.error{background:#fee2e2;color:#991b1b;padding:.75rem;border-radius:.4rem}
hr{border:none;border-top:1px solid #e5e7eb}footer{color:#6b7280;font-size:.8rem}
</style>
</head>
<body>
<h1>{{.Page.Icon}} {{.Page.Title}}</h1>
<h3 class="tagline">{{.Page.Tagline}}</h3>
<p>{{.Page.Description}}</p>
<hr>
{{- if .Error}}
<div class="error">{{.Error}}</div>
{{- else if .Cards}}
{{- range .Cards}}
<div class="card">
  <div>
    <h3>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h3>
    <div class="caption">{{.Caption}}</div>
  </div>
  <div class="metric"><div class="label">{{.MetricLabel}}</div><div class="value">{{.MetricValue}}</div></div>
</div>
<hr>
{{- end}}
{{- else}}
<p>{{.Placeholder}}</p>
{{- end}}
<hr>
<footer>{{.Footer}}{{if .UpdatedAt}} · Updated {{.UpdatedAt}}{{end}}</footer>
</body>
</html>
`))
