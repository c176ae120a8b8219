// Package report renders the end-of-run summary and the sample table printed
// after export.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"text/tabwriter"
	ttemplate "text/template"
	"time"

	"github.com/FranksOps/leadscout/internal/lead"
)

// SampleSize is how many cleaned leads the CLI prints after export.
const SampleSize = 10

// Summary aggregates one scrape run.
type Summary struct {
	RunID       string
	SearchType  string
	Query       string
	RawLeads    int
	CleanLeads  int
	BySource    map[string]int
	WithPhone   int
	WithEmail   int
	WithWebsite int
	WithAddress int
	Pages       int
	// Challenges counts anti-bot challenges by vendor.
	Challenges      map[string]int
	TotalChallenges int
	Outputs         []string
	Interrupted     bool
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// GenerateSummary counts raw and cleaned leads. Per-source and per-field
// counts describe the cleaned set. The time span is taken from the raw leads'
// creation times; callers with a wall clock may overwrite it.
func GenerateSummary(raw, cleaned []lead.Lead) Summary {
	s := Summary{
		RawLeads:   len(raw),
		CleanLeads: len(cleaned),
		BySource:   make(map[string]int),
		Challenges: make(map[string]int),
	}

	for _, l := range cleaned {
		s.BySource[l.Source]++
		if l.PhoneNumber != "" {
			s.WithPhone++
		}
		if l.Email != "" {
			s.WithEmail++
		}
		if l.Website != "" {
			s.WithWebsite++
		}
		if l.Address != "" {
			s.WithAddress++
		}
	}

	if len(raw) == 0 {
		return s
	}

	s.StartTime = raw[0].CreatedAt
	s.EndTime = raw[0].CreatedAt
	for _, l := range raw {
		if l.CreatedAt.Before(s.StartTime) {
			s.StartTime = l.CreatedAt
		}
		if l.CreatedAt.After(s.EndTime) {
			s.EndTime = l.CreatedAt
		}
	}
	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// AddChallenges merges per-vendor challenge counts into the summary.
func (s *Summary) AddChallenges(byVendor map[string]int) {
	if s.Challenges == nil {
		s.Challenges = make(map[string]int)
	}
	for vendor, n := range byVendor {
		s.Challenges[vendor] += n
		s.TotalChallenges += n
	}
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

const textTmpl = `Lead Scout Run Summary
----------------------
Search:        {{.SearchType}}{{if .Query}} ({{.Query}}){{end}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
{{- if .Interrupted}}
Status:        interrupted, partial results
{{- end}}
Pages Read:    {{.Pages}}
Raw Leads:     {{.RawLeads}}
Clean Leads:   {{.CleanLeads}}
  with phone:   {{.WithPhone}}
  with email:   {{.WithEmail}}
  with website: {{.WithWebsite}}
  with address: {{.WithAddress}}

By Source:
{{- range $src, $count := .BySource}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}

Challenges: {{.TotalChallenges}}
{{- range $vendor, $count := .Challenges}}
  {{$vendor}}: {{$count}}
{{- else}}
  None
{{- end}}
{{- if .Outputs}}

Exported To:
{{- range .Outputs}}
  {{.}}
{{- end}}
{{- end}}
`

var textReport = ttemplate.Must(ttemplate.New("textReport").Parse(textTmpl))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("render text summary: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Lead Scout Run Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Lead Scout Run Report</h1>
  <p><strong>Search:</strong> {{.SearchType}}{{if .Query}} &mdash; {{.Query}}{{end}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>
  {{- if .Interrupted}}
  <p><strong>Status:</strong> interrupted, partial results</p>
  {{- end}}

  <div class="stat-card">
    <div>Raw Leads</div>
    <div class="stat-val">{{.RawLeads}}</div>
  </div>
  <div class="stat-card">
    <div>Clean Leads</div>
    <div class="stat-val">{{.CleanLeads}}</div>
  </div>
  <div class="stat-card">
    <div>Pages Read</div>
    <div class="stat-val">{{.Pages}}</div>
  </div>
  <div class="stat-card">
    <div>Challenges</div>
    <div class="stat-val" style="color: {{if gt .TotalChallenges 0}}red{{else}}green{{end}};">{{.TotalChallenges}}</div>
  </div>

  <h3>Contact Coverage</h3>
  <table>
    <tr><th>Field</th><th>Leads</th></tr>
    <tr><td>Phone</td><td>{{.WithPhone}}</td></tr>
    <tr><td>Email</td><td>{{.WithEmail}}</td></tr>
    <tr><td>Website</td><td>{{.WithWebsite}}</td></tr>
    <tr><td>Address</td><td>{{.WithAddress}}</td></tr>
  </table>

  <h3>Leads By Source</h3>
  <table>
    <tr><th>Source</th><th>Count</th></tr>
    {{- range $src, $count := .BySource}}
    <tr><td>{{$src}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Challenges By Vendor</h3>
  <table>
    <tr><th>Vendor</th><th>Count</th></tr>
    {{- range $vendor, $count := .Challenges}}
    <tr><td>{{$vendor}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

var htmlReport = template.Must(template.New("htmlReport").Parse(htmlTmpl))

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	if err := htmlReport.Execute(w, summary); err != nil {
		return fmt.Errorf("render html summary: %w", err)
	}
	return nil
}

// WriteSample prints the first n leads as an aligned table.
func WriteSample(w io.Writer, leads []lead.Lead, n int) error {
	if n > 0 && len(leads) > n {
		leads = leads[:n]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBusiness Name\tPhone Number\tWebsite\tEmail\tSource")
	for i, l := range leads {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i, cell(l.BusinessName), cell(l.PhoneNumber), cell(l.Website), cell(l.Email), l.Source)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	const width = 40
	return lead.Truncate(s, width)
}
