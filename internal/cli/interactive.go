// Package cli holds the interactive question flow and the console output of
// the leadscout command.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/FranksOps/leadscout/internal/config"
)

// ErrNoPrompt is returned when the user enters an empty search prompt.
var ErrNoPrompt = errors.New("no search prompt entered")

type menuEntry struct {
	Type  config.SearchType
	Label string
	Hint  string
}

// menu lists the sources in the order they are offered.
var menu = []menuEntry{
	{config.TypeMaps, "Google Maps", "Find businesses by location"},
	{config.TypeGoogle, "Google Dork", "Search for emails/contacts (may get CAPTCHA)"},
	{config.TypeYahoo, "Yahoo Dork", "Search for emails/contacts"},
	{config.TypeBing, "Bing Dork", "Search for emails/contacts"},
	{config.TypeDuckDuckGo, "DuckDuckGo", "Search for emails/contacts (less blocking)"},
	{config.TypeYandex, "Yandex", "Search for emails/contacts (good for BD)"},
	{config.TypeBangladesh, "Bangladesh", "Local directories (bikroy, clicktechi)"},
}

var (
	mapsExamples = []string{"restaurants in New York", "plumbers near Brooklyn", "coffee shops Los Angeles"}
	dorkExamples = []string{
		"real estate @gmail.com",
		"plumbers @yahoo.com Los Angeles",
		"hotels contact@*.com",
		"influencers facebook.com",
		"creators instagram.com",
	}
)

const rule = "============================================================"

// Prompter asks the run questions on a terminal.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer, logger *slog.Logger) *Prompter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prompter{in: bufio.NewReader(in), out: out, logger: logger}
}

// Interactive asks for the source, the search prompt, headless mode and the
// scroll and result limits, and stores the answers in v under the config
// keys. Invalid numbers keep the current value.
func (p *Prompter) Interactive(v *viper.Viper) error {
	fmt.Fprintln(p.out, rule)
	fmt.Fprintln(p.out, "              LEAD SCRAPING AGENT")
	fmt.Fprintln(p.out, rule)

	fmt.Fprintln(p.out, "\n[SELECT SEARCH ENGINE]")
	for i, m := range menu {
		fmt.Fprintf(p.out, "  %d. %-14s - %s\n", i+1, m.Label, m.Hint)
	}

	choice, err := p.ask(fmt.Sprintf("\nEnter choice (1-%d): ", len(menu)))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(menu) {
		return fmt.Errorf("%w: invalid choice %q", config.ErrInvalid, choice)
	}
	entry := menu[n-1]
	fmt.Fprintf(p.out, "\n[SELECTED] %s\n", entry.Label)

	examples := dorkExamples
	if entry.Type == config.TypeMaps {
		examples = mapsExamples
	}
	fmt.Fprintln(p.out, "\n[ENTER SEARCH PROMPT]")
	fmt.Fprintln(p.out, "Examples:")
	for _, e := range examples {
		fmt.Fprintf(p.out, "  - '%s'\n", e)
	}
	prompt, err := p.ask("\nEnter search prompt: ")
	if err != nil {
		return err
	}
	if prompt == "" {
		return ErrNoPrompt
	}

	fmt.Fprintln(p.out, "\n[HEADLESS MODE]")
	fmt.Fprintln(p.out, "  y - Run in headless mode (faster, more likely blocked)")
	fmt.Fprintln(p.out, "  n - Run with visible browser (slower, harder to detect)")
	headless, err := p.ask("\nHeadless? (y/n, default n): ")
	if err != nil {
		return err
	}

	maxScrolls, err := p.askInt(fmt.Sprintf("\nMax scrolls/pages (default %d): ", v.GetInt(config.KeyMaxScrolls)), v.GetInt(config.KeyMaxScrolls))
	if err != nil {
		return err
	}
	limit, err := p.askInt(fmt.Sprintf("Results limit (default %d): ", v.GetInt(config.KeyResultsLimit)), v.GetInt(config.KeyResultsLimit))
	if err != nil {
		return err
	}

	v.Set(config.KeySearchType, string(entry.Type))
	v.Set(config.KeyPrompt, prompt)
	v.Set(config.KeyKeywords, "")
	v.Set(config.KeyHeadless, strings.EqualFold(headless, "y"))
	v.Set(config.KeyMaxScrolls, maxScrolls)
	v.Set(config.KeyResultsLimit, limit)
	return nil
}

// ask prints a question and returns the trimmed answer. EOF counts as an
// empty answer.
func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) askInt(question string, def int) (int, error) {
	answer, err := p.ask(question)
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return def, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		p.logger.Warn("invalid numeric input, using default", "input", answer, "default", def)
		return def, nil
	}
	return n, nil
}

// WriteRunBanner prints the settings a run is about to use.
func WriteRunBanner(w io.Writer, cfg config.SearchConfig, opts config.RunOptions) {
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintf(w, "  Search Engine: %s\n", label(cfg.SearchType))
	fmt.Fprintf(w, "  Keywords:      %s\n", cfg.Keywords)
	switch {
	case cfg.SearchType == config.TypeMaps:
		fmt.Fprintf(w, "  Location:      %s\n", cfg.Location)
	case cfg.SearchType.IsSearchEngine():
		target := "Emails"
		if cfg.Target == config.TargetProfile {
			target = "Social Profiles"
		}
		fmt.Fprintf(w, "  Target:        %s\n", target)
	}
	fmt.Fprintf(w, "  Headless:      %s\n", yesNo(opts.Headless))
	fmt.Fprintf(w, "  Max Scrolls:   %d\n", cfg.MaxScrolls)
	fmt.Fprintf(w, "  Results Limit: %d\n", cfg.ResultsLimit)
	fmt.Fprint(w, rule+"\n\n")
}

func label(t config.SearchType) string {
	for _, m := range menu {
		if m.Type == t {
			return m.Label
		}
	}
	return string(t)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
