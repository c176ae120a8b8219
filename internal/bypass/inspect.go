package bypass

import (
	"context"

	"github.com/FranksOps/leadscout/internal/browser"
)

// Inspect snapshots a live page and runs the default detectors plus one
// selector detector per extra selector. The result is (false, "") when the
// page cannot be read.
func Inspect(ctx context.Context, p browser.Page, vendor string, selectors ...string) (bool, string) {
	html, err := p.Content(ctx)
	if err != nil {
		return false, ""
	}
	u, _ := p.URL(ctx)

	detectors := DefaultDetectors()
	for _, sel := range selectors {
		detectors = append(detectors, SelectorDetector(sel, vendor))
	}

	s := &Snapshot{URL: u, Body: []byte(html)}
	Analyze(s, detectors)
	return s.Challenged, s.Vendor
}
