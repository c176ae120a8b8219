package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/FranksOps/leadscout/internal/browser"
)

const feedSelector = `div[role="feed"]`

var scrollFeedScript = fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (!el) { throw new Error("feed not found"); }
	el.scrollBy(0, 2000);
	return true;
})()`, feedSelector)

// humanScroll scrolls the window in uneven steps, backing up a little every
// third step. It stops early when the page cannot run scripts.
func humanScroll(ctx context.Context, p browser.Page, t Timing) error {
	for i, pause := range t.ScrollPauses {
		amount := 300 + (i*73)%500
		if err := p.Evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %d)", amount), nil); err != nil {
			if errors.Is(err, browser.ErrUnsupported) {
				return nil
			}
			return err
		}
		if err := browser.Pause(ctx, pause); err != nil {
			return err
		}
		if i%3 == 0 {
			if err := p.Evaluate(ctx, "window.scrollBy(0, -100)", nil); err != nil {
				return err
			}
			if err := browser.Pause(ctx, t.ScrollBack); err != nil {
				return err
			}
		}
	}
	return nil
}

// scrollFeed scrolls the Maps results panel, falling back to humanScroll
// when the panel script fails.
func scrollFeed(ctx context.Context, p browser.Page, t Timing) error {
	err := p.Evaluate(ctx, scrollFeedScript, nil)
	if err == nil || errors.Is(err, browser.ErrClosed) {
		return err
	}
	return humanScroll(ctx, p, t)
}
