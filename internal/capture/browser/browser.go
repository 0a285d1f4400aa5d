// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"forumvault/internal/config"
	"forumvault/internal/logging"
)

// Capture is the result of Download: paths to whichever artifacts were
// enabled, empty string for any that weren't requested.
type Capture struct {
	ScreenshotPath string
	PDFPath        string
	MHTMLPath      string
}

// Capturer drives a headless Chromium instance via chromedp to produce the
// browser-capture capability's independently-toggleable artifacts.
type Capturer struct {
	cfg config.BrowserConfig
}

// New builds a Capturer from browser-capture configuration.
func New(cfg config.BrowserConfig) *Capturer {
	return &Capturer{cfg: cfg}
}

// Download navigates to url in a fresh headless tab and writes whichever of
// screenshot/PDF/MHTML are enabled into dir. cookies are seeded into the
// browser context before navigation when non-empty.
func (c *Capturer) Download(ctx context.Context, url, dir string, cookies []*Cookie) (Capture, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Capture{}, fmt.Errorf("browser: create workdir: %w", err)
	}
	if !c.cfg.ScreenshotEnabled && !c.cfg.PDFEnabled && !c.cfg.MHTMLEnabled {
		return Capture{}, nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	timeout := c.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(viewportOr(c.cfg.ViewportWidth, 1920)), int64(viewportOr(c.cfg.ViewportHeight, 1080))),
	}
	if len(cookies) > 0 {
		actions = append(actions, setCookiesAction(cookies))
	}
	actions = append(actions, chromedp.Navigate(url), chromedp.WaitReady("body"))

	var out Capture
	if c.cfg.ScreenshotEnabled {
		var buf []byte
		actions = append(actions, chromedp.FullScreenshot(&buf, 90))
		defer func() {
			if len(buf) > 0 {
				out.ScreenshotPath = filepath.Join(dir, "screenshot.jpg")
				_ = os.WriteFile(out.ScreenshotPath, buf, 0o644)
			}
		}()
	}
	if c.cfg.PDFEnabled {
		var buf []byte
		actions = append(actions, printToPDFAction(&buf, c.cfg.PaperSize))
		defer func() {
			if len(buf) > 0 {
				out.PDFPath = filepath.Join(dir, "page.pdf")
				_ = os.WriteFile(out.PDFPath, buf, 0o644)
			}
		}()
	}
	if c.cfg.MHTMLEnabled {
		var buf string
		actions = append(actions, captureMHTMLAction(&buf))
		defer func() {
			if buf != "" {
				out.MHTMLPath = filepath.Join(dir, "page.mhtml")
				_ = os.WriteFile(out.MHTMLPath, []byte(buf), 0o644)
			}
		}()
	}

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return Capture{}, fmt.Errorf("browser: capture %s: %w", url, err)
	}

	logging.Info().Str("url", url).Bool("screenshot", out.ScreenshotPath != "").
		Bool("pdf", out.PDFPath != "").Bool("mhtml", out.MHTMLPath != "").Msg("browser: capture complete")
	return out, nil
}

const defaultNavigationTimeout = 30 * time.Second

func viewportOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// Cookie is a single cookie to seed into the browser context before
// navigation, sourced from the configured cookies file (spec §6.4
// "cookies").
type Cookie struct {
	Name, Value, Domain, Path string
}

func setCookiesAction(cookies []*Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ck := range cookies {
			if err := setCookie(ctx, ck); err != nil {
				return err
			}
		}
		return nil
	})
}

func printToPDFAction(buf *[]byte, paperSize string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.PrintToPDF().WithPrintBackground(true)
		if paperSize == "A4" {
			params = params.WithPaperWidth(8.27).WithPaperHeight(11.69)
		}
		data, _, err := params.Do(ctx)
		if err != nil {
			return err
		}
		*buf = data
		return nil
	})
}

func captureMHTMLAction(buf *string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureSnapshot().Do(ctx)
		if err != nil {
			return err
		}
		*buf = data
		return nil
	})
}

func setCookie(ctx context.Context, ck *Cookie) error {
	return page.SetCookie(ck.Name, ck.Value).
		WithDomain(ck.Domain).
		WithPath(ck.Path).
		Do(ctx)
}
