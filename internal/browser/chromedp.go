package browser

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/kvolkov/leadharvest/internal/antidetect"
)

// chromeSession implements PageSession on a dedicated Chrome process so
// recycling a session discards every trace of its predecessor (cookies,
// cache, TLS session tickets).
type chromeSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        Options
	fp          antidetect.FingerprintProfile
	bp          antidetect.BehaviorProfile
	rng         *mathrand.Rand
}

func pickProxy(opts Options) string {
	if opts.Proxies != nil {
		return opts.Proxies.Next()
	}
	return opts.ProxyURL
}

// reportLaunchFailure strikes the drawn proxy so repeated launch failures
// push it into the rotator's cooldown.
func reportLaunchFailure(opts Options, proxyURL string) {
	if opts.Proxies != nil && proxyURL != "" {
		opts.Proxies.MarkFailure(proxyURL)
	}
}

// ChromeFactory returns a Factory producing stealth-configured Chrome
// sessions.
func ChromeFactory(opts Options) Factory {
	return func(ctx context.Context, fp antidetect.FingerprintProfile, bp antidetect.BehaviorProfile) (PageSession, error) {
		return newChromeSession(ctx, opts, fp, bp)
	}
}

func newChromeSession(ctx context.Context, opts Options, fp antidetect.FingerprintProfile, bp antidetect.BehaviorProfile) (*chromeSession, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // required in containerized deployments
		chromedp.UserAgent(fp.UserAgent),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("lang", fp.Locale),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if opts.DisableImages {
		allocOpts = append(allocOpts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	proxyURL := pickProxy(opts)
	if proxyURL != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxyURL))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:         tabCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		opts:        opts,
		fp:          fp,
		bp:          bp,
		rng:         mathrand.New(mathrand.NewSource(int64(fp.CanvasNoiseSeed)<<16 ^ time.Now().UnixNano())),
	}

	if err := s.applyFingerprint(); err != nil {
		s.Close()
		reportLaunchFailure(opts, proxyURL)
		return nil, fmt.Errorf("applying fingerprint: %w", err)
	}
	return s, nil
}

// applyFingerprint configures the tab so every observable identity signal
// comes from the profile: viewport, timezone, locale, client-hint headers
// and the init scripts that pin navigator/rendering properties.
func (s *chromeSession) applyFingerprint() error {
	headers := network.Headers{}
	for k, v := range antidetect.StealthHeaders(s.fp) {
		headers[k] = v
	}

	actions := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.EmulateViewport(
			int64(s.fp.ViewportWidth),
			int64(s.fp.ViewportHeight),
			chromedp.EmulateScale(s.fp.DevicePixelRatio),
		),
		emulation.SetTimezoneOverride(s.fp.Timezone),
		emulation.SetLocaleOverride().WithLocale(s.fp.Locale),
	}
	if s.fp.IsMobile {
		actions = append(actions, emulation.SetTouchEmulationEnabled(true).WithMaxTouchPoints(5))
	}
	for _, script := range antidetect.InitScripts(s.fp) {
		src := script
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(src).Do(ctx)
			return err
		}))
	}

	return chromedp.Run(s.ctx, actions...)
}

// opContext derives the context for one CDP call. chromedp requires the
// session's tab context as parent, so the caller's deadline and
// cancellation are bridged onto a child of s.ctx; expiry of either side
// aborts the in-flight browser operation.
func (s *chromeSession) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var opCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		opCtx, cancel = context.WithDeadline(s.ctx, deadline)
	} else {
		opCtx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := s.opContext(ctx)
	defer cancel()
	if s.opts.NavigationTimeout > 0 {
		var c2 context.CancelFunc
		navCtx, c2 = context.WithTimeout(navCtx, s.opts.NavigationTimeout)
		defer c2()
	}

	return chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("extracting page HTML: %w", err)
	}
	return html, nil
}

// Consent-manager and modal close controls seen across the usual cookie
// banner vendors, plus generic close buttons. Ordered from most to least
// specific.
var popupSelectors = []string{
	"#onetrust-accept-btn-handler",
	".onetrust-close-btn-handler",
	"#cky-consent-accept",
	".cky-consent-btn-accept",
	"button[aria-label='Close']",
	"button[aria-label='close']",
	"[data-testid='close']",
	".modal-close",
	".modal__close",
	".close-button",
}

// Visible button texts used when no known selector matches.
var popupButtonTexts = []string{
	"Accept all", "Accept All", "Accept", "I agree", "Allow all",
	"Got it", "OK", "Close", "No thanks", "Not now", "Dismiss",
	"Only allow essential cookies", "Allow all cookies",
}

func (s *chromeSession) DismissPopups(ctx context.Context) error {
	for _, sel := range popupSelectors {
		if s.clickIfPresent(ctx, sel) {
			return nil
		}
	}
	for _, text := range popupButtonTexts {
		xpath := fmt.Sprintf(`//button[normalize-space(.)=%q] | //*[@role="button"][normalize-space(.)=%q]`, text, text)
		if s.clickIfPresent(ctx, xpath) {
			return nil
		}
	}
	// Escape closes most remaining dialogs; harmless when none is open.
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	cctx, c2 := context.WithTimeout(opCtx, time.Second)
	defer c2()
	_ = chromedp.Run(cctx, chromedp.KeyEvent(kb.Escape))
	return nil
}

// clickIfPresent clicks the first visible match within a short window. The
// window keeps a missing selector from stalling the task.
func (s *chromeSession) clickIfPresent(ctx context.Context, sel string) bool {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	cctx, c2 := context.WithTimeout(opCtx, 500*time.Millisecond)
	defer c2()

	delay := s.bp.ClickDelay(s.rng)
	err := chromedp.Run(cctx,
		chromedp.Sleep(delay),
		chromedp.Click(sel, chromedp.NodeVisible),
	)
	return err == nil
}

func (s *chromeSession) SimulateReading(ctx context.Context) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var height int
	if err := chromedp.Run(opCtx, chromedp.Evaluate(`document.body ? document.body.scrollHeight : 0`, &height)); err != nil {
		return err
	}
	if height <= 0 {
		return nil
	}

	// Scroll roughly two viewports in, like a human skimming above the fold.
	target := s.fp.ViewportHeight * 2
	if target > height {
		target = height
	}
	for _, step := range s.bp.ScrollPattern(s.rng, target, 0) {
		if err := opCtx.Err(); err != nil {
			return err
		}
		if err := chromedp.Run(opCtx,
			chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", step.Position), nil),
			chromedp.Sleep(step.Delay),
		); err != nil {
			return err
		}
	}

	// Mouse drift toward the content area.
	x := float64(s.fp.ViewportWidth) * (0.4 + s.rng.Float64()*0.3)
	y := float64(s.fp.ViewportHeight) * (0.4 + s.rng.Float64()*0.3)
	return chromedp.Run(opCtx,
		input.DispatchMouseEvent(input.MouseMoved, x, y),
		input.DispatchMouseEvent(input.MouseMoved, x-20, y+10),
	)
}

func (s *chromeSession) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}
