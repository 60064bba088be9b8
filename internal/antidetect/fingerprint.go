// Package antidetect produces the randomized browser identities and
// behavioral timing profiles presented to target sites. A session receives
// one FingerprintProfile/BehaviorProfile pair at creation and keeps it until
// the session is recycled.
package antidetect

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// FingerprintProfile is the browser identity presented to a target site.
// Immutable once assigned to a session. All fields are internally
// consistent: a mobile profile carries a mobile user agent, viewport and
// touch support; hardware values come from one correlated tier.
type FingerprintProfile struct {
	UserAgent           string  `json:"user_agent"`
	ViewportWidth       int     `json:"viewport_width"`
	ViewportHeight      int     `json:"viewport_height"`
	ScreenWidth         int     `json:"screen_width"`
	ScreenHeight        int     `json:"screen_height"`
	Platform            string  `json:"platform"`
	Locale              string  `json:"locale"`
	Timezone            string  `json:"timezone"`
	HardwareConcurrency int     `json:"hardware_concurrency"`
	DeviceMemoryGB      int     `json:"device_memory_gb"`
	DevicePixelRatio    float64 `json:"device_pixel_ratio"`
	ColorDepth          int     `json:"color_depth"`
	IsMobile            bool    `json:"is_mobile"`
	WebGLVendor         string  `json:"webgl_vendor"`
	WebGLRenderer       string  `json:"webgl_renderer"`
	CanvasNoiseSeed     uint32  `json:"canvas_noise_seed"`
	AudioNoiseSeed      uint32  `json:"audio_noise_seed"`
}

// Generator produces fingerprint and behavior profiles. Safe for concurrent
// use; the only shared state is the seeded PRNG behind its own lock.
type Generator struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewGenerator seeds a generator from crypto/rand. If the entropy source is
// unavailable it seeds from the wall clock instead; generation itself never
// fails the caller.
func NewGenerator() *Generator {
	var seed int64
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	} else {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: mathrand.New(mathrand.NewSource(seed))}
}

// Generate returns a fresh fingerprint/behavior pair. Two consecutive calls
// differ in viewport, user agent and timing ranges with high probability.
func (g *Generator) Generate(isMobile bool) (FingerprintProfile, BehaviorProfile) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if isMobile {
		return g.generateMobile(), g.generateBehavior()
	}
	return g.generateDesktop(), g.generateBehavior()
}

func (g *Generator) generateDesktop() FingerprintProfile {
	plat := desktopPlatforms[g.rng.Intn(len(desktopPlatforms))]
	tier := hardwareTiers[g.rng.Intn(len(hardwareTiers))]

	screen := tier.resolutions[g.rng.Intn(len(tier.resolutions))]
	gl := plat.webGLProfiles[g.rng.Intn(len(plat.webGLProfiles))]

	fp := FingerprintProfile{
		UserAgent:           plat.userAgents[g.rng.Intn(len(plat.userAgents))],
		ScreenWidth:         screen.w,
		ScreenHeight:        screen.h,
		ViewportWidth:       screen.w,
		ViewportHeight:      screen.h - browserChromeHeight(g.rng),
		Platform:            plat.navigatorPlatform,
		Locale:              locales[g.rng.Intn(len(locales))].String(),
		Timezone:            plat.timezones[g.rng.Intn(len(plat.timezones))],
		HardwareConcurrency: tier.cores[g.rng.Intn(len(tier.cores))],
		DeviceMemoryGB:      tier.memoryGB[g.rng.Intn(len(tier.memoryGB))],
		DevicePixelRatio:    tier.pixelRatios[g.rng.Intn(len(tier.pixelRatios))],
		ColorDepth:          colorDepths[g.rng.Intn(len(colorDepths))],
		IsMobile:            false,
		WebGLVendor:         gl.vendor,
		WebGLRenderer:       gl.renderer,
		CanvasNoiseSeed:     g.rng.Uint32(),
		AudioNoiseSeed:      g.rng.Uint32(),
	}
	return fp
}

func (g *Generator) generateMobile() FingerprintProfile {
	dev := mobileDevices[g.rng.Intn(len(mobileDevices))]
	screen := dev.screens[g.rng.Intn(len(dev.screens))]

	return FingerprintProfile{
		UserAgent:           dev.userAgent,
		ScreenWidth:         screen.w,
		ScreenHeight:        screen.h,
		ViewportWidth:       screen.w,
		ViewportHeight:      screen.h - mobileChromeHeight(g.rng),
		Platform:            dev.navigatorPlatform,
		Locale:              locales[g.rng.Intn(len(locales))].String(),
		Timezone:            mobileTimezones[g.rng.Intn(len(mobileTimezones))],
		HardwareConcurrency: dev.cores[g.rng.Intn(len(dev.cores))],
		DeviceMemoryGB:      dev.memoryGB[g.rng.Intn(len(dev.memoryGB))],
		DevicePixelRatio:    dev.pixelRatio,
		ColorDepth:          24,
		IsMobile:            true,
		WebGLVendor:         dev.webGL.vendor,
		WebGLRenderer:       dev.webGL.renderer,
		CanvasNoiseSeed:     g.rng.Uint32(),
		AudioNoiseSeed:      g.rng.Uint32(),
	}
}

// DefaultProfile is the fixed fallback identity used when no generator is
// available. Still internally consistent so it never trips consistency
// checks downstream.
func DefaultProfile(isMobile bool) (FingerprintProfile, BehaviorProfile) {
	if isMobile {
		return FingerprintProfile{
			UserAgent:           mobileDevices[0].userAgent,
			ScreenWidth:         393,
			ScreenHeight:        852,
			ViewportWidth:       393,
			ViewportHeight:      727,
			Platform:            mobileDevices[0].navigatorPlatform,
			Locale:              "en-US",
			Timezone:            "America/New_York",
			HardwareConcurrency: 6,
			DeviceMemoryGB:      8,
			DevicePixelRatio:    3.0,
			ColorDepth:          24,
			IsMobile:            true,
			WebGLVendor:         mobileDevices[0].webGL.vendor,
			WebGLRenderer:       mobileDevices[0].webGL.renderer,
		}, DefaultBehaviorProfile()
	}
	return FingerprintProfile{
		UserAgent:           desktopPlatforms[0].userAgents[0],
		ScreenWidth:         1920,
		ScreenHeight:        1080,
		ViewportWidth:       1920,
		ViewportHeight:      937,
		Platform:            desktopPlatforms[0].navigatorPlatform,
		Locale:              "en-US",
		Timezone:            "America/New_York",
		HardwareConcurrency: 8,
		DeviceMemoryGB:      16,
		DevicePixelRatio:    1.0,
		ColorDepth:          24,
		IsMobile:            false,
		WebGLVendor:         desktopPlatforms[0].webGLProfiles[0].vendor,
		WebGLRenderer:       desktopPlatforms[0].webGLProfiles[0].renderer,
	}, DefaultBehaviorProfile()
}

// browserChromeHeight models the pixels lost to the browser UI.
func browserChromeHeight(rng *mathrand.Rand) int {
	return 110 + rng.Intn(60)
}

func mobileChromeHeight(rng *mathrand.Rand) int {
	return 100 + rng.Intn(50)
}

type resolution struct{ w, h int }

type webGLProfile struct {
	vendor   string
	renderer string
}

type desktopPlatform struct {
	navigatorPlatform string
	userAgents        []string
	timezones         []string
	webGLProfiles     []webGLProfile
}

// Timezone pools are paired with their platform so the geographic story
// stays plausible (a Win32 platform never claims an Apple-only zone).
var desktopPlatforms = []desktopPlatform{
	{
		navigatorPlatform: "Win32",
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0",
		},
		timezones: []string{
			"America/New_York", "America/Los_Angeles", "America/Chicago",
			"Europe/London", "America/Toronto", "Australia/Sydney",
		},
		webGLProfiles: []webGLProfile{
			{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
			{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1660 Ti Direct3D11 vs_5_0 ps_5_0, D3D11)"},
			{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
		},
	},
	{
		navigatorPlatform: "MacIntel",
		userAgents: []string{
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
		},
		timezones: []string{
			"America/New_York", "America/Los_Angeles", "America/Chicago",
			"America/Toronto", "Europe/London",
		},
		webGLProfiles: []webGLProfile{
			{"Apple Inc.", "Apple M2"},
			{"Apple Inc.", "Apple M3 Pro"},
		},
	},
	{
		navigatorPlatform: "Linux x86_64",
		userAgents: []string{
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64; rv:132.0) Gecko/20100101 Firefox/132.0",
		},
		timezones: []string{
			"Europe/London", "America/New_York", "America/Los_Angeles",
			"America/Toronto", "Australia/Sydney",
		},
		webGLProfiles: []webGLProfile{
			{"Google Inc. (Intel)", "ANGLE (Intel, Mesa Intel(R) UHD Graphics 620 (KBL GT2), OpenGL 4.6)"},
			{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 580 Series, OpenGL 4.6)"},
		},
	},
}

type mobileDevice struct {
	navigatorPlatform string
	userAgent         string
	screens           []resolution
	cores             []int
	memoryGB          []int
	pixelRatio        float64
	webGL             webGLProfile
}

var mobileDevices = []mobileDevice{
	{
		navigatorPlatform: "iPhone",
		userAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS 18_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Mobile/15E148 Safari/604.1",
		screens:           []resolution{{393, 852}, {375, 812}, {414, 896}},
		cores:             []int{6},
		memoryGB:          []int{6, 8},
		pixelRatio:        3.0,
		webGL:             webGLProfile{"Apple Inc.", "Apple GPU"},
	},
	{
		navigatorPlatform: "Linux armv8l",
		userAgent:         "Mozilla/5.0 (Linux; Android 15; SM-S928B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Mobile Safari/537.36",
		screens:           []resolution{{360, 800}, {412, 915}, {384, 854}},
		cores:             []int{8},
		memoryGB:          []int{8, 12},
		pixelRatio:        2.625,
		webGL:             webGLProfile{"Qualcomm", "Adreno (TM) 750"},
	},
	{
		navigatorPlatform: "Linux armv8l",
		userAgent:         "Mozilla/5.0 (Linux; Android 15; Pixel 9) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Mobile Safari/537.36",
		screens:           []resolution{{412, 915}, {411, 891}},
		cores:             []int{8},
		memoryGB:          []int{8, 12},
		pixelRatio:        2.625,
		webGL:             webGLProfile{"ARM", "Mali-G715"},
	},
}

var mobileTimezones = []string{
	"America/New_York", "America/Los_Angeles", "Europe/London",
	"America/Toronto", "Australia/Sydney",
}

// hardwareTier correlates cores, memory, resolution and pixel ratio so a
// profile never claims a 4K screen on a 4-core budget machine.
type hardwareTier struct {
	cores       []int
	memoryGB    []int
	resolutions []resolution
	pixelRatios []float64
}

var hardwareTiers = []hardwareTier{
	{ // low end
		cores:       []int{4, 6},
		memoryGB:    []int{8, 16},
		resolutions: []resolution{{1366, 768}, {1920, 1080}},
		pixelRatios: []float64{1, 1.25},
	},
	{ // mid range
		cores:       []int{6, 8, 12},
		memoryGB:    []int{16, 32},
		resolutions: []resolution{{1920, 1080}, {1440, 900}, {2560, 1440}},
		pixelRatios: []float64{1, 1.25, 1.5},
	},
	{ // high end
		cores:       []int{12, 16, 24},
		memoryGB:    []int{16, 32},
		resolutions: []resolution{{2560, 1440}, {3840, 2160}, {3440, 1440}},
		pixelRatios: []float64{1.5, 2, 2.5},
	},
}

var colorDepths = []int{24, 32}

// locales are parsed once so an invalid tag is a startup panic, not a
// malformed Accept-Language sent to a target.
var locales = []language.Tag{
	language.MustParse("en-US"),
	language.MustParse("en-GB"),
	language.MustParse("en-CA"),
	language.MustParse("en-AU"),
}
