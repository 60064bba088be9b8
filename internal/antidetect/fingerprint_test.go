package antidetect

import (
	"strings"
	"testing"
)

func desktopPlatformFor(t *testing.T, navigatorPlatform string) desktopPlatform {
	t.Helper()
	for _, p := range desktopPlatforms {
		if p.navigatorPlatform == navigatorPlatform {
			return p
		}
	}
	t.Fatalf("unknown navigator platform %q", navigatorPlatform)
	return desktopPlatform{}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestGenerateDesktopCoherence(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 100; i++ {
		fp, bp := g.Generate(false)

		if fp.IsMobile {
			t.Fatal("desktop profile flagged as mobile")
		}
		if fp.UserAgent == "" || fp.Platform == "" || fp.Timezone == "" {
			t.Fatalf("incomplete profile: %+v", fp)
		}
		if fp.ViewportWidth != fp.ScreenWidth {
			t.Errorf("viewport width %d != screen width %d", fp.ViewportWidth, fp.ScreenWidth)
		}
		if fp.ViewportHeight >= fp.ScreenHeight {
			t.Errorf("viewport height %d should be below screen height %d", fp.ViewportHeight, fp.ScreenHeight)
		}
		if fp.HardwareConcurrency < 2 {
			t.Errorf("implausible core count %d", fp.HardwareConcurrency)
		}
		if fp.DeviceMemoryGB < 4 {
			t.Errorf("implausible device memory %d", fp.DeviceMemoryGB)
		}

		// User agent, timezone and WebGL identity must all come from the
		// pools of the claimed platform.
		plat := desktopPlatformFor(t, fp.Platform)
		if !contains(plat.userAgents, fp.UserAgent) {
			t.Errorf("user agent %q not valid for platform %q", fp.UserAgent, fp.Platform)
		}
		if !contains(plat.timezones, fp.Timezone) {
			t.Errorf("timezone %q not valid for platform %q", fp.Timezone, fp.Platform)
		}
		glOK := false
		for _, gl := range plat.webGLProfiles {
			if gl.vendor == fp.WebGLVendor && gl.renderer == fp.WebGLRenderer {
				glOK = true
				break
			}
		}
		if !glOK {
			t.Errorf("webgl identity %q/%q not valid for platform %q", fp.WebGLVendor, fp.WebGLRenderer, fp.Platform)
		}

		if bp.ScrollSpeedMin >= bp.ScrollSpeedMax {
			t.Errorf("scroll speed range inverted: [%v, %v]", bp.ScrollSpeedMin, bp.ScrollSpeedMax)
		}
		if bp.ClickDelayMin >= bp.ClickDelayMax {
			t.Errorf("click delay range inverted: [%v, %v]", bp.ClickDelayMin, bp.ClickDelayMax)
		}
	}
}

func TestGenerateMobileCoherence(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 100; i++ {
		fp, _ := g.Generate(true)

		if !fp.IsMobile {
			t.Fatal("mobile profile not flagged as mobile")
		}
		var dev *mobileDevice
		for j := range mobileDevices {
			if mobileDevices[j].userAgent == fp.UserAgent {
				dev = &mobileDevices[j]
				break
			}
		}
		if dev == nil {
			t.Fatalf("user agent %q matches no known device", fp.UserAgent)
		}
		if fp.Platform != dev.navigatorPlatform {
			t.Errorf("platform %q does not match device platform %q", fp.Platform, dev.navigatorPlatform)
		}
		if fp.DevicePixelRatio < 2 {
			t.Errorf("mobile pixel ratio %v too low", fp.DevicePixelRatio)
		}
	}
}

func TestGenerateVariation(t *testing.T) {
	g := NewGenerator()
	seeds := map[uint32]bool{}
	for i := 0; i < 20; i++ {
		fp, _ := g.Generate(false)
		seeds[fp.CanvasNoiseSeed] = true
	}
	if len(seeds) < 15 {
		t.Errorf("canvas seeds barely vary: %d distinct of 20", len(seeds))
	}
}

func TestDefaultProfileConsistency(t *testing.T) {
	for _, mobile := range []bool{false, true} {
		fp, bp := DefaultProfile(mobile)
		if fp.IsMobile != mobile {
			t.Errorf("DefaultProfile(%v) mobile flag = %v", mobile, fp.IsMobile)
		}
		if fp.UserAgent == "" || fp.WebGLRenderer == "" {
			t.Errorf("DefaultProfile(%v) incomplete: %+v", mobile, fp)
		}
		if mobile && !strings.Contains(fp.UserAgent, "Mobile") && !strings.Contains(fp.UserAgent, "iPhone") {
			t.Errorf("mobile default has desktop user agent %q", fp.UserAgent)
		}
		if bp.PauseProbability <= 0 {
			t.Errorf("DefaultProfile(%v) behavior missing pauses", mobile)
		}
	}
}
