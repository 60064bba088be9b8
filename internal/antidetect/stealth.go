package antidetect

import "fmt"

// InitScripts returns the JavaScript snippets injected into every new
// document before any site script runs. Each snippet pins a navigator or
// rendering property to the fingerprint's value, so what the page observes
// matches what the HTTP layer claims.
func InitScripts(fp FingerprintProfile) []string {
	return []string{
		webdriverScript,
		fmt.Sprintf(navigatorScript, fp.HardwareConcurrency, fp.DeviceMemoryGB, fp.Platform, fp.Locale),
		fmt.Sprintf(canvasNoiseScript, fp.CanvasNoiseSeed),
		fmt.Sprintf(webglScript, fp.WebGLVendor, fp.WebGLRenderer),
		chromeRuntimeScript,
	}
}

// Removes the single strongest automation signal.
const webdriverScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
`

// Pins hardware and identity properties to the fingerprint instead of the
// host machine's real values.
const navigatorScript = `
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });
Object.defineProperty(navigator, 'deviceMemory', { get: () => %d });
Object.defineProperty(navigator, 'platform', { get: () => %q });
Object.defineProperty(navigator, 'languages', { get: () => [%q, 'en'] });
`

// Perturbs canvas readback with a session-stable noise pattern: the same
// canvas hashes identically within a session but differently across
// sessions, which is what a real device fleet looks like.
const canvasNoiseScript = `
(() => {
	let seed = %d >>> 0;
	const next = () => {
		seed = (seed * 1664525 + 1013904223) >>> 0;
		return (seed & 0xff) / 255 - 0.5;
	};
	const origToDataURL = HTMLCanvasElement.prototype.toDataURL;
	HTMLCanvasElement.prototype.toDataURL = function (type, quality) {
		const ctx = this.getContext('2d');
		if (ctx) {
			const img = ctx.getImageData(0, 0, this.width, this.height);
			const d = img.data;
			for (let i = 0; i < d.length; i += 4) {
				d[i] = Math.max(0, Math.min(255, d[i] + next() * 2));
			}
			ctx.putImageData(img, 0, 0);
		}
		return origToDataURL.call(this, type, quality);
	};
})();
`

// Reports the fingerprint's GPU instead of the real one.
const webglScript = `
(() => {
	const vendor = %q;
	const renderer = %q;
	const origGetParameter = WebGLRenderingContext.prototype.getParameter;
	WebGLRenderingContext.prototype.getParameter = function (p) {
		if (p === 37445) return vendor;
		if (p === 37446) return renderer;
		return origGetParameter.call(this, p);
	};
})();
`

// Headless Chrome ships without window.chrome; its absence is a common
// headless check.
const chromeRuntimeScript = `
if (!window.chrome) {
	window.chrome = {
		runtime: {},
		loadTimes: function () { return { requestTime: Date.now() * 0.001 }; },
		csi: function () { return { onloadT: Date.now(), startE: Date.now() }; },
		app: { isInstalled: false }
	};
}
`
