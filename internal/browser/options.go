package browser

import (
	"os"
	"runtime"

	"github.com/chromedp/chromedp"
)

// chromeCandidates lists well known Chrome and Chromium install paths per OS.
var chromeCandidates = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
	},
	"linux": {
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	},
}

// findChrome returns the first existing candidate, or "" to let chromedp
// search PATH itself.
func findChrome(candidates []string) string {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// flags returns the Chrome command line switches for cfg on goos.
func flags(cfg Config, goos string) map[string]any {
	f := map[string]any{
		"headless":               false,
		"disable-gpu":            true,
		"enable-automation":      false,
		"disable-blink-features": "AutomationControlled",
		"lang":                   cfg.Locale,
	}
	if cfg.Headless {
		f["headless"] = "new"
	}
	// Containers rarely grant the privileges the sandbox needs, and /dev/shm
	// is usually tiny.
	if goos == "linux" {
		f["no-sandbox"] = true
		f["disable-setuid-sandbox"] = true
		f["disable-dev-shm-usage"] = true
	}
	return f
}

// allocatorOptions builds the exec allocator options for cfg on top of
// chromedp's defaults. Later flags override earlier ones.
func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	for name, value := range flags(cfg, runtime.GOOS) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = findChrome(chromeCandidates[runtime.GOOS])
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}
