// Package device builds the device descriptor sent when a viewer session is
// created.
package device

import (
	"runtime"
	"strings"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	ua "github.com/mssola/user_agent"
)

const (
	UnknownOS      = "Unknown OS"
	UnknownBrowser = "Unknown Browser"

	Mobile  = "Mobile"
	Desktop = "Desktop"

	// TerminalBrowser is reported when no user agent is configured.
	TerminalBrowser = "Deckviewer CLI"
)

// goos is a test seam for runtime.GOOS.
var goos = runtime.GOOS

// Detect parses userAgent into the descriptor the deck API expects. An empty
// user agent describes the terminal viewer itself.
func Detect(userAgent string) models.DeviceInfo {
	if strings.TrimSpace(userAgent) == "" {
		return models.DeviceInfo{
			OS:         osFromGOOS(goos),
			Browser:    TerminalBrowser,
			DeviceInfo: Desktop,
		}
	}

	agent := ua.New(userAgent)

	info := models.DeviceInfo{
		OS:         osName(agent.OSInfo().FullName, userAgent),
		Browser:    browserName(agent),
		DeviceInfo: Desktop,
	}
	if agent.Mobile() || isMobileUA(userAgent) {
		info.DeviceInfo = Mobile
	}
	return info
}

func osName(fullName, raw string) string {
	s := strings.ToLower(fullName + " " + raw)
	switch {
	case strings.Contains(s, "windows"):
		return "Windows"
	case strings.Contains(s, "iphone"), strings.Contains(s, "ipad"), strings.Contains(s, "ipod"):
		return "iOS"
	case strings.Contains(s, "android"):
		return "Android"
	case strings.Contains(s, "macintosh"), strings.Contains(s, "mac os"):
		return "macOS"
	case strings.Contains(s, "linux"):
		return "Linux"
	default:
		return UnknownOS
	}
}

func osFromGOOS(g string) string {
	switch g {
	case "windows":
		return "Windows"
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	case "android":
		return "Android"
	case "ios":
		return "iOS"
	default:
		return UnknownOS
	}
}

func browserName(agent *ua.UserAgent) string {
	raw := strings.ToLower(agent.UA())
	// Chromium forks report themselves as Chrome.
	switch {
	case strings.Contains(raw, "arc/"):
		return "Arc"
	case strings.Contains(raw, "edg/"), strings.Contains(raw, "edge/"):
		return "Edge"
	case strings.Contains(raw, "opr/"), strings.Contains(raw, "opera"):
		return "Opera"
	}

	name, _ := agent.Browser()
	if name == "" {
		return UnknownBrowser
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func isMobileUA(raw string) bool {
	s := strings.ToLower(raw)
	for _, marker := range []string{"mobile", "android", "iphone", "ipad", "ipod"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
