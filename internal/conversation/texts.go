package conversation

import (
	"fmt"
	"strings"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// Commands understood by the engine.
const (
	CmdStart          = "/start"
	CmdStatus         = "/status"
	CmdCancel         = "/cancel"
	CmdSetTime        = "/setTime"
	CmdSetLocation    = "/setLocation"
	CmdSetContent     = "/setContent"
	CmdCurrentWeather = "/currentWeather"
)

// UI texts in English
const (
	welcomeFmt = "👋 Hi! I send you a daily weather digest.\n\n" +
		"You get it every day at %s for %s, with rain and UV alerts.\n" +
		"Change it with /setTime, /setLocation and /setContent, or ask for the weather now with /currentWeather."
	welcomeBackText = "👋 Welcome back! Use /status to see your settings."

	cancelledText = "Operation cancelled."

	askTimeFmt       = "🕘 Send the daily delivery time as HH:MM (24h), for example 07:30.\nCurrent: %s"
	badTimeText      = "⚠️ That is not a valid time. Use HH:MM between 00:00 and 23:59, or /cancel."
	timeSavedFmt     = "✅ Daily digest time set to %s."
	scheduleFailText = "⚠️ The time was saved, but the daily digest could not be scheduled. Please send /setTime again."
	notSetText       = "not set"
	notArmedText     = "not scheduled"

	askContentText  = "📝 What should the digest include?\n1 - rain alerts only\n2 - UV alerts only\n3 - both"
	badContentText  = "⚠️ Please answer 1, 2 or 3, or /cancel."
	contentSavedFmt = "✅ Digest content: %s."

	locationSavedFmt = "✅ Location set to %s."

	saveFailedText    = "❌ Could not save your settings. Please try again later."
	loadFailedText    = "❌ Could not read your settings. Please try again later."
	weatherFailedText = "❌ Could not send the weather right now. Please try again later."

	statusFmt = "🧾 Your current settings:\n" +
		"• Time: %s\n• Location: %s\n• Rain alerts: %s\n• UV alerts: %s\n• Next digest: %s"
)

var regionList = strings.Join(domain.Regions, "、")

func askLocationText() string {
	return "📍 Send a region name, for example 臺北市.\nAvailable: " + regionList
}

func badLocationText(input string) string {
	return fmt.Sprintf("⚠️ %q is not a known region. Send one of: %s\nOr /cancel.", input, regionList)
}

func contentLabel(rain, uv bool) string {
	switch {
	case rain && uv:
		return "rain and UV alerts"
	case rain:
		return "rain alerts only"
	case uv:
		return "UV alerts only"
	default:
		return "temperature only"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// ContentChoices are the answers offered for the content prompt.
var ContentChoices = []Choice{
	{Label: "🌧 Rain", Value: "1"},
	{Label: "☀️ UV", Value: "2"},
	{Label: "🌧☀️ Both", Value: "3"},
}
