// Package prefs defines the launcher's settings keys and a facade over the
// store for the settings the launcher UI edits directly.
package prefs

import "github.com/0xmhha/launcher-core/pkg/store"

// Launcher settings.
var (
	FocusWhitelist  = store.StringKey("focus_whitelist")   // "pkg1|pkg2|..."
	HomeAppsOrdered = store.StringKey("home_apps_ordered") // "pkgA|pkgB|..."
	IconPackPackage = store.StringKey("icon_pack_package") // absent = system icons

	FontType  = store.StringKey("launcher_font_type")  // "res"|"uri"|"pkg"
	FontValue = store.StringKey("launcher_font_value") // res key, file path or "pkg:name"
	FontSize  = store.IntKey("launcher_font_size")     // points

	ShakeFlashlightEnabled = store.BoolKey("shake_flashlight_enabled")
)

// Focus session mirror.
var (
	FocusActive       = store.BoolKey("focus_active")
	FocusStartMs      = store.LongKey("focus_start_ms") // wall clock, epoch ms
	FocusDurationSec  = store.IntKey("focus_duration_sec")
	FocusType         = store.StringKey("focus_type")
	FocusBgSound      = store.StringKey("focus_bg_sound")
	FocusEndElapsedMs = store.LongKey("focus_end_elapsed_ms") // monotonic clock, ms
	FocusPaused       = store.BoolKey("focus_paused")
	FocusRemainingSec = store.IntKey("focus_remaining_sec")
	FocusSessionID    = store.StringKey("focus_session_id")
)

// FocusKeys lists every focus session key.
var FocusKeys = []store.Named{
	FocusActive,
	FocusStartMs,
	FocusDurationSec,
	FocusType,
	FocusBgSound,
	FocusEndElapsedMs,
	FocusPaused,
	FocusRemainingSec,
	FocusSessionID,
}

// MaxHomeApps is the number of apps the home screen can hold.
const MaxHomeApps = 5

// DefaultFontSize is used when no font size is stored.
const DefaultFontSize = 16
