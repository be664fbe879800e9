package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/launcher-core/pkg/config"
	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/font"
	"github.com/0xmhha/launcher-core/pkg/icon"
	"github.com/0xmhha/launcher-core/pkg/prefs"
)

// testEnv is a configuration file pointing every directory into a
// temporary root.
type testEnv struct {
	root       string
	configPath string
	cfg        *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(root, "settings.db")
	cfg.Storage.IconCacheDir = filepath.Join(root, "iconcache")
	cfg.Storage.IconPacksDir = filepath.Join(root, "iconpacks")
	cfg.Storage.DefaultIconsDir = filepath.Join(root, "icons")
	cfg.Storage.FontsDir = filepath.Join(root, "fonts")
	cfg.Watch.Disabled = true
	cfg.Logging.Level = "error"

	path := filepath.Join(root, "config.yaml")
	require.NoError(t, config.Save(cfg, path))

	return &testEnv{root: root, configPath: path, cfg: cfg}
}

// run executes launcherctl with args and returns its output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "launcherctl %s", strings.Join(args, " "))
	return out
}

func (e *testEnv) writeDefaultIcon(t *testing.T, pkg string, c color.Color) {
	t.Helper()
	dir := e.cfg.Storage.DefaultIconsDir
	require.NoError(t, os.MkdirAll(dir, 0700))

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	f, err := os.Create(filepath.Join(dir, pkg+".png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

type focusJSON struct {
	State        string `json:"state"`
	Active       bool   `json:"active"`
	DurationSec  int    `json:"duration_sec"`
	RemainingSec int    `json:"remaining_sec"`
	Type         string `json:"type"`
	SessionID    string `json:"session_id"`
}

func decodeFocus(t *testing.T, out string) focusJSON {
	t.Helper()
	var snap focusJSON
	require.NoError(t, json.Unmarshal([]byte(out), &snap), out)
	return snap
}

func TestParseSessionLength(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1500", want: 1500},
		{in: "25m", want: 1500},
		{in: "90s", want: 90},
		{in: "1h30m", want: 5400},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "500ms", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSessionLength(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = parseHexColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	for _, bad := range []string{"", "#fff", "#gggggg", "#1234567"} {
		_, err := parseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestFocusLifecycle(t *testing.T) {
	env := newTestEnv(t)

	snap := decodeFocus(t, env.mustRun(t, "--format", "json", "focus", "start", "25m", "--type", "pomodoro"))
	assert.Equal(t, "running", snap.State)
	assert.Equal(t, 1500, snap.DurationSec)
	assert.Equal(t, "pomodoro", snap.Type)
	id := snap.SessionID
	require.NotEmpty(t, id)

	// A new process recovers the session.
	snap = decodeFocus(t, env.mustRun(t, "--format", "json", "focus", "status"))
	assert.Equal(t, "running", snap.State)
	assert.Equal(t, id, snap.SessionID)
	assert.InDelta(t, 1500, snap.RemainingSec, 5)

	snap = decodeFocus(t, env.mustRun(t, "--format", "json", "focus", "pause"))
	assert.Equal(t, "paused", snap.State)
	paused := snap.RemainingSec

	snap = decodeFocus(t, env.mustRun(t, "--format", "json", "focus", "status"))
	assert.Equal(t, "paused", snap.State)
	assert.Equal(t, paused, snap.RemainingSec)

	snap = decodeFocus(t, env.mustRun(t, "--format", "json", "focus", "resume"))
	assert.Equal(t, "running", snap.State)
	assert.Equal(t, id, snap.SessionID)

	snap = decodeFocus(t, env.mustRun(t, "--format", "json", "focus", "stop"))
	assert.Equal(t, "idle", snap.State)
	assert.False(t, snap.Active)

	out := env.mustRun(t, "--format", "simple", "focus", "status")
	assert.Equal(t, "idle\n", out)
}

func TestFocusStartInvalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "focus", "start", "0")
	assert.ErrorIs(t, err, focus.ErrInvalidDuration)

	_, err = env.run(t, "focus", "start")
	assert.Error(t, err)
}

func TestFocusFollowEndsWhenIdle(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "--format", "simple", "focus", "status", "--follow")
	assert.Equal(t, "idle\n", out)
}

func TestUnknownFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--format", "xml", "focus", "status")
	assert.Error(t, err)
}

func TestPrefsHomeApps(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "prefs", "home", "add", "com.a")
	out := env.mustRun(t, "--format", "simple", "prefs", "home", "add", "com.b")
	assert.Equal(t, "Home Apps: com.a, com.b\n", out)

	out = env.mustRun(t, "--format", "simple", "prefs", "home", "remove", "com.a")
	assert.Equal(t, "Home Apps: com.b\n", out)

	_, err := env.run(t, "prefs", "home", "set", "1", "2", "3", "4", "5", "6")
	assert.ErrorIs(t, err, prefs.ErrHomeAppsFull)

	var apps []string
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--format", "json", "prefs", "home")), &apps))
	assert.Equal(t, []string{"com.b"}, apps)
}

func TestPrefsWhitelist(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "prefs", "whitelist", "set", "com.phone", "com.maps", "com.phone")

	var list []string
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--format", "json", "prefs", "whitelist", "list")), &list))
	assert.Equal(t, []string{"com.maps", "com.phone"}, list)

	env.mustRun(t, "prefs", "whitelist", "set")
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--format", "json", "prefs", "whitelist")), &list))
	assert.Empty(t, list)
}

func TestPrefsIconPackAndShake(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, "icon pack: none (system icons)\n", env.mustRun(t, "prefs", "iconpack"))
	assert.Equal(t, "icon pack: com.pack\n", env.mustRun(t, "prefs", "iconpack", "com.pack"))
	assert.Equal(t, "icon pack: none (system icons)\n", env.mustRun(t, "prefs", "iconpack", "clear"))

	assert.Equal(t, "shake flashlight: off\n", env.mustRun(t, "prefs", "shake"))
	assert.Equal(t, "shake flashlight: on\n", env.mustRun(t, "prefs", "shake", "on"))
	assert.Equal(t, "shake flashlight: on\n", env.mustRun(t, "prefs", "shake"))

	_, err := env.run(t, "prefs", "shake", "maybe")
	assert.Error(t, err)
}

func TestPrefsShow(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "prefs", "shake", "on")
	env.mustRun(t, "prefs", "iconpack", "com.pack")

	out := env.mustRun(t, "--format", "simple", "prefs", "show")
	assert.Contains(t, out, "shake_flashlight_enabled=true\n")
	assert.Contains(t, out, "icon_pack_package=\"com.pack\"\n")
}

func TestFontCommands(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, "font: system, 16pt\n", env.mustRun(t, "prefs", "font"))

	out := env.mustRun(t, "prefs", "font", "set", "res", "gomono")
	assert.Contains(t, out, "(res:gomono)")

	// Reapplied by the next process.
	out = env.mustRun(t, "prefs", "font", "size", "20")
	assert.Contains(t, out, "(res:gomono), 20pt")

	_, err := env.run(t, "prefs", "font", "size", "99")
	assert.ErrorIs(t, err, font.ErrInvalidSize)

	_, err = env.run(t, "prefs", "font", "set", "res", "no-such-font")
	assert.ErrorIs(t, err, font.ErrFontNotFound)

	assert.Equal(t, "font: system, 20pt\n", env.mustRun(t, "prefs", "font", "clear"))

	var bundled []string
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--format", "json", "prefs", "font", "bundled")), &bundled))
	assert.Contains(t, bundled, "gomono")
}

func TestIconsResolve(t *testing.T) {
	env := newTestEnv(t)
	env.writeDefaultIcon(t, "com.app", color.NRGBA{R: 0xff, A: 0xff})

	dst := filepath.Join(env.root, "out.png")
	out := env.mustRun(t, "icons", "resolve", "com.app", "--size", "32", "--out", dst)
	assert.Equal(t, "com.app: 32x32 (system)\n", out)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())

	// Served from the disk tier by the next process.
	var stats icon.Stats
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--format", "json", "icons", "stats", "com.app", "--size", "32")), &stats))
	assert.Equal(t, uint64(1), stats.DiskHits)
	assert.Equal(t, uint64(0), stats.ProviderLoads)
	assert.Equal(t, 1, stats.Entries)
}

func TestIconsResolveTint(t *testing.T) {
	env := newTestEnv(t)
	env.writeDefaultIcon(t, "com.app", color.NRGBA{R: 0xff, A: 0xff})

	out := env.mustRun(t, "icons", "resolve", "com.app", "--size", "16", "--tint", "#00ff00")
	assert.Equal(t, "com.app: 16x16 (system)\n", out)

	_, err := env.run(t, "icons", "resolve", "com.app", "--tint", "green")
	assert.Error(t, err)
}

func TestIconsResolveMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "icons", "resolve", "com.missing")
	assert.ErrorIs(t, err, icon.ErrNotFound)
}

func TestIconsPrewarm(t *testing.T) {
	env := newTestEnv(t)
	env.writeDefaultIcon(t, "com.a", color.NRGBA{B: 0xff, A: 0xff})
	env.writeDefaultIcon(t, "com.b", color.NRGBA{G: 0xff, A: 0xff})

	env.mustRun(t, "prefs", "home", "set", "com.a", "com.missing")
	assert.Equal(t, "prewarmed 1 icons\n", env.mustRun(t, "icons", "prewarm"))

	out := env.mustRun(t, "icons", "prewarm", "com.a", "com.b", "--concurrency", "1")
	assert.Equal(t, "prewarmed 2 icons\n", out)
}

func TestIconsPacks(t *testing.T) {
	env := newTestEnv(t)

	packDir := filepath.Join(env.cfg.Storage.IconPacksDir, "com.pack")
	require.NoError(t, os.MkdirAll(packDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(packDir, "appfilter.xml"), []byte("<resources/>"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(env.cfg.Storage.IconPacksDir, "not-a-pack"), 0700))

	var packs []string
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--format", "json", "icons", "packs")), &packs))
	assert.Equal(t, []string{"com.pack"}, packs)
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "show")
	assert.Contains(t, out, "# Source: "+env.configPath)
	assert.Contains(t, out, "db_path: "+env.cfg.Storage.DBPath)

	out = env.mustRun(t, "--format", "json", "config", "show")
	assert.Contains(t, out, env.cfg.Storage.DBPath)
}

func TestConfigPath(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "path")
	assert.Contains(t, out, "1. "+env.configPath+" [found]")
	assert.Contains(t, out, "Active configuration: "+env.configPath)
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	dst := filepath.Join(env.root, "new", "config.yaml")

	out := env.mustRun(t, "config", "init", "--output", dst)
	assert.Contains(t, out, dst)

	_, err := env.run(t, "config", "init", "--output", dst)
	assert.Error(t, err)

	env.mustRun(t, "config", "init", "--output", dst, "--force")

	cfg, err := config.NewLoader(dst).LoadFromFile(dst)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Focus, cfg.Focus)
}
