package launcher

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/launcher-core/pkg/config"
	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/font"
	"github.com/0xmhha/launcher-core/pkg/logger"
)

type nopTorch struct{}

func (nopTorch) SetTorch(context.Context, bool) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(root, "settings.db")
	cfg.Storage.IconCacheDir = filepath.Join(root, "iconcache")
	cfg.Storage.IconPacksDir = filepath.Join(root, "iconpacks")
	cfg.Storage.DefaultIconsDir = filepath.Join(root, "icons")
	cfg.Storage.FontsDir = filepath.Join(root, "fonts")
	cfg.Watch.Disabled = true
	return cfg
}

func openTest(t *testing.T, cfg *config.Config, opts ...Option) *Launcher {
	t.Helper()

	l, err := Open(context.Background(), cfg, logger.Noop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := l.Close(); closeErr != nil {
			t.Logf("Close() error = %v", closeErr)
		}
	})
	return l
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestOpenAndClose(t *testing.T) {
	l, err := Open(context.Background(), testConfig(t), logger.Noop())
	require.NoError(t, err)

	assert.NotNil(t, l.Store)
	assert.NotNil(t, l.Prefs)
	assert.NotNil(t, l.Focus)
	assert.NotNil(t, l.Icons)
	assert.NotNil(t, l.IconPacks)
	assert.NotNil(t, l.Fonts)
	assert.Nil(t, l.Shake)
	assert.Equal(t, focus.Idle, l.Focus.State())

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}

func TestOpenInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Focus.TickInterval = 0

	_, err := Open(context.Background(), cfg, logger.Noop())
	assert.ErrorIs(t, err, config.ErrInvalidTickInterval)
}

func TestFocusSessionSurvivesReopen(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := Open(ctx, cfg, logger.Noop())
	require.NoError(t, err)
	require.NoError(t, first.Focus.Start(ctx, 600, "deep-work"))
	require.NoError(t, first.Close())

	second := openTest(t, cfg)
	snap := second.Focus.Snapshot()
	assert.Equal(t, focus.Running, snap.State)
	assert.Equal(t, 600, snap.DurationSec)
	assert.Equal(t, "deep-work", snap.Type)
	assert.InDelta(t, 600, snap.RemainingSec, 2)

	second.Focus.Stop(ctx)
	assert.Equal(t, focus.Idle, second.Focus.State())
}

func TestSelectedIcon(t *testing.T) {
	cfg := testConfig(t)
	writePNG(t, filepath.Join(cfg.Storage.DefaultIconsDir, "com.example.mail.png"), color.NRGBA{R: 0xff, A: 0xff})
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Storage.IconPacksDir, "mono", "drawable"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.IconPacksDir, "mono", "appfilter.xml"),
		[]byte(`<resources><item component="ComponentInfo{com.example.mail/Main}" drawable="mail"/></resources>`), 0600))
	writePNG(t, filepath.Join(cfg.Storage.IconPacksDir, "mono", "drawable", "mail.png"), color.NRGBA{G: 0xff, A: 0xff})

	l := openTest(t, cfg)
	ctx := context.Background()

	img, err := l.SelectedIcon(ctx, "com.example.mail", 4)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, uint8(0xff), img.NRGBAAt(2, 2).R)

	require.NoError(t, l.Prefs.SetSelectedIconPack(ctx, "mono"))
	img, err = l.SelectedIcon(ctx, "com.example.mail", 4)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, uint8(0xff), img.NRGBAAt(2, 2).G)
}

func TestPrewarmHome(t *testing.T) {
	cfg := testConfig(t)
	writePNG(t, filepath.Join(cfg.Storage.DefaultIconsDir, "a.png"), color.White)
	writePNG(t, filepath.Join(cfg.Storage.DefaultIconsDir, "b.png"), color.White)

	l := openTest(t, cfg)
	ctx := context.Background()
	require.NoError(t, l.Prefs.SetHomeApps(ctx, []string{"a", "b", "missing"}))

	warmed, err := l.PrewarmHome(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, warmed)
	assert.Equal(t, 2, l.Icons.Stats().Entries)
}

func TestFontReappliedOnOpen(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := Open(ctx, cfg, logger.Noop())
	require.NoError(t, err)
	_, err = first.Fonts.Apply(ctx, font.Selection{Type: font.TypeRes, Value: "gomono"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTest(t, cfg)
	require.NotNil(t, second.Fonts.Current())
	assert.Equal(t, "gomono", second.Fonts.Current().Selection.Value)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := openTest(t, testConfig(t), WithRegisterer(reg))

	require.NoError(t, l.Prefs.SetShakeEnabled(context.Background(), true))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["launcher_store_edits_total"])
}

func TestWithTorch(t *testing.T) {
	l := openTest(t, testConfig(t), WithTorch(nopTorch{}))
	assert.NotNil(t, l.Shake)
}
