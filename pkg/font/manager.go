package font

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font/opentype"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/prefs"
	"github.com/0xmhha/launcher-core/pkg/store"
	"github.com/0xmhha/launcher-core/pkg/watcher"
)

// fontExts are tried in order for pkg selections.
var fontExts = []string{".ttf", ".otf"}

// Manager owns the launcher's current font.
//
// Thread-safety: all methods are safe for concurrent use.
type Manager struct {
	store  *store.Store
	cfg    Config
	logger logger.Logger
	cache  *lru.Cache[string, *Font]

	mu      sync.Mutex
	current *Font
	subs    map[chan *Font]struct{}
	closed  bool
	done    chan struct{}
}

// New creates a Manager. The persisted selection is not loaded until
// Reapply is called.
//
// Parameters:
//   - s: Settings store holding the font selection and size
//   - cfg: Manager configuration
//   - log: Logger instance (nil uses the default logger)
//
// Returns:
//   - Manager using the system font
//   - Error if the font cache cannot be created
func New(s *store.Store, cfg Config, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.Default()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	cfg.FontsDir = watcher.ExpandHome(cfg.FontsDir)

	cache, err := lru.New[string, *Font](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create font cache: %w", err)
	}

	return &Manager{
		store:  s,
		cfg:    cfg,
		logger: log.Named("fonts"),
		cache:  cache,
		subs:   make(map[chan *Font]struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Apply loads sel, persists it as the launcher font and makes it current.
// Nothing is persisted when the font cannot be loaded.
func (m *Manager) Apply(ctx context.Context, sel Selection) (*Font, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	f, err := m.load(sel)
	if err != nil {
		return nil, err
	}

	err = m.store.Edit(ctx, func(e *store.Editor) error {
		store.Put(e, prefs.FontType, string(sel.Type))
		store.Put(e, prefs.FontValue, sel.Value)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist font selection: %w", err)
	}

	m.setCurrent(f)
	m.logger.Info("font applied",
		"selection", sel.String(),
		"name", f.Name)

	return f, nil
}

// Reapply restores the persisted selection. It returns nil, nil when no
// font is persisted. A persisted font that no longer loads is left in
// place so that it is retried on the next start.
func (m *Manager) Reapply(ctx context.Context) (*Font, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	sel, ok, err := m.Persisted(ctx)
	if err != nil || !ok {
		return nil, err
	}

	f, err := m.load(sel)
	if err != nil {
		m.logger.Warn("failed to reapply persisted font",
			"selection", sel.String(),
			"error", err)
		return nil, err
	}

	m.setCurrent(f)
	m.logger.Debug("font reapplied", "selection", sel.String())

	return f, nil
}

// Persisted returns the stored selection, if any.
func (m *Manager) Persisted(ctx context.Context) (Selection, bool, error) {
	r, err := m.store.Data(ctx)
	if err != nil {
		return Selection{}, false, err
	}

	typ, okType := prefs.FontType.From(r)
	value, okValue := prefs.FontValue.From(r)
	if !okType || !okValue {
		return Selection{}, false, nil
	}

	return Selection{Type: Type(typ), Value: value}, true, nil
}

// Clear removes the persisted selection and reverts to the system font.
func (m *Manager) Clear(ctx context.Context) error {
	if m.isClosed() {
		return ErrManagerClosed
	}

	err := m.store.Edit(ctx, func(e *store.Editor) error {
		e.RemoveAll(prefs.FontType, prefs.FontValue)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear font selection: %w", err)
	}

	m.setCurrent(nil)
	return nil
}

// Current returns the active font, or nil for the system font.
func (m *Manager) Current() *Font {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe streams the active font: first the current one, then every
// change. A nil value means the system font. Slow receivers only see the
// latest font. The channel is closed when ctx is done or on Close.
func (m *Manager) Subscribe(ctx context.Context) <-chan *Font {
	ch := make(chan *Font, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch
	}
	m.subs[ch] = struct{}{}
	ch <- m.current
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-m.done:
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}()

	return ch
}

// Size returns the launcher font size in points.
func (m *Manager) Size(ctx context.Context) (int, error) {
	return store.Get(ctx, m.store, prefs.FontSize, prefs.DefaultFontSize)
}

// SetSize stores the launcher font size.
func (m *Manager) SetSize(ctx context.Context, points int) error {
	if points < MinSize || points > MaxSize {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidSize, points, MinSize, MaxSize)
	}
	if err := store.Set(ctx, m.store, prefs.FontSize, points); err != nil {
		return fmt.Errorf("failed to update font size: %w", err)
	}
	return nil
}

// WatchSize streams the launcher font size.
func (m *Manager) WatchSize(ctx context.Context) <-chan int {
	return store.Watch(ctx, m.store, prefs.FontSize, prefs.DefaultFontSize)
}

// Close releases subscribers. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)

	for ch := range m.subs {
		close(ch)
	}
	m.subs = nil
	m.cache.Purge()

	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) setCurrent(f *Font) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = f
	for ch := range m.subs {
		offer(ch, f)
	}
}

// load returns the parsed font for sel, from the cache when possible.
func (m *Manager) load(sel Selection) (*Font, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	key := sel.String()
	if f, ok := m.cache.Get(key); ok {
		return f, nil
	}

	data, err := m.read(sel)
	if err != nil {
		return nil, err
	}

	face, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFont, sel, err)
	}

	f := &Font{
		Selection: sel,
		Name:      fontName(face),
		Face:      face,
	}
	m.cache.Add(key, f)

	return f, nil
}

func (m *Manager) read(sel Selection) ([]byte, error) {
	switch sel.Type {
	case TypeRes:
		data, ok := bundled[sel.Value]
		if !ok {
			return nil, fmt.Errorf("%w: bundled font %q", ErrFontNotFound, sel.Value)
		}
		return data, nil

	case TypeURI:
		return readFontFile(watcher.ExpandHome(sel.Value))

	case TypePkg:
		pkg, name, err := sel.packageFont()
		if err != nil {
			return nil, err
		}
		if m.cfg.FontsDir == "" {
			return nil, fmt.Errorf("%w: no fonts directory", ErrFontNotFound)
		}
		base := filepath.Join(m.cfg.FontsDir, pkg, name)
		for _, ext := range fontExts {
			data, err := readFontFile(base + ext)
			if errors.Is(err, ErrFontNotFound) {
				continue
			}
			return data, err
		}
		return nil, fmt.Errorf("%w: %s", ErrFontNotFound, sel.Value)
	}

	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSelection, sel.Type)
}

func readFontFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFontNotFound, path)
		}
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	return data, nil
}

// offer delivers f, replacing a value the receiver has not consumed yet.
func offer(ch chan *Font, f *Font) {
	select {
	case ch <- f:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
}
