package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"sync"
	"time"

	"inkpad/internal/auth"
	"inkpad/internal/client/cache"
	"inkpad/internal/client/config"
	"inkpad/internal/document"
	"inkpad/internal/logging"
	"inkpad/internal/session"
	"inkpad/internal/store"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config  *config.Config
	client  store.Client
	cache   *cache.Cache
	watcher *auth.Watcher
	logger  logging.Logger
	reader  *bufio.Reader

	Mode Mode

	mu         sync.Mutex
	docs       []document.Document
	searchTerm string
	editing    *session.Controller
	editingID  string
	surface    *session.BufferSurface
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	localCache, err := cache.Open(ctx, c.CacheDSN)
	if err != nil {
		log.Printf("error initializing cache: %s", err.Error())
		return nil, err
	}

	return &App{
		config:  c,
		client:  store.NewHTTPClient(c.ServerEndpointAddr),
		cache:   localCache,
		watcher: auth.NewWatcher(),
		logger:  logging.NewSlogJSON(os.Stderr),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	defer a.cache.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	s := a.watcher.Current()
	return !s.IsLoading && s.User != nil
}

func (a *App) currentUserID() string {
	s := a.watcher.Current()
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// StartOnlineStatusWatcher probes the server every interval and flips the
// app between online and offline mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.client.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
