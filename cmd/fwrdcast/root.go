package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/fwrdcast/internal/api"
	"github.com/pders01/fwrdcast/internal/config"
	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/feed"
	"github.com/pders01/fwrdcast/internal/media"
	"github.com/pders01/fwrdcast/internal/pager"
	"github.com/pders01/fwrdcast/internal/player"
	"github.com/pders01/fwrdcast/internal/plugins"
	"github.com/pders01/fwrdcast/internal/plugins/builtin"
	"github.com/pders01/fwrdcast/internal/search"
	"github.com/pders01/fwrdcast/internal/storage"
	"github.com/pders01/fwrdcast/internal/store"
	"github.com/pders01/fwrdcast/internal/tui"
	"github.com/pders01/fwrdcast/internal/validation"
)

var (
	configPath string
	dbPath     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "fwrdcast",
	Short:         "Podcasts and feeds in the terminal",
	Long:          "fwrdcast follows feeds and podcasts on a remote feed service, keeps the reading lists in sync and plays episodes.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd, configPathCmd)
	rootCmd.AddCommand(versionCmd, configCmd, articlesCmd, previewCmd)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = expandHome(dbPath)
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, fmt.Errorf("setting up log: %w", err)
	}
	return cfg, nil
}

func newAPIClient(cfg *config.Config) (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	})
}

// audioDetector keeps a nil detector from becoming a non-nil interface.
func audioDetector(l *media.Launcher) feed.AudioDetector {
	if d := l.Detector(); d != nil {
		return d
	}
	return nil
}

func newResolver(cfg *config.Config) *plugins.Registry {
	registry := plugins.NewRegistry(cfg.API.Timeout)
	builtin.Register(registry)
	return registry
}

// session is everything the TUI runs on. close releases it in reverse
// order of construction.
type session struct {
	client     *api.Client
	storage    *storage.Store
	dispatcher *store.Dispatcher
	closers    []func()
}

func (s *session) onClose(fn func()) { s.closers = append(s.closers, fn) }

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func openSession(cfg *config.Config) (*session, error) {
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}

	if err := validation.EnsureParentDir(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}
	s := &session{client: client, storage: db}
	s.onClose(func() {
		if err := db.Close(); err != nil {
			debuglog.Warnf("closing database: %v", err)
		}
	})

	initial := store.New()
	user, err := db.LoadUser()
	switch {
	case err == nil:
		initial.User = user
	case !errors.Is(err, storage.ErrNotFound):
		debuglog.Warnf("restoring user: %v", err)
	}
	s.dispatcher = store.NewDispatcher(initial, store.SnapshotUser(db))
	return s, nil
}

// openSearch returns the bleve index when search is enabled and the
// index-free engine otherwise. Either one follows the store.
func openSearch(cfg *config.Config, s *session) search.Searcher {
	var syncer interface {
		search.Searcher
		search.Syncer
	}
	if cfg.Search.Enabled {
		idx, err := search.NewBleveIndex()
		if err == nil {
			s.onClose(func() { _ = idx.Close() })
			syncer = idx
		} else {
			debuglog.Warnf("search index unavailable, using plain matching: %v", err)
		}
	}
	if syncer == nil {
		syncer = search.NewEngine()
	}
	s.onClose(search.Watch(s.dispatcher, syncer))
	return syncer
}

func runTUI(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if !quiet {
		tui.ShowBanner(Version)
	}

	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	loader := pager.New(s.client, s.dispatcher, cfg.API.PageSize, cfg.API.MaxItems)
	s.onClose(loader.Close)

	launcher := media.NewLauncher(cfg.Media)
	durations := feed.NewDurations(feed.NewFetcher(), feed.NewParser(audioDetector(launcher)))
	transport := media.NewClockTransport(media.ClockOptions{
		Probe: player.DurationProbe(s.dispatcher, durations, cfg.API.Timeout),
	})
	controller := player.New(s.dispatcher, transport, s.client, player.Options{
		ProgressInterval: cfg.Player.ProgressInterval,
		SkipOffset:       cfg.Player.SkipOffset,
		Rates:            cfg.Player.Rates,
		ReportTimeout:    cfg.Player.ReportTimeout,
	})
	transport.SetListener(controller)
	s.onClose(func() {
		if s.dispatcher.State().Player != nil {
			if err := controller.Close(); err != nil {
				debuglog.Warnf("closing player: %v", err)
			}
		}
		controller.Wait()
		_ = transport.Close()
	})

	searcher := openSearch(cfg, s)

	app := tui.NewApp(cfg, tui.Deps{
		Store:    s.dispatcher,
		Service:  s.client,
		Pager:    loader,
		Player:   controller,
		Searcher: searcher,
		Opener:   launcher,
		Resolver: newResolver(cfg),
	})
	defer app.Close()

	debuglog.WithFields(map[string]interface{}{"api": s.client.BaseURL(), "db": cfg.Database.Path}).Infof("starting")
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
