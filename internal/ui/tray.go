package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

const refreshInterval = 15 * time.Second

type Tray struct {
	catalogSvc catalog.CatalogService
	runner     *catalog.Runner
	logger     *slog.Logger
	apiURL     string

	statusItem   *systray.MenuItem
	playersItem  *systray.MenuItem
	analysesItem *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu   sync.Mutex
	stop chan struct{}

	onQuit func()
}

type TrayConfig struct {
	CatalogService catalog.CatalogService
	Runner         *catalog.Runner
	Logger         *slog.Logger
	APIURL         string
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		catalogSvc: cfg.CatalogService,
		runner:     cfg.Runner,
		logger:     cfg.Logger,
		apiURL:     cfg.APIURL,
		onQuit:     cfg.OnQuit,
		stop:       make(chan struct{}),
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes())
	systray.SetTitle("Goals")
	systray.SetTooltip("Goals Vision agent " + t.apiURL)

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.playersItem = systray.AddMenuItem("Players: 0", "Registered players")
	t.playersItem.Disable()

	t.analysesItem = systray.AddMenuItem("Analyses: 0", "Stored agility analyses")
	t.analysesItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause video analysis")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Goals Vision agent")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.stop)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	t.refresh()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

// refresh pulls the catalog counters shown in the menu.
func (t *Tray) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if stats, err := t.catalogSvc.PlayerStats(ctx); err == nil {
		t.UpdatePlayersCount(stats.Total)
	} else {
		t.logger.Debug("tray refresh failed", "error", err)
	}
	if n, err := t.catalogSvc.CountAnalyses(ctx); err == nil {
		t.UpdateAnalysesCount(n)
	}
	if t.runner != nil {
		if active := t.runner.GetActiveJobCount(ctx); active > 0 {
			t.UpdateStatus(fmt.Sprintf("Analyzing (%d)", active))
		} else {
			t.UpdateStatus("Idle")
		}
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdatePlayersCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playersItem.SetTitle(fmt.Sprintf("Players: %d", count))
}

func (t *Tray) UpdateAnalysesCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.analysesItem.SetTitle(fmt.Sprintf("Analyses: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
