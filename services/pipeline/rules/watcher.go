// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces editor write bursts into one reload.
const defaultDebounce = 200 * time.Millisecond

// Watcher reloads rule overrides whenever the config file changes.
//
// The parent directory is watched rather than the file itself so atomic
// saves (write temp, rename over) are still observed. A failed reload
// keeps the previous configuration.
type Watcher struct {
	engine   *Engine
	path     string
	debounce time.Duration
	logger   *slog.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	doneCh chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher builds a watcher for the override file at path. It does not
// start watching; call Start.
func NewWatcher(engine *Engine, path string, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve override path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		engine:   engine,
		path:     abs,
		debounce: defaultDebounce,
		logger:   logger,
	}, nil
}

// Start applies the current file once, then watches for changes until
// Stop is called.
func (w *Watcher) Start() error {
	if err := w.engine.ReconfigureFromFile(w.path); err != nil {
		w.logger.Warn("initial rule override load failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run()

	w.logger.Info("watching rule overrides", slog.String("path", w.path))
	return nil
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.fsw == nil {
		return
	}
	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
	w.fsw = nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rule override watcher error", slog.String("error", err.Error()))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.engine.ReconfigureFromFile(w.path); err != nil {
			w.logger.Warn("rule override reload failed",
				slog.String("path", w.path),
				slog.String("error", err.Error()))
			return
		}
		w.logger.Info("rule overrides reloaded", slog.String("path", w.path))
	})
}
