// Package tuning loads optional layout parameters from a YAML file and hot
// reloads them while the viewer is running.
package tuning

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Params holds layout overrides. Nil fields keep the current value, so a
// tuning file only needs the knobs it wants to move.
type Params struct {
	ChargeStrength *float64 `yaml:"charge_strength"`
	LinkDistance   *float64 `yaml:"link_distance"`
	LinkStrength   *float64 `yaml:"link_strength"`
	CenterStrength *float64 `yaml:"center_strength"`
	VelocityDecay  *float64 `yaml:"velocity_decay"`
}

// Validate rejects values the simulation cannot run with.
func (p Params) Validate() error {
	if p.LinkDistance != nil && *p.LinkDistance <= 0 {
		return fmt.Errorf("link_distance must be positive, got %v", *p.LinkDistance)
	}
	if p.LinkStrength != nil && (*p.LinkStrength < 0 || *p.LinkStrength > 1) {
		return fmt.Errorf("link_strength must be in [0,1], got %v", *p.LinkStrength)
	}
	if p.CenterStrength != nil && (*p.CenterStrength < 0 || *p.CenterStrength > 1) {
		return fmt.Errorf("center_strength must be in [0,1], got %v", *p.CenterStrength)
	}
	if p.VelocityDecay != nil && (*p.VelocityDecay < 0 || *p.VelocityDecay >= 1) {
		return fmt.Errorf("velocity_decay must be in [0,1), got %v", *p.VelocityDecay)
	}
	return nil
}

// Load reads and validates a tuning file.
func Load(path string) (Params, error) {
	var p Params
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Watcher reloads the tuning file whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Params)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// Watch starts watching path. Editors typically replace the file instead of
// writing in place, so the parent directory is watched and events are
// filtered down to the file itself. onChange runs on the watcher goroutine.
func Watch(path string, onChange func(Params), logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     path,
		watcher:  fsWatcher,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	go w.watchLoop()

	logger.Info("Layout tuning hot reload enabled", zap.String("path", path))
	return w, nil
}

func (w *Watcher) watchLoop() {
	// Debounce timer to avoid multiple rapid reloads
	var debounceTimer *time.Timer
	const debounceDelay = 250 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Tuning watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	params, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Ignoring invalid tuning file", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("Tuning file reloaded", zap.String("path", w.path))
	w.onChange(params)
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.stopCh)
	w.watcher.Close()
}
