package venues

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type catalog struct {
	Venues []reservations.Venue `yaml:"venues"`
}

// File is a Directory backed by a YAML catalog:
//
//	venues:
//	  - id: blue-door
//	    name: Blue Door
//	    owner_id: u-42
//	    owner_email: owner@bluedoor.test
//	    hours: {open: "18:00", close: "02:00"}
//	    tables: 6
type File struct {
	*Static
	path     string
	log      *zap.Logger
	onReload func([]reservations.Venue)
}

func LoadFile(path string, log *zap.Logger) (*File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &File{Static: NewStatic(), path: path, log: log}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// OnReload registers fn to run after every successful reload triggered by
// Watch. Call it before Watch.
func (f *File) OnReload(fn func([]reservations.Venue)) { f.onReload = fn }

// Reload re-reads the catalog. On error the previous contents stay in place.
func (f *File) Reload() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read venues file: %w", err)
	}
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("parse venues file: %w", err)
	}
	seen := make(map[string]bool, len(c.Venues))
	for _, v := range c.Venues {
		if v.ID == "" {
			return fmt.Errorf("venues file: venue without id")
		}
		if seen[v.ID] {
			return fmt.Errorf("venues file: duplicate venue %q", v.ID)
		}
		seen[v.ID] = true
		if err := v.Hours.Validate(); err != nil {
			return fmt.Errorf("venues file: venue %q: %w", v.ID, err)
		}
	}
	f.Replace(c.Venues)
	return nil
}

// Watch reloads the catalog whenever the file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (f *File) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", f.path, err)
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := f.Reload(); err != nil {
					f.log.Warn("venues reload failed", zap.String("path", f.path), zap.Error(err))
					continue
				}
				f.log.Info("venues reloaded", zap.String("path", f.path), zap.Int("venues", f.Len()))
				if f.onReload != nil {
					f.onReload(f.All())
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Error("fsnotify error", zap.Error(err))
			}
		}
	}()
	return nil
}
