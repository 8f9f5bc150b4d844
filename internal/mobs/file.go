package mobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"firestige.xyz/bpsniff/internal/log"
)

type catalogFile struct {
	Mobs []Mob `yaml:"mobs"`
}

// FileCatalog is a Catalog loaded from a YAML file. Watch keeps it in sync
// with the file; a failed reload keeps the previous table.
type FileCatalog struct {
	path  string
	table atomic.Pointer[Table]
	log   *logrus.Entry
}

// LoadFile reads the catalog at path.
func LoadFile(path string) (*FileCatalog, error) {
	c := &FileCatalog{
		path: filepath.Clean(path),
		log:  log.WithComponent("mobs"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the file and swaps the table in on success.
func (c *FileCatalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read mob catalog %s: %w", c.path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse mob catalog %s: %w", c.path, err)
	}
	if len(f.Mobs) == 0 {
		return fmt.Errorf("mob catalog %s: no mobs", c.path)
	}
	for i, m := range f.Mobs {
		if m.ID == 0 || m.Name == "" {
			return fmt.Errorf("mob catalog %s: entry %d needs id and name", c.path, i)
		}
	}
	c.table.Store(NewTable(f.Mobs))
	return nil
}

// Watch reloads the catalog whenever the file changes, until ctx is done.
// The parent directory is watched so that atomic replace-by-rename is seen.
func (c *FileCatalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watch %s: %w", c.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != c.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := c.Reload(); err != nil {
				c.log.WithError(err).Warn("mob catalog reload failed, keeping previous")
				continue
			}
			c.log.WithField("mobs", c.current().Len()).Info("mob catalog reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.WithError(err).Warn("mob catalog watcher error")
		}
	}
}

func (c *FileCatalog) current() *Table { return c.table.Load() }

func (c *FileCatalog) ByID(id uint32) (Mob, bool)     { return c.current().ByID(id) }
func (c *FileCatalog) ByName(name string) (Mob, bool) { return c.current().ByName(name) }
func (c *FileCatalog) IsTracked(id uint32) bool       { return c.current().IsTracked(id) }
