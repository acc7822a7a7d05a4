package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/config"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/pkg/log"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type (
	Provider struct {
		paths        []string
		watcher      *fsnotify.Watcher
		cache        cache
		refreshEvery time.Duration
		updateCh     chan []config.Update
		log          zerolog.Logger
	}
	cache map[string]time.Time
)

func NewProvider(paths []string) *Provider {
	return &Provider{
		paths:        paths,
		cache:        make(cache),
		refreshEvery: time.Second * 10,
		updateCh:     make(chan []config.Update),
		log:          log.New("config file provider"),
	}
}

func (c cache) lookup(path string) (time.Time, bool) { v, ok := c[path]; return v, ok }
func (c cache) has(path string) bool                 { _, ok := c.lookup(path); return ok }
func (c cache) remove(path string)                   { delete(c, path) }
func (c cache) put(path string, modTime time.Time)   { c[path] = modTime }

func (p *Provider) Updates() chan []config.Update {
	return p.updateCh
}

func (p *Provider) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.log.Error().Err(err).Msg("failed to create fs watcher")
		return
	}

	p.watcher = watcher
	defer p.stop()
	p.refresh(ctx)

	tk := time.NewTicker(p.refreshEvery)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			p.refresh(ctx)
		case event := <-p.watcher.Events:
			if event.Name == "" || isChmod(event) || !p.fileMatches(event.Name) {
				break
			}
			if isCreate(event) && p.cache.has(event.Name) {
				// vim "backupcopy=no" case, already collected after Rename event.
				break
			}
			if isRename(event) {
				// Editors commonly rename the file and write a new one.
				time.Sleep(time.Millisecond * 100)
			}
			p.refresh(ctx)
		case err := <-p.watcher.Errors:
			if err != nil {
				p.log.Warn().Err(err).Msg("fs watcher error")
			}
		}
	}
}

func (p *Provider) refresh(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	var added, removed []config.Update
	seen := make(map[string]bool)

	for _, file := range p.listFiles() {
		fi, err := os.Lstat(file)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}

		seen[file] = true
		if v, ok := p.cache.lookup(file); ok && v.Equal(fi.ModTime()) {
			continue
		}
		p.cache.put(file, fi.ModTime())

		var cfg config.Config
		switch err := load(&cfg, file); err {
		case nil:
			added = append(added, config.Update{App: &cfg, Source: file})
		case io.EOF:
			removed = append(removed, config.Update{Source: file})
		default:
			p.log.Warn().Err(err).Msgf("failed to load config from '%s'", file)
		}
	}

	for name := range p.cache {
		if seen[name] {
			continue
		}
		p.cache.remove(name)
		removed = append(removed, config.Update{Source: name})
	}

	if updates := append(added, removed...); len(updates) > 0 {
		p.send(ctx, updates)
	}
	p.watchDirs()
}

func (p *Provider) fileMatches(file string) bool {
	for _, pattern := range p.paths {
		if ok, _ := filepath.Match(pattern, file); ok {
			return true
		}
	}
	return false
}

func (p *Provider) listFiles() (files []string) {
	for _, pattern := range p.paths {
		if matches, err := filepath.Glob(pattern); err == nil {
			files = append(files, matches...)
		}
	}
	return files
}

func (p *Provider) watchDirs() {
	for _, path := range p.paths {
		if idx := strings.LastIndex(path, "/"); idx > -1 {
			path = path[:idx]
		} else {
			path = "./"
		}
		if err := p.watcher.Add(path); err != nil {
			p.log.Warn().Err(err).Msgf("failed to watch dir '%s'", path)
		}
	}
}

func (p *Provider) stop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// closing the watcher deadlocks unless all events and errors are drained.
	go func() {
		for {
			select {
			case <-p.watcher.Errors:
			case <-p.watcher.Events:
			case <-ctx.Done():
				return
			}
		}
	}()

	_ = p.watcher.Close()
}

func (p *Provider) send(ctx context.Context, updates []config.Update) {
	if len(updates) == 0 {
		return
	}
	select {
	case <-ctx.Done():
	case p.updateCh <- updates:
	}
}

func isChmod(event fsnotify.Event) bool {
	return event.Op^fsnotify.Chmod == 0
}

func isRename(event fsnotify.Event) bool {
	return event.Op&fsnotify.Rename == fsnotify.Rename
}

func isCreate(event fsnotify.Event) bool {
	return event.Op&fsnotify.Create == fsnotify.Create
}

func load(conf interface{}, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return yaml.NewDecoder(f).Decode(conf)
}
