// Package manager turns config updates into tool runtimes and swaps
// them into the serving layer. Updates that hash the same as the
// active config are ignored.
package manager

import (
	"context"
	"sync"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/config"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/httpd"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/llm"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/pkg/log"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/tool"

	"github.com/rs/zerolog"
)

type (
	Manager struct {
		prov UpdateProvider
		sink Sink

		factory factory

		cache map[string]uint64
		log   zerolog.Logger
	}
	UpdateProvider interface {
		Run(ctx context.Context)
		Updates() chan []config.Update
	}
	Sink interface {
		SetTools(httpd.ToolService)
	}
	factory interface {
		create(cfg *config.Config) (httpd.ToolService, error)
	}
	factoryFunc func(cfg *config.Config) (httpd.ToolService, error)
)

func (f factoryFunc) create(cfg *config.Config) (httpd.ToolService, error) { return f(cfg) }

func New(provider UpdateProvider, sink Sink) *Manager {
	return &Manager{
		prov:    provider,
		sink:    sink,
		factory: factoryFunc(newRuntime),
		cache:   make(map[string]uint64),
		log:     log.New("manager"),
	}
}

func (m *Manager) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() { defer wg.Done(); m.prov.Run(ctx) }()

	wg.Add(1)
	go func() { defer wg.Done(); m.run(ctx) }()

	wg.Wait()
	<-ctx.Done()
}

func (m *Manager) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case updates := <-m.prov.Updates():
			for _, update := range updates {
				select {
				case <-ctx.Done():
					return
				default:
					m.process(update)
				}
			}
		}
	}
}

func (m *Manager) process(update config.Update) {
	if update.Source == "" {
		return
	}

	if update.App == nil {
		// source disappeared, keep serving the last good runtime
		delete(m.cache, update.Source)
		m.log.Warn().Msgf("config source '%s' removed, keeping current runtime", update.Source)
		return
	}

	if hash, ok := m.cache[update.Source]; ok && hash == update.App.Hash() {
		return
	}
	m.cache[update.Source] = update.App.Hash()

	runtime, err := m.factory.create(update.App)
	if err != nil {
		m.log.Error().Err(err).Msgf("failed to build runtime from '%s'", update.Source)
		return
	}

	m.sink.SetTools(runtime)
	m.log.Info().Msgf("applied config from '%s'", update.Source)
}

func newRuntime(cfg *config.Config) (httpd.ToolService, error) {
	cfg.Merge(config.Default())

	client, err := llm.NewFromEnv(llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	return tool.NewRegistry(tool.Options{
		Client:         client,
		CommandTimeout: cfg.Timeout.Command.Duration(),
		Policy:         cfg.Policy,
		Overrides:      cfg.Tools,
	})
}
