package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/config"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/config/provider/file"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/httpd"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/llm"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/manager"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/pkg/log"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/tool"

	"github.com/jessevdk/go-flags"
)

type options struct {
	ConfigFile string `long:"config-file" description:"Configuration file path"`
	Listen     string `short:"l" long:"listen" description:"Listen address (host:port)"`
	Debug      bool   `short:"d" long:"debug" description:"Debug mode"`
}

const version = "0.1.0"

var logger = log.New("main")

func main() {
	opts := parseCLI()
	applyFromEnv(&opts)
	log.SetDebug(opts.Debug)

	cfg := config.Default()
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	srv := httpd.New(httpd.Config{
		Listen:         cfg.Listen,
		Version:        version,
		RequestTimeout: cfg.Timeout.Request.Duration(),
	})

	// with a config file the manager installs the runtime from the
	// file's settings; installing defaults here would serve tool calls
	// under the default policy until the first reload lands
	var mgr *manager.Manager
	if opts.ConfigFile != "" {
		mgr = manager.New(file.NewProvider([]string{opts.ConfigFile}), srv)
	} else {
		registry, err := defaultRuntime(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build tool runtime")
		}
		srv.SetTools(registry)
	}

	logger.Info().Msgf("starting talk-to-your-pc-mcp server on %s", cfg.Listen)
	run(srv, mgr)
}

func run(srv *httpd.Server, mgr *manager.Manager) {
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	wg.Add(1)
	go func() { defer wg.Done(); srv.Run(ctx) }()

	if mgr != nil {
		wg.Add(1)
		go func() { defer wg.Done(); mgr.Run(ctx) }()
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-ch
	logger.Info().Msgf("received %s signal (%d). Terminating...", sig, sig)
	cancel()
	wg.Wait()
}

func defaultRuntime(cfg *config.Config) (httpd.ToolService, error) {
	client, err := llm.NewFromEnv(llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if client == nil {
		logger.Warn().Msg("no LLM API keys found, server will start but tools will not work")
	} else {
		logger.Info().Msgf("using '%s' LLM client", client.Name())
	}

	return tool.NewRegistry(tool.Options{
		Client:         client,
		CommandTimeout: cfg.Timeout.Command.Duration(),
		Policy:         cfg.Policy,
		Overrides:      cfg.Tools,
	})
}

func parseCLI() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "pcserver"
	parser.Usage = "[OPTION]..."

	if _, err := parser.ParseArgs(os.Args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}
	return opts
}

func applyFromEnv(opts *options) {
	if v, ok := os.LookupEnv("PORT"); ok && opts.Listen == "" {
		opts.Listen = ":" + v
	}
	if v, ok := os.LookupEnv("PC_SERVER_CONFIG_FILE"); ok && opts.ConfigFile == "" {
		opts.ConfigFile = v
	}
}
