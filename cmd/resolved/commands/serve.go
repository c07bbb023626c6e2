package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/config"
	"github.com/odyomed/resolve/logger"
	"github.com/odyomed/resolve/server"
	"github.com/odyomed/resolve/synonym"
	"github.com/odyomed/resolve/version"
)

// ServeCmd starts the resolution server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP/WebSocket entity resolution server",
	Long: `Launch the resolution server. Serves ranked fuzzy search, raw candidate
lookup and create-or-reuse over HTTP, plus debounced live search over
WebSocket.`,
	RunE: runServe,
}

var (
	serveAddr     string
	serveDBPath   string
	serveSynonyms string
)

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Database path (overrides config)")
	ServeCmd.Flags().StringVar(&serveSynonyms, "synonyms", "", "Synonym groups YAML file (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDBPath != "" {
		cfg.Database.Path = serveDBPath
	}
	if serveSynonyms != "" {
		cfg.Synonyms.Path = serveSynonyms
	}

	ctx := context.Background()

	db, store, err := openStore(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	synonyms, err := loadSynonyms(cfg)
	if err != nil {
		return err
	}

	stacks := buildStacks(cfg, store, synonyms)
	resolvers := make(map[resolve.Kind]*resolve.Resolver, len(stacks))
	coordinators := make(map[resolve.Kind]*resolve.Coordinator, len(stacks))
	for kind, stack := range stacks {
		resolvers[kind] = stack.resolver
		coordinators[kind] = stack.coordinator
	}

	// Live-reload the synonyms file into the category resolver
	if cfg.Synonyms.Path != "" {
		watcher, err := config.NewSynonymWatcher(cfg.Synonyms.Path)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		categoryResolver := resolvers[resolve.KindCategory]
		watcher.OnReload(func(ix *synonym.Index) error {
			categoryResolver.SetSynonyms(ix)
			return nil
		})
		watcher.Start()
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Debounce: time.Duration(cfg.Server.DebounceMs) * time.Millisecond,
	}, store, resolvers, coordinators, logger.Named("server"))

	printStartupBanner(cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(cfg *config.Config) {
	info := version.Get()

	pterm.DefaultHeader.WithFullWidth().Printf("resolved %s", info.Version)
	pterm.Println()
	pterm.Info.Printf("Listening:  %s\n", cfg.Server.Addr)
	pterm.Info.Printf("Database:   %s\n", cfg.Database.Path)
	if cfg.Remote.BaseURL != "" {
		pterm.Info.Printf("Remote API: %s\n", cfg.Remote.BaseURL)
	}
	if cfg.Synonyms.Path != "" {
		pterm.Info.Printf("Synonyms:   %s (live reload)\n", cfg.Synonyms.Path)
	}
	pterm.Println()
}
