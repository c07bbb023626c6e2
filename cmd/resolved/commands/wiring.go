package commands

import (
	"context"
	"database/sql"
	"time"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/config"
	"github.com/odyomed/resolve/errors"
	"github.com/odyomed/resolve/internal/httpclient"
	"github.com/odyomed/resolve/logger"
	"github.com/odyomed/resolve/match"
	"github.com/odyomed/resolve/source"
	"github.com/odyomed/resolve/storage"
	"github.com/odyomed/resolve/synonym"
)

var allKinds = []resolve.Kind{resolve.KindSupplier, resolve.KindCategory, resolve.KindBrand}

func parseKind(s string) (resolve.Kind, error) {
	switch kind := resolve.Kind(s); kind {
	case resolve.KindSupplier, resolve.KindCategory, resolve.KindBrand:
		return kind, nil
	default:
		return "", errors.Newf("unknown entity kind %q (want supplier, category or brand)", s)
	}
}

// openStore opens the SQLite database and ensures the schema exists.
func openStore(ctx context.Context, path string) (*sql.DB, *storage.EntityStore, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	store := storage.NewEntityStore(db, logger.Named("storage"))
	if err := store.Init(ctx); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "failed to initialize schema")
	}
	return db, store, nil
}

// loadSynonyms builds the synonym index from the configured file, or the
// built-in groups when no file is set.
func loadSynonyms(cfg *config.Config) (*synonym.Index, error) {
	if cfg.Synonyms.Path == "" {
		return synonym.NewIndex(synonym.DefaultGroups()), nil
	}
	groups, err := synonym.LoadFile(cfg.Synonyms.Path)
	if err != nil {
		return nil, err
	}
	return synonym.NewIndex(groups), nil
}

// kindStack is one kind's fully wired resolution pipeline.
type kindStack struct {
	resolver    *resolve.Resolver
	coordinator *resolve.Coordinator
	local       *source.Local
}

// buildStacks wires a resolver and coordinator for every kind: remote
// source when a backend is configured, store-backed local collection
// cache, synonym expansion on the category path.
func buildStacks(cfg *config.Config, store *storage.EntityStore, synonyms *synonym.Index) map[resolve.Kind]*kindStack {
	matcherCfg := match.Config{
		MaxDistance: cfg.Matcher.MaxDistance,
		MinScore:    cfg.Matcher.MinScore,
		MaxResults:  cfg.Matcher.MaxResults,
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	stacks := make(map[resolve.Kind]*kindStack, len(allKinds))
	for _, kind := range allKinds {
		var remote resolve.Source
		if cfg.Remote.BaseURL != "" {
			client := httpclient.New(time.Duration(cfg.Remote.TimeoutSeconds) * time.Second)
			remote = source.NewRemote(cfg.Remote.BaseURL, kind, client, cfg.Remote.RequestsPerSecond, logger.Named("remote"))
		}

		local := source.NewLocal(kind, source.Lister(kind, store), ttl, logger.Named("cache"))

		rcfg := resolve.Config{
			Kind:        kind,
			AllowCreate: true,
			NearExact:   cfg.Resolver.NearExact,
			SourceLimit: cfg.Resolver.SourceLimit,
			Matcher:     matcherCfg,
		}
		if kind == resolve.KindCategory {
			rcfg.Synonyms = synonyms
		}

		// Created entities land in the local cache immediately so the
		// next keystroke sees them.
		persist := func(ctx context.Context, name string) (resolve.Entity, error) {
			entity, err := store.Create(ctx, kind, name, nil)
			if err == nil {
				local.Append(entity)
			}
			return entity, err
		}

		stacks[kind] = &kindStack{
			resolver:    resolve.New(rcfg, remote, local, logger.Named("resolver")),
			coordinator: resolve.NewCoordinator(persist, nil, logger.Named("coordinator")),
			local:       local,
		}
	}
	return stacks
}
