package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"movie-service/internal/cache"
	"movie-service/internal/clients"
	"movie-service/internal/store"
	"movie-service/pkg/auth"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, a *app) error {
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(ctx, db); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Database schema is up to date")
	return nil
}

type SeedStarsCmd struct {
	Values []int `arg:"" optional:"" help:"Star values to insert (default 1..10)."`
}

func (c *SeedStarsCmd) Run(ctx context.Context, a *app) error {
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	values := c.Values
	if len(values) == 0 {
		values = store.DefaultStars()
	}
	s, err := store.NewSQLStore(db, a.logger)
	if err != nil {
		return err
	}
	if err := s.EnsureStars(ctx, values); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Rating stars ensured", slog.Any("values", values))
	return nil
}

type PublishCmd struct {
	MovieID   int64 `arg:"" name:"movie-id" help:"Movie ID."`
	Unpublish bool  `help:"Mark the movie as draft instead."`
}

func (c *PublishCmd) Run(ctx context.Context, a *app) error {
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := store.NewSQLStore(db, a.logger)
	if err != nil {
		return err
	}
	respCache, err := a.openSharedCache()
	if err != nil {
		return err
	}
	if respCache == nil {
		a.logger.WarnContext(ctx, "No shared cache configured; running servers drop the cached movie card within cache.ttl",
			slog.Duration("ttl", a.cfg.Cache.TTL))
	} else {
		defer respCache.Close()
	}
	if err := publishMovie(ctx, s, respCache, c.MovieID, c.Unpublish); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Movie draft flag updated", slog.Int64("movieID", c.MovieID), slog.Bool("draft", c.Unpublish))
	return nil
}

// publishMovie меняет флаг черновика и сбрасывает карточку фильма в кэше.
// respCache может быть nil.
func publishMovie(ctx context.Context, s store.Curator, respCache cache.Cache, movieID int64, draft bool) error {
	if err := s.SetDraft(ctx, movieID, draft); err != nil {
		return err
	}
	if respCache == nil {
		return nil
	}
	if err := respCache.Delete(ctx, cache.MovieDetailKey(movieID)); err != nil {
		return fmt.Errorf("movie %d updated but cache invalidation failed: %w", movieID, err)
	}
	return nil
}

type HashPasswordCmd struct {
	Password string `arg:"" optional:"" help:"Password to hash; read from stdin when omitted."`
}

func (c *HashPasswordCmd) Run(a *app) error {
	password := c.Password
	if password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

type LookupCmd struct {
	MovieID int64  `arg:"" name:"movie-id" help:"Movie ID."`
	Addr    string `help:"gRPC address of the catalog (default server.grpc_addr)."`
}

func (c *LookupCmd) Run(ctx context.Context, a *app) error {
	addr := c.Addr
	if addr == "" {
		addr = a.cfg.Server.GRPCAddr
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	client, err := clients.NewCatalogGRPCClient(addr, a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.GetMovieInfo(ctx, c.MovieID)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(map[string]any{
		"id":          info.ID,
		"title":       info.Title,
		"year":        info.Year,
		"middle_star": info.MiddleStar,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
