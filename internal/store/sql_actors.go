package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"movie-service/internal/domain"
)

func (s *SQLStore) ListActors(ctx context.Context) ([]domain.ActorShort, error) {
	actors := []domain.ActorShort{}
	if err := s.db.SelectContext(ctx, &actors, `SELECT id, name, image FROM actors ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	return actors, nil
}

func (s *SQLStore) GetActor(ctx context.Context, id int64) (*domain.Actor, error) {
	var a domain.Actor
	err := s.db.GetContext(ctx, &a, s.q(`SELECT id, name, age, description, image FROM actors WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return &a, nil
}
