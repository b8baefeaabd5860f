package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"zaanjob-backend/internal/domain"
)

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// SlugStrategy matches the slug column exactly.
type SlugStrategy struct{ Repo domain.ResumeRepository }

func (SlugStrategy) Name() string { return "slug" }

func (s SlugStrategy) Resolve(ctx context.Context, identifier string) (*domain.Resume, error) {
	return s.Repo.GetBySlug(ctx, identifier)
}

// IDStrategy matches the id column, and only runs for UUID-shaped input.
type IDStrategy struct{ Repo domain.ResumeRepository }

func (IDStrategy) Name() string { return "id" }

func (s IDStrategy) Resolve(ctx context.Context, identifier string) (*domain.Resume, error) {
	if !uuidPattern.MatchString(identifier) {
		return nil, nil
	}
	return s.Repo.GetByID(ctx, strings.ToLower(identifier))
}

// NameStrategy does a case-insensitive substring match over first, last
// and full name and takes any one hit.
type NameStrategy struct{ Repo domain.ResumeRepository }

func (NameStrategy) Name() string { return "name" }

func (s NameStrategy) Resolve(ctx context.Context, identifier string) (*domain.Resume, error) {
	return s.Repo.FindByName(ctx, identifier)
}

// ReadStrategies is the full lookup order used for public reads.
func ReadStrategies(repo domain.ResumeRepository) []domain.ResolveStrategy {
	return []domain.ResolveStrategy{SlugStrategy{repo}, IDStrategy{repo}, NameStrategy{repo}}
}

// MutationStrategies never guesses by name.
func MutationStrategies(repo domain.ResumeRepository) []domain.ResolveStrategy {
	return []domain.ResolveStrategy{SlugStrategy{repo}, IDStrategy{repo}}
}

// Resolver tries each strategy in order and stops at the first hit.
type Resolver struct {
	strategies []domain.ResolveStrategy
	log        *slog.Logger
}

func NewResolver(log *slog.Logger, strategies ...domain.ResolveStrategy) *Resolver {
	return &Resolver{strategies: strategies, log: log}
}

// Resolve returns the matched resume and the name of the strategy that
// found it. When nothing matches it returns domain.ErrNotFound, unless a
// strategy failed, in which case that failure is returned.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*domain.Resume, string, error) {
	var firstErr error
	for _, s := range r.strategies {
		resume, err := s.Resolve(ctx, identifier)
		if err != nil {
			r.log.Warn("resolve strategy failed", "strategy", s.Name(), "identifier", identifier, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s lookup: %w", s.Name(), err)
			}
			continue
		}
		if resume != nil {
			return resume, s.Name(), nil
		}
	}
	if firstErr != nil {
		return nil, "", firstErr
	}
	return nil, "", domain.ErrNotFound
}

// IsNotFound reports whether err is the resolver's not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
