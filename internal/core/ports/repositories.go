package ports

import (
	"context"
	"time"

	"github.com/soundpin/soundpin/internal/core/domain"
)

// UpdatePatch is a partial pin update. Nil fields are left untouched.
type UpdatePatch struct {
	Title        *string
	Status       *domain.PinStatus
	AIAnalysis   *domain.AIAnalysis
	ReportReason *string
}

// PinFilter selects pins along up to three dimensions. Nil/empty fields
// mean no constraint on that dimension. Filters are ANDed.
type PinFilter struct {
	Bounds     *domain.GeoBounds
	Start      *time.Time // inclusive
	End        *time.Time // inclusive
	Categories []string
	Weather    []string
}

// PinRepository persists pins. It exclusively owns storage: it returns
// fully-formed pins or domain.ErrNotFound. Implementations decide hard vs
// soft delete; callers only observe that a deleted id stops resolving.
// No transactional batch semantics are assumed by the core.
type PinRepository interface {
	Create(ctx context.Context, pin *domain.Pin) (*domain.Pin, error)
	GetByID(ctx context.Context, id string) (*domain.Pin, error)
	Update(ctx context.Context, id string, patch UpdatePatch) (*domain.Pin, error)
	Delete(ctx context.Context, id string) (bool, error)
	QueryByBounds(ctx context.Context, bounds domain.GeoBounds, limit int, categories []string) ([]domain.Pin, error)
	QueryByFilter(ctx context.Context, filter PinFilter) ([]domain.Pin, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Pin, error)
}
