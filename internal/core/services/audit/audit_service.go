package audit

import (
	"context"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

type actorKey struct{}

// WithActor attaches the authenticated user to the context so that audit
// entries record who performed the action. Handlers set it after token
// validation; entries without an actor fall back to "system".
func WithActor(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, actorKey{}, user)
}

// ActorFrom extracts the authenticated user from the context, if present.
func ActorFrom(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(actorKey{}).(*domain.User)
	return u, ok && u != nil
}

type AuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, target, details string) error {
	userID := "system"
	username := "system"

	if u, ok := ActorFrom(ctx); ok {
		userID = u.ID
		username = u.Username
	}

	entry, err := domain.NewAuditLog(userID, username, action, target, details, "")
	if err != nil {
		return err
	}

	return s.repo.SaveAuditLog(ctx, *entry)
}

func (s *AuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}
