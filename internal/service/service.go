package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"kedaipos/backend/internal/cache"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/obs"
	"kedaipos/backend/internal/receipt"
	"kedaipos/backend/internal/store"
	"kedaipos/backend/internal/xid"
)

var (
	// ErrPersistence wraps storage failures that are not one of the store
	// sentinels. The operation had no effect.
	ErrPersistence = errors.New("persistence failure")
	ErrForbidden   = errors.New("forbidden")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// TerminalFromContext is the terminal id of the request actor, or "".
func TerminalFromContext(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.TerminalID
}

type Settings struct {
	StoreName         string
	CurrencyLabel     string
	CurrencyExponent  int32
	Location          *time.Location
	LowStockThreshold int
	CartLockTTL       time.Duration
}

type Service struct {
	repo     store.Repository
	carts    cache.CartStore
	locker   cache.Locker
	settings Settings
	logger   zerolog.Logger
	metrics  *obs.DomainMetrics
	validate *validator.Validate
	now      func() time.Time
}

func New(repo store.Repository, carts cache.CartStore, locker cache.Locker, settings Settings, logger zerolog.Logger, metrics *obs.DomainMetrics) *Service {
	if carts == nil {
		carts = cache.NewMemoryCartStore()
	}
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if settings.StoreName == "" {
		settings.StoreName = "Kedai POS"
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.LowStockThreshold < 1 {
		settings.LowStockThreshold = domain.LowStockThreshold
	}
	if settings.CartLockTTL <= 0 {
		settings.CartLockTTL = 15 * time.Second
	}

	return &Service{
		repo:     repo,
		carts:    carts,
		locker:   locker,
		settings: settings,
		logger:   logger.With().Str("component", "service").Logger(),
		metrics:  metrics,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) requireSeller(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.TerminalID == "" {
		return domain.Actor{}, fmt.Errorf("%w: terminal session required", ErrForbidden)
	}
	if actor.Role != domain.RoleCashier && actor.Role != domain.RoleManager {
		return domain.Actor{}, fmt.Errorf("%w: role %q cannot sell", ErrForbidden, actor.Role)
	}
	return actor, nil
}

func (s *Service) requireManager(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleManager {
		return domain.Actor{}, fmt.Errorf("%w: manager role required", ErrForbidden)
	}
	return actor, nil
}

func (s *Service) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", store.ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) receiptOptions() receipt.Options {
	return receipt.Options{
		StoreName:     s.settings.StoreName,
		CurrencyLabel: s.settings.CurrencyLabel,
		Exponent:      s.settings.CurrencyExponent,
		Location:      s.settings.Location,
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{TerminalID: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		TerminalID: actor.TerminalID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).
			Str("action", action).
			Str("entity", entityType+"/"+entityID).
			Msg("failed to write audit log")
	}
}

// persistence passes store sentinels through and wraps anything else in
// ErrPersistence.
func persistence(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		store.ErrNotFound,
		store.ErrInsufficientStock,
		store.ErrInvalidInput,
		store.ErrConflict,
		ErrPersistence,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}
