package procedurescope

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
	"github.com/woundtrack/ehr-api/internal/service/audit"
	apperrors "github.com/woundtrack/ehr-api/pkg/errors"
)

const (
	ruleCacheTTL     = 1 * time.Minute
	ruleCacheCleanup = 5 * time.Minute
)

// Service loads the per-tenant rule table and answers authorization checks.
// Rules are cached briefly so every billing save doesn't hit the database,
// but edits become visible within the TTL.
type Service struct {
	repo    repository.ProcedureScopeRepository
	auditor *audit.Service
	cache   *gocache.Cache
}

func NewService(repo repository.ProcedureScopeRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cache:   gocache.New(ruleCacheTTL, ruleCacheCleanup),
	}
}

// Rules returns the tenant's rule table, from cache when fresh.
func (s *Service) Rules(ctx context.Context, tenantID uuid.UUID) (RuleSet, error) {
	key := tenantID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(RuleSet), nil
	}

	scopes, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load procedure scopes: %w", err)
	}

	rs := NewRuleSet(scopes)
	s.cache.Set(key, rs, gocache.DefaultExpiration)
	return rs, nil
}

// CheckCodes evaluates the given CPT codes for the credential. A nil
// credential denies everything; a code with no rule is allowed.
func (s *Service) CheckCodes(ctx context.Context, tenantID uuid.UUID, credential *model.Credential, codes []string) ([]model.CodeCheck, error) {
	if len(codes) == 0 {
		return []model.CodeCheck{}, nil
	}
	rs, err := s.Rules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return rs.CheckCodes(credential, codes), nil
}

// Validate evaluates the codes and renders denial messages for any the
// credential may not document.
func (s *Service) Validate(ctx context.Context, tenantID uuid.UUID, credential *model.Credential, codes []string) (model.CodeValidation, error) {
	if len(codes) == 0 {
		return model.CodeValidation{Valid: true, Errors: []string{}}, nil
	}
	rs, err := s.Rules(ctx, tenantID)
	if err != nil {
		return model.CodeValidation{}, err
	}
	return rs.Validate(credential, codes), nil
}

// CreateScope adds a rule. Tenant-admin only; enforced by the caller's
// middleware, re-checked here so the service is safe to call directly.
func (s *Service) CreateScope(ctx context.Context, actor *model.TokenClaims, scope *model.ProcedureScope) error {
	if actor.Role != model.RoleTenantAdmin {
		return apperrors.Forbidden("only tenant admins may edit procedure scopes")
	}
	if len(scope.AllowedCredentials) == 0 {
		return apperrors.BadRequest("allowed credentials must not be empty", nil)
	}
	for _, c := range scope.AllowedCredentials {
		if !model.Credential(c).IsValid() {
			return apperrors.BadRequest(fmt.Sprintf("unknown credential %q", c), nil)
		}
	}

	scope.ID = uuid.New()
	scope.TenantID = actor.TenantID
	scope.CreatedAt = time.Now()
	scope.UpdatedAt = time.Now()

	if err := s.repo.Create(ctx, scope); err != nil {
		return fmt.Errorf("failed to create procedure scope: %w", err)
	}

	s.cache.Delete(actor.TenantID.String())
	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "create", "procedure_scope", scope.ID, &audit.LogOptions{
		Changes: scope,
	})
	return nil
}

// UpdateScope edits a rule in place. Scopes are never hard-deleted; an admin
// supersedes one by shrinking or growing its allowed set.
func (s *Service) UpdateScope(ctx context.Context, actor *model.TokenClaims, scope *model.ProcedureScope) error {
	if actor.Role != model.RoleTenantAdmin {
		return apperrors.Forbidden("only tenant admins may edit procedure scopes")
	}
	if len(scope.AllowedCredentials) == 0 {
		return apperrors.BadRequest("allowed credentials must not be empty", nil)
	}

	scope.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, scope); err != nil {
		return fmt.Errorf("failed to update procedure scope: %w", err)
	}

	s.cache.Delete(actor.TenantID.String())
	s.auditor.Log(ctx, actor.UserID, actor.TenantID, "update", "procedure_scope", scope.ID, &audit.LogOptions{
		Changes: scope,
	})
	return nil
}

func (s *Service) GetScope(ctx context.Context, id uuid.UUID) (*model.ProcedureScope, error) {
	scope, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure scope: %w", err)
	}
	return scope, nil
}

func (s *Service) ListScopes(ctx context.Context, tenantID uuid.UUID) ([]*model.ProcedureScope, error) {
	scopes, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedure scopes: %w", err)
	}
	return scopes, nil
}
