package service

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/repository"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const roleCacheTTL = 5 * time.Minute

// PersonService handles registration and role resolution for requesters,
// coordinators and managers.
type PersonService struct {
	people repository.PersonRepository
	cache  *redis.Client
	logger *zap.Logger
}

// NewPersonService constructs the service. The cache client may be nil.
func NewPersonService(people repository.PersonRepository, cache *redis.Client, logger *zap.Logger) *PersonService {
	return &PersonService{people: people, cache: cache, logger: logger}
}

// PersonRegisterInput describes the registration payload.
type PersonRegisterInput struct {
	Kind       domain.PersonKind
	Name       string
	JiraUserID string
	Email      string
	Region     string
	Role       *int
}

// Register validates and persists a person record. The identifier is
// allocated inside the repository transaction.
func (s *PersonService) Register(ctx context.Context, input PersonRegisterInput) (*domain.Person, error) {
	missing := map[string]any{}
	if input.Name == "" {
		missing["name"] = "required"
	}
	if input.JiraUserID == "" {
		missing["jiraUserId"] = "required"
	}
	if input.Email == "" {
		missing["email"] = "required"
	}
	if input.Region == "" {
		missing["region"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", missing)
	}

	if !emailPattern.MatchString(input.Email) {
		return nil, apperrors.NewValidationError("invalid email address", map[string]any{"field": "email"})
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.KindRequester
	}
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("invalid person kind", map[string]any{"field": "kind"})
	}

	role := kind.DefaultRole()
	if input.Role != nil {
		role = *input.Role
	}

	person := &domain.Person{
		Kind:       kind,
		Name:       input.Name,
		JiraUserID: input.JiraUserID,
		Email:      input.Email,
		Region:     input.Region,
		Role:       role,
	}
	if err := s.people.Create(ctx, person); err != nil {
		return nil, err
	}

	s.invalidateRole(ctx, person.Email)
	return person, nil
}

// GetByEmail resolves the person record for an email address.
func (s *PersonService) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	return s.people.GetByEmail(ctx, email)
}

// ResolveRole returns the role code for an email, consulting the redis
// cache before the store.
func (s *PersonService) ResolveRole(ctx context.Context, email string) (int, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, roleCacheKey(email)).Result(); err == nil {
			if role, convErr := strconv.Atoi(cached); convErr == nil {
				return role, nil
			}
		}
	}

	person, err := s.people.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, roleCacheKey(email), strconv.Itoa(person.Role), roleCacheTTL).Err(); err != nil {
			s.logger.Debug("role cache write failed", zap.Error(err))
		}
	}
	return person.Role, nil
}

func (s *PersonService) invalidateRole(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, roleCacheKey(email)).Err(); err != nil {
		s.logger.Debug("role cache invalidation failed", zap.Error(err))
	}
}

func roleCacheKey(email string) string {
	return "ticket-sync:role:" + email
}
