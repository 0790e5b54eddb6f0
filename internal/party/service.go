package party

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"insurechain/internal/audit"
	dErrors "insurechain/pkg/domain-errors"
)

// PartyStore is the persistence contract for registered organizations.
type PartyStore interface {
	CreateIfNameAvailable(ctx context.Context, p *Party) error
	FindByName(ctx context.Context, name string) (*Party, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)
	Names(ctx context.Context, role Role) ([]string, error)
}

// AuditPublisher records authentication outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service manages organization registration and authentication.
type Service struct {
	parties        PartyStore
	tokens         *TokenService
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs a Service.
func New(parties PartyStore, tokens *TokenService, opts ...Option) *Service {
	s := &Service{parties: parties, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new organization with a bcrypt-hashed API secret.
func (s *Service) Register(ctx context.Context, name string, role Role, secret string) (*Party, error) {
	name = strings.TrimSpace(name)
	if len(secret) < 8 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "secret must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	p, err := NewParty(uuid.New(), name, role, hash, time.Now().UTC())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.parties.CreateIfNameAvailable(ctx, p); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{
		Actor:   p.Name,
		Action:  string(audit.ActionPartyRegistered),
		Subject: p.ID.String(),
	})
	return p, nil
}

// Authenticate checks name and secret and issues an access token.
func (s *Service) Authenticate(ctx context.Context, name, secret string) (string, *Party, error) {
	p, err := s.parties.FindByName(ctx, name)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.authFailed(ctx, name, "unknown party")
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	if !p.Active {
		s.authFailed(ctx, name, "party is inactive")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "party is inactive")
	}
	if err := bcrypt.CompareHashAndPassword(p.SecretHash, []byte(secret)); err != nil {
		s.authFailed(ctx, name, "bad secret")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Generate(p)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	s.logAudit(ctx, audit.Event{
		Actor:   p.Name,
		Action:  string(audit.ActionPartyAuthenticated),
		Subject: p.ID.String(),
	})
	return token, p, nil
}

// Names lists registered organization names for a role. The mirror's status
// descriptor reports hospital names alongside store sizes.
func (s *Service) Names(ctx context.Context, role Role) ([]string, error) {
	return s.parties.Names(ctx, role)
}

func (s *Service) authFailed(ctx context.Context, name, reason string) {
	if s.logger != nil {
		s.logger.Warn("authentication failed", "party", name, "reason", reason)
	}
	s.logAudit(ctx, audit.Event{
		Actor:    name,
		Action:   string(audit.ActionAuthFailed),
		Decision: "denied",
		Reason:   reason,
	})
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("failed to emit audit event", "action", event.Action, "error", err)
	}
}
