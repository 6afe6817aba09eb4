package rbac

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
)

// Denial reasons returned to callers as-is.
const (
	MsgAllowed            = "OK"
	MsgUnauthorized       = "Unauthorized"
	MsgInactive           = "Account is inactive"
	MsgNoRole             = "No role assigned"
	MsgRoleNotFound       = "Role not found"
	MsgInsufficient       = "Insufficient permissions"
	MsgVerificationFailed = "Failed to verify permissions"
)

// Decision is the definite outcome of an access check. Actor is set when the
// check had to resolve the caller's role and permissions.
type Decision struct {
	Allowed    bool         `json:"allowed"`
	UserID     string       `json:"user_id,omitempty"`
	StatusCode int          `json:"status_code"`
	Message    string       `json:"message"`
	Actor      *model.Actor `json:"-"`
}

func allow(userID uuid.UUID) Decision {
	d := Decision{Allowed: true, StatusCode: http.StatusOK, Message: MsgAllowed}
	if userID != uuid.Nil {
		d.UserID = userID.String()
	}
	return d
}

func deny(status int, msg string) Decision {
	return Decision{StatusCode: status, Message: msg}
}

// ResolveActor loads the user, role, staff office and permission set behind userID.
// Errors are AppErrors: Unauthorized, Forbidden with a denial reason, or Internal.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (*model.Actor, error) {
	user, err := s.authenticate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RoleID == nil {
		return nil, apperrors.Forbidden(MsgNoRole)
	}

	role, err := s.repo.GetRole(ctx, *user.RoleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden(MsgRoleNotFound)
		}
		return nil, apperrors.Internal(err)
	}

	names, err := s.repo.GetRolePermissionNames(ctx, role.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	set, unknown := permission.SetFromNames(names)
	if len(unknown) > 0 {
		log.Warn().Str("role_id", role.ID.String()).Strs("permissions", unknown).
			Msg("role holds permissions outside the catalog")
	}

	actor := &model.Actor{
		User:        user,
		Role:        role,
		RoleType:    model.RoleTypeOf(role.Name),
		Permissions: set,
	}

	if actor.RoleType != model.RoleTypeAdmin && actor.RoleType != model.RoleTypeCustomer {
		officeID, err := s.users.GetStaffOffice(ctx, user.ID)
		switch {
		case err == nil:
			actor.OfficeID = &officeID
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, apperrors.Internal(err)
		}
	}
	return actor, nil
}

func (s *Service) authenticate(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, apperrors.Unauthorized(nil)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, apperrors.Internal(err)
	}
	if !user.IsActive() {
		return nil, apperrors.Forbidden(MsgInactive)
	}
	return user, nil
}

// RequirePermission decides whether userID satisfies req. It never returns an error.
func (s *Service) RequirePermission(ctx context.Context, userID uuid.UUID, req permission.Requirement) Decision {
	started := time.Now()
	d := s.requirePermission(ctx, userID, req)
	s.metrics.ObserveDecision(d.Allowed, d.StatusCode, started)
	return d
}

func (s *Service) requirePermission(ctx context.Context, userID uuid.UUID, req permission.Requirement) Decision {
	if req.IsPublic() {
		return allow(userID)
	}

	actor, err := s.ResolveActor(ctx, userID)
	if err != nil {
		return s.denial(userID, err)
	}
	if !req.SatisfiedBy(actor.Permissions) {
		log.Debug().
			Str("user_id", userID.String()).
			Str("role", actor.Role.Name).
			Str("required", req.String()).
			Msg("permission denied")
		return deny(http.StatusForbidden, MsgInsufficient)
	}
	d := allow(userID)
	d.Actor = actor
	return d
}

// CheckAction resolves the route requirement for method and path and decides it.
// Routes without an entry only require an active user.
func (s *Service) CheckAction(ctx context.Context, userID uuid.UUID, method, path string) Decision {
	req, ok := s.routes.Lookup(method, path)
	if ok {
		return s.RequirePermission(ctx, userID, req)
	}

	started := time.Now()
	d := allow(userID)
	if _, err := s.authenticate(ctx, userID); err != nil {
		d = s.denial(userID, err)
	}
	s.metrics.ObserveDecision(d.Allowed, d.StatusCode, started)
	return d
}

func (s *Service) denial(userID uuid.UUID, err error) Decision {
	if appErr, ok := apperrors.As(err); ok {
		switch appErr.Code {
		case apperrors.ErrUnauthorized:
			return deny(http.StatusUnauthorized, MsgUnauthorized)
		case apperrors.ErrForbidden:
			log.Debug().Str("user_id", userID.String()).Str("reason", appErr.Message).Msg("access denied")
			return deny(http.StatusForbidden, appErr.Message)
		}
	}
	log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to verify permissions")
	return deny(http.StatusForbidden, MsgVerificationFailed)
}
