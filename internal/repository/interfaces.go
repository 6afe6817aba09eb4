package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// PermissionResolver computes the final permission ids for a role while its row is locked.
type PermissionResolver func(role *model.Role) ([]uuid.UUID, error)

// All repository interfaces in one file
type (
	RBACRepository interface {
		CreateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error
		GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error)
		GetRoleByName(ctx context.Context, name string, officeID *uuid.UUID) (*model.Role, error)
		// UpdateRole saves name and description. With a non-nil resolve the
		// permission set is replaced in the same transaction; the count is the
		// number of ids assigned.
		UpdateRole(ctx context.Context, role *model.Role, resolve PermissionResolver) (int, error)
		ListRoles(ctx context.Context, filter model.RoleFilter) ([]*model.Role, error)
		// EnsureGlobalRole returns the global role with role.Name, inserting it when absent.
		EnsureGlobalRole(ctx context.Context, role *model.Role) (*model.Role, bool, error)
		// ReplaceRolePermissions swaps a role's permission set in one transaction
		// holding the role row lock. It returns the number of ids assigned.
		ReplaceRolePermissions(ctx context.Context, roleID uuid.UUID, resolve PermissionResolver) (int, error)
		GetRolePermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error)

		ListPermissions(ctx context.Context) ([]*model.Permission, error)
		GetPermissionsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Permission, error)
		UpsertPermissions(ctx context.Context, permissions []*model.Permission) error
	}

	UserRepository interface {
		GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
		// GetStaffOffice returns ErrNotFound when the user has no staff assignment.
		GetStaffOffice(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	}

	OfficeRepository interface {
		GetOffice(ctx context.Context, id uuid.UUID) (*model.Office, error)
	}

	AvailabilityRepository interface {
		// GetOrCreate inserts defaults unless the office already has a row, and returns the stored row.
		GetOrCreate(ctx context.Context, defaults *model.OfficeAvailability) (*model.OfficeAvailability, error)
		Upsert(ctx context.Context, cfg *model.OfficeAvailability) (*model.OfficeAvailability, error)
	}

	AppointmentRepository interface {
		// ListBookedTimes returns start times of non-cancelled appointments at the office on date.
		ListBookedTimes(ctx context.Context, officeID uuid.UUID, date string) ([]string, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending marks up to limit due events as processing and returns them.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
