package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PermissionName is a resource:action capability, e.g. "report:approve".
type PermissionName string

type RoleType string

const (
	RoleTypeAdmin    RoleType = "admin"
	RoleTypeManager  RoleType = "manager"
	RoleTypeStaff    RoleType = "staff"
	RoleTypeCustomer RoleType = "customer"
	RoleTypeCustom   RoleType = "custom"
)

// Role names with built-in meaning. Lookups are case-insensitive.
const (
	RoleNameAdmin         = "admin"
	RoleNameAdministrator = "administrator"
	RoleNameManager       = "manager"
	RoleNameOfficeManager = "office_manager"
	RoleNameStaff         = "staff"
	RoleNameCustomer      = "customer"
)

type Role struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	OfficeID    *uuid.UUID `db:"office_id" json:"office_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsGlobal reports whether the role is not owned by any office.
func (r *Role) IsGlobal() bool {
	return r.OfficeID == nil
}

type Permission struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type RolePermission struct {
	RoleID       uuid.UUID `db:"role_id" json:"role_id"`
	PermissionID uuid.UUID `db:"permission_id" json:"permission_id"`
}

// RoleFilter selects roles. No office and no GlobalOnly means every role.
type RoleFilter struct {
	OfficeID      *uuid.UUID
	IncludeGlobal bool
	GlobalOnly    bool
	Search        string
}

// RoleView is a role with its assigned permission names.
type RoleView struct {
	*Role
	Permissions        []string `json:"permissions"`
	HasFullPermissions bool     `json:"has_full_permissions"`
}

type CreateRoleInput struct {
	Name          string      `json:"name" binding:"required,max=100"`
	Description   string      `json:"description" binding:"max=500"`
	OfficeID      *uuid.UUID  `json:"office_id"`
	PermissionIDs []uuid.UUID `json:"permission_ids"`
}

type UpdateRoleInput struct {
	Name          *string      `json:"name" binding:"omitempty,max=100"`
	Description   *string      `json:"description" binding:"omitempty,max=500"`
	PermissionIDs *[]uuid.UUID `json:"permission_ids"`
}

type AssignPermissionsInput struct {
	PermissionIDs []uuid.UUID `json:"permission_ids"`
}

type AssignResult struct {
	Success       bool `json:"success"`
	AssignedCount int  `json:"assigned_count"`
}

// PermissionSet is the set of permission names held by a role.
type PermissionSet map[PermissionName]struct{}

func NewPermissionSet(names ...PermissionName) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s PermissionSet) Add(name PermissionName) {
	s[name] = struct{}{}
}

func (s PermissionSet) Has(name PermissionName) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether the set holds at least one of names.
func (s PermissionSet) HasAny(names ...PermissionName) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// Contains reports whether every permission in other is in s.
func (s PermissionSet) Contains(other PermissionSet) bool {
	for n := range other {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Names returns the members in sorted order.
func (s PermissionSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, string(n))
	}
	sort.Strings(out)
	return out
}

// NormalizeRoleName lower-cases and trims a role name for comparisons.
func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RoleTypeOf classifies a role name; admin/administrator and manager/office_manager are synonyms.
func RoleTypeOf(name string) RoleType {
	switch NormalizeRoleName(name) {
	case RoleNameAdmin, RoleNameAdministrator:
		return RoleTypeAdmin
	case RoleNameManager, RoleNameOfficeManager:
		return RoleTypeManager
	case RoleNameStaff:
		return RoleTypeStaff
	case RoleNameCustomer:
		return RoleTypeCustomer
	default:
		return RoleTypeCustom
	}
}

// IsReservedRoleName reports whether only administrators may create or rename into name.
func IsReservedRoleName(name string) bool {
	t := RoleTypeOf(name)
	return t == RoleTypeAdmin || t == RoleTypeManager
}

// Actor is the resolved identity behind a request.
type Actor struct {
	User        *User
	Role        *Role
	RoleType    RoleType
	OfficeID    *uuid.UUID
	Permissions PermissionSet
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.RoleType == RoleTypeAdmin
}

func (a *Actor) IsManager() bool {
	return a != nil && a.RoleType == RoleTypeManager
}

// ManagesOffice reports whether the actor is a manager assigned to officeID.
func (a *Actor) ManagesOffice(officeID uuid.UUID) bool {
	return a.IsManager() && a.OfficeID != nil && *a.OfficeID == officeID
}
