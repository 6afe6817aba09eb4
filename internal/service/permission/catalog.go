package permission

import (
	"fmt"

	"github.com/jwalitptl/eservice-api/internal/model"
)

type Name = model.PermissionName

const (
	OfficeRead   Name = "office:read"
	OfficeCreate Name = "office:create"
	OfficeUpdate Name = "office:update"
	OfficeDelete Name = "office:delete"

	ServiceCreate Name = "service:create"
	ServiceUpdate Name = "service:update"
	ServiceDelete Name = "service:delete"

	RequestRead    Name = "request:read"
	RequestCreate  Name = "request:create"
	RequestApprove Name = "request:approve"
	RequestReject  Name = "request:reject"

	AppointmentRead   Name = "appointment:read"
	AppointmentCreate Name = "appointment:create"
	AppointmentUpdate Name = "appointment:update"
	AppointmentCancel Name = "appointment:cancel"

	ReportRead    Name = "report:read"
	ReportCreate  Name = "report:create"
	ReportApprove Name = "report:approve"

	RoleRead   Name = "role:read"
	RoleCreate Name = "role:create"
	RoleUpdate Name = "role:update"
	RoleAssign Name = "role:assign"

	PermissionRead Name = "permission:read"

	UserRead   Name = "user:read"
	UserUpdate Name = "user:update"

	StaffRead   Name = "staff:read"
	StaffCreate Name = "staff:create"
	StaffDelete Name = "staff:delete"

	AvailabilityRead   Name = "availability:read"
	AvailabilityUpdate Name = "availability:update"

	GalleryCreate Name = "gallery:create"
	GalleryDelete Name = "gallery:delete"

	DashboardRead Name = "dashboard:read"
)

type Definition struct {
	Name        Name
	Description string
}

// catalog is the master list, in display order.
var catalog = []Definition{
	{OfficeRead, "View offices and office statistics"},
	{OfficeCreate, "Create offices"},
	{OfficeUpdate, "Edit office details"},
	{OfficeDelete, "Remove offices"},
	{ServiceCreate, "Create services"},
	{ServiceUpdate, "Edit services"},
	{ServiceDelete, "Remove services"},
	{RequestRead, "View service requests"},
	{RequestCreate, "Submit service requests"},
	{RequestApprove, "Approve service requests"},
	{RequestReject, "Reject service requests"},
	{AppointmentRead, "View appointments"},
	{AppointmentCreate, "Book appointments"},
	{AppointmentUpdate, "Reschedule appointments"},
	{AppointmentCancel, "Cancel appointments"},
	{ReportRead, "View reports"},
	{ReportCreate, "Submit reports"},
	{ReportApprove, "Approve reports"},
	{RoleRead, "View roles"},
	{RoleCreate, "Create roles"},
	{RoleUpdate, "Edit roles"},
	{RoleAssign, "Assign permissions to roles"},
	{PermissionRead, "View the permission catalog"},
	{UserRead, "View users"},
	{UserUpdate, "Edit users"},
	{StaffRead, "View office staff"},
	{StaffCreate, "Add office staff"},
	{StaffDelete, "Remove office staff"},
	{AvailabilityRead, "View office availability settings"},
	{AvailabilityUpdate, "Edit office availability settings"},
	{GalleryCreate, "Upload gallery items"},
	{GalleryDelete, "Remove gallery items"},
	{DashboardRead, "View the dashboard"},
}

var known = func() map[Name]struct{} {
	m := make(map[Name]struct{}, len(catalog))
	for _, d := range catalog {
		if _, dup := m[d.Name]; dup {
			panic(fmt.Sprintf("permission %s declared twice", d.Name))
		}
		m[d.Name] = struct{}{}
	}
	return m
}()

// Catalog returns a copy of the master permission list.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// All returns the full catalog as a set.
func All() model.PermissionSet {
	set := make(model.PermissionSet, len(catalog))
	for _, d := range catalog {
		set.Add(d.Name)
	}
	return set
}

func IsKnown(n Name) bool {
	_, ok := known[n]
	return ok
}

// Parse validates s against the catalog.
func Parse(s string) (Name, error) {
	n := Name(s)
	if !IsKnown(n) {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return n, nil
}

// SetFromNames builds a permission set from stored names, returning the
// names that are not part of the catalog separately.
func SetFromNames(names []string) (model.PermissionSet, []string) {
	set := make(model.PermissionSet, len(names))
	var unknown []string
	for _, s := range names {
		n, err := Parse(s)
		if err != nil {
			unknown = append(unknown, s)
			continue
		}
		set.Add(n)
	}
	return set, unknown
}
