package permission

import "github.com/jwalitptl/eservice-api/internal/model"

var (
	managers  = []model.RoleType{model.RoleTypeManager}
	officers  = []model.RoleType{model.RoleTypeManager, model.RoleTypeStaff}
	everyone  = []model.RoleType{model.RoleTypeManager, model.RoleTypeStaff, model.RoleTypeCustomer}
	citizens  = []model.RoleType{model.RoleTypeCustomer}
	bookers   = []model.RoleType{model.RoleTypeStaff, model.RoleTypeCustomer}
	adminOnly []model.RoleType
)

// portalRoutes covers the whole portal, including handlers served elsewhere.
// Routes without an entry only require an authenticated user.
var portalRoutes = []Entry{
	{"GET /api/permissions", AnyOf(PermissionRead, RoleRead), managers},
	{"GET /api/permissions/routes", AnyOf(PermissionRead, RoleRead), managers},
	{"GET /api/roles", One(RoleRead), managers},
	{"POST /api/roles", One(RoleCreate), managers},
	{"GET /api/roles/[roleId]", One(RoleRead), managers},
	{"PUT /api/roles/[roleId]", One(RoleUpdate), managers},
	{"PUT /api/roles/[roleId]/permissions", AnyOf(RoleUpdate, RoleAssign), managers},

	{"GET /api/offices", Public(), nil},
	{"POST /api/offices", One(OfficeCreate), adminOnly},
	{"GET /api/office/[officeId]", Public(), nil},
	{"PUT /api/office/[officeId]", One(OfficeUpdate), managers},
	{"DELETE /api/office/[officeId]", One(OfficeDelete), adminOnly},
	{"GET /api/office/[officeId]/stats", One(OfficeRead), officers},
	{"GET /api/office/[officeId]/availability", AnyOf(AvailabilityRead, OfficeRead), officers},
	{"PUT /api/office/[officeId]/availability", One(AvailabilityUpdate), managers},
	{"GET /api/office/[officeId]/availability/slots", Public(), nil},
	{"GET /api/office/[officeId]/availability/check", Public(), nil},
	{"GET /api/office/[officeId]/staff", One(StaffRead), managers},
	{"POST /api/office/[officeId]/staff", One(StaffCreate), managers},
	{"DELETE /api/office/[officeId]/staff/[staffId]", One(StaffDelete), managers},

	{"GET /api/services", Public(), nil},
	{"POST /api/services", One(ServiceCreate), managers},
	{"PUT /api/services/[serviceId]", One(ServiceUpdate), managers},
	{"DELETE /api/services/[serviceId]", One(ServiceDelete), managers},

	{"GET /api/requests", One(RequestRead), everyone},
	{"POST /api/requests", One(RequestCreate), citizens},
	{"GET /api/requests/[requestId]", One(RequestRead), everyone},
	{"PUT /api/requests/[requestId]/approve", One(RequestApprove), officers},
	{"PUT /api/requests/[requestId]/reject", One(RequestReject), officers},

	{"GET /api/appointments", One(AppointmentRead), everyone},
	{"POST /api/appointments", One(AppointmentCreate), bookers},
	{"PUT /api/appointments/[appointmentId]", One(AppointmentUpdate), officers},
	{"DELETE /api/appointments/[appointmentId]", One(AppointmentCancel), everyone},

	{"GET /api/reports", One(ReportRead), managers},
	{"POST /api/reports", One(ReportCreate), officers},
	{"PUT /api/reports/[reportId]/approve", One(ReportApprove), adminOnly},

	{"GET /api/galleries", Public(), nil},
	{"POST /api/galleries", One(GalleryCreate), managers},
	{"DELETE /api/galleries/[galleryId]", One(GalleryDelete), managers},

	{"GET /api/users", One(UserRead), managers},
	{"PUT /api/users/[userId]", One(UserUpdate), adminOnly},

	{"GET /api/dashboard", One(DashboardRead), officers},
	{"GET /api/dashboard/stats", AnyOf(DashboardRead, ReportRead), managers},
}

var defaultTable = MustTable(portalRoutes)

// Routes returns the portal route table, built once at start-up.
func Routes() *Table { return defaultTable }
