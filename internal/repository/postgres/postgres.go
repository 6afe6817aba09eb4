package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/eservice-api/internal/repository"
)

// Repositories bundles every store over one connection pool.
type Repositories struct {
	RBAC         repository.RBACRepository
	Users        repository.UserRepository
	Offices      repository.OfficeRepository
	Availability repository.AvailabilityRepository
	Appointments repository.AppointmentRepository
	Outbox       repository.OutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		RBAC:         NewRBACRepository(base),
		Users:        NewUserRepository(base),
		Offices:      NewOfficeRepository(base),
		Availability: NewAvailabilityRepository(base),
		Appointments: NewAppointmentRepository(base),
		Outbox:       NewOutboxRepository(base),
	}
}
