package repositories

import (
	"context"

	"github.com/diasporalink/backend/internal/models"
)

// RegistrationRepository defines data access for visitor registrations.
type RegistrationRepository interface {
	Create(ctx context.Context, registration models.Registration) (models.Registration, error)
	List(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error)
	FindByID(ctx context.Context, id string) (models.Registration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (models.Registration, error)
	Delete(ctx context.Context, id string) error
}

// documentPtr constrains P to a pointer to T that carries document identity.
type documentPtr[T any] interface {
	*T
	models.Document
}
