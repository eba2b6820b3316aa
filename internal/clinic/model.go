// Package clinic holds the doctor and patient records the scheduler references
// by id, and the stores that resolve them.
package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

var (
	ErrDoctorNotFound  = apperrors.Derive(apperrors.ErrNotFound, "doctor not found")
	ErrPatientNotFound = apperrors.Derive(apperrors.ErrNotFound, "patient not found")
)

type Doctor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Patient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DoctorFinder interface {
	FindDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
}

type PatientFinder interface {
	FindPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}

// Directory is the doctor and patient store. Save inserts when the id is nil
// and upserts otherwise. Deleting a doctor cascades to its availability.
type Directory interface {
	DoctorFinder
	PatientFinder

	SaveDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	SavePatient(ctx context.Context, p Patient) (*Patient, error)
}
