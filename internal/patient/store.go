package patient

import (
	"context"

	"github.com/google/uuid"
)

// Store is the patient record store with its child collections.
type Store interface {
	Create(ctx context.Context, p *Patient) error
	Find(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindByEmail(ctx context.Context, email string) (*Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error

	AddDiagnosis(ctx context.Context, d *Diagnosis) error
	FindDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	DiagnosesFor(ctx context.Context, patientID uuid.UUID) ([]Diagnosis, error)
	UpdateDiagnosis(ctx context.Context, d *Diagnosis) error
	DeleteDiagnosis(ctx context.Context, id uuid.UUID) error

	AddMedication(ctx context.Context, m *Medication) error
	FindMedication(ctx context.Context, id uuid.UUID) (*Medication, error)
	MedicationsFor(ctx context.Context, patientID uuid.UUID) ([]Medication, error)
	ContraindicationsFor(ctx context.Context, patientID uuid.UUID) ([]Medication, error)
	UpdateMedication(ctx context.Context, m *Medication) error
	DeleteMedication(ctx context.Context, id uuid.UUID) error
}
