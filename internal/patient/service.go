package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service implements patient record operations on top of a Store.
type Service struct {
	store Store
}

// NewService constructs the patient service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("patient: store is required")
	}
	return &Service{store: store}, nil
}

// CreatePatientRequest carries a new patient's demographics.
type CreatePatientRequest struct {
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	DateOfBirth           string `json:"dateOfBirth"`
	Gender                string `json:"gender"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	ZipCode               string `json:"zipCode"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
}

// UpdatePatientRequest is the full-replace update payload.
type UpdatePatientRequest struct {
	CreatePatientRequest
	Status Status `json:"status"`
}

// Create registers a patient. New patients always start ACTIVE. A non-empty
// email must be unique across patients.
func (s *Service) Create(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email != "" {
		if _, err := s.store.FindByEmail(ctx, email); err == nil {
			return nil, ErrDuplicateEmail
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	p := &Patient{
		ID:                    uuid.New(),
		FirstName:             first,
		LastName:              last,
		DateOfBirth:           req.DateOfBirth,
		Gender:                req.Gender,
		Email:                 email,
		Phone:                 req.Phone,
		Address:               req.Address,
		City:                  req.City,
		State:                 req.State,
		ZipCode:               req.ZipCode,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		Status:                StatusActive,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	p.Diagnoses = []Diagnosis{}
	p.Medications = []Medication{}
	return p, nil
}

// Get loads a patient with its diagnoses and medications attached.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attachChildren(ctx, p)
}

// List returns all patients with children attached.
func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	patients, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		if _, err := s.attachChildren(ctx, p); err != nil {
			return nil, err
		}
	}
	return patients, nil
}

// Update replaces a patient's demographics and status. An email change to an
// address another patient holds is a conflict.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePatientRequest) (*Patient, error) {
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email != "" && email != p.Email {
		if _, err := s.store.FindByEmail(ctx, email); err == nil {
			return nil, ErrDuplicateEmail
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	status := req.Status
	if status == "" {
		status = p.Status
	}
	switch status {
	case StatusActive, StatusInactive, StatusDischarged:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	p.FirstName = strings.TrimSpace(req.FirstName)
	p.LastName = strings.TrimSpace(req.LastName)
	p.DateOfBirth = req.DateOfBirth
	p.Gender = req.Gender
	p.Email = email
	p.Phone = req.Phone
	p.Address = req.Address
	p.City = req.City
	p.State = req.State
	p.ZipCode = req.ZipCode
	p.EmergencyContactName = req.EmergencyContactName
	p.EmergencyContactPhone = req.EmergencyContactPhone
	p.Status = status
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.attachChildren(ctx, p)
}

// CreateDiagnosisRequest carries a diagnosis payload.
type CreateDiagnosisRequest struct {
	ICDCode       string          `json:"icdCode"`
	Description   string          `json:"description"`
	DiagnosisDate string          `json:"diagnosisDate"`
	Status        DiagnosisStatus `json:"status"`
}

// AddDiagnosis attaches a diagnosis to an existing patient.
func (s *Service) AddDiagnosis(ctx context.Context, patientID uuid.UUID, req CreateDiagnosisRequest) (*Diagnosis, error) {
	if strings.TrimSpace(req.ICDCode) == "" {
		return nil, fmt.Errorf("%w: icd code is required", ErrInvalidInput)
	}
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	status := req.Status
	if status == "" {
		status = DiagnosisActive
	}
	d := &Diagnosis{
		ID:            uuid.New(),
		PatientID:     patientID,
		ICDCode:       strings.TrimSpace(req.ICDCode),
		Description:   req.Description,
		DiagnosisDate: req.DiagnosisDate,
		Status:        status,
	}
	if err := s.store.AddDiagnosis(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Diagnoses lists a patient's diagnoses.
func (s *Service) Diagnoses(ctx context.Context, patientID uuid.UUID) ([]Diagnosis, error) {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.DiagnosesFor(ctx, patientID)
}

// UpdateDiagnosis replaces a diagnosis. The diagnosis must belong to the
// named patient; a mismatch reads as not found rather than forbidden.
func (s *Service) UpdateDiagnosis(ctx context.Context, patientID, diagnosisID uuid.UUID, req CreateDiagnosisRequest) (*Diagnosis, error) {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	d, err := s.store.FindDiagnosis(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	if d.PatientID != patientID {
		return nil, ErrNotFound
	}
	d.ICDCode = strings.TrimSpace(req.ICDCode)
	d.Description = req.Description
	d.DiagnosisDate = req.DiagnosisDate
	if req.Status != "" {
		d.Status = req.Status
	}
	if err := s.store.UpdateDiagnosis(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDiagnosis removes a diagnosis belonging to the named patient.
func (s *Service) DeleteDiagnosis(ctx context.Context, patientID, diagnosisID uuid.UUID) error {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	d, err := s.store.FindDiagnosis(ctx, diagnosisID)
	if err != nil {
		return err
	}
	if d.PatientID != patientID {
		return ErrNotFound
	}
	return s.store.DeleteDiagnosis(ctx, d.ID)
}

// CreateMedicationRequest carries a medication payload.
type CreateMedicationRequest struct {
	Name            string           `json:"name"`
	Dosage          string           `json:"dosage"`
	Frequency       string           `json:"frequency"`
	Status          MedicationStatus `json:"status"`
	StartDate       string           `json:"startDate"`
	EndDate         string           `json:"endDate"`
	Contraindicated bool             `json:"contraindicated"`
	WashoutDays     int              `json:"washoutDays"`
	WashoutNotes    string           `json:"washoutNotes"`
}

// AddMedication attaches a medication to an existing patient.
func (s *Service) AddMedication(ctx context.Context, patientID uuid.UUID, req CreateMedicationRequest) (*Medication, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: medication name is required", ErrInvalidInput)
	}
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	status := req.Status
	if status == "" {
		status = MedicationActive
	}
	m := &Medication{
		ID:              uuid.New(),
		PatientID:       patientID,
		Name:            strings.TrimSpace(req.Name),
		Dosage:          req.Dosage,
		Frequency:       req.Frequency,
		Status:          status,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Contraindicated: req.Contraindicated,
		WashoutDays:     req.WashoutDays,
		WashoutNotes:    req.WashoutNotes,
	}
	if err := s.store.AddMedication(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Medications lists a patient's medications.
func (s *Service) Medications(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.MedicationsFor(ctx, patientID)
}

// Contraindications lists only the medications flagged contraindicated.
func (s *Service) Contraindications(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.ContraindicationsFor(ctx, patientID)
}

// UpdateMedication replaces a medication belonging to the named patient.
func (s *Service) UpdateMedication(ctx context.Context, patientID, medicationID uuid.UUID, req CreateMedicationRequest) (*Medication, error) {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	m, err := s.store.FindMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if m.PatientID != patientID {
		return nil, ErrNotFound
	}
	m.Name = strings.TrimSpace(req.Name)
	m.Dosage = req.Dosage
	m.Frequency = req.Frequency
	if req.Status != "" {
		m.Status = req.Status
	}
	m.StartDate = req.StartDate
	m.EndDate = req.EndDate
	m.Contraindicated = req.Contraindicated
	m.WashoutDays = req.WashoutDays
	m.WashoutNotes = req.WashoutNotes
	if err := s.store.UpdateMedication(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMedication removes a medication belonging to the named patient.
func (s *Service) DeleteMedication(ctx context.Context, patientID, medicationID uuid.UUID) error {
	if ok, err := s.store.Exists(ctx, patientID); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	m, err := s.store.FindMedication(ctx, medicationID)
	if err != nil {
		return err
	}
	if m.PatientID != patientID {
		return ErrNotFound
	}
	return s.store.DeleteMedication(ctx, m.ID)
}

func (s *Service) attachChildren(ctx context.Context, p *Patient) (*Patient, error) {
	diagnoses, err := s.store.DiagnosesFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	medications, err := s.store.MedicationsFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if diagnoses == nil {
		diagnoses = []Diagnosis{}
	}
	if medications == nil {
		medications = []Medication{}
	}
	p.Diagnoses = diagnoses
	p.Medications = medications
	return p, nil
}
