package patient

import (
	"time"

	"github.com/google/uuid"
)

// Status is a patient's lifecycle state.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusDischarged Status = "DISCHARGED"
)

// DiagnosisStatus tracks whether a diagnosis is still current.
type DiagnosisStatus string

const (
	DiagnosisActive   DiagnosisStatus = "ACTIVE"
	DiagnosisResolved DiagnosisStatus = "RESOLVED"
	DiagnosisChronic  DiagnosisStatus = "CHRONIC"
)

// MedicationStatus tracks a prescription's state.
type MedicationStatus string

const (
	MedicationActive       MedicationStatus = "ACTIVE"
	MedicationCompleted    MedicationStatus = "COMPLETED"
	MedicationDiscontinued MedicationStatus = "DISCONTINUED"
)

// Patient is one patient record with its demographics. Diagnoses and
// medications are loaded separately and attached by the service.
type Patient struct {
	ID                    uuid.UUID    `json:"id"`
	FirstName             string       `json:"firstName"`
	LastName              string       `json:"lastName"`
	DateOfBirth           string       `json:"dateOfBirth,omitempty"`
	Gender                string       `json:"gender,omitempty"`
	Email                 string       `json:"email,omitempty"`
	Phone                 string       `json:"phone,omitempty"`
	Address               string       `json:"address,omitempty"`
	City                  string       `json:"city,omitempty"`
	State                 string       `json:"state,omitempty"`
	ZipCode               string       `json:"zipCode,omitempty"`
	EmergencyContactName  string       `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string       `json:"emergencyContactPhone,omitempty"`
	Status                Status       `json:"status"`
	CreatedAt             time.Time    `json:"createdAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
	Diagnoses             []Diagnosis  `json:"diagnoses"`
	Medications           []Medication `json:"medications"`
}

// Diagnosis is one coded diagnosis attached to a patient.
type Diagnosis struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     uuid.UUID       `json:"patientId"`
	ICDCode       string          `json:"icdCode"`
	Description   string          `json:"description,omitempty"`
	DiagnosisDate string          `json:"diagnosisDate,omitempty"`
	Status        DiagnosisStatus `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Medication is one prescription attached to a patient.
type Medication struct {
	ID              uuid.UUID        `json:"id"`
	PatientID       uuid.UUID        `json:"patientId"`
	Name            string           `json:"name"`
	Dosage          string           `json:"dosage,omitempty"`
	Frequency       string           `json:"frequency,omitempty"`
	Status          MedicationStatus `json:"status"`
	StartDate       string           `json:"startDate,omitempty"`
	EndDate         string           `json:"endDate,omitempty"`
	Contraindicated bool             `json:"contraindicated"`
	WashoutDays     int              `json:"washoutDays,omitempty"`
	WashoutNotes    string           `json:"washoutNotes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
