package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"carebase.org/internal/audit"
	"carebase.org/internal/patient"
)

// handlePatients routes /api/patients: create and list. All patient record
// operations require an authenticated caller; any role may access them.
func (a *API) handlePatients(w http.ResponseWriter, r *http.Request) {
	if a.patients == nil {
		writeError(w, r, http.StatusServiceUnavailable, "patient service unavailable")
		return
	}
	if _, ok := a.requireAuthenticated(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req patient.CreatePatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.patients.Create(r.Context(), req)
		if err != nil {
			handlePatientError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "patient.created", map[string]any{
			"patient_id": p.ID.String(),
		})
		w.Header().Set("Location", fmt.Sprintf("/api/patients/%s", p.ID))
		writeJSON(w, http.StatusCreated, p)
	case http.MethodGet:
		patients, err := a.patients.List(r.Context())
		if err != nil {
			handlePatientError(w, r, err)
			return
		}
		if patients == nil {
			patients = []*patient.Patient{}
		}
		writeJSON(w, http.StatusOK, patients)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handlePatientScoped routes /api/patients/{id} and the diagnosis and
// medication subresources beneath it.
func (a *API) handlePatientScoped(w http.ResponseWriter, r *http.Request) {
	if a.patients == nil {
		writeError(w, r, http.StatusServiceUnavailable, "patient service unavailable")
		return
	}
	if _, ok := a.requireAuthenticated(w, r); !ok {
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/patients/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	patientID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid patient id")
		return
	}

	switch {
	case len(parts) == 1:
		a.handlePatientByID(w, r, patientID)
	case parts[1] == "diagnoses":
		a.handleDiagnoses(w, r, patientID, parts[2:])
	case parts[1] == "medications":
		a.handleMedications(w, r, patientID, parts[2:])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handlePatientByID(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	switch r.Method {
	case http.MethodGet:
		p, err := a.patients.Get(r.Context(), id)
		if err != nil {
			handlePatientError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var req patient.UpdatePatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.patients.Update(r.Context(), id, req)
		if err != nil {
			handlePatientError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "patient.updated", map[string]any{
			"patient_id": id.String(),
		})
		writeJSON(w, http.StatusOK, p)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleDiagnoses(w http.ResponseWriter, r *http.Request, patientID uuid.UUID, rest []string) {
	switch len(rest) {
	case 0:
		switch r.Method {
		case http.MethodPost:
			var req patient.CreateDiagnosisRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			d, err := a.patients.AddDiagnosis(r.Context(), patientID, req)
			if err != nil {
				handlePatientError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "patient.diagnosis.added", map[string]any{
				"patient_id":   patientID.String(),
				"diagnosis_id": d.ID.String(),
			})
			writeJSON(w, http.StatusCreated, d)
		case http.MethodGet:
			list, err := a.patients.Diagnoses(r.Context(), patientID)
			if err != nil {
				handlePatientError(w, r, err)
				return
			}
			if list == nil {
				list = []patient.Diagnosis{}
			}
			writeJSON(w, http.StatusOK, list)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case 1:
		diagnosisID, err := uuid.Parse(rest[0])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid diagnosis id")
			return
		}
		switch r.Method {
		case http.MethodPut:
			var req patient.CreateDiagnosisRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			d, err := a.patients.UpdateDiagnosis(r.Context(), patientID, diagnosisID, req)
			if err != nil {
				handlePatientError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, d)
		case http.MethodDelete:
			if err := a.patients.DeleteDiagnosis(r.Context(), patientID, diagnosisID); err != nil {
				handlePatientError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "patient.diagnosis.deleted", map[string]any{
				"patient_id":   patientID.String(),
				"diagnosis_id": diagnosisID.String(),
			})
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleMedications(w http.ResponseWriter, r *http.Request, patientID uuid.UUID, rest []string) {
	switch {
	case len(rest) == 0:
		switch r.Method {
		case http.MethodPost:
			var req patient.CreateMedicationRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			m, err := a.patients.AddMedication(r.Context(), patientID, req)
			if err != nil {
				handlePatientError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "patient.medication.added", map[string]any{
				"patient_id":    patientID.String(),
				"medication_id": m.ID.String(),
			})
			writeJSON(w, http.StatusCreated, m)
		case http.MethodGet:
			list, err := a.patients.Medications(r.Context(), patientID)
			if err != nil {
				handlePatientError(w, r, err)
				return
			}
			if list == nil {
				list = []patient.Medication{}
			}
			writeJSON(w, http.StatusOK, list)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case len(rest) == 1 && rest[0] == "contraindications":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		list, err := a.patients.Contraindications(r.Context(), patientID)
		if err != nil {
			handlePatientError(w, r, err)
			return
		}
		if list == nil {
			list = []patient.Medication{}
		}
		writeJSON(w, http.StatusOK, list)
	case len(rest) == 1:
		medicationID, err := uuid.Parse(rest[0])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid medication id")
			return
		}
		switch r.Method {
		case http.MethodPut:
			var req patient.CreateMedicationRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			m, err := a.patients.UpdateMedication(r.Context(), patientID, medicationID, req)
			if err != nil {
				handlePatientError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, m)
		case http.MethodDelete:
			if err := a.patients.DeleteMedication(r.Context(), patientID, medicationID); err != nil {
				handlePatientError(w, r, err)
				return
			}
			_ = audit.LogEvent(r.Context(), "patient.medication.deleted", map[string]any{
				"patient_id":    patientID.String(),
				"medication_id": medicationID.String(),
			})
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
