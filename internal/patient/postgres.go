package patient

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const patientColumns = `id, first_name, last_name, date_of_birth, gender, email, phone,
	address, city, state, zip_code, emergency_contact_name, emergency_contact_phone,
	status, created_at, updated_at`

func scanPatient(row interface{ Scan(...any) error }) (*Patient, error) {
	var (
		p     Patient
		email sql.NullString
	)
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &email,
		&p.Phone, &p.Address, &p.City, &p.State, &p.ZipCode,
		&p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Email = email.String
	return &p, nil
}

// nullIfEmpty keeps the unique index on email from rejecting patients
// registered without one.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *PGStore) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`insert into patients(id, first_name, last_name, date_of_birth, gender, email, phone,
		   address, city, state, zip_code, emergency_contact_name, emergency_contact_phone,
		   status, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, nullIfEmpty(p.Email), p.Phone,
		p.Address, p.City, p.State, p.ZipCode, p.EmergencyContactName, p.EmergencyContactPhone,
		p.Status, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+patientColumns+` from patients where id=$1`, id)
	return scanPatient(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Patient, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+patientColumns+` from patients where email=$1`, email)
	return scanPatient(row)
}

func (s *PGStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from patients where id=$1)`, id).Scan(&exists)
	return exists, err
}

func (s *PGStore) List(ctx context.Context) ([]*Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+patientColumns+` from patients order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`update patients set first_name=$2, last_name=$3, date_of_birth=$4, gender=$5,
		   email=$6, phone=$7, address=$8, city=$9, state=$10, zip_code=$11,
		   emergency_contact_name=$12, emergency_contact_phone=$13, status=$14, updated_at=$15
		 where id=$1`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, nullIfEmpty(p.Email), p.Phone,
		p.Address, p.City, p.State, p.ZipCode, p.EmergencyContactName, p.EmergencyContactPhone,
		p.Status, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const diagnosisColumns = `id, patient_id, icd_code, description, diagnosis_date, status, created_at, updated_at`

func scanDiagnosis(row interface{ Scan(...any) error }) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.PatientID, &d.ICDCode, &d.Description,
		&d.DiagnosisDate, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *PGStore) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`insert into diagnoses(id, patient_id, icd_code, description, diagnosis_date, status, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.PatientID, d.ICDCode, d.Description, d.DiagnosisDate, d.Status, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (s *PGStore) FindDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+diagnosisColumns+` from diagnoses where id=$1`, id)
	return scanDiagnosis(row)
}

func (s *PGStore) DiagnosesFor(ctx context.Context, patientID uuid.UUID) ([]Diagnosis, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+diagnosisColumns+` from diagnoses where patient_id=$1 order by created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateDiagnosis(ctx context.Context, d *Diagnosis) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`update diagnoses set icd_code=$2, description=$3, diagnosis_date=$4, status=$5, updated_at=$6
		 where id=$1`,
		d.ID, d.ICDCode, d.Description, d.DiagnosisDate, d.Status, d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteDiagnosis(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from diagnoses where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const medicationColumns = `id, patient_id, name, dosage, frequency, status, start_date, end_date,
	contraindicated, washout_days, washout_notes, created_at, updated_at`

func scanMedication(row interface{ Scan(...any) error }) (*Medication, error) {
	var (
		m       Medication
		washout sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency, &m.Status,
		&m.StartDate, &m.EndDate, &m.Contraindicated, &washout, &m.WashoutNotes,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.WashoutDays = int(washout.Int64)
	return &m, nil
}

func (s *PGStore) AddMedication(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`insert into medications(id, patient_id, name, dosage, frequency, status, start_date, end_date,
		   contraindicated, washout_days, washout_notes, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Frequency, m.Status, m.StartDate, m.EndDate,
		m.Contraindicated, m.WashoutDays, m.WashoutNotes, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (s *PGStore) FindMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+medicationColumns+` from medications where id=$1`, id)
	return scanMedication(row)
}

func (s *PGStore) MedicationsFor(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	return s.listMedications(ctx,
		`select `+medicationColumns+` from medications where patient_id=$1 order by created_at`, patientID)
}

func (s *PGStore) ContraindicationsFor(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	return s.listMedications(ctx,
		`select `+medicationColumns+` from medications where patient_id=$1 and contraindicated order by created_at`, patientID)
}

func (s *PGStore) listMedications(ctx context.Context, query string, patientID uuid.UUID) ([]Medication, error) {
	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from medications where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) UpdateMedication(ctx context.Context, m *Medication) error {
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`update medications set name=$2, dosage=$3, frequency=$4, status=$5, start_date=$6,
		   end_date=$7, contraindicated=$8, washout_days=$9, washout_notes=$10, updated_at=$11
		 where id=$1`,
		m.ID, m.Name, m.Dosage, m.Frequency, m.Status, m.StartDate, m.EndDate,
		m.Contraindicated, m.WashoutDays, m.WashoutNotes, m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
