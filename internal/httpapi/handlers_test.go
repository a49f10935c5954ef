package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"carebase.org/internal/auth"
	"carebase.org/internal/patient"
	"carebase.org/internal/token"
)

// --- in-memory stores ---

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*auth.User)}
}

func (f *fakeUserStore) Find(_ context.Context, id uuid.UUID) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Save(_ context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakePatientStore struct {
	mu          sync.Mutex
	patients    map[uuid.UUID]*patient.Patient
	diagnoses   map[uuid.UUID]*patient.Diagnosis
	medications map[uuid.UUID]*patient.Medication
}

func newFakePatientStore() *fakePatientStore {
	return &fakePatientStore{
		patients:    make(map[uuid.UUID]*patient.Patient),
		diagnoses:   make(map[uuid.UUID]*patient.Diagnosis),
		medications: make(map[uuid.UUID]*patient.Medication),
	}
}

func (f *fakePatientStore) Create(_ context.Context, p *patient.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientStore) Find(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientStore) FindByEmail(_ context.Context, email string) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patients {
		if p.Email == email && email != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (f *fakePatientStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.patients[id]
	return ok, nil
}

func (f *fakePatientStore) List(_ context.Context) ([]*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*patient.Patient
	for _, p := range f.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePatientStore) Update(_ context.Context, p *patient.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patients[p.ID]; !ok {
		return patient.ErrNotFound
	}
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientStore) AddDiagnosis(_ context.Context, d *patient.Diagnosis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.diagnoses[d.ID] = &cp
	return nil
}

func (f *fakePatientStore) FindDiagnosis(_ context.Context, id uuid.UUID) (*patient.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.diagnoses[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakePatientStore) DiagnosesFor(_ context.Context, patientID uuid.UUID) ([]patient.Diagnosis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []patient.Diagnosis
	for _, d := range f.diagnoses {
		if d.PatientID == patientID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakePatientStore) UpdateDiagnosis(_ context.Context, d *patient.Diagnosis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.diagnoses[d.ID]; !ok {
		return patient.ErrNotFound
	}
	cp := *d
	f.diagnoses[d.ID] = &cp
	return nil
}

func (f *fakePatientStore) DeleteDiagnosis(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.diagnoses[id]; !ok {
		return patient.ErrNotFound
	}
	delete(f.diagnoses, id)
	return nil
}

func (f *fakePatientStore) AddMedication(_ context.Context, m *patient.Medication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.medications[m.ID] = &cp
	return nil
}

func (f *fakePatientStore) FindMedication(_ context.Context, id uuid.UUID) (*patient.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.medications[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakePatientStore) MedicationsFor(_ context.Context, patientID uuid.UUID) ([]patient.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []patient.Medication
	for _, m := range f.medications {
		if m.PatientID == patientID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakePatientStore) ContraindicationsFor(_ context.Context, patientID uuid.UUID) ([]patient.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []patient.Medication
	for _, m := range f.medications {
		if m.PatientID == patientID && m.Contraindicated {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakePatientStore) UpdateMedication(_ context.Context, m *patient.Medication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.medications[m.ID]; !ok {
		return patient.ErrNotFound
	}
	cp := *m
	f.medications[m.ID] = &cp
	return nil
}

func (f *fakePatientStore) DeleteMedication(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.medications[id]; !ok {
		return patient.ErrNotFound
	}
	delete(f.medications, id)
	return nil
}

// --- test client ---

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	codec, err := token.NewCodec("test-secret", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	authSvc, err := auth.NewService(newFakeUserStore(), nil, codec)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	patientSvc, err := patient.NewService(newFakePatientStore())
	if err != nil {
		t.Fatalf("patient.NewService: %v", err)
	}

	api := New(ReadyProbe{}, "test", authSvc, patientSvc)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) registerAndLogin(username, role string) (accessToken string, refreshCookie *http.Cookie) {
	c.t.Helper()
	resp := c.post("/api/auth/register", map[string]any{
		"username": username,
		"email":    username + "@clinic.example",
		"password": "s3cret-pass",
		"role":     role,
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register status: %d", resp.StatusCode)
	}

	resp = c.post("/api/auth/login", map[string]any{
		"username": username,
		"password": "s3cret-pass",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status: %d", resp.StatusCode)
	}
	var payload auth.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode login: %v", err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == refreshCookieName {
			refreshCookie = ck
		}
	}
	return payload.AccessToken, refreshCookie
}

func bearerHeader(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

// --- tests ---

func TestHealthEndpointsArePublic(t *testing.T) {
	c := newTestAPI(t)
	for _, path := range []string{"/healthz", "/readyz", "/api/info"} {
		resp := c.get(path, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
	}
}

func TestRegisterLoginRefreshFlow(t *testing.T) {
	c := newTestAPI(t)
	access, cookie := c.registerAndLogin("dr.adams", "THERAPIST")
	if access == "" {
		t.Fatal("no access token")
	}
	if cookie == nil {
		t.Fatal("no refresh cookie set")
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie must be HttpOnly")
	}
	if cookie.Path != "/api/auth/refresh" {
		t.Errorf("cookie path = %q", cookie.Path)
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Errorf("cookie max-age = %d", cookie.MaxAge)
	}

	// Refresh with the cookie yields a fresh access token.
	req, _ := http.NewRequest(http.MethodPost, c.baseURL+"/api/auth/refresh", nil)
	req.AddCookie(cookie)
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status: %d", resp.StatusCode)
	}
	var payload refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.AccessToken == "" {
		t.Fatal("no access token in refresh response")
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	c := newTestAPI(t)
	resp := c.post("/api/auth/refresh", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	c := newTestAPI(t)
	c.registerAndLogin("dr.adams", "ADMIN")
	resp := c.post("/api/auth/register", map[string]any{
		"username": "dr.adams",
		"email":    "other@clinic.example",
		"password": "s3cret-pass",
		"role":     "NURSE",
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	c := newTestAPI(t)
	c.registerAndLogin("dr.adams", "ADMIN")
	resp := c.post("/api/auth/login", map[string]any{
		"username": "dr.adams",
		"password": "wrong",
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPatientsRequireAuthentication(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/api/patients", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status %d, want 401", resp.StatusCode)
	}

	// A garbage token yields an anonymous request, not a hard failure.
	resp = c.get("/api/patients", bearerHeader("not-a-token"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", resp.StatusCode)
	}

	access, _ := c.registerAndLogin("nurse.kim", "NURSE")
	resp = c.get("/api/patients", bearerHeader(access))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated list: status %d, want 200", resp.StatusCode)
	}
}

func TestPatientLifecycleOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	access, _ := c.registerAndLogin("dr.adams", "THERAPIST")
	hdr := bearerHeader(access)

	resp := c.post("/api/patients", map[string]any{
		"firstName": "Grace",
		"lastName":  "Hill",
		"email":     "grace@clinic.example",
	}, hdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	var created patient.Patient
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); !strings.HasSuffix(loc, created.ID.String()) {
		t.Errorf("Location = %q", loc)
	}

	resp = c.post("/api/patients/"+created.ID.String()+"/diagnoses", map[string]any{
		"icdCode":     "F41.1",
		"description": "GAD",
	}, hdr)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add diagnosis status: %d", resp.StatusCode)
	}

	resp = c.post("/api/patients/"+created.ID.String()+"/medications", map[string]any{
		"name":            "Phenelzine",
		"contraindicated": true,
		"washoutDays":     14,
	}, hdr)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add medication status: %d", resp.StatusCode)
	}

	resp = c.get("/api/patients/"+created.ID.String(), hdr)
	var got patient.Patient
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(got.Diagnoses) != 1 || len(got.Medications) != 1 {
		t.Fatalf("children: %d/%d", len(got.Diagnoses), len(got.Medications))
	}

	resp = c.get("/api/patients/"+created.ID.String()+"/medications/contraindications", hdr)
	var contra []patient.Medication
	if err := json.NewDecoder(resp.Body).Decode(&contra); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(contra) != 1 || contra[0].Name != "Phenelzine" {
		t.Fatalf("contraindications: %+v", contra)
	}

	// Duplicate email conflicts.
	resp = c.post("/api/patients", map[string]any{
		"firstName": "Gary",
		"lastName":  "Hall",
		"email":     "grace@clinic.example",
	}, hdr)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email status: %d", resp.StatusCode)
	}
}

func TestDeleteUserAuthorization(t *testing.T) {
	c := newTestAPI(t)
	adminAccess, _ := c.registerAndLogin("dr.adams", "ADMIN")
	nurseAccess, _ := c.registerAndLogin("nurse.kim", "NURSE")

	// Resolve user ids from the token subjects.
	codec, err := token.NewCodec("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	adminSub, err := codec.Validate(adminAccess)
	if err != nil {
		t.Fatal(err)
	}
	nurseSub, err := codec.Validate(nurseAccess)
	if err != nil {
		t.Fatal(err)
	}
	adminID := uuid.MustParse(adminSub)
	nurseID := uuid.MustParse(nurseSub)

	// No token: 401.
	resp := c.do(http.MethodDelete, "/api/users/"+nurseID.String(), nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous delete: %d, want 401", resp.StatusCode)
	}

	// Nurse lacks USER:DELETE: 403.
	resp = c.do(http.MethodDelete, "/api/users/"+adminID.String(), nil, bearerHeader(nurseAccess))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("nurse delete: %d, want 403", resp.StatusCode)
	}

	// Admin deleting self: 403.
	resp = c.do(http.MethodDelete, "/api/users/"+adminID.String(), nil, bearerHeader(adminAccess))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("self delete: %d, want 403", resp.StatusCode)
	}

	// Admin deleting the nurse: 204.
	resp = c.do(http.MethodDelete, "/api/users/"+nurseID.String(), nil, bearerHeader(adminAccess))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("admin delete: %d, want 204", resp.StatusCode)
	}

	// Deleting a missing user: 404.
	resp = c.do(http.MethodDelete, "/api/users/"+uuid.NewString(), nil, bearerHeader(adminAccess))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing target: %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/api/auth/login", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET login: %d, want 405", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q", allow)
	}
}
