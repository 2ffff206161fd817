package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/diasporalink/backend/internal/auth"
	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/repositories"
)

type fakeRegistrationAdmin struct {
	records map[string]models.Registration
	status  models.RegistrationStatus
	err     error
}

func newFakeRegistrationAdmin(regs ...models.Registration) *fakeRegistrationAdmin {
	f := &fakeRegistrationAdmin{records: make(map[string]models.Registration)}
	for _, reg := range regs {
		f.records[reg.ID] = reg
	}
	return f
}

func (f *fakeRegistrationAdmin) List(_ context.Context, status models.RegistrationStatus) ([]models.Registration, error) {
	f.status = status
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Registration
	for _, reg := range f.records {
		if status == "" || reg.Status == status {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (f *fakeRegistrationAdmin) FindByID(_ context.Context, id string) (models.Registration, error) {
	reg, ok := f.records[id]
	if !ok {
		return models.Registration{}, repositories.ErrNotFound
	}
	return reg, nil
}

func (f *fakeRegistrationAdmin) UpdateStatus(_ context.Context, id string, status models.RegistrationStatus) (models.Registration, error) {
	reg, ok := f.records[id]
	if !ok {
		return models.Registration{}, repositories.ErrNotFound
	}
	reg.Status = status
	f.records[id] = reg
	return reg, nil
}

func (f *fakeRegistrationAdmin) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func newTestSessions(t *testing.T, password string) *auth.Manager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return auth.NewManager(string(hash), time.Minute, time.Hour, auth.NewInMemorySessionStore())
}

func TestAdminHandlerLogin(t *testing.T) {
	handler := AdminHandler{Sessions: newTestSessions(t, "s3cret")}

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid", body: `{"password":"s3cret"}`, want: http.StatusOK},
		{name: "wrong password", body: `{"password":"guess"}`, want: http.StatusUnauthorized},
		{name: "missing password", body: `{}`, want: http.StatusBadRequest},
		{name: "malformed", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d got %d", tt.want, rec.Code)
			}
			if tt.want != http.StatusOK {
				return
			}
			var resp authResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
				t.Fatalf("expected tokens in response got %+v", resp.Tokens)
			}
		})
	}
}

func TestAdminHandlerRefreshAndLogout(t *testing.T) {
	sessions := newTestSessions(t, "s3cret")
	handler := AdminHandler{Sessions: sessions}

	tokens, err := sessions.Login(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	body := `{"refreshToken":"` + tokens.RefreshToken + `"}`
	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected refresh to succeed got %d", rec.Code)
	}

	var refreshed authResponse
	if err := json.NewDecoder(rec.Body).Decode(&refreshed); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected rotated refresh token to be rejected got %d", rec.Code)
	}

	logoutBody := `{"refreshToken":"` + refreshed.Tokens.RefreshToken + `"}`
	rec = httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", strings.NewReader(logoutBody)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected logout to return 204 got %d", rec.Code)
	}

	if _, err := sessions.Authenticate(context.Background(), refreshed.Tokens.AccessToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected access token revoked with session got %v", err)
	}

	rec = httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", strings.NewReader(`{"refreshToken":" "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected blank refresh token rejected got %d", rec.Code)
	}
}

func TestAdminHandlerListRegistrations(t *testing.T) {
	store := newFakeRegistrationAdmin(
		models.Registration{ID: "a", Name: "Ada", Status: models.StatusPending},
		models.Registration{ID: "b", Name: "Bola", Status: models.StatusApproved},
	)
	handler := AdminHandler{Registrations: store}

	rec := httptest.NewRecorder()
	handler.ListRegistrations(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/registrations?status=Approved", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if store.status != models.StatusApproved {
		t.Fatalf("expected status filter forwarded got %q", store.status)
	}
	var resp registrationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Registrations) != 1 || resp.Registrations[0].ID != "b" {
		t.Fatalf("unexpected registrations %+v", resp.Registrations)
	}

	rec = httptest.NewRecorder()
	handler.ListRegistrations(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/registrations?status=archived", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown status rejected got %d", rec.Code)
	}

	store.err = errors.New("connection lost")
	rec = httptest.NewRecorder()
	handler.ListRegistrations(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/registrations", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected store failure to return 500 got %d", rec.Code)
	}
}

func TestAdminHandlerRegistrationByID(t *testing.T) {
	store := newFakeRegistrationAdmin(models.Registration{ID: "a", Name: "Ada", Status: models.StatusPending})
	handler := AdminHandler{Registrations: store}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/registrations/a", strings.NewReader(`{"status":"approved"}`))
	req.SetPathValue("id", "a")
	rec := httptest.NewRecorder()
	handler.UpdateRegistrationStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected update to succeed got %d", rec.Code)
	}
	if store.records["a"].Status != models.StatusApproved {
		t.Fatalf("expected approved status got %q", store.records["a"].Status)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/registrations/a", strings.NewReader(`{"status":"maybe"}`))
	req.SetPathValue("id", "a")
	rec = httptest.NewRecorder()
	handler.UpdateRegistrationStatus(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid status rejected got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/registrations/a", nil)
	req.SetPathValue("id", "a")
	rec = httptest.NewRecorder()
	handler.GetRegistration(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected get to succeed got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/registrations/a", nil)
	req.SetPathValue("id", "a")
	rec = httptest.NewRecorder()
	handler.DeleteRegistration(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected delete to return 204 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/registrations/a", nil)
	req.SetPathValue("id", "a")
	rec = httptest.NewRecorder()
	handler.GetRegistration(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected deleted registration to be missing got %d", rec.Code)
	}
}
