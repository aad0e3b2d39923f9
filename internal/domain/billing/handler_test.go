package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, *testEnv) {
	env := newTestService()
	return NewHandler(env.svc), echo.New(), env
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func postInvoice(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateInvoice(t *testing.T) {
	h, e, env := newTestHandler()
	apptID := env.appts.add("Jane", "Consultation", "500")

	c, rec := postInvoice(e, `{"appointment_id":"`+apptID.String()+`"}`)
	if err := h.CreateInvoice(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var inv Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inv.Status != InvoiceStatusPaid || inv.GrandTotal.String() != "500" {
		t.Errorf("unexpected invoice: %s", rec.Body.String())
	}
}

func TestHandler_CreateInvoice_Errors(t *testing.T) {
	h, e, env := newTestHandler()
	noTotal := env.appts.add("Jane", "Consultation", "")

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing id", `{}`, http.StatusBadRequest},
		{"malformed id", `{"appointment_id":"nope"}`, http.StatusBadRequest},
		{"unknown appointment", `{"appointment_id":"` + uuid.NewString() + `"}`, http.StatusNotFound},
		{"no total", `{"appointment_id":"` + noTotal.String() + `"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := postInvoice(e, tt.body)
			expectStatus(t, h.CreateInvoice(c), tt.code)
		})
	}
}

func TestHandler_GetInvoice(t *testing.T) {
	h, e, env := newTestHandler()
	inv, err := env.svc.CreateForAppointment(context.Background(), env.appts.add("Jane", "Consultation", "500"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(inv.ID.String())

	if err := h.GetInvoice(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"mode_of_payment":"Cash"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_GetInvoice_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	expectStatus(t, h.GetInvoice(c), http.StatusNotFound)
}

func TestHandler_ListInvoices(t *testing.T) {
	h, e, env := newTestHandler()
	a := env.appts.add("Jane", "Consultation", "500")
	env.svc.CreateForAppointment(context.Background(), a)
	env.svc.CreateForAppointment(context.Background(), env.appts.add("Bob", "X-Ray", "900"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices?appointment_id="+a.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListInvoices(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []Invoice `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 || resp.Data[0].AppointmentID != a {
		t.Errorf("expected the one invoice for %s, got %s", a, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.ListInvoices(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("expected 2 invoices, got %s", rec.Body.String())
	}
}

func TestHandler_ListInvoices_BadFilter(t *testing.T) {
	h, e, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?appointment_id=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	expectStatus(t, h.ListInvoices(c), http.StatusBadRequest)
}
