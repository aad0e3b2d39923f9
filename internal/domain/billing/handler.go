package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/appointments/internal/platform/apperr"
	"github.com/clinic/appointments/internal/platform/auth"
	"github.com/clinic/appointments/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleBilling, auth.RoleReceptionist))
	read.GET("/invoices", h.ListInvoices)
	read.GET("/invoices/:id", h.GetInvoice)

	// Retry path for bookings whose invoice step failed.
	write := api.Group("", auth.RequireRole(auth.RoleBilling))
	write.POST("/invoices", h.CreateInvoice)
}

type createInvoiceRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppointmentID == uuid.Nil {
		return apperr.HTTPError(apperr.New(apperr.MissingField, "Missing Field", "appointment_id is required"), "")
	}
	inv, err := h.svc.CreateForAppointment(c.Request().Context(), req.AppointmentID)
	if err != nil {
		return apperr.HTTPError(err, "failed to create invoice")
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err, "failed to load invoice")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	pg := pagination.FromContext(c)
	if v := c.QueryParam("appointment_id"); v != "" {
		apptID, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment_id")
		}
		items, err := h.svc.ListInvoicesByAppointment(c.Request().Context(), apptID)
		if err != nil {
			return apperr.HTTPError(err, "failed to list invoices")
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, len(items), len(items), 0))
	}

	items, total, err := h.svc.ListInvoices(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err, "failed to list invoices")
	}
	resp := pagination.NewResponse(items, total, pg.Limit, pg.Offset)
	resp.Links = pg.Links(c.Request().URL.Path, c.QueryParams(), total)
	return c.JSON(http.StatusOK, resp)
}
