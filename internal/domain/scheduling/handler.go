package scheduling

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
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RolePractitioner, auth.RoleBilling))
	read.GET("/appointments", h.ListAppointments)
	read.GET("/appointments/estimated-end-time", h.GetEstimatedEndTime)
	read.GET("/appointments/:id", h.GetAppointment)
	read.GET("/services/:id/price", h.GetServicePrice)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RolePractitioner))
	write.POST("/appointments", h.CreateAppointment)
	write.PUT("/appointments/:id", h.UpdateAppointment)
	write.POST("/appointments/:id/complete", h.CompleteAppointment)
	write.POST("/appointments/:id/cancel", h.CancelAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err, "failed to create appointment")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err, "failed to load appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if v := c.QueryParam("date"); v != "" {
		if _, err := ParseDate(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		params["date"] = v
	}
	if v := c.QueryParam("status"); v != "" {
		if !Status(v).Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		params["status"] = v
	}
	if v := c.QueryParam("service"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid service")
		}
		params["service"] = v
	}
	if v := c.QueryParam("patient"); v != "" {
		params["patient"] = v
	}

	items, total, err := h.svc.ListAppointments(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err, "failed to list appointments")
	}
	resp := pagination.NewResponse(items, total, pg.Limit, pg.Offset)
	resp.Links = pg.Links(c.Request().URL.Path, c.QueryParams(), total)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err, "failed to update appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CompleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.CompleteAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err, "failed to complete appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err, "failed to cancel appointment")
	}
	return c.JSON(http.StatusOK, a)
}

// GetEstimatedEndTime answers {"estimated_end_time": "HH:MM:SS"} or null.
func (h *Handler) GetEstimatedEndTime(c echo.Context) error {
	serviceID, t, err := PreviewParams(c)
	if err != nil {
		return err
	}
	end, err := h.svc.EstimateEndTime(c.Request().Context(), serviceID, t)
	if err != nil {
		return apperr.HTTPError(err, "failed to estimate end time")
	}
	var out *string
	if end != nil {
		s := end.String()
		out = &s
	}
	return c.JSON(http.StatusOK, map[string]*string{"estimated_end_time": out})
}

// GetServicePrice answers {"price": "500"} or null.
func (h *Handler) GetServicePrice(c echo.Context) error {
	id, _ := uuid.Parse(c.Param("id"))
	price, err := h.svc.GetPrice(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err, "failed to load price")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"price": price})
}

// PreviewParams reads the service and appointment_time query parameters of
// the end-time preview endpoints. A malformed service id reads as empty; a
// malformed time is rejected.
func PreviewParams(c echo.Context) (uuid.UUID, *TimeOfDay, error) {
	serviceID, _ := uuid.Parse(c.QueryParam("service"))
	raw := c.QueryParam("appointment_time")
	if raw == "" {
		return serviceID, nil, nil
	}
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		return uuid.Nil, nil, apperr.HTTPError(apperr.Wrap(apperr.InvalidInput, err, err.Error()), "")
	}
	return serviceID, &t, nil
}
