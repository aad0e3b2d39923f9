package booking

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/appointments/internal/domain/scheduling"
	"github.com/clinic/appointments/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the unauthenticated booking pages under /public.
// mw is applied to the group, typically a rate limiter.
func (h *Handler) RegisterRoutes(api *echo.Group, mw ...echo.MiddlewareFunc) {
	pub := api.Group("/public", mw...)
	pub.GET("/services", h.ListServices)
	pub.GET("/end-time", h.GetEndTime)
	pub.POST("/appointments", h.Book)
}

func (h *Handler) ListServices(c echo.Context) error {
	services, err := h.svc.Services(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err, "failed to load services")
	}
	return c.JSON(http.StatusOK, services)
}

// GetEndTime answers {"end_time": "HH:MM"} or null.
func (h *Handler) GetEndTime(c echo.Context) error {
	serviceID, t, err := scheduling.PreviewParams(c)
	if err != nil {
		return err
	}
	end, err := h.svc.EndTime(c.Request().Context(), serviceID, t)
	if err != nil {
		return apperr.HTTPError(err, "failed to estimate end time")
	}
	var out *string
	if end != nil {
		s := end.HHMM()
		out = &s
	}
	return c.JSON(http.StatusOK, map[string]*string{"end_time": out})
}

func (h *Handler) Book(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Book(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err, "failed to book appointment")
	}
	return c.JSON(http.StatusCreated, res)
}
