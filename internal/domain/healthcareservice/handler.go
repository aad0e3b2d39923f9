package healthcareservice

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
	read.GET("/services", h.ListHealthcareServices)
	read.GET("/services/:id", h.GetHealthcareService)

	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/services", h.CreateHealthcareService)
	write.PUT("/services/:id", h.UpdateHealthcareService)
}

func (h *Handler) CreateHealthcareService(c echo.Context) error {
	var hs HealthcareService
	if err := c.Bind(&hs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateHealthcareService(c.Request().Context(), &hs); err != nil {
		return apperr.HTTPError(err, "failed to create healthcare service")
	}
	return c.JSON(http.StatusCreated, hs)
}

func (h *Handler) GetHealthcareService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hs, err := h.svc.GetHealthcareService(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err, "failed to load healthcare service")
	}
	return c.JSON(http.StatusOK, hs)
}

func (h *Handler) ListHealthcareServices(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListHealthcareServices(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err, "failed to list healthcare services")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateHealthcareService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var hs HealthcareService
	if err := c.Bind(&hs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hs.ID = id
	if err := h.svc.UpdateHealthcareService(c.Request().Context(), &hs); err != nil {
		return apperr.HTTPError(err, "failed to update healthcare service")
	}
	return c.JSON(http.StatusOK, hs)
}
