package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/riadstay/reservation-service/internal/dto"
	"github.com/riadstay/reservation-service/internal/models"
	"github.com/riadstay/reservation-service/internal/repository"
	"github.com/riadstay/reservation-service/internal/service"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/reservations")

	g.POST("", h.CreateReservation)
	g.GET("", h.ListReservations)
	g.POST("/search", h.SearchReservations)
	g.POST("/check-availability", h.CheckAvailability)
	g.GET("/today/check-ins", h.TodayCheckIns)
	g.GET("/today/check-outs", h.TodayCheckOuts)
	g.GET("/number/:number", h.GetReservationByNumber)
	g.GET("/user/:userId", h.ListReservationsByUser)
	g.GET("/riad/:riadId", h.ListReservationsByRiad)

	g.GET("/:id", h.GetReservation)
	g.PUT("/:id", h.UpdateReservation)
	g.DELETE("/:id", h.DeleteReservation)
	g.POST("/:id/confirm", h.ConfirmReservation)
	g.POST("/:id/cancel", h.CancelReservation)
	g.POST("/:id/check-in", h.CheckInReservation)
	g.POST("/:id/check-out", h.CheckOutReservation)
	g.POST("/:id/no-show", h.MarkNoShow)
	g.PATCH("/:id/payment", h.AttachPayment)
}

// httpError maps the service error taxonomy onto HTTP status codes.
func httpError(err error) error {
	var notFound *service.NotFoundError
	var conflict *service.ConflictError
	var invalidOp *service.InvalidOperationError
	var validation *service.ValidationError

	switch {
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &invalidOp):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrStaleRow):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}
	return uint(id), nil
}

func parsePagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input, err := req.ToInput()
	if err != nil {
		return httpError(err)
	}

	reservation, err := h.svc.Create(c.Request().Context(), input)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	reservation, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) GetReservationByNumber(c echo.Context) error {
	reservation, err := h.svc.GetByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ListReservations(c echo.Context) error {
	page, limit := parsePagination(c)

	rows, total, err := h.svc.List(c.Request().Context(), page, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToPaginatedResponse(rows, total, page, limit))
}

func (h *ReservationHandler) ListReservationsByUser(c echo.Context) error {
	page, limit := parsePagination(c)

	rows, total, err := h.svc.ListByUser(c.Request().Context(), c.Param("userId"), page, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToPaginatedResponse(rows, total, page, limit))
}

func (h *ReservationHandler) ListReservationsByRiad(c echo.Context) error {
	page, limit := parsePagination(c)

	rows, total, err := h.svc.ListByRiad(c.Request().Context(), c.Param("riadId"), page, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToPaginatedResponse(rows, total, page, limit))
}

func (h *ReservationHandler) SearchReservations(c echo.Context) error {
	var req dto.SearchReservationsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	filter, err := req.ToFilter()
	if err != nil {
		return httpError(err)
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	rows, total, err := h.svc.Search(c.Request().Context(), filter, page, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToPaginatedResponse(rows, total, page, limit))
}

func (h *ReservationHandler) UpdateReservation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patch, err := req.ToInput()
	if err != nil {
		return httpError(err)
	}

	reservation, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ConfirmReservation(c echo.Context) error {
	return h.runTransition(c, h.svc.Confirm)
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.CancelReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reservation, err := h.svc.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CheckInReservation(c echo.Context) error {
	return h.runTransition(c, h.svc.CheckIn)
}

func (h *ReservationHandler) CheckOutReservation(c echo.Context) error {
	return h.runTransition(c, h.svc.CheckOut)
}

func (h *ReservationHandler) MarkNoShow(c echo.Context) error {
	return h.runTransition(c, h.svc.MarkNoShow)
}

func (h *ReservationHandler) runTransition(c echo.Context, op func(ctx context.Context, id uint) (*models.Reservation, error)) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	reservation, err := op(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	var req dto.CheckAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	checkIn, err := time.Parse("2006-01-02", req.CheckInDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid check_in_date")
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOutDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid check_out_date")
	}

	available, message, err := h.svc.CheckAvailability(c.Request().Context(), req.RiadID, checkIn, checkOut)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{Available: available, Message: message})
}

func (h *ReservationHandler) TodayCheckIns(c echo.Context) error {
	rows, err := h.svc.TodayCheckIns(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	resp := make([]dto.ReservationResponse, len(rows))
	for i := range rows {
		resp[i] = dto.ToReservationResponse(&rows[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) TodayCheckOuts(c echo.Context) error {
	rows, err := h.svc.TodayCheckOuts(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	resp := make([]dto.ReservationResponse, len(rows))
	for i := range rows {
		resp[i] = dto.ToReservationResponse(&rows[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) AttachPayment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	paymentID := c.QueryParam("paymentId")
	if paymentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "paymentId query parameter is required")
	}

	reservation, err := h.svc.AttachPayment(c.Request().Context(), id, paymentID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}
