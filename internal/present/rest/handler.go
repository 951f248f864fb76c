package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/toripushy/milkyway-calendar"
	"github.com/toripushy/milkyway-calendar/internal/domain"
	"github.com/toripushy/milkyway-calendar/internal/present/rest/presenter"
	"github.com/toripushy/milkyway-calendar/internal/service"
	"github.com/toripushy/milkyway-calendar/internal/usecase"
)

type Handler struct {
	record *usecase.RecordUsecase
	signal *service.SignalService
}

// NewHandler wires the record usecase and an optional signal service.
// Without a signal service the realtime endpoint reports unavailable.
func NewHandler(record *usecase.RecordUsecase, signal *service.SignalService) *Handler {
	return &Handler{
		record: record,
		signal: signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/records", h.handleList)
	e.GET("/records/month/:year/:month", h.handleListByMonth)
	e.POST("/records", h.handleCreate)
	e.PUT("/records/:id", h.handleUpdate)
	e.DELETE("/records/:id", h.handleDelete)
	e.GET("/health", h.handleHealth)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.record.List(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleListByMonth(c echo.Context) error {
	ctx := c.Request().Context()

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid year parameter")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return presenter.BadRequestMessage(c, "invalid month parameter")
	}

	byDate, err := h.record.ListByMonth(ctx, year, month)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, byDate)
}

func (h *Handler) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var record milkyway.Record
	if err := c.Bind(&record); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.record.Create(ctx, record)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, record.ID)
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var patch milkyway.RecordPatch
	if err := c.Bind(&patch); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.record.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "record not found")
		}
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Success(c)
}

func (h *Handler) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.record.Delete(ctx, c.Param("id"))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.Success(c)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime not configured"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"failed to upgrade websocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()
	events := h.signal.SubscribeChanges(ctx)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			// Clients only send heartbeats; any read error ends the session.
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "websocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
