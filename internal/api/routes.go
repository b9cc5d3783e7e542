package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/internal/auth"
	"github.com/be-capable/realdog-server/usecase"
)

// maxAudioBytes caps uploads before they hit memory.
const maxAudioBytes = 20 << 20

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, service *usecase.TranslationService, authManager *auth.Manager, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "realdog-server",
		})
	})

	h := &handlers{service: service, logger: logger}

	// API v1 routes, all owner-scoped
	v1 := e.Group("/api/v1", authManager.Middleware())
	v1.POST("/pets/:petId/translate/interpret", h.interpret)
	v1.POST("/pets/:petId/translate/synthesize", h.synthesizeSync)
	v1.POST("/pets/:petId/translate/synthesize-tasks", h.synthesizeAsync)
	v1.GET("/translate/tasks/:taskId", h.getTaskStatus)
}

type handlers struct {
	service *usecase.TranslationService
	logger  *zap.Logger
}

func (h *handlers) interpret(c echo.Context) error {
	callerID, err := auth.CallerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	audio, err := readAudioUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_audio", Message: err.Error()})
	}

	resp, err := h.service.Interpret(
		c.Request().Context(),
		callerID,
		c.Param("petId"),
		audio,
		c.FormValue("locale"),
		c.FormValue("context"),
	)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) synthesizeSync(c echo.Context) error {
	callerID, err := auth.CallerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	audio, err := readAudioUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_audio", Message: err.Error()})
	}

	resp, err := h.service.SynthesizeSync(
		c.Request().Context(),
		callerID,
		c.Param("petId"),
		audio,
		c.FormValue("locale"),
		c.FormValue("style"),
	)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) synthesizeAsync(c echo.Context) error {
	callerID, err := auth.CallerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	audio, err := readAudioUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_audio", Message: err.Error()})
	}

	taskID, err := h.service.SynthesizeAsync(
		c.Request().Context(),
		callerID,
		c.Param("petId"),
		audio,
		c.FormValue("locale"),
		c.FormValue("style"),
	)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusAccepted, SubmitTaskResponse{TaskID: taskID})
}

func (h *handlers) getTaskStatus(c echo.Context) error {
	callerID, err := auth.CallerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	resp, err := h.service.GetTaskStatus(c.Request().Context(), callerID, c.Param("taskId"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// readAudioUpload pulls the "audio" part out of a multipart form.
func readAudioUpload(c echo.Context) (usecase.AudioUpload, error) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return usecase.AudioUpload{}, errors.New("audio file is required")
	}
	if fileHeader.Size > maxAudioBytes {
		return usecase.AudioUpload{}, errors.New("audio file too large")
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		return usecase.AudioUpload{}, err
	}
	return usecase.AudioUpload{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Filename:    fileHeader.Filename,
	}, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxAudioBytes+1))
}

// mapError translates domain error kinds to HTTP statuses.
func (h *handlers) mapError(c echo.Context, err error) error {
	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrConfigurationMissing):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		status, code = http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, domain.ErrUpstreamEmpty), errors.Is(err, domain.ErrUpstreamMalformed):
		status, code = http.StatusBadGateway, "bad_gateway"
	default:
		var protoErr *domain.ProtocolError
		if errors.As(err, &protoErr) {
			status, code = http.StatusBadGateway, "bad_gateway"
			break
		}
		h.logger.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
	}

	h.logger.Warn("request rejected",
		zap.String("code", code),
		zap.Error(err))
	return c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
