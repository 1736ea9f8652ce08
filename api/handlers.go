package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// Request bodies above this size are cut off mid-decode and rejected.
const maxBodySize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc TaskService, auth Authenticator, creds CredentialManager, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(svc, auth, logger))
	e.POST("/api/tasks", postTask(svc, auth))
	e.PUT("/api/tasks/:id", putTask(svc, auth))
	e.DELETE("/api/tasks/:id", deleteTask(svc, auth))
	e.POST("/api/users/change-password", changePassword(creds, auth))
	e.GET("/healthz", healthz())
}

type messageResponse struct {
	Message string `json:"message"`
}

// respondError maps the error taxonomy to HTTP statuses. Authorization
// failures get a generic message so responses never reveal a task's actual
// owner; transient store failures invite a retry.
func respondError(c echo.Context, err error) error {
	var verr domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, messageResponse{Message: "Not authorized"})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Task not found"})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, messageResponse{Message: verr.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, messageResponse{Message: "Temporarily unavailable, try again"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Server Error"})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(svc TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = respondError(c, authErr)
			return err
		}

		fetchStart := time.Now()
		tasks, listErr := svc.List(ctx, userID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if listErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(listErr)
			err = respondError(c, listErr)
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postTask(svc TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return respondError(c, err)
		}
		var draft domain.NewTask
		if err := decodeBody(c, &draft); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		task, err := svc.Create(c.Request().Context(), userID, draft)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func putTask(svc TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return respondError(c, err)
		}
		var upd domain.TaskUpdate
		if err := decodeBody(c, &upd); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		task, err := svc.Update(c.Request().Context(), userID, c.Param("id"), upd)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(svc TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Task removed"})
	}
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func changePassword(creds CredentialManager, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return respondError(c, err)
		}
		var req changePasswordRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		if len(req.NewPassword) < 6 {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Password must be at least 6 characters long"})
		}
		if err := creds.UpdatePassword(c.Request().Context(), userID, req.NewPassword); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to update password"})
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully"})
	}
}
