package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-tasks/core"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "go-tasks",
	})
}

func (s *Server) handleRegister(c echo.Context) error {
	payload := registerRequest{}
	if err := c.Bind(&payload); err != nil {
		return writeError(c, badPayload(err))
	}
	identity, err := s.service.Register(c.Request().Context(), core.RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Secret:   payload.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, identity)
}

func (s *Server) handleLogin(c echo.Context) error {
	payload := loginRequest{}
	if err := c.Bind(&payload); err != nil {
		return writeError(c, badPayload(err))
	}
	result, err := s.service.Login(c.Request().Context(), core.LoginInput{
		Username: payload.Username,
		Secret:   payload.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleListTasks(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return writeError(c, missingIdentity())
	}
	page, err := optionalIntQuery(c, "page")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := optionalIntQuery(c, "limit")
	if err != nil {
		return writeError(c, err)
	}
	result, err := s.service.ListTasks(c.Request().Context(), identity.ID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return writeError(c, missingIdentity())
	}
	payload := createTaskRequest{}
	if err := c.Bind(&payload); err != nil {
		return writeError(c, badPayload(err))
	}
	task, err := s.service.CreateTask(c.Request().Context(), identity.ID, core.CreateTaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) handleGetTask(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return writeError(c, missingIdentity())
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	task, err := s.service.GetTask(c.Request().Context(), identity.ID, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return writeError(c, missingIdentity())
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	payload := updateTaskRequest{}
	if err := c.Bind(&payload); err != nil {
		return writeError(c, badPayload(err))
	}
	task, err := s.service.UpdateTask(c.Request().Context(), identity.ID, taskID, core.UpdateTaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return writeError(c, missingIdentity())
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.service.DeleteTask(c.Request().Context(), identity.ID, taskID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func taskIDParam(c echo.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("task_id"))
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || taskID <= 0 {
		return 0, core.NewValidationError("task_id", "transport: task_id must be a positive integer")
	}
	return taskID, nil
}

func optionalIntQuery(c echo.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, core.NewValidationError(name, fmt.Sprintf("transport: %s must be an integer", name))
	}
	return &value, nil
}
