package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "taskify/internal/errors"
	"taskify/internal/model"
	"taskify/internal/repository"
	"taskify/internal/service"
)

type Handler struct {
	taskService *service.TaskService
}

func NewHandler(taskService *service.TaskService) *Handler {
	return &Handler{
		taskService: taskService,
	}
}

func (h *Handler) ListTasks(c echo.Context) error {
	mode, err := model.ParseGroupMode(c.QueryParam("group"))
	if err != nil {
		return httpError(apperrors.ErrInvalidQuery)
	}
	sortType, err := model.ParseSortType(c.QueryParam("sort"))
	if err != nil {
		return httpError(apperrors.ErrInvalidQuery)
	}

	groups, err := h.taskService.Groups(c.Request().Context(), mode, sortType)
	if err != nil {
		return httpError(err)
	}

	count := 0
	for _, g := range groups {
		count += len(g.Tasks)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":  count,
		"groups": toGroupResponses(groups, h.taskService.Location()),
	})
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(*task, h.taskService.Location()))
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	draft := h.taskService.NewDraft(nil)
	if err := req.apply(&draft); err != nil {
		return invalidTask(err)
	}

	task, err := h.taskService.SaveTask(c.Request().Context(), draft)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toTaskResponse(task, h.taskService.Location()))
}

func (h *Handler) UpdateTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	ctx := c.Request().Context()
	existing, err := h.taskService.GetTask(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if err := req.apply(existing); err != nil {
		return invalidTask(err)
	}

	task, err := h.taskService.SaveTask(ctx, *existing)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(task, h.taskService.Location()))
}

func (h *Handler) CompleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.MarkCompleted(c.Request().Context(), id)
	return h.respondTask(c, task, err)
}

func (h *Handler) RestoreTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.Restore(c.Request().Context(), id)
	return h.respondTask(c, task, err)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if err := h.taskService.DeleteTaskByID(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteTasks(c echo.Context) error {
	var req DeleteTasksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	for _, id := range req.IDs {
		if id <= 0 {
			return httpError(apperrors.ErrInvalidTaskID)
		}
	}
	if err := h.taskService.DeleteTasks(c.Request().Context(), req.IDs); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Sweep(c echo.Context) error {
	result, err := h.taskService.CheckNow(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, SweepResponse{
		Overdue: len(result.Overdue),
		Tasks:   toTaskResponses(result.Overdue, h.taskService.Location()),
	})
}

func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.taskService.Tags(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tags": tags})
}

// Stream pushes the full task list as server-sent events until the client goes away.
func (h *Handler) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	snapshots, err := h.taskService.Subscribe(ctx)
	if err != nil {
		return httpError(err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	for tasks := range snapshots {
		payload, err := json.Marshal(toTaskResponses(tasks, h.taskService.Location()))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: tasks\ndata: %s\n\n", payload); err != nil {
			return nil
		}
		res.Flush()
	}
	return nil
}

func (h *Handler) respondTask(c echo.Context, task *model.Task, err error) error {
	if err != nil {
		return httpError(err)
	}
	if task == nil {
		return httpError(apperrors.ErrTaskNotFound)
	}
	return c.JSON(http.StatusOK, toTaskResponse(*task, h.taskService.Location()))
}

func taskID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, httpError(apperrors.ErrInvalidTaskID)
	}
	return id, nil
}

func invalidTask(err error) error {
	return echo.NewHTTPError(apperrors.ErrInvalidTask.StatusCode, err.Error())
}

func httpError(err error) error {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		err = apperrors.ErrTaskNotFound
	case errors.Is(err, model.ErrInvalidTime),
		errors.Is(err, model.ErrInvalidPriority),
		errors.Is(err, model.ErrInvalidReminderType):
		return invalidTask(err)
	}

	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		c := echo.NewHTTPError(status, "internal error")
		c.Internal = err
		return c
	}
	return echo.NewHTTPError(status, err.Error())
}
