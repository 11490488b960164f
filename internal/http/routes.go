package http

import (
	"github.com/labstack/echo/v4"
)

func Register(e *echo.Echo, h *Handler) {
	e.GET("/tasks", h.ListTasks)
	e.GET("/tasks/stream", h.Stream)
	e.GET("/tasks/:id", h.GetTask)
	e.POST("/tasks", h.CreateTask)
	e.PUT("/tasks/:id", h.UpdateTask)
	e.POST("/tasks/:id/complete", h.CompleteTask)
	e.POST("/tasks/:id/restore", h.RestoreTask)
	e.DELETE("/tasks/:id", h.DeleteTask)
	e.POST("/tasks/delete", h.DeleteTasks)
	e.POST("/sweep", h.Sweep)
	e.GET("/tags", h.ListTags)
}
