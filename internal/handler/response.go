package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the shared response shape. Consumers switch on status instead
// of sniffing payload shapes.
type envelope struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, envelope{Status: "ok", Data: data, Meta: meta})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, envelope{Status: "error", Error: message, Meta: meta})
}
