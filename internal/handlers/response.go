package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
)

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, models.OK(data))
}

func fail(c *gin.Context, err error) {
	c.JSON(models.HTTPStatus(err), models.Failed(err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.Result{
		Success:   false,
		ErrorKind: models.ErrorKind(models.ErrInvalidInput),
		Error:     err.Error(),
	})
}

// targetUser is the body of endpoints acting on another user.
type targetUser struct {
	UserID string `json:"userId" binding:"required"`
}
