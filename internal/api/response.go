package api

import (
	"errors"
	"net/http"

	"restaurant-service/internal/service"
	"restaurant-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error kind to an HTTP status
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
	})
}

// respondError writes the failure envelope {success:false, message, error?}
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"success": false, "message": "Internal server error"}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status = statusFor(svcErr.Kind)
		body["message"] = svcErr.Message
		if svcErr.Err != nil {
			body["error"] = svcErr.Err.Error()
		}
	} else if err != nil {
		body["error"] = err.Error()
	}

	if status >= http.StatusInternalServerError {
		util.RequestLogger(c.GetString(requestIDKey)).Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func respondBadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
