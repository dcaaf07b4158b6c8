package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/apperr"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}

// FailErr maps a service error onto the envelope using its kind.
func FailErr(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		Fail(c, http.StatusBadRequest, 10001, apperr.MessageOf(err, "bad request"))
	case apperr.KindNotFound:
		Fail(c, http.StatusNotFound, 40401, apperr.MessageOf(err, "not found"))
	case apperr.KindForbidden:
		Fail(c, http.StatusForbidden, 40301, apperr.MessageOf(err, "forbidden"))
	case apperr.KindUnauthenticated:
		Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
	default:
		Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
