package handlers

import (
	"net/http"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/infrastructure/geo"
	"conecta-ongs/internal/repo"
	"conecta-ongs/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrStateNotFound),
		errors.Is(err, geo.ErrNoState):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidSignup):
		return http.StatusBadRequest
	case errors.Is(err, repo.ErrDuplicateVolunteer):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// details stay in the log
		c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pagination(c *gin.Context) (limit, offset int) {
	var q struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	_ = c.ShouldBindQuery(&q)
	limit, offset = q.Limit, q.Offset
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
