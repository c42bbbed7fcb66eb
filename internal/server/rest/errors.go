package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/server/services"
	"github.com/dmitrijs2005/myplanner/internal/server/tenancy"
	"github.com/gin-gonic/gin"
)

const (
	msgCredentials = "could not validate credentials"
	msgRefresh     = "invalid or expired refresh token"
)

// describe maps every error kind to its HTTP status, error code and public
// message. Kinds that would let a caller tell failures apart share one
// message.
func describe(k common.Kind) (status int, code, message string) {
	switch k {
	case common.KindInternal:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	case common.KindWeakPassword:
		return http.StatusBadRequest, "weak_password", "password does not meet the policy"
	case common.KindDuplicateSubject:
		return http.StatusConflict, "duplicate_username", "username already registered"
	case common.KindInvalidCredentials, common.KindInvalidToken, common.KindTokenExpired:
		return http.StatusUnauthorized, "unauthorized", msgCredentials
	case common.KindInvalidOrRevokedToken, common.KindPrincipalNotFound:
		return http.StatusUnauthorized, "invalid_refresh_token", msgRefresh
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

// writeError renders err. Errors outside the auth taxonomy that handlers
// expect (validation, missing rows) are matched first.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respondError(c, http.StatusNotFound, "not_found", "resource not found")
		return
	case errors.Is(err, services.ErrInvalidTask):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	case errors.Is(err, tenancy.ErrNoSubject):
		unauthorized(c, "unauthorized", msgCredentials)
		return
	}

	status, code, message := describe(common.KindOf(err))

	var ae *common.AuthError
	if errors.As(err, &ae) && ae.Kind == common.KindWeakPassword && ae.Reason != "" {
		message = ae.Reason
	}
	if status == http.StatusUnauthorized {
		unauthorized(c, code, message)
		return
	}
	respondError(c, status, code, message)
}

func unauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	abortError(c, http.StatusUnauthorized, code, message)
}
