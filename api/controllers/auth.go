package controllers

import (
	"net/http"

	"github.com/pmdelrosario/merkado-backend/api/responses"
	"github.com/pmdelrosario/merkado-backend/api/validators"
	"github.com/pmdelrosario/merkado-backend/internal/auth"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StaffLogin authenticates a staff account and returns a bearer token.
func StaffLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
