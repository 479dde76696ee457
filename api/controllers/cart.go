package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pmdelrosario/merkado-backend/api/middleware"
	"github.com/pmdelrosario/merkado-backend/api/responses"
	"github.com/pmdelrosario/merkado-backend/api/validators"
	"github.com/pmdelrosario/merkado-backend/internal/cart"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type setLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty"`
}

// GetCart returns the session cart with resolved prices and the subtotal.
func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := middleware.SessionKeyFromContext(r.Context())

		view, err := svc.GetCart(r.Context(), sessionKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SetCartLine sets the exact quantity for one product. Zero or negative
// removes the line. The response is the refreshed cart.
func SetCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := middleware.SessionKeyFromContext(r.Context())

		var req setLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be a valid id"))
			return
		}

		view, err := svc.SetLineQty(r.Context(), sessionKey, productID, req.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
