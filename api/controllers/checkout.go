package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pmdelrosario/merkado-backend/api/middleware"
	"github.com/pmdelrosario/merkado-backend/api/responses"
	"github.com/pmdelrosario/merkado-backend/api/validators"
	"github.com/pmdelrosario/merkado-backend/internal/checkout"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

// Proof images arrive inline in the multipart form; 10 MB covers photos
// straight off a phone camera.
const maxProofUploadBytes = 10 << 20

type checkoutDraftRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AddressLine     string `json:"address_line"`
	Barangay        string `json:"barangay"`
	City            string `json:"city"`
	PostalCode      string `json:"postal_code"`
	Notes           string `json:"notes"`
	DeliveryDate    string `json:"delivery_date"`
	DeliverySlot    string `json:"delivery_slot"`
	ExpressDelivery bool   `json:"express_delivery"`
	AddThermalBag   bool   `json:"add_thermal_bag"`
	SaveProfile     bool   `json:"save_profile"`
	HasProof        bool   `json:"has_proof"`
}

func (req checkoutDraftRequest) toDraft() checkout.Draft {
	return checkout.Draft{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		AddressLine:     req.AddressLine,
		Barangay:        req.Barangay,
		City:            req.City,
		PostalCode:      req.PostalCode,
		Notes:           req.Notes,
		DeliveryDate:    req.DeliveryDate,
		DeliverySlot:    req.DeliverySlot,
		ExpressDelivery: req.ExpressDelivery,
		AddThermalBag:   req.AddThermalBag,
		SaveProfile:     req.SaveProfile,
		HasProof:        req.HasProof,
	}
}

// CheckoutQuote composes the draft against the live cart and returns totals
// plus readiness. It never blocks on incomplete fields.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := middleware.SessionKeyFromContext(r.Context())

		var req checkoutDraftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), sessionKey, req.toDraft())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutSlots returns the selectable delivery slots for a date along with
// the suggested default.
func CheckoutSlots(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := strings.TrimSpace(r.URL.Query().Get("date"))

		suggestion := svc.SuggestSlot(r.Context())
		if date == "" {
			date = suggestion.Date
		}

		day, err := svc.SlotsForDate(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"day":        day,
			"suggestion": suggestion,
		})
	}
}

// CheckoutSubmit accepts the multipart submission: a "payload" JSON part
// with the draft and a "proof" file part with the payment screenshot.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := middleware.SessionKeyFromContext(r.Context())

		if err := r.ParseMultipartForm(maxProofUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request"))
			return
		}

		payload := r.FormValue("payload")
		if payload == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payload part is required"))
			return
		}
		var req checkoutDraftRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payload json"))
			return
		}

		file, header, err := r.FormFile("proof")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "proof file is required"))
			return
		}
		defer file.Close()

		proof := &checkout.ProofFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		}

		result, err := svc.Submit(r.Context(), sessionKey, req.toDraft(), proof)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
