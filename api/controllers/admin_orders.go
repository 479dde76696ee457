package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/api/responses"
	"github.com/pmdelrosario/merkado-backend/api/validators"
	"github.com/pmdelrosario/merkado-backend/internal/orders"
	"github.com/pmdelrosario/merkado-backend/pkg/enums"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
	"github.com/pmdelrosario/merkado-backend/pkg/pagination"
)

// AdminOrdersList returns a filtered, cursor-paginated order page.
func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminOrderDetail returns the staff view with packing tones and the payment
// delta.
func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDetail(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type statusPatchRequest struct {
	Status string `json:"status" validate:"required"`
}

func AdminOrderStatusPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req statusPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateStatus(r.Context(), id, enums.OrderStatus(req.Status)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": req.Status})
	}
}

type deliveryStatusPatchRequest struct {
	DeliveryStatus string `json:"delivery_status" validate:"required"`
}

func AdminOrderDeliveryStatusPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req deliveryStatusPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateDeliveryStatus(r.Context(), id, enums.DeliveryStatus(req.DeliveryStatus)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"delivery_status": req.DeliveryStatus})
	}
}

type paidStatusPatchRequest struct {
	PaidStatus string `json:"paid_status" validate:"required"`
}

func AdminOrderPaidStatusPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req paidStatusPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdatePaidStatus(r.Context(), id, enums.PaidStatus(req.PaidStatus)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"paid_status": req.PaidStatus})
	}
}

type packedQtyPatchRequest struct {
	PackedQty *int `json:"packed_qty"`
}

// AdminOrderPackedQtyPatch sets one line's packed quantity. A null value
// resets the line to not-yet-packed.
func AdminOrderPackedQtyPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid line id"))
			return
		}
		var req packedQtyPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdatePackedQty(r.Context(), id, lineID, req.PackedQty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"packed_qty": req.PackedQty})
	}
}

type amountPaidPatchRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

func AdminOrderAmountPaidPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req amountPaidPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateAmountPaid(r.Context(), id, req.AmountPaid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"amount_paid": req.AmountPaid})
	}
}

type fieldsPatchRequest struct {
	Name            *string          `json:"name"`
	Email           *string          `json:"email"`
	Phone           *string          `json:"phone"`
	AddressLine     *string          `json:"address_line"`
	Barangay        *string          `json:"barangay"`
	City            *string          `json:"city"`
	PostalCode      *string          `json:"postal_code"`
	Notes           *string          `json:"notes"`
	DeliveryDate    *string          `json:"delivery_date"`
	DeliverySlot    *string          `json:"delivery_slot"`
	ExpressDelivery *bool            `json:"express_delivery"`
	AddThermalBag   *bool            `json:"add_thermal_bag"`
	DeliveryFee     *decimal.Decimal `json:"delivery_fee"`
	CreatedAt       *time.Time       `json:"created_at"`
}

func AdminOrderFieldsPatch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req fieldsPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := orders.FieldPatch{
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
			DeliveryFee:     req.DeliveryFee,
			CreatedAt:       req.CreatedAt,
		}
		if err := svc.PatchFields(r.Context(), id, patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

type addLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type addLinesRequest struct {
	Lines []addLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// AdminOrderAddLines appends lines priced at this moment and returns the
// recomputed detail.
func AdminOrderAddLines(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req addLinesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]orders.AddLineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be a valid id"))
				return
			}
			inputs = append(inputs, orders.AddLineInput{ProductID: productID, Qty: line.Qty})
		}

		detail, err := svc.AddLines(r.Context(), id, inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// AdminOrderProofReplace swaps the stored payment proof for the uploaded
// file.
func AdminOrderProofReplace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxProofUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request"))
			return
		}
		file, header, err := r.FormFile("proof")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "proof file is required"))
			return
		}
		defer file.Close()

		detail, err := svc.ReplaceProof(r.Context(), id, orders.ProofFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func AdminOrderProofRemove(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveProof(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func AdminOrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func orderIDFromURL(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return id, nil
}

func listFilterFromQuery(r *http.Request) (orders.ListFilter, error) {
	var filter orders.ListFilter
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := enums.OrderStatus(raw)
		if !status.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("paid_status")); raw != "" {
		status := enums.PaidStatus(raw)
		if !status.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid paid_status filter")
		}
		filter.PaidStatus = &status
	}
	if raw := strings.TrimSpace(q.Get("delivery_status")); raw != "" {
		status := enums.DeliveryStatus(raw)
		if !status.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery_status filter")
		}
		filter.DeliveryStatus = &status
	}
	if raw := strings.TrimSpace(q.Get("delivery_date")); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery_date filter")
		}
		filter.DeliveryDate = &date
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit")
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(q.Get("cursor")); raw != "" {
		cursor, err := pagination.ParseCursor(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		filter.Cursor = cursor
	}
	return filter, nil
}
