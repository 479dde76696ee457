package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/api/responses"
	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

type catalogLister interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

type productView struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Size        string          `json:"size"`
	Temperature string          `json:"temperature"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"in_stock"`
}

// ProductsList returns the sellable catalog for the storefront.
func ProductsList(catalog catalogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := catalog.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]productView, 0, len(rows))
		for _, row := range rows {
			views = append(views, productView{
				ID:          row.ID,
				Name:        row.Name,
				Size:        row.Size,
				Temperature: row.Temperature,
				Price:       row.Price,
				InStock:     row.StockQty > 0,
			})
		}
		responses.WriteSuccess(w, views)
	}
}
