package customers

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
	pkgerrors "github.com/pmdelrosario/merkado-backend/pkg/errors"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

// AddressInput is the profile payload saved during checkout.
type AddressInput struct {
	Email       string
	Name        string
	Phone       string
	AddressLine string
	Barangay    string
	City        string
	PostalCode  string
}

// Service maintains customer profiles keyed by email.
type Service interface {
	SaveAddress(ctx context.Context, input AddressInput) error
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type service struct {
	repo CustomerRepository
	logg *logger.Logger
}

// NewService builds the customer profile service.
func NewService(repo CustomerRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// SaveAddress upserts the profile for the given email. Later saves win; the
// profile always reflects the address used on the most recent order.
func (s *service) SaveAddress(ctx context.Context, input AddressInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required to save the profile")
	}

	customer := &models.Customer{
		Email:       email,
		Name:        strings.TrimSpace(input.Name),
		Phone:       strings.TrimSpace(input.Phone),
		AddressLine: strings.TrimSpace(input.AddressLine),
		Barangay:    strings.TrimSpace(input.Barangay),
		City:        strings.TrimSpace(input.City),
		PostalCode:  strings.TrimSpace(input.PostalCode),
	}
	if err := s.repo.Upsert(ctx, customer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving customer profile")
	}
	return nil
}

// GetByEmail loads one profile.
func (s *service) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	customer, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer profile")
	}
	return customer, nil
}
