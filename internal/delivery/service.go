package delivery

import (
	"context"
	"fmt"

	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

// Service resolves delivery pricing for an address.
type Service interface {
	ResolveForAddress(ctx context.Context, postalCode, area string) (*Resolution, error)
}

type service struct {
	rules RuleRepository
	logg  *logger.Logger
}

// NewService builds a delivery pricing service.
func NewService(rules RuleRepository, logg *logger.Logger) (Service, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{rules: rules, logg: logg}, nil
}

// ResolveForAddress loads the rules for the postal code and runs the matcher.
// A nil Resolution with a nil error means the address is not yet covered.
func (s *service) ResolveForAddress(ctx context.Context, postalCode, area string) (*Resolution, error) {
	normalized := NormalizePostalCode(postalCode)
	if normalized == "" {
		return nil, nil
	}

	rows, err := s.rules.ListByPostalCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("loading delivery rules: %w", err)
	}

	resolution := Resolve(rows, normalized, area)
	if resolution == nil {
		s.logg.Info(s.logg.WithField(ctx, "postal_code", normalized), "delivery area not covered")
	}
	return resolution, nil
}
