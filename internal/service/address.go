package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"storefront-backend/internal/model"
)

type AddressService interface {
	Add(ctx context.Context, address model.Address) (*model.Address, error)
	ListByEmail(ctx context.Context, userEmail string) ([]model.Address, error)
}

func NewAddressService(addresses model.AddressRepository) AddressService {
	return &addressService{addresses: addresses}
}

type addressService struct {
	addresses model.AddressRepository
}

func (s *addressService) Add(ctx context.Context, address model.Address) (*model.Address, error) {
	if err := address.Normalize(); err != nil {
		return nil, err
	}
	if address.IsDefault {
		if err := s.addresses.UnsetDefault(ctx, address.UserEmail); err != nil {
			return nil, errors.WithMessage(err, "unset default address")
		}
	}
	address.CreatedAt = time.Now().UTC()
	if err := s.addresses.Create(ctx, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *addressService) ListByEmail(ctx context.Context, userEmail string) ([]model.Address, error) {
	if userEmail == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "please provide an email")
	}
	addresses, err := s.addresses.ListByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	return addresses, nil
}
