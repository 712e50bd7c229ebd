package model

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AddressType string

const (
	AddressHome   AddressType = "Home"
	AddressOffice AddressType = "Office"
	AddressOther  AddressType = "Other"
)

type Address struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserEmail   string             `bson:"userEmail" json:"userEmail"`
	FirebaseUID string             `bson:"firebaseUID" json:"firebaseUID"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone" json:"phone"`
	AddressLine string             `bson:"addressLine" json:"addressLine"`
	City        string             `bson:"city" json:"city"`
	State       string             `bson:"state" json:"state"`
	Zip         string             `bson:"zip" json:"zip"`
	Type        AddressType        `bson:"type" json:"type"`
	IsDefault   bool               `bson:"isDefault" json:"isDefault"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Normalize fills defaults and reports missing or malformed fields.
func (a *Address) Normalize() error {
	if a.Type == "" {
		a.Type = AddressHome
	}
	switch a.Type {
	case AddressHome, AddressOffice, AddressOther:
	default:
		return errors.Wrapf(ErrInvalidInput, "invalid address type %q", a.Type)
	}

	required := []struct {
		name  string
		value string
	}{
		{"userEmail", a.UserEmail},
		{"firebaseUID", a.FirebaseUID},
		{"name", a.Name},
		{"email", a.Email},
		{"phone", a.Phone},
		{"addressLine", a.AddressLine},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidInput, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type AddressRepository interface {
	Create(ctx context.Context, address *Address) error
	UnsetDefault(ctx context.Context, userEmail string) error
	// ListByEmail returns the default address first, then newest first.
	ListByEmail(ctx context.Context, userEmail string) ([]Address, error)
}
