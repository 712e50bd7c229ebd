package model

import "github.com/pkg/errors"

// CartLine is one product in a cart. Price, name and image are captured when the line is first added.
type CartLine struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Image     string  `bson:"image" json:"image"`
}

// The methods below keep CartCount equal to the sum of line quantities
// and hold at most one line per product id.

func (u *User) lineIndex(productID string) int {
	for i, line := range u.Cart {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddLine merges line into the cart. An existing line only has its quantity increased.
func (u *User) AddLine(line CartLine) error {
	if line.Quantity < 1 {
		return errors.Wrapf(ErrInvalidInput, "quantity must be positive, got %d", line.Quantity)
	}
	if i := u.lineIndex(line.ProductID); i >= 0 {
		u.Cart[i].Quantity += line.Quantity
	} else {
		u.Cart = append(u.Cart, line)
	}
	u.CartCount += line.Quantity
	return nil
}

// SetLineQuantity replaces the quantity of an existing line. Zero removes the line.
func (u *User) SetLineQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return errors.Wrapf(ErrInvalidInput, "quantity must not be negative, got %d", quantity)
	}
	i := u.lineIndex(productID)
	if i < 0 {
		return errors.Wrapf(ErrCartLineNotFound, "product %s", productID)
	}
	if quantity == 0 {
		return u.RemoveLine(productID)
	}
	old := u.Cart[i].Quantity
	u.Cart[i].Quantity = quantity
	u.CartCount += quantity - old
	return nil
}

func (u *User) RemoveLine(productID string) error {
	i := u.lineIndex(productID)
	if i < 0 {
		return errors.Wrapf(ErrCartLineNotFound, "product %s", productID)
	}
	u.CartCount -= u.Cart[i].Quantity
	u.Cart = append(u.Cart[:i], u.Cart[i+1:]...)
	return nil
}

func (u *User) ClearCart() {
	u.Cart = []CartLine{}
	u.CartCount = 0
}
