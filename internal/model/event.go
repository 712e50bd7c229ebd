package model

type Event interface {
	Type() string
	// Key groups events of the same aggregate onto one partition.
	Key() string
}

type OrderPlaced struct {
	OrderID     string      `json:"orderId"`
	FirebaseUID string      `json:"firebaseUID"`
	Email       string      `json:"email"`
	TotalAmount float64     `json:"totalAmount"`
	Products    []OrderLine `json:"products"`
}

func (e OrderPlaced) Type() string { return "order.placed" }
func (e OrderPlaced) Key() string  { return e.OrderID }

type OrderStatusChanged struct {
	OrderID   string      `json:"orderId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
}

func (e OrderStatusChanged) Type() string { return "order.status_changed" }
func (e OrderStatusChanged) Key() string  { return e.OrderID }
