package enums

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// OrderStatus tracks the lifecycle of a customer order. Values are persisted as integers.
type OrderStatus int

const (
	OrderStatusPending    OrderStatus = 1
	OrderStatusConfirmed  OrderStatus = 2
	OrderStatusInProgress OrderStatus = 3
	OrderStatusDelivered  OrderStatus = 4
	OrderStatusCancelled  OrderStatus = 5
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusInProgress,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:    "pending",
	OrderStatusConfirmed:  "confirmed",
	OrderStatusInProgress: "in_progress",
	OrderStatusDelivered:  "delivered",
	OrderStatusCancelled:  "cancelled",
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusDelivered, OrderStatusCancelled},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("order_status(%d)", int(s))
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the legal successors of s.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	out := make([]OrderStatus, len(orderStatusTransitions[s]))
	copy(out, orderStatusTransitions[s])
	return out
}

// MarshalText renders the status by name.
func (s OrderStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts either the status name or its numeric code.
func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the numeric code.
func (s OrderStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return int64(s), nil
}

// Scan reads the numeric code back from any supported driver.
func (s *OrderStatus) Scan(src any) error {
	var code int64
	switch v := src.(type) {
	case int64:
		code = v
	case int32:
		code = int64(v)
	case int16:
		code = int64(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan order status: %w", err)
		}
		code = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("scan order status: %w", err)
		}
		code = n
	default:
		return fmt.Errorf("scan order status: unsupported type %T", src)
	}
	if !OrderStatus(code).IsValid() {
		return fmt.Errorf("scan order status: invalid code %d", code)
	}
	*s = OrderStatus(code)
	return nil
}

// ParseOrderStatus converts raw input (name or numeric code) into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(raw); err == nil {
		if candidate := OrderStatus(n); candidate.IsValid() {
			return candidate, nil
		}
		return 0, fmt.Errorf("invalid order status %q", value)
	}
	for _, candidate := range validOrderStatuses {
		if orderStatusNames[candidate] == raw {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("invalid order status %q", value)
}
