package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidLineItem is returned when a line item carries a negative
// quantity or a negative per-unit hour estimate.
var ErrInvalidLineItem = errors.New("invalid line item")

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	StatusDraft      OrderStatus = "draft"
	StatusApproved   OrderStatus = "approved"
	StatusInProgress OrderStatus = "in_progress"
	StatusFinished   OrderStatus = "finished"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRejected   OrderStatus = "rejected"
)

// IsTerminal reports whether the order no longer consumes technician time.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// LineItem is one entry in an order being quoted. It is immutable once
// handed to the allocator; the order under construction owns it.
type LineItem struct {
	ServiceCategoryID  string  `json:"service_category_id"`
	Quantity           int     `json:"quantity"`
	HoursPerUnit       float64 `json:"hours_per_unit"` // 0 means no time estimate, which is valid
	SharedTimeEligible bool    `json:"shared_time_eligible"`
}

// TotalBaseHours returns the undiscounted labor estimate for the item.
func (li LineItem) TotalBaseHours() float64 {
	return float64(li.Quantity) * li.HoursPerUnit
}

// Validate checks the item before allocation.
func (li LineItem) Validate() error {
	if li.Quantity < 0 {
		return fmt.Errorf("%w: quantity %d", ErrInvalidLineItem, li.Quantity)
	}
	if li.HoursPerUnit < 0 {
		return fmt.Errorf("%w: hours per unit %.2f", ErrInvalidLineItem, li.HoursPerUnit)
	}
	return nil
}

// OrderSummary is the slice of an order the engine needs for workload and
// triage computations. It is read from the store, used once and discarded.
type OrderSummary struct {
	ID                   string      `json:"id"`
	Status               OrderStatus `json:"status"`
	AssignedTechnicianID string      `json:"assigned_technician_id"`
	EstimatedHours       float64     `json:"estimated_hours"`
	CreatedAt            time.Time   `json:"created_at"`
	TargetDeliveryDate   *time.Time  `json:"target_delivery_date,omitempty"`
}

// Order is a full order record as assembled by the order-creation flow.
// The engine never writes it back; the caller persists accepted values.
type Order struct {
	ID                  string      `json:"id"`
	Status              OrderStatus `json:"status"`
	Items               []LineItem  `json:"items"`
	PrimaryTechnicianID string      `json:"primary_technician_id"`
	SupportTechnicianID string      `json:"support_technician_id,omitempty"`
	EstimatedHours      float64     `json:"estimated_hours"`
	DeliveryAt          *time.Time  `json:"delivery_at,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	TargetDeliveryDate  *time.Time  `json:"target_delivery_date,omitempty"`
}

// Summary projects the order down to the fields the engine consumes.
func (o Order) Summary() OrderSummary {
	return OrderSummary{
		ID:                   o.ID,
		Status:               o.Status,
		AssignedTechnicianID: o.PrimaryTechnicianID,
		EstimatedHours:       o.EstimatedHours,
		CreatedAt:            o.CreatedAt,
		TargetDeliveryDate:   o.TargetDeliveryDate,
	}
}
