package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPlanRequest is returned when a plan cannot be attempted at all.
var ErrInvalidPlanRequest = errors.New("invalid plan request")

// CapacityOverflowError reports orders whose own plant quantity exceeds the vehicle
// capacity. They cannot be packed without splitting the order, so they are handed
// back to the caller instead of being dropped.
type CapacityOverflowError struct {
	Capacity int
	Orders   []UnassignedOrder
}

func (e *CapacityOverflowError) Error() string {
	if len(e.Orders) == 1 {
		o := e.Orders[0]
		return fmt.Sprintf("capacity overflow: order %d needs %d plants, vehicle capacity is %d", o.OrderID, o.PlantQuantity, e.Capacity)
	}
	return fmt.Sprintf("capacity overflow: %d orders exceed vehicle capacity %d", len(e.Orders), e.Capacity)
}
