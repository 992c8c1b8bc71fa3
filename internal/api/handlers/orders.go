package handlers

import (
	"net/http"

	"agri-route-service/internal/api/dto"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

// OrderHandler exposes read-only order retrieval endpoints.
type OrderHandler struct {
	Repo ports.OrderRepository
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	orders, err := h.Repo.ListOrders(r.Context())
	if err != nil {
		obs.Logf(r.Context(), "list orders failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListOrdersResponse{
		Orders: make([]dto.OrderResponse, 0, len(orders)),
	}
	for _, o := range orders {
		res.Orders = append(res.Orders, dto.OrderResponse{
			OrderID:       o.OrderID,
			FarmerName:    o.FarmerName,
			Village:       o.Village,
			Taluka:        o.Taluka,
			District:      o.District,
			State:         o.State,
			PlantQuantity: o.PlantQuantity,
			LocationKey:   o.Query().Key(),
			Payload:       o.Payload,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
