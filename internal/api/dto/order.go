package dto

type OrderResponse struct {
	OrderID       int            `json:"order_id"`
	FarmerName    string         `json:"farmer_name,omitempty"`
	Village       string         `json:"village"`
	Taluka        string         `json:"taluka"`
	District      string         `json:"district"`
	State         string         `json:"state"`
	PlantQuantity int            `json:"plant_quantity"`
	LocationKey   string         `json:"location_key"`
	Payload       map[string]any `json:"payload,omitempty"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}
