package domain

import "strings"

// Order is a single farmer order. The planner only reads the location fields and
// PlantQuantity; everything else is carried through untouched.
type Order struct {
	OrderID       int            `json:"order_id"`
	FarmerName    string         `json:"farmer_name,omitempty"`
	Village       string         `json:"village"`
	Taluka        string         `json:"taluka"`
	District      string         `json:"district"`
	State         string         `json:"state"`
	PlantQuantity int            `json:"plant_quantity"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// Query returns the administrative tuple the order is delivered to.
func (o *Order) Query() LocationQuery {
	return LocationQuery{Village: o.Village, Taluka: o.Taluka, District: o.District, State: o.State}
}

// LocationGroup is every order sharing one village/taluka/district key: the atomic
// unit of geocoding and routing. Coords and Geocode stay nil until resolution.
type LocationGroup struct {
	Key      string         `json:"key"`
	Village  string         `json:"village"`
	Taluka   string         `json:"taluka"`
	District string         `json:"district"`
	State    string         `json:"state"`
	Orders   []*Order       `json:"orders"`
	Coords   *Coordinates   `json:"coords,omitempty"`
	Geocode  *GeocodeResult `json:"geocode,omitempty"`
}

func (g *LocationGroup) Query() LocationQuery {
	return LocationQuery{Village: g.Village, Taluka: g.Taluka, District: g.District, State: g.State}
}

// TotalPlants sums plant quantities over all orders in the group.
func (g *LocationGroup) TotalPlants() int {
	total := 0
	for _, o := range g.Orders {
		total += o.PlantQuantity
	}
	return total
}

// SetGeocode replaces the resolution result and the derived coordinate together.
func (g *LocationGroup) SetGeocode(r GeocodeResult) {
	c := r.Coords
	g.Coords = &c
	g.Geocode = &r
}

// LocationKey builds the natural identity "village|taluka|district".
// Fields are trimmed, whitespace-collapsed and lower-cased so that trivially
// different spellings of the same address share one group.
func LocationKey(village, taluka, district string) string {
	clean := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return clean(village) + "|" + clean(taluka) + "|" + clean(district)
}

// GroupOrders groups orders by location key, preserving first-seen order.
func GroupOrders(orders []*Order) []*LocationGroup {
	byKey := make(map[string]*LocationGroup, len(orders))
	groups := make([]*LocationGroup, 0, len(orders))
	for _, o := range orders {
		if o == nil {
			continue
		}
		key := LocationKey(o.Village, o.Taluka, o.District)
		g, ok := byKey[key]
		if !ok {
			g = &LocationGroup{
				Key:      key,
				Village:  strings.TrimSpace(o.Village),
				Taluka:   strings.TrimSpace(o.Taluka),
				District: strings.TrimSpace(o.District),
				State:    strings.TrimSpace(o.State),
			}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Orders = append(g.Orders, o)
	}
	return groups
}
