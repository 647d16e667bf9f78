package domain

// Restaurant records stored in the document store. Shapes follow the
// restaurant's existing data: dishes grouped by category, tables with a
// location, reservations and orders keyed by customer.

// Ingredient is one component of a dish, with allergen flags.
type Ingredient struct {
	Name         string `json:"name"`
	IsAllergen   bool   `json:"isAllergen"`
	AllergenType string `json:"allergenType,omitempty"`
}

// Dish is a single menu item.
type Dish struct {
	ID           string       `json:"id,omitempty"`
	Name         string       `json:"name"`
	Category     string       `json:"category"` // starter, main course, dessert, drink
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	IsVegetarian bool         `json:"isVegetarian"`
	Price        float64      `json:"price"` // EUR
}

// Table is a bookable table.
type Table struct {
	ID       string `json:"id,omitempty"`
	NbSeats  int    `json:"nbSeats"`
	Location string `json:"location"` // indoor, outdoor
}

// Reservation books a table for a customer.
type Reservation struct {
	ID              string `json:"id,omitempty"`
	DateTime        string `json:"dateTime"` // ISO 8601
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	NbPerson        int    `json:"nbPerson"`
	TableID         string `json:"tableId,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// Order is a takeaway or delivery order.
type Order struct {
	ID              string  `json:"id,omitempty"`
	CustomerName    string  `json:"customerName"`
	CustomerPhone   string  `json:"customerPhone"`
	Items           []Dish  `json:"items"`
	OrderType       string  `json:"orderType"` // takeaway, delivery
	Status          string  `json:"status"`    // pending, preparing, ready, on the way, delivered, cancelled
	DeliveryAddress string  `json:"deliveryAddress,omitempty"`
	TotalPrice      float64 `json:"totalPrice"`
}

// RestaurantInfo holds general facts about the restaurant (address, hours,
// phone) served by the FAQ handler.
type RestaurantInfo struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Hours   string `json:"hours"`
}
