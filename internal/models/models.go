package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusPlaced    = "Placed"
	OrderStatusConfirmed = "Confirmed"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

type Customer struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string `gorm:"unique;not null"           json:"username"`
	Email        string `gorm:"unique;not null"           json:"email"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	Phone        string `json:"phone"`
	Role         string `gorm:"not null;default:customer" json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"       json:"id"`
	Token     string `gorm:"unique;not null"  json:"token"`
	UserID    uint   `gorm:"index;not null"   json:"user_id"`
	Role      string `json:"role"`
	JTI       string `gorm:"index"            json:"jti"`
	ExpiresAt int64  `gorm:"not null"         json:"expires_at"`
	Revoked   bool   `gorm:"default:false"    json:"revoked"`
}

type Restaurant struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID        uint            `gorm:"index;not null"           json:"owner_id"`
	Name           string          `gorm:"not null"                 json:"name"`
	Address        string          `gorm:"not null"                 json:"address"`
	Phone          string          `json:"phone"`
	Description    string          `json:"description"`
	Email          string          `json:"email"`
	DeliveryCharge decimal.Decimal `gorm:"type:decimal(5,2)"        json:"delivery_charge"`
	MinOrder       decimal.Decimal `gorm:"type:decimal(5,2)"        json:"min_order"`
	IsFeatured     bool            `gorm:"default:false"            json:"is_featured"`
	IsApproved     bool            `gorm:"default:false"            json:"is_approved"`
	CreatedAt      time.Time       `json:"created_at"`
}

type FoodItem struct {
	ID                  uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	RestaurantID        uint            `gorm:"index;not null"              json:"restaurant_id"`
	Name                string          `gorm:"not null"                    json:"name"`
	Price               decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Description         string          `json:"description"`
	SpecialInstructions string          `json:"special_instructions"`
}

// CartEntry holds at most one row per (customer, food) pair; repeat adds
// increment Quantity instead of inserting a second row.
type CartEntry struct {
	ID         uint `gorm:"primaryKey"                             json:"id"`
	CustomerID uint `gorm:"uniqueIndex:idx_customer_food;not null" json:"customer_id"`
	FoodID     uint `gorm:"uniqueIndex:idx_customer_food;not null" json:"food_id"`
	Quantity   uint `gorm:"default:1;check:quantity>0"             json:"quantity"`
}

type DeliveryAddress struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint   `gorm:"index;not null"           json:"customer_id"`
	Address    string `gorm:"not null"                 json:"address"`
	City       string `gorm:"not null"                 json:"city"`
	State      string `json:"state"`
	Zip        string `json:"zip"`
	IsDefault  bool   `gorm:"default:false"            json:"is_default"`
}

type PaymentMethod struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint   `gorm:"index;not null"           json:"customer_id"`
	CardNumber string `gorm:"not null"                 json:"card_number"`
	CardHolder string `gorm:"not null"                 json:"card_holder"`
	ExpiryDate string `json:"expiry_date"`
	IsDefault  bool   `gorm:"default:false"            json:"is_default"`
}

type Preferences struct {
	ID                   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID           uint   `gorm:"uniqueIndex;not null"     json:"customer_id"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	Language             string `gorm:"default:English"          json:"language"`
	Theme                string `gorm:"default:Light"            json:"theme"`
}

// Order.DeliveryAddress is a text snapshot taken at placement time, so later
// edits to the customer's address book never touch historical orders.
type Order struct {
	ID              uint            `gorm:"primaryKey"                  json:"id"`
	CustomerID      uint            `gorm:"index;not null"              json:"customer_id"`
	Status          string          `gorm:"not null"                    json:"status"`
	TotalPrice      decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_price"`
	DeliveryAddress string          `gorm:"not null"                    json:"delivery_address"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderItem.UnitPrice is the food price frozen at placement time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	FoodID    uint            `gorm:"not null"                    json:"food_id"`
	Quantity  uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unit_price"`
}

type Review struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"               json:"id"`
	CustomerID   uint      `gorm:"index;not null"                         json:"customer_id"`
	Rating       int       `gorm:"not null;check:rating>=1 AND rating<=5" json:"rating"`
	ReviewText   string    `json:"review_text"`
	RestaurantID *uint     `gorm:"index"                                  json:"restaurant_id,omitempty"`
	FoodItemID   *uint     `gorm:"index"                                  json:"food_item_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
