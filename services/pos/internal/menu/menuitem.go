package menu

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/ordertype"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FoodType string

const (
	Veg    FoodType = "veg"
	NonVeg FoodType = "non-veg"
	Egg    FoodType = "egg"
)

// MenuItem is read-only to the order core; admin tooling owns it.
type MenuItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Prices      Prices          `json:"prices"`
	GSTPercent  decimal.Decimal `json:"gst_percent"`
	FoodType    FoodType        `json:"food_type"`
	IsAvailable bool            `json:"is_available"`
	Modifiers   []Modifier      `json:"modifiers,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Prices holds one price per sales channel.
type Prices struct {
	DineIn   decimal.Decimal `json:"dine_in"`
	Takeaway decimal.Decimal `json:"takeaway"`
	Delivery decimal.Decimal `json:"delivery"`
}

type Modifier struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Required    bool             `json:"required"`
	MultiSelect bool             `json:"multi_select"`
	Options     []ModifierOption `json:"options"`
}

type ModifierOption struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func NewMenuItem() *MenuItem {
	return &MenuItem{
		ID:          apt.GenerateNewID(),
		IsAvailable: true,
	}
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

func (m *MenuItem) SetID(id uuid.UUID) {
	m.ID = id
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = apt.GenerateNewID()
	}
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}

// PriceFor returns the channel price for an order type. Unknown types fall
// back to the dine-in price.
func (m MenuItem) PriceFor(t ordertype.Type) decimal.Decimal {
	switch t {
	case ordertype.Types.Takeaway:
		return m.Prices.Takeaway
	case ordertype.Types.Delivery:
		return m.Prices.Delivery
	default:
		return m.Prices.DineIn
	}
}

func (m MenuItem) modifier(id string) (Modifier, bool) {
	for _, mod := range m.Modifiers {
		if mod.ID == id {
			return mod, true
		}
	}
	return Modifier{}, false
}

func (m Modifier) option(id string) (ModifierOption, bool) {
	for _, opt := range m.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return ModifierOption{}, false
}

func (m MenuItem) Clone() MenuItem {
	c := m
	if m.Modifiers != nil {
		c.Modifiers = make([]Modifier, len(m.Modifiers))
		for i, mod := range m.Modifiers {
			c.Modifiers[i] = mod
			c.Modifiers[i].Options = append([]ModifierOption(nil), mod.Options...)
		}
	}
	return c
}
