package menu

import (
	"sort"
	"strings"

	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/shopspring/decimal"
)

// Selection is the caller's intent: pick option OptionID of modifier
// ModifierID. It carries no price; prices come from the menu definition.
type Selection struct {
	ModifierID string `json:"modifier_id"`
	OptionID   string `json:"option_id"`
}

// SelectedModifier is a selection resolved against the menu item.
type SelectedModifier struct {
	ModifierID      string          `json:"modifier_id"`
	OptionID        string          `json:"option_id"`
	Name            string          `json:"name"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
}

// Resolve validates selections against the item's modifier groups and
// returns them in definition order. Required single-select groups need
// exactly one option, required multi-select groups at least one, and a
// single-select group never takes more than one.
func (m MenuItem) Resolve(selections []Selection) ([]SelectedModifier, error) {
	const op = "menu.Resolve"

	chosen := make(map[string]map[string]bool, len(selections))
	for _, sel := range selections {
		mod, ok := m.modifier(sel.ModifierID)
		if !ok {
			return nil, poserr.Validation(op, "unknown modifier %q for %s", sel.ModifierID, m.Name)
		}
		if _, ok := mod.option(sel.OptionID); !ok {
			return nil, poserr.Validation(op, "unknown option %q for modifier %s", sel.OptionID, mod.Name)
		}
		if chosen[mod.ID] == nil {
			chosen[mod.ID] = map[string]bool{}
		}
		if chosen[mod.ID][sel.OptionID] {
			return nil, poserr.Validation(op, "option %q selected twice for modifier %s", sel.OptionID, mod.Name)
		}
		chosen[mod.ID][sel.OptionID] = true
	}

	var resolved []SelectedModifier
	for _, mod := range m.Modifiers {
		picked := chosen[mod.ID]
		switch {
		case mod.Required && len(picked) == 0:
			return nil, poserr.Validation(op, "modifier %s requires a selection", mod.Name)
		case !mod.MultiSelect && len(picked) > 1:
			return nil, poserr.Validation(op, "modifier %s allows a single option", mod.Name)
		}

		for _, opt := range mod.Options {
			if !picked[opt.ID] {
				continue
			}
			resolved = append(resolved, SelectedModifier{
				ModifierID:      mod.ID,
				OptionID:        opt.ID,
				Name:            opt.Name,
				PriceAdjustment: opt.Price,
			})
		}
	}

	return resolved, nil
}

// Key is a canonical form of a modifier set: two sets with the same
// (modifier, option) pairs have the same key whatever their order.
func Key(mods []SelectedModifier) string {
	pairs := make([]string, 0, len(mods))
	for _, m := range mods {
		pairs = append(pairs, m.ModifierID+"="+m.OptionID)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}
