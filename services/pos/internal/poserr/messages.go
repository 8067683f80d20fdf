package poserr

// Shared messages for failures that callers match on in tests and clients
// show verbatim.
const (
	MsgEmptyOrder          = "order has no items"
	MsgInsufficientPayment = "insufficient payment"
	MsgSplitMismatch       = "split payments must sum to the bill total"
	MsgInvalidQuantity     = "quantity must be at least 1"
	MsgItemUnavailable     = "menu item is not available"
	MsgTicketOnHold        = "ticket is on hold"
)

// Category is the user-facing message family for a kind.
func Category(k Kind) string {
	switch k {
	case KindValidation:
		return "Please fix your input"
	case KindNotFound:
		return "The item no longer exists"
	case KindState:
		return "Action not allowed in the current state"
	case KindGateway:
		return "System error, please try again"
	default:
		return "Unexpected error"
	}
}
