package kitchen

import "time"

type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

const (
	warningAfterMinutes  = 5
	criticalAfterMinutes = 10
)

func UrgencyFor(elapsedMinutes int) Urgency {
	switch {
	case elapsedMinutes < warningAfterMinutes:
		return UrgencyNormal
	case elapsedMinutes < criticalAfterMinutes:
		return UrgencyWarning
	default:
		return UrgencyCritical
	}
}

// TicketView is a ticket as a station display shows it at a given instant.
type TicketView struct {
	Ticket
	ElapsedMinutes int     `json:"elapsed_minutes"`
	Urgency        Urgency `json:"urgency"`
}

func ViewOf(t Ticket, now time.Time) TicketView {
	elapsed := t.ElapsedMinutes(now)
	return TicketView{
		Ticket:         t,
		ElapsedMinutes: elapsed,
		Urgency:        UrgencyFor(elapsed),
	}
}
