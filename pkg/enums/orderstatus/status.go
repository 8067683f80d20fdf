package orderstatus

import "strings"

type Status struct {
	Name string
	rank int
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// Open reports whether the order still occupies its table.
func (s Status) Open() bool {
	return s != Statuses.Completed && s != Statuses.Cancelled
}

// CanTransitionTo allows forward moves along the lifecycle and cancellation
// from any state other than completed. Nothing regresses.
func (s Status) CanTransitionTo(next Status) bool {
	if s == Statuses.Cancelled || s == Statuses.Completed {
		return false
	}
	if next == Statuses.Cancelled {
		return true
	}
	return next.rank > s.rank
}

type Enum struct {
	Pending   Status
	Preparing Status
	Ready     Status
	Served    Status
	Completed Status
	Cancelled Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending", rank: 1},
	Preparing: Status{Name: "preparing", rank: 2},
	Ready:     Status{Name: "ready", rank: 3},
	Served:    Status{Name: "served", rank: 4},
	Completed: Status{Name: "completed", rank: 5},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Completed,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
