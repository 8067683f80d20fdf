package tablestatus

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

type Enum struct {
	Available Status
	Occupied  Status
	Reserved  Status
	Billing   Status
}

var Statuses = Enum{
	Available: Status{Name: "available"},
	Occupied:  Status{Name: "occupied"},
	Reserved:  Status{Name: "reserved"},
	Billing:   Status{Name: "billing"},
}

var All = []Status{
	Statuses.Available,
	Statuses.Occupied,
	Statuses.Reserved,
	Statuses.Billing,
}

func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
