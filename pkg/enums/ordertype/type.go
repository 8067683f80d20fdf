package ordertype

type Type struct {
	Name string
}

func (t Type) Code() string {
	return t.Name
}

// UsesTable reports whether orders of this type are seated at a table.
// Takeaway and delivery orders get a token number instead.
func (t Type) UsesTable() bool {
	return t == Types.DineIn
}

type Enum struct {
	DineIn   Type
	Takeaway Type
	Delivery Type
}

var Types = Enum{
	DineIn:   Type{Name: "dine-in"},
	Takeaway: Type{Name: "takeaway"},
	Delivery: Type{Name: "delivery"},
}

var All = []Type{
	Types.DineIn,
	Types.Takeaway,
	Types.Delivery,
}

func ByName(name string) *Type {
	for _, t := range All {
		if t.Name == name {
			return &t
		}
	}
	return nil
}
