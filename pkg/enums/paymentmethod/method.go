package paymentmethod

type Method struct {
	Name string
}

func (m Method) Code() string {
	return m.Name
}

// GivesChange reports whether the tendered amount may exceed the bill.
func (m Method) GivesChange() bool {
	return m == Methods.Cash
}

type Enum struct {
	Cash  Method
	Card  Method
	UPI   Method
	Split Method
}

var Methods = Enum{
	Cash:  Method{Name: "cash"},
	Card:  Method{Name: "card"},
	UPI:   Method{Name: "upi"},
	Split: Method{Name: "split"},
}

var All = []Method{
	Methods.Cash,
	Methods.Card,
	Methods.UPI,
	Methods.Split,
}

func ByName(name string) *Method {
	for _, m := range All {
		if m.Name == name {
			return &m
		}
	}
	return nil
}
