package model

// Identity is the acting user of a session. It is one of Guest, Customer,
// StoreManager or Courier; consumers switch on the concrete type.
type Identity interface {
	isIdentity()
	Role() Role
}

type Role string

const (
	RoleGuest        Role = "guest"
	RoleCustomer     Role = "customer"
	RoleStoreManager Role = "store"
	RoleCourier      Role = "delivery"
)

type Guest struct{}

type Customer struct {
	ID       int64
	Name     string
	Email    string
	Document string
}

type StoreManager struct {
	ID      int64
	Name    string
	Email   string
	StoreID int64
}

type Courier struct {
	ID    int64
	Name  string
	Email string
}

func (Guest) isIdentity()        {}
func (Customer) isIdentity()     {}
func (StoreManager) isIdentity() {}
func (Courier) isIdentity()      {}

func (Guest) Role() Role        { return RoleGuest }
func (Customer) Role() Role     { return RoleCustomer }
func (StoreManager) Role() Role { return RoleStoreManager }
func (Courier) Role() Role      { return RoleCourier }
