package auth

// Capability names a coarse, resource-level permission checked at the HTTP
// boundary. Fine-grained per-row ownership stays with the lifecycle service.
type Capability string

const (
	CapCreateOrder    Capability = "create_order"
	CapViewOwnOrders  Capability = "view_own_orders"
	CapCancelOrder    Capability = "cancel_order"
	CapCreateSale     Capability = "create_sale"
	CapManageSales    Capability = "manage_sales"
	CapManageOrders   Capability = "manage_orders"
	CapManageProducts Capability = "manage_products"
	CapManageUsers    Capability = "manage_users"
)

// Policy maps roles to the capabilities they hold. It is injected into the
// boundary layer; nothing reads it as a package global.
type Policy map[Role]map[Capability]bool

// Allows reports whether role holds cap. Unknown roles and unknown
// capabilities are denied.
func (p Policy) Allows(role Role, cap Capability) bool {
	return p[role][cap]
}

// DefaultPolicy returns the capability matrix for the three built-in roles.
func DefaultPolicy() Policy {
	return Policy{
		RoleAdmin: {
			CapManageSales:    true,
			CapManageOrders:   true,
			CapManageProducts: true,
			CapManageUsers:    true,
			CapViewOwnOrders:  true,
			CapCancelOrder:    true,
		},
		RoleStaff: {
			CapCreateSale:    true,
			CapManageSales:   true,
			CapViewOwnOrders: true,
			CapCancelOrder:   true,
		},
		RoleClient: {
			CapCreateOrder:   true,
			CapViewOwnOrders: true,
			CapCancelOrder:   true,
		},
	}
}
