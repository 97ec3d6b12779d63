package order

import "github.com/orderlane/orderlane/internal/domain/auth"

// Action is a lifecycle action applied to an order.
type Action string

const (
	ActionEdit     Action = "edit"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

type transition struct {
	next  Status
	roles map[auth.Role]bool
}

// transitions is the single source of truth for lifecycle legality. It is
// built once and never mutated; no other component may special-case a
// transition. Terminal statuses have no entries, so every action on them is
// rejected. Unknown pairs are illegal, never default-allow.
var transitions = map[Status]map[Action]transition{
	StatusPending: {
		ActionEdit: {
			next:  StatusPending,
			roles: map[auth.Role]bool{auth.RoleAdmin: true, auth.RoleStaff: true, auth.RoleClient: true},
		},
		ActionCancel: {
			next:  StatusCancelled,
			roles: map[auth.Role]bool{auth.RoleAdmin: true, auth.RoleStaff: true, auth.RoleClient: true},
		},
		ActionComplete: {
			next:  StatusCompleted,
			roles: map[auth.Role]bool{auth.RoleAdmin: true},
		},
	},
}

// CanPerform reports whether role may apply action to an order in status.
func CanPerform(status Status, action Action, role auth.Role) bool {
	t, ok := transitions[status][action]
	return ok && t.roles[role]
}

// NextStatus returns the status an order moves to when action is applied in
// status, and whether the pair is legal at all.
func NextStatus(status Status, action Action) (Status, bool) {
	t, ok := transitions[status][action]
	if !ok {
		return "", false
	}
	return t.next, true
}
