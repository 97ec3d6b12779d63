package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orderlane/orderlane/internal/domain/auth"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		action Action
		role   auth.Role
		want   bool
	}{
		{"client edits pending", StatusPending, ActionEdit, auth.RoleClient, true},
		{"staff edits pending", StatusPending, ActionEdit, auth.RoleStaff, true},
		{"admin edits pending", StatusPending, ActionEdit, auth.RoleAdmin, true},
		{"client cancels pending", StatusPending, ActionCancel, auth.RoleClient, true},
		{"staff cancels pending", StatusPending, ActionCancel, auth.RoleStaff, true},
		{"admin cancels pending", StatusPending, ActionCancel, auth.RoleAdmin, true},
		{"only admin completes", StatusPending, ActionComplete, auth.RoleAdmin, true},
		{"staff cannot complete", StatusPending, ActionComplete, auth.RoleStaff, false},
		{"client cannot complete", StatusPending, ActionComplete, auth.RoleClient, false},
		{"completed is terminal for admin", StatusCompleted, ActionEdit, auth.RoleAdmin, false},
		{"completed rejects cancel", StatusCompleted, ActionCancel, auth.RoleAdmin, false},
		{"cancelled is terminal", StatusCancelled, ActionEdit, auth.RoleAdmin, false},
		{"cancelled rejects complete", StatusCancelled, ActionComplete, auth.RoleAdmin, false},
		{"unknown status rejected", Status("limbo"), ActionEdit, auth.RoleAdmin, false},
		{"unknown action rejected", StatusPending, Action("ship"), auth.RoleAdmin, false},
		{"unknown role rejected", StatusPending, ActionEdit, auth.Role("ghost"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.status, tt.action, tt.role))
		})
	}
}

func TestNextStatus(t *testing.T) {
	next, ok := NextStatus(StatusPending, ActionEdit)
	assert.True(t, ok)
	assert.Equal(t, StatusPending, next)

	next, ok = NextStatus(StatusPending, ActionCancel)
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, next)

	next, ok = NextStatus(StatusPending, ActionComplete)
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, next)

	_, ok = NextStatus(StatusCompleted, ActionCancel)
	assert.False(t, ok)

	_, ok = NextStatus(StatusCancelled, ActionEdit)
	assert.False(t, ok)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}
