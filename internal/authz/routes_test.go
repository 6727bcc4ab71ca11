package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/models"
)

func TestRouteTableMatrix(t *testing.T) {
	table, err := DefaultRouteTable("/api/v1")
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		role models.Role
		want bool
	}{
		{"admin teachers", "/api/v1/teachers", models.RoleAdmin, true},
		{"teacher teachers", "/api/v1/teachers", models.RoleTeacher, true},
		{"student teachers", "/api/v1/teachers", models.RoleStudent, false},
		{"student teacher detail", "/api/v1/teachers/T1", models.RoleStudent, false},
		{"student exams", "/api/v1/exams", models.RoleStudent, true},
		{"student courses", "/api/v1/courses", models.RoleStudent, false},
		{"teacher courses", "/api/v1/courses", models.RoleTeacher, false},
		{"admin courses", "/api/v1/courses", models.RoleAdmin, true},
		{"student classes", "/api/v1/classes/9", models.RoleStudent, false},
		{"teacher dashboard", "/api/v1/dashboard", models.RoleTeacher, true},
		{"student announcements", "/api/v1/announcements", models.RoleStudent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Allowed(tt.path, tt.role))
		})
	}
}

func TestRouteTableIntersection(t *testing.T) {
	table, err := DefaultRouteTable("/api/v1")
	require.NoError(t, err)

	// /results/export matches both the broad results rule and the narrower
	// export rule; every matching rule must allow the role
	assert.True(t, table.Allowed("/api/v1/results/export", models.RoleAdmin))
	assert.True(t, table.Allowed("/api/v1/results/export", models.RoleTeacher))
	assert.False(t, table.Allowed("/api/v1/results/export", models.RoleStudent))
	assert.True(t, table.Allowed("/api/v1/results/R1", models.RoleStudent))

	assert.True(t, table.Allowed("/api/v1/chat/sync", models.RoleAdmin))
	assert.False(t, table.Allowed("/api/v1/chat/sync", models.RoleTeacher))
	assert.True(t, table.Allowed("/api/v1/chat/token", models.RoleTeacher))
}

func TestRouteTableUnmatchedPathAllowed(t *testing.T) {
	table, err := DefaultRouteTable("/api/v1")
	require.NoError(t, err)

	// departments and chapters carry no route rule; row scoping still
	// applies downstream
	assert.True(t, table.Allowed("/api/v1/departments", models.RoleStudent))
	assert.True(t, table.Allowed("/api/v1/chapters", models.RoleStudent))
}

func TestRouteTablePatternsAnchored(t *testing.T) {
	table, err := NewRouteTable([]RouteEntry{
		{Pattern: "/admin", Roles: []models.Role{models.RoleAdmin}},
	})
	require.NoError(t, err)

	assert.False(t, table.Allowed("/admin", models.RoleStudent))
	// the pattern has no suffix wildcard, so sub-paths do not match it
	assert.True(t, table.Allowed("/admin/settings", models.RoleStudent))
	assert.True(t, table.Allowed("/not-admin", models.RoleStudent))
}

func TestNewRouteTableRejectsBadPattern(t *testing.T) {
	_, err := NewRouteTable([]RouteEntry{{Pattern: "/teachers([", Roles: nil}})
	assert.Error(t, err)
}
