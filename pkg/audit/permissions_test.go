package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPermissionWildcardResourceMatchesAny(t *testing.T) {
	perms := []Permission{{Resource: "*", Action: "read"}}
	assert.True(t, CheckPermission(perms, "tools", "read", nil))
}

func TestCheckPermissionRequiresExactActionWithoutWildcard(t *testing.T) {
	perms := []Permission{{Resource: "tools", Action: "read"}}
	assert.False(t, CheckPermission(perms, "tools", "write", nil))
}

func TestCheckPermissionConditionsMustBeSubsetOfContext(t *testing.T) {
	perms := []Permission{{Resource: "tools", Action: "run", Conditions: map[string]string{"mode": "safe"}}}
	assert.True(t, CheckPermission(perms, "tools", "run", map[string]string{"mode": "safe", "env": "prod"}))
	assert.False(t, CheckPermission(perms, "tools", "run", map[string]string{"mode": "pro"}))
}
