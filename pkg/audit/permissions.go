package audit

// Permission is one entry in a user's permission set (spec §4.12).
// Resource/Action may be "*" to match any value; Conditions, if present,
// must be a subset of the request context supplied to CheckPermission.
type Permission struct {
	Resource   string
	Action     string
	Conditions map[string]string
}

// CheckPermission reports whether any permission in perms authorizes
// (resource, action) under the given request context (spec §4.12:
// "`*` matches any; optional condition map must match subset of request
// context").
func CheckPermission(perms []Permission, resource, action string, context map[string]string) bool {
	for _, p := range perms {
		if p.Resource != "*" && p.Resource != resource {
			continue
		}
		if p.Action != "*" && p.Action != action {
			continue
		}
		if conditionsSubsetMatch(p.Conditions, context) {
			return true
		}
	}
	return false
}

func conditionsSubsetMatch(conditions, context map[string]string) bool {
	for k, v := range conditions {
		if context[k] != v {
			return false
		}
	}
	return true
}
