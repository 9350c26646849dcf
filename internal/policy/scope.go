package policy

// Scope is the visibility predicate applied when listing cases. Either
// every row is visible (All) or only rows assigned to DetectiveID.
// Query filters are ANDed on top of the scope and can only narrow it.
type Scope struct {
	All         bool
	DetectiveID string
}

// CaseScope computes the list visibility for a principal: managers see
// every case, detectives only the cases assigned to them. The second
// return is false for unknown roles, which see nothing.
func CaseScope(p Principal) (Scope, bool) {
	switch p.Role {
	case RoleManager:
		return Scope{All: true}, true
	case RoleDetective:
		return Scope{DetectiveID: p.ID}, true
	}
	return Scope{}, false
}
