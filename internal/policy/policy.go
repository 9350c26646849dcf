// Package policy is the authorization engine. Every handler consults the
// same declarative table of (role, resource, action) rules instead of
// scattering per-field checks across endpoints, so the documented matrix
// and the enforced one cannot drift apart.
package policy

type Role string

const (
	RoleDetective Role = "detective"
	RoleManager   Role = "manager"
)

// ParseRole validates a role string coming in over the wire.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDetective, RoleManager:
		return Role(s), true
	}
	return "", false
}

type Action string

const (
	ActionReadOne  Action = "read-one"
	ActionReadList Action = "read-list"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

type Resource string

const (
	ResourceUser       Resource = "user"
	ResourceCase       Resource = "case"
	ResourceAssignment Resource = "assignment"
)

// Principal is the authenticated actor. It is built from the verified
// token by the auth middleware, never from a request body.
type Principal struct {
	ID   string
	Role Role
}

// Reason classifies why a decision came out the way it did. Handlers map
// it onto a status code: ReasonNotOwner on a case reads as not-found so a
// denied detective cannot confirm the case exists.
type Reason int

const (
	ReasonAllowed Reason = iota
	ReasonRoleDenied
	ReasonNotOwner
	ReasonFieldDenied
)

type Decision struct {
	Allow        bool
	Reason       Reason
	DeniedFields []string
}

// rule is one row of the permission table. A nil fields slice means every
// field is writable; ownerOnly ties the action to the principal's own
// resource (the assigned detective for a case, the record itself for a
// user).
type rule struct {
	ownerOnly bool
	fields    []string
}

var rules = map[Role]map[Resource]map[Action]rule{
	RoleManager: {
		ResourceCase: {
			ActionReadList: {},
			ActionReadOne:  {},
			ActionCreate:   {},
			ActionUpdate:   {},
			ActionDelete:   {},
		},
		ResourceUser: {
			ActionReadList: {},
			ActionReadOne:  {},
			ActionUpdate:   {fields: []string{"name", "email", "role"}},
		},
		ResourceAssignment: {
			ActionCreate: {},
			ActionDelete: {},
		},
	},
	RoleDetective: {
		ResourceCase: {
			ActionReadList: {ownerOnly: true},
			ActionReadOne:  {ownerOnly: true},
			ActionUpdate:   {ownerOnly: true, fields: []string{"status", "details"}},
		},
		ResourceUser: {
			ActionReadOne: {ownerOnly: true},
			ActionUpdate:  {ownerOnly: true, fields: []string{"name"}},
		},
	},
}

// Authorize decides whether principal p may perform action on a resource.
// ownerID is the resource reference the ownerOnly rules compare against
// and may be empty for unowned resources or list/create actions. changes
// holds the field names an update attempts to modify; one disallowed
// field denies the whole request rather than silently dropping it.
//
// An unknown role, resource or action fails closed.
func Authorize(p Principal, action Action, res Resource, ownerID string, changes []string) Decision {
	byResource, ok := rules[p.Role]
	if !ok {
		return Decision{Reason: ReasonRoleDenied}
	}

	r, ok := byResource[res][action]
	if !ok {
		return Decision{Reason: ReasonRoleDenied}
	}

	if r.ownerOnly && ownerID != p.ID {
		return Decision{Reason: ReasonNotOwner}
	}

	if action == ActionUpdate && r.fields != nil {
		var denied []string
		for _, change := range changes {
			if !containsField(r.fields, change) {
				denied = append(denied, change)
			}
		}
		if len(denied) > 0 {
			return Decision{Reason: ReasonFieldDenied, DeniedFields: denied}
		}
	}

	return Decision{Allow: true, Reason: ReasonAllowed}
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
