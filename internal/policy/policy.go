// Package policy decides whether an authenticated user may act on an entity.
//
// Entities opt in to checks by implementing Owned (strict ownership) and
// Involved (mutual visibility). Anything else is denied by the object-level
// rules; the decision functions never panic and never return errors.
package policy

// Owned is implemented by entities that know which users own them.
type Owned interface {
	OwnedBy(userID uint) bool
}

// Involved is implemented by entities visible to more than their owner,
// such as both ends of a contact or the host of an event.
type Involved interface {
	Involves(userID uint) bool
}

// Action is a REST action on a resource.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// Mutating reports whether the action writes.
func (a Action) Mutating() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		return true
	}
	return false
}

// Rule is an object-level check.
type Rule func(userID uint, obj any) bool

// IsOwner allows userID when obj reports ownership by that user.
func IsOwner(userID uint, obj any) bool {
	if userID == 0 || obj == nil {
		return false
	}
	o, ok := obj.(Owned)
	if !ok {
		return false
	}
	return o.OwnedBy(userID)
}

// IsOwnerOrInvolved extends IsOwner with involvement.
func IsOwnerOrInvolved(userID uint, obj any) bool {
	if IsOwner(userID, obj) {
		return true
	}
	if userID == 0 || obj == nil {
		return false
	}
	inv, ok := obj.(Involved)
	return ok && inv.Involves(userID)
}

// Table holds the per-resource rules. A nil rule means authentication alone
// is enough for that class of action.
type Table struct {
	Write Rule
	Read  Rule
}

var (
	// Owner is the default table: writes need ownership, reads need a login.
	Owner = Table{Write: IsOwner}
	// MutuallyVisible additionally restricts reads to involved users.
	MutuallyVisible = Table{Write: IsOwner, Read: IsOwnerOrInvolved}
	// Open lets any authenticated user act.
	Open = Table{}
)

// Allow gates action on obj for userID. userID zero means anonymous and is
// always denied. For list actions obj may be nil; the rule is only evaluated
// when an object is present.
func (t Table) Allow(userID uint, action Action, obj any) bool {
	if userID == 0 {
		return false
	}
	rule := t.Read
	if action.Mutating() {
		rule = t.Write
	}
	if rule == nil {
		return true
	}
	if action == ActionList && obj == nil {
		return true
	}
	return rule(userID, obj)
}
