// Package rules implements the access-control engine. Every CRUD operation
// is gated by a per-collection policy evaluated against the caller identity
// and the target record's ownership; individual fields can additionally be
// stripped from reads or writes.
//
// Policies are a closed set of predicate values dispatched by the engine, so
// the bundled rule set is plain data: no expression language is evaluated at
// request time.
package rules

import (
	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/model"
)

// Action names a rule slot. The leading dot mirrors the rule-set
// configuration format.
type Action string

const (
	ActionRead   Action = ".read"
	ActionCreate Action = ".create"
	ActionUpdate Action = ".update"
	ActionDelete Action = ".delete"
)

// ActionFor maps an HTTP method to its rule action.
func ActionFor(method string) Action {
	switch method {
	case "POST":
		return ActionCreate
	case "PUT", "PATCH":
		return ActionUpdate
	case "DELETE":
		return ActionDelete
	default:
		return ActionRead
	}
}

// Role is a caller classification relative to the target record.
type Role string

const (
	RoleGuest Role = "Guest" // anyone, authenticated or not
	RoleUser  Role = "User"  // any authenticated caller
	RoleOwner Role = "Owner" // caller whose _id matches the record's _ownerId
)

// Rule is a record-level access predicate.
type Rule interface{ isRule() }

// Allow grants the action unconditionally.
type Allow struct{}

// Deny refuses the action (still bypassed by the admin header).
type Deny struct{}

// Roles grants the action when the caller holds any of the listed roles.
type Roles []Role

// IsOwner grants the action when the caller owns the target record itself.
// Unlike Roles{RoleOwner} it never demands authentication, so it composes
// inside AnyOf without short-circuiting into a 401.
type IsOwner struct{}

// OwnerOfRelated grants the action when the caller owns the record that the
// target's FKField points at in Collection.
type OwnerOfRelated struct {
	Collection string
	FKField    string
}

// AnyOf grants the action when any sub-rule does.
type AnyOf []Rule

func (Allow) isRule()          {}
func (Deny) isRule()           {}
func (Roles) isRule()          {}
func (IsOwner) isRule()        {}
func (OwnerOfRelated) isRule() {}
func (AnyOf) isRule()          {}

// FieldRule governs a single field for the action it is bound to.
type FieldRule interface{ isFieldRule() }

// Strip removes the field from the outgoing read payload, or from the
// incoming write payload before it reaches the store.
type Strip struct{}

// Preserve replaces the incoming value with the stored one, making the field
// effectively write-once when bound to .update.
type Preserve struct{}

// Force overwrites the incoming value with a fixed one; bound to .create it
// pins the field's initial value regardless of what the client sent.
type Force struct{ Value any }

func (Strip) isFieldRule()    {}
func (Preserve) isFieldRule() {}
func (Force) isFieldRule()    {}

// FieldRules maps field name to its per-action rules.
type FieldRules map[string]map[Action]FieldRule

// RecordPolicy overrides the collection policy for one specific record id.
type RecordPolicy struct {
	Actions map[Action]Rule
	Fields  FieldRules
}

// CollectionPolicy is the policy for one collection (or the "*" wildcard).
type CollectionPolicy struct {
	Actions map[Action]Rule
	Fields  FieldRules // applies to every record of the collection
	Records map[string]RecordPolicy
}

// RuleSet maps collection name (or "*") to its policy.
type RuleSet map[string]CollectionPolicy

// Getter resolves related records for OwnerOfRelated. The public store
// satisfies it.
type Getter interface {
	Get(collection, id string) (model.Record, error)
}

// Engine evaluates rules with the resolution order: wildcard default, then
// the collection's own action rule, then a record-id-specific override.
// Field rules accumulate from the collection's wildcard field rules plus the
// record-specific ones.
type Engine struct {
	rules   RuleSet
	related Getter
}

// Wildcard is the default policy applied when a collection has no rule for
// an action: reads are open, creates need any authenticated user, updates
// and deletes need the owner.
func Wildcard() CollectionPolicy {
	return CollectionPolicy{Actions: map[Action]Rule{
		ActionCreate: Roles{RoleUser},
		ActionUpdate: Roles{RoleOwner},
		ActionDelete: Roles{RoleOwner},
	}}
}

// NewEngine builds an engine from a custom rule set layered over the
// wildcard defaults. A custom "*" entry replaces the built-in wildcard.
func NewEngine(related Getter, custom RuleSet) *Engine {
	rs := RuleSet{"*": Wildcard()}
	for name, policy := range custom {
		rs[name] = policy
	}
	return &Engine{rules: rs, related: related}
}

// Request carries everything one access check needs. Data is the existing
// record (or the resolved read payload, which may be a slice); NewData is
// the incoming write payload, mutated in place by field rules.
type Request struct {
	User       model.Record
	Admin      bool
	Collection string
	Action     Action
	Data       any
	NewData    model.Record
}

type fieldBinding struct {
	field string
	rule  FieldRule
}

// Check evaluates the resolved rule for the request and applies field rules.
// A denial returns errs.Credential (403); a role list that requires
// authentication from an anonymous caller returns errs.Authorization (401).
// The admin header bypasses record-level denials but not field rules.
func (e *Engine) Check(req Request) error {
	data, _ := req.Data.(model.Record)
	rule, fields := e.resolve(req.Action, req.Collection, data.ID())

	ok, err := e.eval(rule, req, data)
	if err != nil && !req.Admin {
		return err
	}
	if err == nil && !ok && !req.Admin {
		return errs.Credential()
	}
	for _, b := range fields {
		applyFieldRule(req.Action, b, data, req.NewData)
	}
	return nil
}

// resolve walks default, collection and record layers, keeping the last
// defined rule and accumulating field rules.
func (e *Engine) resolve(action Action, collection, recordID string) (Rule, []fieldBinding) {
	rule := ruleOrDefault(Allow{}, e.rules["*"].Actions[action])
	var fields []fieldBinding

	cp, ok := e.rules[collection]
	if !ok {
		return rule, fields
	}
	rule = ruleOrDefault(rule, cp.Actions[action])
	fields = append(fields, bindingsFor(cp.Fields, action)...)

	if rp, ok := cp.Records[recordID]; ok && recordID != "" {
		rule = ruleOrDefault(rule, rp.Actions[action])
		fields = append(fields, bindingsFor(rp.Fields, action)...)
	}
	return rule, fields
}

func ruleOrDefault(current, override Rule) Rule {
	if override == nil {
		return current
	}
	if roles, ok := override.(Roles); ok && len(roles) == 0 {
		return current
	}
	return override
}

func bindingsFor(fields FieldRules, action Action) []fieldBinding {
	var out []fieldBinding
	for field, byAction := range fields {
		if rule, ok := byAction[action]; ok {
			out = append(out, fieldBinding{field: field, rule: rule})
		}
	}
	return out
}

func (e *Engine) eval(rule Rule, req Request, data model.Record) (bool, error) {
	switch r := rule.(type) {
	case Allow:
		return true, nil
	case Deny:
		return false, nil
	case Roles:
		return e.checkRoles(r, req, data)
	case IsOwner:
		return req.User != nil && data != nil && req.User.ID() == data.OwnerID(), nil
	case OwnerOfRelated:
		return e.ownsRelated(r, req.User, data), nil
	case AnyOf:
		var firstErr error
		for _, sub := range r {
			ok, err := e.eval(sub, req, data)
			if ok {
				return true, nil
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return false, firstErr
	default:
		return false, nil
	}
}

func (e *Engine) checkRoles(roles Roles, req Request, data model.Record) (bool, error) {
	if roles.contains(RoleGuest) {
		return true, nil
	}
	if req.User == nil && !req.Admin {
		return false, errs.Authorization()
	}
	if roles.contains(RoleUser) {
		return true, nil
	}
	if req.User != nil && roles.contains(RoleOwner) {
		return req.User.ID() == data.OwnerID(), nil
	}
	return false, nil
}

func (roles Roles) contains(role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (e *Engine) ownsRelated(rule OwnerOfRelated, user model.Record, data model.Record) bool {
	if user == nil || data == nil {
		return false
	}
	fk, _ := data[rule.FKField].(string)
	if fk == "" {
		return false
	}
	related, err := e.related.Get(rule.Collection, fk)
	if err != nil {
		return false
	}
	return user.ID() == related.OwnerID()
}

// applyFieldRule mutates the read payload (Strip on .read) or the incoming
// write payload (everything else) for one field.
func applyFieldRule(action Action, b fieldBinding, data, newData model.Record) {
	switch r := b.rule.(type) {
	case Strip:
		if action == ActionRead {
			delete(data, b.field)
		} else if newData != nil {
			delete(newData, b.field)
		}
	case Preserve:
		if newData == nil {
			return
		}
		if v, ok := data[b.field]; ok {
			newData[b.field] = model.DeepCopy(v)
		} else {
			delete(newData, b.field)
		}
	case Force:
		if newData != nil {
			newData[b.field] = r.Value
		}
	}
}
