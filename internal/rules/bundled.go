package rules

// Bundled returns the rule set the server ships with.
//
// The users collection is locked down so accounts can only be created through
// registration and each user can read just their own profile. The members
// collection demonstrates relation-based rules: a membership belongs to a
// team, the team's owner manages it, and the member themselves may leave. The
// teamId of a membership cannot be changed after creation and its status
// always starts out pending.
func Bundled() RuleSet {
	return RuleSet{
		"users": {
			Actions: map[Action]Rule{
				ActionCreate: Deny{},
				ActionRead:   Roles{RoleOwner},
				ActionUpdate: Deny{},
				ActionDelete: Deny{},
			},
		},
		"members": {
			Actions: map[Action]Rule{
				ActionUpdate: OwnerOfRelated{Collection: "teams", FKField: "teamId"},
				ActionDelete: AnyOf{
					OwnerOfRelated{Collection: "teams", FKField: "teamId"},
					IsOwner{},
				},
			},
			Fields: FieldRules{
				"teamId": {ActionUpdate: Preserve{}},
				"status": {ActionCreate: Force{Value: "pending"}},
			},
		},
	}
}
