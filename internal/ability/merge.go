package ability

// Merge overlays user-level override tuples onto role-derived rules and
// returns the effective rule set. Overrides win over role grants for the
// same (action, subject) pair: granted=true inserts the rule, granted=false
// removes it. Tuples are applied in the order given, so on a true conflict
// the last writer wins. The inputs are left untouched.
func Merge(roleRules RuleSet, overrides []OverrideTuple) RuleSet {
	effective := roleRules.Clone()
	for _, t := range overrides {
		rule := Rule{Action: t.Action, Subject: t.Subject}
		if t.Granted {
			effective.Add(rule)
		} else {
			effective.Remove(rule)
		}
	}
	return effective
}
