package ability

// Evaluator answers permit/deny decisions against a resolved rule set. The
// check order is explicit so the blanket-grant precedence policy is pinned
// by configuration rather than implied by code layout.
type Evaluator struct {
	// ManageAllFirst checks the blanket `manage-all` grant before the
	// literal lookups. This is the stock policy: a manage-all role cannot
	// be narrowed by a per-subject revocation, because the revocation only
	// removes literal keys. When false the blanket grant is consulted
	// last; the decision outcome is unchanged for presence-only sets, but
	// the order is observable to instrumentation and future deny-aware
	// policies.
	ManageAllFirst bool
}

// NewEvaluator returns the evaluator with the stock precedence policy.
func NewEvaluator() Evaluator {
	return Evaluator{ManageAllFirst: true}
}

// Can reports whether the action on the subject is permitted. Superusers
// bypass the rule set entirely; the set may even be empty for them.
func (e Evaluator) Can(rules RuleSet, action Action, subject string, isSuperAdmin bool) bool {
	if isSuperAdmin {
		return true
	}
	if e.ManageAllFirst && rules.Has(ActionManage, SubjectAll) {
		return true
	}
	if rules.Has(action, subject) {
		return true
	}
	if subject != SubjectAll && rules.Has(action, SubjectAll) {
		return true
	}
	if !e.ManageAllFirst && rules.Has(ActionManage, SubjectAll) {
		return true
	}
	return false
}

// Can evaluates with the stock policy. It performs no I/O and is safe to
// call on every protected operation.
func Can(rules RuleSet, action Action, subject string, isSuperAdmin bool) bool {
	return NewEvaluator().Can(rules, action, subject, isSuperAdmin)
}
