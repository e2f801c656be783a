package ability

import "sort"

// RuleSet is the effective rule set: a presence set keyed by the composite
// `action-subject` key. It is rebuilt in full at authentication time and
// lives only as long as the session it is attached to.
type RuleSet map[string]struct{}

// NewRuleSet builds a set from the given rules.
func NewRuleSet(rules ...Rule) RuleSet {
	s := make(RuleSet, len(rules))
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Baseline is the rule set granted to authenticated users without a role.
func Baseline() RuleSet {
	return NewRuleSet(Rule{Action: ActionRead, Subject: SubjectAuth})
}

// Add inserts the rule. Idempotent.
func (s RuleSet) Add(r Rule) {
	s[r.Key()] = struct{}{}
}

// Remove deletes the rule if present. Idempotent.
func (s RuleSet) Remove(r Rule) {
	delete(s, r.Key())
}

// Has reports whether the exact (action, subject) rule is present.
func (s RuleSet) Has(action Action, subject string) bool {
	_, ok := s[Rule{Action: action, Subject: subject}.Key()]
	return ok
}

// Len returns the number of rules in the set.
func (s RuleSet) Len() int {
	return len(s)
}

// Rules returns the rules sorted by key, suitable for serialization.
func (s RuleSet) Rules() []Rule {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rules := make([]Rule, 0, len(keys))
	for _, k := range keys {
		if r, ok := parseKey(k); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

// Clone returns an independent copy of the set.
func (s RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func parseKey(key string) (Rule, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] != '-' {
			continue
		}
		if action, ok := ParseAction(key[:i]); ok {
			return Rule{Action: action, Subject: key[i+1:]}, true
		}
	}
	return Rule{}, false
}
