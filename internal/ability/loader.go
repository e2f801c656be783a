package ability

// DedupGrants normalizes role-level grant rows into a rule set. The merge key
// is `action-subject`; the first occurrence wins and later duplicates are
// dropped. Rows carrying an action outside the enumeration are skipped.
func DedupGrants(grants []Grant) RuleSet {
	rules := make(RuleSet, len(grants))
	for _, g := range grants {
		action, ok := ParseAction(string(g.Action))
		if !ok || g.Subject == "" {
			continue
		}
		rules.Add(Rule{Action: action, Subject: g.Subject})
	}
	return rules
}

// ExpandOverrides flattens override records into explicit tuples, preserving
// the record order handed in by the store.
func ExpandOverrides(records []OverrideRecord) []OverrideTuple {
	var tuples []OverrideTuple
	for _, rec := range records {
		if rec.Subject == "" {
			continue
		}
		tuples = append(tuples, rec.Tuples()...)
	}
	return tuples
}
