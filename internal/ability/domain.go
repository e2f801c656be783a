package ability

// Action is one of the fixed capability verbs evaluated by the engine.
type Action string

// Capability verbs. Manage is the blanket verb covering every other action.
const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionPost    Action = "post"
	ActionExport  Action = "export"
	ActionImport  Action = "import"
	ActionManage  Action = "manage"
)

// SubjectAll is the wildcard subject. A grant on it applies to every subject.
const SubjectAll = "all"

// SubjectAuth is the subject of the minimal baseline rule handed to users
// without a role assignment.
const SubjectAuth = "Auth"

// Actions returns the full verb enumeration in canonical order.
func Actions() []Action {
	return []Action{
		ActionRead,
		ActionCreate,
		ActionUpdate,
		ActionDelete,
		ActionApprove,
		ActionPost,
		ActionExport,
		ActionImport,
		ActionManage,
	}
}

// ParseAction validates a stored action string against the enumeration.
func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete,
		ActionApprove, ActionPost, ActionExport, ActionImport, ActionManage:
		return Action(raw), true
	}
	return "", false
}

// Rule is a single (action, subject) authorization rule.
type Rule struct {
	Action  Action `json:"action"`
	Subject string `json:"subject"`
}

// Key returns the composite merge key for the rule.
func (r Rule) Key() string {
	return string(r.Action) + "-" + r.Subject
}

// Identity carries the attributes of an authenticated actor the engine needs.
// RoleID zero means the assignment is looked up from the store.
type Identity struct {
	UserID       int64
	TenantID     int64
	RoleID       int64
	IsSuperAdmin bool
}

// Grant is a role-level permission row as stored.
type Grant struct {
	RoleID  int64
	Action  Action
	Subject string
}

// OverrideRecord mirrors one user_privileges row: a per-subject exception
// with one nullable boolean per overridable action. Nil means no opinion.
type OverrideRecord struct {
	UserID   int64
	TenantID int64
	Subject  string

	CanRead    *bool
	CanCreate  *bool
	CanUpdate  *bool
	CanDelete  *bool
	CanApprove *bool
	CanPost    *bool
	CanExport  *bool
	CanImport  *bool
}

// OverrideTuple is one expanded override decision.
type OverrideTuple struct {
	Action  Action
	Subject string
	Granted bool
}

// Tuples expands the record's non-null fields into explicit tuples, in the
// canonical action order. A record contributes zero to eight tuples.
func (r OverrideRecord) Tuples() []OverrideTuple {
	fields := []struct {
		action Action
		value  *bool
	}{
		{ActionRead, r.CanRead},
		{ActionCreate, r.CanCreate},
		{ActionUpdate, r.CanUpdate},
		{ActionDelete, r.CanDelete},
		{ActionApprove, r.CanApprove},
		{ActionPost, r.CanPost},
		{ActionExport, r.CanExport},
		{ActionImport, r.CanImport},
	}
	var tuples []OverrideTuple
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		tuples = append(tuples, OverrideTuple{Action: f.action, Subject: r.Subject, Granted: *f.value})
	}
	return tuples
}
