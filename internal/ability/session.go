package ability

import (
	"encoding/json"
	"strconv"

	"github.com/vertex-erp/vertex/internal/shared"
)

// Session value keys for the identity and rule payload attached at login.
const (
	sessionKeyRules      = "ability_rules"
	sessionKeyTenant     = "tenant_id"
	sessionKeyRole       = "role"
	sessionKeySuperAdmin = "is_super_admin"
)

// AttachToSession stores the identity metadata and the serialized rule set
// on the session. The session is not considered established for protected
// requests until this has run.
func AttachToSession(sess *shared.Session, identity Identity, roleCode string, rules RuleSet) error {
	if sess == nil {
		return ErrInvalidIdentity
	}
	payload, err := json.Marshal(rules.Rules())
	if err != nil {
		return err
	}
	sess.SetUser(strconv.FormatInt(identity.UserID, 10))
	sess.Set(sessionKeyTenant, strconv.FormatInt(identity.TenantID, 10))
	sess.Set(sessionKeyRole, roleCode)
	if identity.IsSuperAdmin {
		sess.Set(sessionKeySuperAdmin, "1")
	} else {
		sess.Set(sessionKeySuperAdmin, "0")
	}
	sess.Set(sessionKeyRules, string(payload))
	return nil
}

// FromSession restores the identity and rule set attached at login. The
// second return is false when the session carries no resolved rules, which
// means no protected operation may proceed.
func FromSession(sess *shared.Session) (Identity, RuleSet, bool) {
	if sess == nil || sess.User() == "" {
		return Identity{}, nil, false
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return Identity{}, nil, false
	}
	tenantID, _ := strconv.ParseInt(sess.Get(sessionKeyTenant), 10, 64)
	identity := Identity{
		UserID:       userID,
		TenantID:     tenantID,
		IsSuperAdmin: sess.Get(sessionKeySuperAdmin) == "1",
	}
	raw := sess.Get(sessionKeyRules)
	if raw == "" {
		return identity, nil, identity.IsSuperAdmin
	}
	var rules []Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return Identity{}, nil, false
	}
	return identity, NewRuleSet(rules...), true
}

// RoleFromSession returns the role code stored at login.
func RoleFromSession(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Get(sessionKeyRole)
}
