// Package access holds the role-based visibility rules for scores and raw
// monetary figures. Role is always threaded explicitly; nothing here reads
// ambient session state, and no predicate result is memoized.
package access

// Role is a viewer role. The set is closed; anything else parses to
// RoleUnknown.
type Role string

const (
	RoleUnknown      Role = ""
	RoleSuperAdmin   Role = "super_admin"
	RoleConsultant   Role = "consultant"
	RoleBusinessUser Role = "business_user"
)

// ParseRole maps a stored or user-supplied string to a Role. Matching is
// exact: unrecognized values, including case variants, are RoleUnknown and
// therefore see nothing.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleSuperAdmin, RoleConsultant, RoleBusinessUser:
		return r
	}
	return RoleUnknown
}

// CanSeeFinancials reports whether raw monetary figures may be shown.
// Consultants never see figures, regardless of any other input; unknown
// roles see nothing.
func CanSeeFinancials(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleBusinessUser:
		return true
	}
	return false
}

// CanSeeScores reports whether derived scores may be shown. All three known
// roles may see scores; unknown roles may not.
func CanSeeScores(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleConsultant, RoleBusinessUser:
		return true
	}
	return false
}

// RedactFigures is the flag passed downstream alongside any payload headed
// for the text-generation collaborator. Scores themselves are identical
// across roles; only the figures are withheld.
func RedactFigures(r Role) bool {
	return !CanSeeFinancials(r)
}
