package authroles

import (
	domainauth "github.com/target/portal-auth/internal/domain/auth"
)

// StaticRoleMapper maps groups by simple string membership rules.
// Admin membership wins over HR membership.
type StaticRoleMapper struct {
	AdminGroup string
	HRGroup    string
}

func (m StaticRoleMapper) Map(groups []string) (domainauth.Role, bool) {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin, true
		}
	}
	for _, g := range groups {
		if m.HRGroup != "" && g == m.HRGroup {
			return domainauth.RoleHR, true
		}
	}
	return "", false
}
