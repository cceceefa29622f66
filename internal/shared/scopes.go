package shared

// Platform permissions. Identifiers are lower-case verb:object tokens; the
// catalog is seeded from these lists and extended only by deployment-time
// seeding.
const (
	PermManageUsers = "manage:users"
	PermManageRoles = "manage:roles"

	PermManageCourses  = "manage:courses"
	PermPublishCourses = "publish:courses"
	PermManageContent  = "manage:content"

	PermManagePayments      = "manage:payments"
	PermManageSubscriptions = "manage:subscriptions"

	PermCommentResources   = "comment:resources"
	PermRateResources      = "rate:resources"
	PermManageOwnResources = "manage:own-resources"
)

// SuperadminRole bypasses every permission check, including blocks.
const SuperadminRole = "superadmin"

// AdminScopes lists permissions for platform administration.
func AdminScopes() []string {
	return []string{
		PermManageUsers,
		PermManageRoles,
	}
}

// CourseScopes lists permissions covering course and content management.
func CourseScopes() []string {
	return []string{
		PermManageCourses,
		PermPublishCourses,
		PermManageContent,
	}
}

// CommerceScopes lists permissions covering payments and subscriptions.
func CommerceScopes() []string {
	return []string{
		PermManagePayments,
		PermManageSubscriptions,
	}
}

// CommunityScopes lists permissions any enrolled member may hold.
func CommunityScopes() []string {
	return []string{
		PermCommentResources,
		PermRateResources,
		PermManageOwnResources,
	}
}

// AllScopes returns every permission known to the platform.
func AllScopes() []string {
	scopes := AdminScopes()
	scopes = append(scopes, CourseScopes()...)
	scopes = append(scopes, CommerceScopes()...)
	scopes = append(scopes, CommunityScopes()...)
	return scopes
}
