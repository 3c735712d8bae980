package rbac

// Roles as carried in tokens and the users table.
const (
	RoleStudent = "STUDENT"
	RoleFaculty = "FACULTY"
	RoleAdmin   = "ADMIN"
)

// Simple default policy. Ownership of the course is checked separately by the
// assessment service; these permissions only gate what a role may attempt.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"quiz:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
	},
	RoleFaculty: {
		"course:delete_own",
		"quiz:author",
		"quiz:view",
		"quiz:debug",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"attempt:view-all",
	},
	RoleAdmin: {
		"*", // everything, including quiz:manage_any
	},
}
