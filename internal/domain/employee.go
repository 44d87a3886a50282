package domain

import "time"

// Employee roles
const (
	EmployeeRoleEmployee  = "employee"
	EmployeeRoleModerator = "moderator"
	EmployeeRoleAdmin     = "admin"
)

// EmployeeRoles lists assignable roles in display order
var EmployeeRoles = []string{EmployeeRoleEmployee, EmployeeRoleModerator, EmployeeRoleAdmin}

// EmployeePermissions are the per-employee capability flags
type EmployeePermissions struct {
	RequiredModeration            bool `json:"required_moderation"`
	AutopostingPermission         bool `json:"autoposting_permission"`
	AddEmployeePermission         bool `json:"add_employee_permission"`
	EditEmployeePermission        bool `json:"edit_employee_perm_permission"`
	TopUpBalancePermission        bool `json:"top_up_balance_permission"`
	SignUpSocialNetPermission     bool `json:"sign_up_social_net_permission"`
	SettingCategoryPermission     bool `json:"setting_category_permission"`
	SettingOrganizationPermission bool `json:"setting_organization_permission"`
}

// Employee is an account affiliated with an organization
type Employee struct {
	ID                   int64  `json:"id"`
	OrganizationID       int64  `json:"organization_id"`
	InvitedFromAccountID int64  `json:"invited_from_account_id"`
	AccountID            int64  `json:"account_id"`
	Name                 string `json:"name"`
	Role                 string `json:"role"`
	EmployeePermissions
	CreatedAt time.Time `json:"created_at"`
}

// IsModerator reports whether the employee may approve publications
func (e *Employee) IsModerator() bool {
	return e.Role == EmployeeRoleModerator || e.Role == EmployeeRoleAdmin
}
