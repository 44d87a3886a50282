package service

import (
	"fmt"

	"github.com/Rrens/smm-bot/internal/domain"
)

// Permission names an employee capability checked before admin operations
type Permission string

const (
	PermAddEmployee    Permission = "add_employee"
	PermEditEmployee   Permission = "edit_employee"
	PermTopUpBalance   Permission = "top_up_balance"
	PermSocialNetworks Permission = "social_networks"
	PermCategory       Permission = "category"
	PermOrganization   Permission = "organization"
	PermAutoposting    Permission = "autoposting"
	PermModerate       Permission = "moderate"
	PermSkipModeration Permission = "skip_moderation"
)

var permissionDenied = map[Permission]string{
	PermAddEmployee:    "You are not allowed to add employees",
	PermEditEmployee:   "You are not allowed to edit employees",
	PermTopUpBalance:   "You are not allowed to top up the balance",
	PermSocialNetworks: "You are not allowed to manage social networks",
	PermCategory:       "You are not allowed to configure categories",
	PermOrganization:   "You are not allowed to change the organization",
	PermAutoposting:    "You are not allowed to publish without moderation",
	PermModerate:       "Only moderators can review content",
	PermSkipModeration: "Your publications require moderation",
}

// Allowed reports whether the employee holds the permission
func Allowed(e *domain.Employee, p Permission) bool {
	if e == nil {
		return false
	}
	switch p {
	case PermAddEmployee:
		return e.AddEmployeePermission
	case PermEditEmployee:
		return e.EditEmployeePermission
	case PermTopUpBalance:
		return e.TopUpBalancePermission
	case PermSocialNetworks:
		return e.SignUpSocialNetPermission
	case PermCategory:
		return e.SettingCategoryPermission
	case PermOrganization:
		return e.SettingOrganizationPermission
	case PermAutoposting:
		return e.AutopostingPermission
	case PermModerate:
		return e.IsModerator()
	case PermSkipModeration:
		return !e.RequiredModeration
	}
	return false
}

// Require returns an error wrapping ErrPermissionDenied when not allowed
func Require(e *domain.Employee, p Permission) error {
	if Allowed(e, p) {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, p)
}

// DeniedText is the toast shown when a permission is missing
func DeniedText(p Permission) string {
	if text, ok := permissionDenied[p]; ok {
		return text
	}
	return "You do not have permission for this action"
}
