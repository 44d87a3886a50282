package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
	"github.com/Rrens/smm-bot/internal/service"
)

const maxEmployeeName = 100

// permissionField binds a permission checkbox to its employee flag
type permissionField struct {
	ID    string
	Title string
	flag  func(p *domain.EmployeePermissions) *bool
}

var permissionFields = []permissionField{
	{ID: "perm_required_moderation", Title: "Posts require moderation", flag: func(p *domain.EmployeePermissions) *bool { return &p.RequiredModeration }},
	{ID: "perm_autoposting", Title: "Autoposting", flag: func(p *domain.EmployeePermissions) *bool { return &p.AutopostingPermission }},
	{ID: "perm_add_employee", Title: "Add employees", flag: func(p *domain.EmployeePermissions) *bool { return &p.AddEmployeePermission }},
	{ID: "perm_edit_employee", Title: "Edit employees", flag: func(p *domain.EmployeePermissions) *bool { return &p.EditEmployeePermission }},
	{ID: "perm_top_up_balance", Title: "Top up balance", flag: func(p *domain.EmployeePermissions) *bool { return &p.TopUpBalancePermission }},
	{ID: "perm_social_networks", Title: "Connect social networks", flag: func(p *domain.EmployeePermissions) *bool { return &p.SignUpSocialNetPermission }},
	{ID: "perm_category", Title: "Configure categories", flag: func(p *domain.EmployeePermissions) *bool { return &p.SettingCategoryPermission }},
	{ID: "perm_organization", Title: "Configure organization", flag: func(p *domain.EmployeePermissions) *bool { return &p.SettingOrganizationPermission }},
}

type employeesData struct {
	AccountID   int64  `json:"account_id,omitempty"`
	PendingRole string `json:"pending_role,omitempty"`

	NewAccountID int64  `json:"new_account_id,omitempty"`
	NewName      string `json:"new_name,omitempty"`

	InvalidAccountID bool   `json:"invalid_account_id"`
	AlreadyEmployee  bool   `json:"already_employee"`
	InvalidName      bool   `json:"invalid_name"`
	Notice           string `json:"notice,omitempty"`
}

func (d *employeesData) clearFlags() {
	d.InvalidAccountID = false
	d.AlreadyEmployee = false
	d.InvalidName = false
	d.Notice = ""
}

func (b *Bot) employeesDialog() *dialog.Dialog {
	toDetail := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: EmployeesDetail, OnClick: b.clearEmployeeFlags}
	toList := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: EmployeesList, OnClick: b.clearEmployeeFlags}

	permissions := make([]dialog.Keyboard, 0, len(permissionFields))
	for _, f := range permissionFields {
		permissions = append(permissions, dialog.Checkbox{
			ID:        f.ID,
			Checked:   dialog.Const("✅ " + f.Title),
			Unchecked: dialog.Const("⬜️ " + f.Title),
		})
	}

	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State:  EmployeesList,
				Getter: getter(b.employeesGetter),
				Text: dialog.NewMulti(
					dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
					dialog.Const("👥 <b>Employees</b>"),
				),
				Keyboard: dialog.Column{
					dialog.ScrollingGroup{
						ID:     "employees_page",
						Select: dialog.Select{ID: "employee", Items: "employees", OnClick: b.onEmployeeSelected},
						Width:  1,
						Height: 6,
					},
					dialog.Button{
						ID:      "add",
						Text:    dialog.Const("➕ Add employee"),
						OnClick: b.gate(service.PermAddEmployee, b.beginAddEmployee),
					},
					dialog.Button{ID: "back", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
				},
			},
			{
				State:  EmployeesDetail,
				Getter: getter(b.employeeDetailGetter),
				Text: dialog.NewMulti(
					dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
					dialog.Format("👤 <b>{name}</b>\nAccount ID: <code>{account_id}</code>\nRole: {role}\n\n{permissions}"),
				),
				Keyboard: dialog.Column{
					dialog.Button{
						ID:      "permissions",
						Text:    dialog.Const("🔐 Permissions"),
						OnClick: b.gate(service.PermEditEmployee, b.editPermissions),
						When:    "!self",
					},
					dialog.Button{
						ID:      "role",
						Text:    dialog.Const("🎭 Change role"),
						OnClick: b.gate(service.PermEditEmployee, switchTo(EmployeesRole)),
						When:    "!self",
					},
					dialog.Button{
						ID:      "delete",
						Text:    dialog.Const("🗑 Remove from organization"),
						OnClick: b.gate(service.PermEditEmployee, switchTo(EmployeesConfirmDelete)),
						When:    "!self",
					},
					toList,
				},
			},
			{
				State:  EmployeesPermissions,
				Getter: getter(b.permissionsGetter),
				Text:   dialog.Format("🔐 Permissions of <b>{name}</b>\n\nTap to toggle, then save."),
				Keyboard: dialog.Column{
					dialog.Column(permissions),
					dialog.Button{ID: "save", Text: dialog.Const("💾 Save"), OnClick: b.savePermissions, When: "dirty"},
					toDetail,
				},
			},
			{
				State:  EmployeesRole,
				Getter: getter(b.roleGetter),
				Text:   dialog.Format("Choose a new role for <b>{name}</b>. Current role: {role}"),
				Keyboard: dialog.Column{
					dialog.Select{ID: "role", Items: "roles", OnClick: b.onRoleSelected},
					toDetail,
				},
			},
			{
				State:  EmployeesConfirmRole,
				Getter: getter(b.roleGetter),
				Text:   dialog.Format("Change the role of <b>{name}</b> from {role} to {pending_role}?"),
				Keyboard: dialog.Row{
					dialog.Button{ID: "confirm", Text: dialog.Const("✅ Confirm"), OnClick: b.confirmRole},
					dialog.SwitchTo{ID: "back", Text: dialog.Const("✖️ Cancel"), To: EmployeesRole},
				},
			},
			{
				State:  EmployeesConfirmDelete,
				Getter: getter(b.employeeDetailGetter),
				Text:   dialog.Format("Remove <b>{name}</b> from the organization?"),
				Keyboard: dialog.Row{
					dialog.Button{ID: "confirm", Text: dialog.Const("🗑 Remove"), OnClick: b.confirmDeleteEmployee},
					dialog.SwitchTo{ID: "back", Text: dialog.Const("✖️ Cancel"), To: EmployeesDetail},
				},
			},
			{
				State:  EmployeesAddAccount,
				Getter: b.addEmployeeGetter,
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_account_id", Text: dialog.Const("❌ An account ID is a positive number.\n")},
					dialog.When{Cond: "already_employee", Text: dialog.Const("❌ This account already belongs to an organization.\n")},
					dialog.Const("Send the account ID of the new employee. They can find it on the bot's start screen."),
				),
				Keyboard:  toList,
				OnMessage: b.onNewEmployeeAccount,
			},
			{
				State:  EmployeesAddName,
				Getter: b.addEmployeeGetter,
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_name", Text: dialog.Format("❌ The name must be 1 to {max_name} characters.\n")},
					dialog.Const("How should we call the new employee?"),
				),
				Keyboard:  toList,
				OnMessage: b.onNewEmployeeName,
			},
			{
				State:  EmployeesAddRole,
				Getter: b.addEmployeeGetter,
				Text:   dialog.Format("Which role will <b>{new_name}</b> have?"),
				Keyboard: dialog.Column{
					dialog.Select{ID: "role", Items: "roles", OnClick: b.onNewEmployeeRole},
					toList,
				},
			},
		},
	}
}

func (b *Bot) clearEmployeeFlags(_ context.Context, m *dialog.Manager) error {
	dialog.DataOf[employeesData](m).clearFlags()
	return nil
}

func (b *Bot) employeesGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	employees, err := b.deps.Employees.ByOrganization(ctx, sessionOf(m).OrganizationID)
	if err != nil && !notFound(err) {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	items := make([]dialog.SelectItem, 0, len(employees))
	for _, e := range employees {
		items = append(items, dialog.SelectItem{
			ID:   strconv.FormatInt(e.AccountID, 10),
			Text: fmt.Sprintf("%s · %s", e.Name, roleTitle(e.Role)),
		})
	}
	return dialog.Data{
		"employees": items,
		"notice":    dialog.DataOf[employeesData](m).Notice,
	}, nil
}

// target loads the employee the dialog is working on
func (b *Bot) target(ctx context.Context, m *dialog.Manager) (*domain.Employee, error) {
	d := dialog.DataOf[employeesData](m)
	e, err := b.deps.Employees.ByAccountID(ctx, d.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if e == nil || e.OrganizationID != sessionOf(m).OrganizationID {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (b *Bot) onEmployeeSelected(_ context.Context, m *dialog.Manager, item string) error {
	id, ok := parseID(item)
	if !ok {
		return nil
	}
	d := dialog.DataOf[employeesData](m)
	d.clearFlags()
	d.AccountID = id
	return m.SwitchTo(EmployeesDetail)
}

func (b *Bot) employeeDetailGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	e, err := b.target(ctx, m)
	if err != nil {
		return nil, err
	}

	var granted []string
	for _, f := range permissionFields {
		if *f.flag(&e.EmployeePermissions) {
			granted = append(granted, "• "+f.Title)
		}
	}
	permissions := "No extra permissions."
	if len(granted) > 0 {
		permissions = strings.Join(granted, "\n")
	}

	return dialog.Data{
		"name":        escape(e.Name),
		"account_id":  e.AccountID,
		"role":        roleTitle(e.Role),
		"permissions": permissions,
		"self":        e.AccountID == sessionOf(m).AccountID,
		"notice":      dialog.DataOf[employeesData](m).Notice,
	}, nil
}

// editPermissions seeds the checkboxes from the stored flags
func (b *Bot) editPermissions(ctx context.Context, m *dialog.Manager) error {
	e, err := b.target(ctx, m)
	if err != nil {
		return err
	}
	for _, f := range permissionFields {
		m.SetChecked(f.ID, *f.flag(&e.EmployeePermissions))
	}
	dialog.DataOf[employeesData](m).clearFlags()
	return m.SwitchTo(EmployeesPermissions)
}

func checkedPermissions(m *dialog.Manager) domain.EmployeePermissions {
	var perms domain.EmployeePermissions
	for _, f := range permissionFields {
		*f.flag(&perms) = m.IsChecked(f.ID)
	}
	return perms
}

func (b *Bot) permissionsGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	e, err := b.target(ctx, m)
	if err != nil {
		return nil, err
	}
	return dialog.Data{
		"name":  escape(e.Name),
		"dirty": checkedPermissions(m) != e.EmployeePermissions,
	}, nil
}

func (b *Bot) savePermissions(ctx context.Context, m *dialog.Manager) error {
	e, err := b.target(ctx, m)
	if err != nil {
		return err
	}
	perms := checkedPermissions(m)
	if err := b.deps.Employees.UpdatePermissions(ctx, e.AccountID, perms); err != nil {
		return fmt.Errorf("failed to update permissions: %w", err)
	}
	log.Info().Int64("account_id", e.AccountID).Int64("by", sessionOf(m).AccountID).Msg("Employee permissions updated")

	b.notify(ctx, e.AccountID, "🔐 Your permissions in the organization were updated.")
	dialog.DataOf[employeesData](m).Notice = "✅ Permissions saved."
	return m.SwitchTo(EmployeesDetail)
}

func (b *Bot) roleGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	e, err := b.target(ctx, m)
	if err != nil {
		return nil, err
	}
	return dialog.Data{
		"name":         escape(e.Name),
		"role":         roleTitle(e.Role),
		"pending_role": roleTitle(dialog.DataOf[employeesData](m).PendingRole),
		"roles":        roleItems(),
	}, nil
}

func (b *Bot) onRoleSelected(_ context.Context, m *dialog.Manager, item string) error {
	if !validRole(item) {
		return nil
	}
	dialog.DataOf[employeesData](m).PendingRole = item
	return m.SwitchTo(EmployeesConfirmRole)
}

func (b *Bot) confirmRole(ctx context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[employeesData](m)
	if err := b.deps.Employees.UpdateRole(ctx, d.AccountID, d.PendingRole); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	log.Info().Int64("account_id", d.AccountID).Str("role", d.PendingRole).Msg("Employee role updated")

	b.notify(ctx, d.AccountID, "🎭 Your role in the organization is now: "+roleTitle(d.PendingRole))
	d.PendingRole = ""
	d.Notice = "✅ Role changed."
	return m.SwitchTo(EmployeesDetail)
}

func (b *Bot) confirmDeleteEmployee(ctx context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[employeesData](m)
	if err := b.deps.Employees.Delete(ctx, d.AccountID); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	log.Info().Int64("account_id", d.AccountID).Int64("by", sessionOf(m).AccountID).Msg("Employee removed")

	*d = employeesData{Notice: "✅ Employee removed."}
	return m.SwitchTo(EmployeesList)
}

func (b *Bot) beginAddEmployee(_ context.Context, m *dialog.Manager) error {
	*dialog.DataOf[employeesData](m) = employeesData{}
	return m.SwitchTo(EmployeesAddAccount)
}

func (b *Bot) addEmployeeGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	d := dialog.DataOf[employeesData](m)
	return dialog.Data{
		"invalid_account_id": d.InvalidAccountID,
		"already_employee":   d.AlreadyEmployee,
		"invalid_name":       d.InvalidName,
		"max_name":           maxEmployeeName,
		"new_name":           escape(d.NewName),
		"roles":              roleItems(),
	}, nil
}

func (b *Bot) onNewEmployeeAccount(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[employeesData](m)
	d.clearFlags()

	id, err := security.ParseAccountID(msg.Text)
	if err != nil {
		d.InvalidAccountID = true
		return nil
	}
	existing, err := b.deps.Employees.ByAccountID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get employee: %w", err)
	}
	if existing != nil {
		d.AlreadyEmployee = true
		return nil
	}

	d.NewAccountID = id
	return m.SwitchTo(EmployeesAddName)
}

func (b *Bot) onNewEmployeeName(_ context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[employeesData](m)
	d.clearFlags()

	name := strings.TrimSpace(msg.Text)
	if err := security.CheckLength("name", name, 1, maxEmployeeName); err != nil {
		d.InvalidName = true
		return nil
	}
	d.NewName = name
	return m.SwitchTo(EmployeesAddRole)
}

func (b *Bot) onNewEmployeeRole(ctx context.Context, m *dialog.Manager, item string) error {
	if !validRole(item) {
		return nil
	}
	d := dialog.DataOf[employeesData](m)
	s := sessionOf(m)

	err := b.deps.Employees.Create(ctx, backend.EmployeeCreate{
		OrganizationID:       s.OrganizationID,
		InvitedFromAccountID: s.AccountID,
		AccountID:            d.NewAccountID,
		Name:                 d.NewName,
		Role:                 item,
	})
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	log.Info().Int64("account_id", d.NewAccountID).Int64("organization_id", s.OrganizationID).Msg("Employee added")

	*d = employeesData{Notice: "✅ Employee added. They will get a message from the bot."}
	return m.SwitchTo(EmployeesList)
}

func validRole(role string) bool {
	for _, r := range domain.EmployeeRoles {
		if r == role {
			return true
		}
	}
	return false
}

// notify messages another employee, logging failures
func (b *Bot) notify(ctx context.Context, accountID int64, text string) {
	if b.deps.Notifier == nil {
		return
	}
	if err := b.deps.Notifier.NotifyEmployee(ctx, accountID, text); err != nil {
		log.Warn().Err(err).Int64("account_id", accountID).Msg("Failed to notify employee")
	}
}
