package bot_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/bot"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

const testChatID int64 = 100

type screen struct {
	id       int
	rendered dialog.Rendered
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []screen
	edits   []screen
	answers []string
}

func (f *fakeMessenger) Send(_ context.Context, _ int64, r dialog.Rendered) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, screen{id: f.nextID, rendered: r})
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(_ context.Context, _ int64, messageID int, r dialog.Rendered) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, screen{id: messageID, rendered: r})
	return nil
}

func (f *fakeMessenger) ClearKeyboard(context.Context, int64, int) error {
	return nil
}

func (f *fakeMessenger) Delete(context.Context, int64, int) error {
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

// last returns the screen the user sees now
func (f *fakeMessenger) last() dialog.Rendered {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) > 0 && (len(f.sent) == 0 || f.edits[len(f.edits)-1].id >= f.sent[len(f.sent)-1].id) {
		return f.edits[len(f.edits)-1].rendered
	}
	if len(f.sent) == 0 {
		return dialog.Rendered{}
	}
	return f.sent[len(f.sent)-1].rendered
}

type memSessions struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[int64]*domain.Session{}}
}

func (r *memSessions) Create(_ context.Context, tgChatID int64, tgUsername string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.sessions[tgChatID] = &domain.Session{ID: r.nextID, TgChatID: tgChatID, TgUsername: tgUsername}
	return r.nextID, nil
}

func (r *memSessions) GetByChatID(_ context.Context, tgChatID int64) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tgChatID]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *memSessions) GetByAccountID(_ context.Context, accountID int64) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.AccountID == accountID {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memSessions) Update(_ context.Context, sessionID int64, u domain.SessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID != sessionID {
			continue
		}
		if u.AccountID != nil {
			s.AccountID = *u.AccountID
		}
		if u.OrganizationID != nil {
			s.OrganizationID = *u.OrganizationID
		}
		if u.AccessToken != nil {
			s.AccessToken = *u.AccessToken
		}
		if u.RefreshToken != nil {
			s.RefreshToken = *u.RefreshToken
		}
		if u.TgUsername != nil {
			s.TgUsername = *u.TgUsername
		}
		if u.CanShowAlerts != nil {
			s.CanShowAlerts = *u.CanShowAlerts
		}
		if u.ShowErrorRecovery != nil {
			s.ShowErrorRecovery = *u.ShowErrorRecovery
		}
		return nil
	}
	return domain.ErrNotFound
}

func (r *memSessions) get(chatID int64) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.sessions[chatID]
}

type memAlerts struct {
	mu       sync.Mutex
	nextID   int64
	videos   []domain.VideoCutReadyAlert
	approved []domain.PublicationApprovedAlert
	rejected []domain.PublicationRejectedAlert
}

func (r *memAlerts) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memAlerts) CreateVideoCutReady(_ context.Context, a *domain.VideoCutReadyAlert) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	r.videos = append(r.videos, *a)
	return a.ID, nil
}

func (r *memAlerts) VideoCutReadyBySession(_ context.Context, sessionID int64) ([]domain.VideoCutReadyAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.VideoCutReadyAlert
	for _, a := range r.videos {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAlerts) DeleteVideoCutReady(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.videos {
		if a.ID == id {
			r.videos = append(r.videos[:i], r.videos[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memAlerts) CreatePublicationApproved(_ context.Context, a *domain.PublicationApprovedAlert) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	r.approved = append(r.approved, *a)
	return a.ID, nil
}

func (r *memAlerts) PublicationApprovedBySession(_ context.Context, sessionID int64) ([]domain.PublicationApprovedAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PublicationApprovedAlert
	for _, a := range r.approved {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAlerts) DeletePublicationApproved(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.approved {
		if a.ID == id {
			r.approved = append(r.approved[:i], r.approved[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memAlerts) CreatePublicationRejected(_ context.Context, a *domain.PublicationRejectedAlert) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	r.rejected = append(r.rejected, *a)
	return a.ID, nil
}

func (r *memAlerts) PublicationRejectedBySession(_ context.Context, sessionID int64) ([]domain.PublicationRejectedAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PublicationRejectedAlert
	for _, a := range r.rejected {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAlerts) DeletePublicationRejected(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.rejected {
		if a.ID == id {
			r.rejected = append(r.rejected[:i], r.rejected[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memAlerts) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.videos) + len(r.approved) + len(r.rejected)
}

// The collaborator fakes embed the interface they stand in for; a scenario
// calling a method it did not expect panics, which the engine reports.

type fakeAccounts struct {
	bot.Accounts
	tokens *domain.Tokens
}

func (f *fakeAccounts) RegisterFromTg(context.Context, string, string) (*domain.Tokens, error) {
	return f.tokens, nil
}

// calls records collaborator method names in call order
type calls struct {
	mu    sync.Mutex
	names []string
}

func (c *calls) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

// since returns the calls made after the first n, leaving out lookups of
// the acting employee
func (c *calls) since(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, name := range c.names[n:] {
		if name != "ByAccountID" {
			out = append(out, name)
		}
	}
	return out
}

func (c *calls) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

type fakeEmployees struct {
	bot.Employees
	calls
	mu        sync.Mutex
	employees map[int64]*domain.Employee
}

func (f *fakeEmployees) ByAccountID(_ context.Context, accountID int64) (*domain.Employee, error) {
	f.record("ByAccountID")
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[accountID]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (f *fakeEmployees) ByOrganization(_ context.Context, organizationID int64) ([]domain.Employee, error) {
	f.record("ByOrganization")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Employee
	for _, e := range f.employees {
		if e.OrganizationID == organizationID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (f *fakeEmployees) Create(context.Context, backend.EmployeeCreate) error {
	f.record("Create")
	return nil
}

func (f *fakeEmployees) UpdatePermissions(context.Context, int64, domain.EmployeePermissions) error {
	f.record("UpdatePermissions")
	return nil
}

func (f *fakeEmployees) UpdateRole(context.Context, int64, string) error {
	f.record("UpdateRole")
	return nil
}

func (f *fakeEmployees) Delete(context.Context, int64) error {
	f.record("Delete")
	return nil
}

type fakeOrganizations struct {
	bot.Organizations
	calls
	org *domain.Organization
}

func (f *fakeOrganizations) Get(context.Context, int64) (*domain.Organization, error) {
	f.record("Get")
	if f.org == nil {
		return nil, domain.ErrNotFound
	}
	c := *f.org
	return &c, nil
}

type moderateCall struct {
	publicationID int64
	moderatorID   int64
	status        string
	comment       string
}

type fakeContent struct {
	bot.Content
	calls

	mu           sync.Mutex
	categories   []domain.Category
	generateErr  error
	generated    string
	publications map[int64]*domain.Publication
	social       *domain.SocialNetworks
	links        map[string]string

	// moderateErrs fail the next moderation calls, one error per call
	moderateErrs []error
	changeErr    error

	created       []domain.PublicationCreate
	changes       []domain.PublicationChange
	moderated     []moderateCall
	imageDeletes  []int64
	sentForReview []int64
}

func (f *fakeContent) CategoriesByOrganization(context.Context, int64) ([]domain.Category, error) {
	f.record("CategoriesByOrganization")
	return f.categories, nil
}

func (f *fakeContent) GeneratePublicationText(context.Context, int64, string) (string, error) {
	f.record("GeneratePublicationText")
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generated, nil
}

func (f *fakeContent) CreatePublication(_ context.Context, p domain.PublicationCreate) (int64, error) {
	f.record("CreatePublication")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	id := int64(1000 + len(f.created))
	f.publications[id] = &domain.Publication{ID: id, Text: p.Text, ModerationStatus: p.ModerationStatus}
	return id, nil
}

func (f *fakeContent) PublicationsByOrganization(context.Context, int64) ([]domain.Publication, error) {
	f.record("PublicationsByOrganization")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Publication
	for _, p := range f.publications {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeContent) GetPublication(_ context.Context, id int64) (*domain.Publication, error) {
	f.record("GetPublication")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.publications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeContent) ChangePublication(_ context.Context, ch domain.PublicationChange) error {
	f.record("ChangePublication")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.changeErr != nil {
		return f.changeErr
	}
	f.changes = append(f.changes, ch)
	if p, ok := f.publications[ch.ID]; ok && ch.Text != nil {
		p.Text = *ch.Text
	}
	return nil
}

func (f *fakeContent) DeletePublicationImage(_ context.Context, id int64) error {
	f.record("DeletePublicationImage")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageDeletes = append(f.imageDeletes, id)
	if p, ok := f.publications[id]; ok {
		p.ImageURL = ""
	}
	return nil
}

func (f *fakeContent) SendPublicationToModeration(_ context.Context, id int64) error {
	f.record("SendPublicationToModeration")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentForReview = append(f.sentForReview, id)
	if p, ok := f.publications[id]; ok {
		p.ModerationStatus = domain.ModerationModeration
	}
	return nil
}

func (f *fakeContent) ModeratePublication(_ context.Context, id, moderatorID int64, status, comment string) (*domain.ModerationResult, error) {
	f.record("ModeratePublication")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.moderateErrs) > 0 {
		err := f.moderateErrs[0]
		f.moderateErrs = f.moderateErrs[1:]
		return nil, err
	}
	f.moderated = append(f.moderated, moderateCall{publicationID: id, moderatorID: moderatorID, status: status, comment: comment})
	if p, ok := f.publications[id]; ok {
		p.ModerationStatus = status
	}
	return &domain.ModerationResult{PostLinks: f.links}, nil
}

func (f *fakeContent) SocialNetworks(context.Context, int64) (*domain.SocialNetworks, error) {
	f.record("SocialNetworks")
	if f.social == nil {
		return &domain.SocialNetworks{}, nil
	}
	return f.social, nil
}

type harness struct {
	bot           *bot.Bot
	messenger     *fakeMessenger
	storage       *dialog.MemoryStorage
	sessions      *memSessions
	alerts        *memAlerts
	employees     *fakeEmployees
	organizations *fakeOrganizations
	content       *fakeContent
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		messenger:     &fakeMessenger{},
		storage:       dialog.NewMemoryStorage(),
		sessions:      newMemSessions(),
		alerts:        &memAlerts{},
		employees:     &fakeEmployees{employees: map[int64]*domain.Employee{}},
		organizations: &fakeOrganizations{org: &domain.Organization{ID: 5, Name: "Coffee & Co", RubBalance: "100.00"}},
		content:       &fakeContent{publications: map[int64]*domain.Publication{}},
	}
	h.bot = bot.New(bot.Deps{
		Sessions:      h.sessions,
		Alerts:        h.alerts,
		Accounts:      &fakeAccounts{tokens: &domain.Tokens{AccountID: 77, AccessToken: "access", RefreshToken: "refresh"}},
		Employees:     h.employees,
		Organizations: h.organizations,
		Content:       h.content,
		Storage:       h.storage,
		Messenger:     h.messenger,
		BotUsername:   "smm_test_bot",
	})
	return h
}

// signIn seeds a session bound to an account of organization 5
func (h *harness) signIn(t *testing.T, employee domain.Employee) {
	t.Helper()
	ctx := context.Background()
	id, err := h.sessions.Create(ctx, testChatID, "alice")
	require.NoError(t, err)
	require.NoError(t, h.sessions.Update(ctx, id, domain.SessionUpdate{
		AccountID:      domain.Ptr(employee.AccountID),
		AccessToken:    domain.Ptr("access"),
		RefreshToken:   domain.Ptr("refresh"),
		OrganizationID: domain.Ptr(employee.OrganizationID),
	}))
	h.employees.employees[employee.AccountID] = &employee
}

func (h *harness) sessionID() int64 {
	return h.sessions.get(testChatID).ID
}

func (h *harness) command(t *testing.T, command string) {
	t.Helper()
	require.NoError(t, h.bot.HandleEvent(context.Background(), &dialog.Event{
		ChatID:  testChatID,
		UserID:  testChatID,
		Message: &dialog.Message{Text: command, Command: command},
	}))
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, h.bot.HandleEvent(context.Background(), &dialog.Event{
		ChatID:  testChatID,
		UserID:  testChatID,
		Message: &dialog.Message{Text: text},
	}))
}

func (h *harness) message(t *testing.T, msg *dialog.Message) {
	t.Helper()
	require.NoError(t, h.bot.HandleEvent(context.Background(), &dialog.Event{
		ChatID:  testChatID,
		UserID:  testChatID,
		Message: msg,
	}))
}

// press clicks the button with the given text on the current screen
func (h *harness) press(t *testing.T, text string) {
	t.Helper()
	data := ""
	for _, row := range h.messenger.last().Keyboard {
		for _, b := range row {
			if b.Text == text {
				data = b.CallbackData
			}
		}
	}
	require.NotEmpty(t, data, "button %q not found in %+v", text, h.messenger.last().Keyboard)

	require.NoError(t, h.bot.HandleEvent(context.Background(), &dialog.Event{
		ChatID:   testChatID,
		UserID:   testChatID,
		Callback: &dialog.Callback{ID: "cb", Data: data},
	}))
}

// screens counts every message sent or edited so far
func (h *harness) screens() int {
	h.messenger.mu.Lock()
	defer h.messenger.mu.Unlock()
	return len(h.messenger.sent) + len(h.messenger.edits)
}

func (h *harness) screenContains(t *testing.T, substr string) {
	t.Helper()
	last := h.messenger.last().Text
	require.True(t, strings.Contains(last, substr), "screen %q does not contain %q", last, substr)
}

func (h *harness) state(t *testing.T) dialog.State {
	t.Helper()
	stack, err := h.storage.Load(context.Background(), testChatID)
	require.NoError(t, err)
	if stack == nil || stack.Top() == nil {
		return ""
	}
	return stack.Top().State
}
