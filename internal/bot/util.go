package bot

import (
	"errors"
	"html"
	"strconv"
	"strings"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

func escape(s string) string {
	return html.EscapeString(s)
}

// notFound reports a lookup miss, which lists and screens treat as empty
func notFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func parseID(item string) (int64, bool) {
	id, err := strconv.ParseInt(item, 10, 64)
	return id, err == nil && id > 0
}

func categoryItems(categories []domain.Category) []dialog.SelectItem {
	items := make([]dialog.SelectItem, 0, len(categories))
	for _, c := range categories {
		items = append(items, dialog.SelectItem{ID: strconv.FormatInt(c.ID, 10), Text: c.Name})
	}
	return items
}

func roleItems() []dialog.SelectItem {
	items := make([]dialog.SelectItem, 0, len(domain.EmployeeRoles))
	for _, r := range domain.EmployeeRoles {
		items = append(items, dialog.SelectItem{ID: r, Text: roleTitle(r)})
	}
	return items
}

func roleTitle(role string) string {
	switch role {
	case domain.EmployeeRoleAdmin:
		return "Administrator"
	case domain.EmployeeRoleModerator:
		return "Moderator"
	case domain.EmployeeRoleEmployee:
		return "Employee"
	}
	return role
}

var networkTitles = map[string]string{
	domain.NetworkTelegram:  "Telegram",
	domain.NetworkVkontakte: "VK",
	domain.NetworkYoutube:   "YouTube",
	domain.NetworkInstagram: "Instagram",
}

// linkData exposes post links as link_<network> keys for URL buttons
func linkData(data dialog.Data, links map[string]string) {
	for network, link := range links {
		data["link_"+network] = link
	}
}

// linkList renders post links one per line
func linkList(links map[string]string) string {
	var lines []string
	for _, network := range []string{domain.NetworkTelegram, domain.NetworkVkontakte, domain.NetworkYoutube, domain.NetworkInstagram} {
		if link, ok := links[network]; ok && link != "" {
			lines = append(lines, networkTitles[network]+": "+link)
		}
	}
	return strings.Join(lines, "\n")
}

// photoOf returns the file id of an image sent as a photo or as an image
// document, looking inside forwarded messages too
func photoOf(msg *dialog.Message) string {
	if msg.Forward != nil {
		return photoOf(msg.Forward)
	}
	if msg.Photo != nil {
		return msg.Photo.FileID
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}
	return ""
}
