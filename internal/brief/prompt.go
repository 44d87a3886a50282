package brief

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rrens/smm-bot/internal/domain"
)

// Kind names a brief flow
type Kind string

const (
	CreateOrganization Kind = "create_organization"
	UpdateOrganization Kind = "update_organization"
	CreateCategory     Kind = "create_category"
	UpdateCategory     Kind = "update_category"
)

const recapPrefix = "[RECAP]: "

const envelopeRules = `Reply with exactly one JSON object and nothing else.
Put text for the user into "message_to_user". It may use Telegram HTML (<b>, <i>, <u>, <s>, <a>, <code>, <pre>, <blockquote>); every tag must be valid and closed.`

const recapRequest = `Summarise our conversation so far for your own future reference. Include:
- every decision the user made and every fact collected
- the current stage of the brief and what is still missing
- the last few exchanges
- the last generated trial publication, verbatim
Reply with plain text, not JSON.`

var goals = map[Kind]string{
	CreateOrganization: `You interview the user to build the profile of their organization: name, description, tone of voice, brand rules, compliance rules, audience insights, products, locale and additional info.
When the profile is complete and confirmed, reply with "organization_data" holding the profile object.`,
	UpdateOrganization: `You help the user update the profile of their organization shown below. Ask what should change and confirm the result.
When the user confirms, reply with "organization_data" holding the complete updated profile object.`,
	CreateCategory: `You interview the user to design a content rubric: name, goal, tone of voice, brand rules, creativity level, audience segment, length and hashtag bounds, call to action, good and bad samples, image style.
You may ask for a public Telegram channel to learn from: reply with "telegram_channel_username" and optionally "posts_limit" (10-50).
To show a trial publication reply with "test_category" (the draft rubric) and "user_text_reference" (the topic).
When the user approves the rubric, reply with "final_category" holding the rubric object.`,
	UpdateCategory: `You help the user refine the content rubric shown below.
You may request a public Telegram channel with "telegram_channel_username", or a trial publication with "test_category" and "user_text_reference".
When the user approves the changes, reply with "final_category" holding the complete updated rubric object.`,
}

// Envelope wraps a user payload with the reply rules
func Envelope(payload string) string {
	return fmt.Sprintf("<system>\n%s\n</system>\n<user>\n%s\n</user>", envelopeRules, payload)
}

// SystemPrompt builds the instruction for a brief from the organization
// and, for rubric updates, the rubric being edited.
func SystemPrompt(kind Kind, org *domain.Organization, category *domain.Category) string {
	var b strings.Builder
	b.WriteString("You are an SMM assistant working inside a Telegram bot.\n\n")
	b.WriteString(goals[kind])

	if org != nil {
		b.WriteString("\n\nOrganization profile:\n")
		b.WriteString(toJSON(org))
	}
	if category != nil {
		b.WriteString("\n\nRubric:\n")
		b.WriteString(toJSON(category))
	}
	return b.String()
}

func toJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(raw)
}
