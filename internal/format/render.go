package format

import (
	"fmt"
	"strings"

	"github.com/salmonumbrella/fastmail-mcp/internal/jmap"
)

// Block separator between rendered records.
const separator = "\n---\n"

// MailboxList renders mailboxes as labeled blocks.
func MailboxList(mailboxes []jmap.MailboxSummary) string {
	if len(mailboxes) == 0 {
		return "No mailboxes found in this account."
	}

	blocks := make([]string, len(mailboxes))
	for i, m := range mailboxes {
		blocks[i] = fmt.Sprintf("Name: %s\nRole: %s\nTotal Emails: %d\nUnread Emails: %d",
			m.Name, RoleLabel(m.Role), m.TotalEmails, m.UnreadEmails)
	}
	return fmt.Sprintf("Found %d mailbox(es):\n\n", len(mailboxes)) + strings.Join(blocks, separator)
}

// RoleLabel renders a mailbox role, "custom" for mailboxes without a
// standard role.
func RoleLabel(role jmap.MailboxRole) string {
	if role == "" || role == jmap.RoleOther {
		return "custom"
	}
	return string(role)
}

// SearchResults renders search hits as labeled blocks.
func SearchResults(hits []jmap.SearchHit) string {
	if len(hits) == 0 {
		return "No emails found matching your search criteria."
	}

	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("ID: %s\nSubject: %s\nFrom: %s\nDate: %s\nPreview: %s\n",
			h.ID, Subject(h.Subject), Sender(h.From), Date(h.ReceivedAt), h.Preview)
	}
	return fmt.Sprintf("Found %d email(s):\n\n", len(hits)) + strings.Join(blocks, separator)
}

// EmailDetail renders a full email: headers, attachments, then the body.
func EmailDetail(d *jmap.EmailDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", Subject(d.Subject))
	fmt.Fprintf(&b, "From: %s\n", Sender(d.From))
	fmt.Fprintf(&b, "To: %s\n", AddressList(d.To))
	if len(d.CC) > 0 {
		fmt.Fprintf(&b, "CC: %s\n", AddressList(d.CC))
	}
	fmt.Fprintf(&b, "Date: %s\n", Date(d.ReceivedAt))

	if len(d.Attachments) > 0 {
		b.WriteString("\nAttachments:\n")
		for _, a := range d.Attachments {
			fmt.Fprintf(&b, "- %s\n", Attachment(a))
		}
	}

	b.WriteString("\n--- Email Body ---\n")
	b.WriteString(d.Body)
	return b.String()
}

// Attachment renders "name (type, size bytes)".
func Attachment(a jmap.AttachmentInfo) string {
	name := a.Name
	if name == "" {
		name = "Unknown"
	}
	mediaType := a.Type
	if mediaType == "" {
		mediaType = "Unknown type"
	}
	return fmt.Sprintf("%s (%s, %d bytes)", name, mediaType, a.Size)
}

// RecentList renders hits as a short markdown list.
func RecentList(hits []jmap.SearchHit) string {
	if len(hits) == 0 {
		return "No recent emails found."
	}

	lines := []string{"# Recent Emails", ""}
	for _, h := range hits {
		from := h.From.Name
		if from == "" {
			from = Sender(h.From)
		}
		lines = append(lines, fmt.Sprintf("- **%s** from %s (%s)", Subject(h.Subject), from, Date(h.ReceivedAt)))
	}
	return strings.Join(lines, "\n")
}
