package jmap

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var knownRoles = map[string]MailboxRole{
	"all":        RoleAll,
	"archive":    RoleArchive,
	"drafts":     RoleDrafts,
	"flagged":    RoleFlagged,
	"important":  RoleImportant,
	"inbox":      RoleInbox,
	"junk":       RoleJunk,
	"sent":       RoleSent,
	"subscribed": RoleSubscribed,
	"trash":      RoleTrash,
}

// NormalizeRole maps a server role to a known MailboxRole; anything else is RoleOther.
func NormalizeRole(role string) MailboxRole {
	if r, ok := knownRoles[strings.ToLower(strings.TrimSpace(role))]; ok {
		return r
	}
	return RoleOther
}

// IsKnownRole reports whether name is one of the standard mailbox roles.
func IsKnownRole(name string) bool {
	_, ok := knownRoles[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ToMailboxSummary converts a protocol Mailbox. Negative counts read as 0.
func ToMailboxSummary(m Mailbox) (MailboxSummary, error) {
	if m.ID == "" {
		return MailboxSummary{}, &TranslationError{Entity: "mailbox", Reason: "missing id"}
	}
	return MailboxSummary{
		ID:           m.ID,
		Name:         m.Name,
		Role:         NormalizeRole(m.Role),
		TotalEmails:  max(m.TotalEmails, 0),
		UnreadEmails: max(m.UnreadEmails, 0),
	}, nil
}

// ToSearchHit converts a protocol Email fetched with the search properties.
func ToSearchHit(e Email) (SearchHit, error) {
	if e.ID == "" {
		return SearchHit{}, &TranslationError{Entity: "email", Reason: "missing id"}
	}
	return SearchHit{
		ID:         e.ID,
		ThreadID:   e.ThreadID,
		Subject:    e.Subject,
		From:       firstAddress(e.From),
		ReceivedAt: parseUTCDate(e.ReceivedAt),
		Preview:    truncatePreview(e.Preview),
		MailboxIDs: mailboxIDs(e.MailboxIDs),
	}, nil
}

// ToEmailDetail converts a protocol Email fetched with body values.
func ToEmailDetail(e Email) (EmailDetail, error) {
	if e.ID == "" {
		return EmailDetail{}, &TranslationError{Entity: "email", Reason: "missing id"}
	}

	body, format := renderBody(e)

	attachments := make([]AttachmentInfo, 0, len(e.Attachments))
	for _, a := range e.Attachments {
		attachments = append(attachments, AttachmentInfo{
			BlobID: a.BlobID,
			PartID: a.PartID,
			Name:   a.Name,
			Type:   a.Type,
			Size:   a.Size,
		})
	}

	return EmailDetail{
		ID:          e.ID,
		ThreadID:    e.ThreadID,
		Subject:     e.Subject,
		From:        firstAddress(e.From),
		To:          toAddresses(e.To),
		CC:          toAddresses(e.CC),
		BCC:         toAddresses(e.BCC),
		ReplyTo:     toAddresses(e.ReplyTo),
		ReceivedAt:  parseUTCDate(e.ReceivedAt),
		SentAt:      parseUTCDate(e.SentAt),
		Body:        body,
		BodyFormat:  format,
		Attachments: attachments,
	}, nil
}

// renderBody prefers the plain text parts and falls back to the HTML parts
// converted to text.
func renderBody(e Email) (string, BodyFormat) {
	var plain []string
	for _, part := range e.TextBody {
		if !isPlainText(part.Type) {
			continue
		}
		if v, ok := e.BodyValues[part.PartID]; ok && strings.TrimSpace(v.Value) != "" {
			plain = append(plain, v.Value)
		}
	}
	if len(plain) > 0 {
		return strings.Join(plain, "\n\n"), BodyFormatText
	}

	// textBody may carry HTML parts when a message has no plain alternative.
	for _, parts := range [][]BodyPart{e.HTMLBody, e.TextBody} {
		var rendered []string
		for _, part := range parts {
			if !strings.EqualFold(part.Type, "text/html") {
				continue
			}
			if v, ok := e.BodyValues[part.PartID]; ok {
				if text := HTMLToText(v.Value); text != "" {
					rendered = append(rendered, text)
				}
			}
		}
		if len(rendered) > 0 {
			return strings.Join(rendered, "\n\n"), BodyFormatHTML
		}
	}
	return "", BodyFormatNone
}

func isPlainText(mediaType string) bool {
	return mediaType == "" || strings.EqualFold(mediaType, "text/plain")
}

func firstAddress(addrs []EmailAddress) Address {
	if len(addrs) == 0 {
		return Address{}
	}
	return Address{Name: addrs[0].Name, Email: addrs[0].Email}
}

func toAddresses(addrs []EmailAddress) []Address {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]Address, len(addrs))
	for i, a := range addrs {
		out[i] = Address{Name: a.Name, Email: a.Email}
	}
	return out
}

func mailboxIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id, in := range set {
		if in {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// parseUTCDate returns the zero time for absent or unparseable dates.
func parseUTCDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func truncatePreview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxPreviewLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:MaxPreviewLength-1])) + "…"
}
