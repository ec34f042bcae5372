package jmap

import "time"

// MailboxRole is a normalized mailbox role.
type MailboxRole string

const (
	RoleAll        MailboxRole = "all"
	RoleArchive    MailboxRole = "archive"
	RoleDrafts     MailboxRole = "drafts"
	RoleFlagged    MailboxRole = "flagged"
	RoleImportant  MailboxRole = "important"
	RoleInbox      MailboxRole = "inbox"
	RoleJunk       MailboxRole = "junk"
	RoleSent       MailboxRole = "sent"
	RoleSubscribed MailboxRole = "subscribed"
	RoleTrash      MailboxRole = "trash"
	RoleOther      MailboxRole = "other"
)

// BodyFormat records which body representation an EmailDetail was built from.
type BodyFormat string

const (
	BodyFormatNone BodyFormat = ""
	BodyFormatText BodyFormat = "text"
	BodyFormatHTML BodyFormat = "html"
)

// MaxPreviewLength is the longest preview a SearchHit carries, in characters.
const MaxPreviewLength = 200

// MailboxSummary describes one mailbox.
type MailboxSummary struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Role         MailboxRole `json:"role"`
	TotalEmails  int         `json:"totalEmails"`
	UnreadEmails int         `json:"unreadEmails"`
}

// Address is a display name and email address pair.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// String formats the address as "Name <email>" or just the email.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	if a.Email == "" {
		return a.Name
	}
	return a.Name + " <" + a.Email + ">"
}

// SearchHit is a compact search result.
type SearchHit struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId,omitempty"`
	Subject    string    `json:"subject"`
	From       Address   `json:"from"`
	ReceivedAt time.Time `json:"receivedAt"`
	Preview    string    `json:"preview"`
	MailboxIDs []string  `json:"mailboxIds"`
}

// AttachmentInfo describes an attachment without its content.
type AttachmentInfo struct {
	BlobID string `json:"blobId"`
	PartID string `json:"partId,omitempty"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
}

// EmailDetail is a full email with its body rendered as text.
type EmailDetail struct {
	ID          string           `json:"id"`
	ThreadID    string           `json:"threadId,omitempty"`
	Subject     string           `json:"subject"`
	From        Address          `json:"from"`
	To          []Address        `json:"to"`
	CC          []Address        `json:"cc,omitempty"`
	BCC         []Address        `json:"bcc,omitempty"`
	ReplyTo     []Address        `json:"replyTo,omitempty"`
	ReceivedAt  time.Time        `json:"receivedAt"`
	SentAt      time.Time        `json:"sentAt"`
	Body        string           `json:"body"`
	BodyFormat  BodyFormat       `json:"bodyFormat"`
	Attachments []AttachmentInfo `json:"attachments"`
}
