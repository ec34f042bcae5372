package jmap

// Mailbox is a Mailbox object as returned by Mailbox/get.
type Mailbox struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ParentID     string `json:"parentId,omitempty"`
	Role         string `json:"role,omitempty"`
	SortOrder    int    `json:"sortOrder"`
	TotalEmails  int    `json:"totalEmails"`
	UnreadEmails int    `json:"unreadEmails"`
}

// Email is an Email object as returned by Email/get. Only requested
// properties are populated.
type Email struct {
	ID          string               `json:"id"`
	ThreadID    string               `json:"threadId"`
	MailboxIDs  map[string]bool      `json:"mailboxIds"`
	Subject     string               `json:"subject"`
	From        []EmailAddress       `json:"from"`
	To          []EmailAddress       `json:"to"`
	CC          []EmailAddress       `json:"cc"`
	BCC         []EmailAddress       `json:"bcc"`
	ReplyTo     []EmailAddress       `json:"replyTo"`
	ReceivedAt  string               `json:"receivedAt"`
	SentAt      string               `json:"sentAt"`
	Preview     string               `json:"preview"`
	TextBody    []BodyPart           `json:"textBody"`
	HTMLBody    []BodyPart           `json:"htmlBody"`
	BodyValues  map[string]BodyValue `json:"bodyValues"`
	Attachments []BodyPart           `json:"attachments"`
}

// EmailAddress represents an email address with optional name
type EmailAddress struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BodyPart is an EmailBodyPart.
type BodyPart struct {
	PartID      string `json:"partId"`
	BlobID      string `json:"blobId"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Disposition string `json:"disposition"`
}

// BodyValue is the decoded content of a text body part.
type BodyValue struct {
	Value             string `json:"value"`
	IsEncodingProblem bool   `json:"isEncodingProblem"`
	IsTruncated       bool   `json:"isTruncated"`
}
