package mcp

import (
	"encoding/json"

	"github.com/gomcpgo/mcp/pkg/protocol"
)

// Tool names.
const (
	ToolSearchEmails  = "search_emails"
	ToolGetEmail      = "get_email"
	ToolListMailboxes = "list_mailboxes"
)

// Tools returns the descriptors of the read-only mail tools.
func Tools() []protocol.Tool {
	return []protocol.Tool{
		{
			Name: ToolSearchEmails,
			Description: "Search emails in your Fastmail account by text query and optionally filter by mailbox. " +
				"Searches subjects, bodies, sender and recipient addresses. Results are sorted by date with the most recent emails first. " +
				"Returns ID, subject, sender, date and preview for each match. Read-only.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {
						"type": "string",
						"description": "Search query text to find in emails. Searches subject, body, from, and to fields. Leave empty to get the most recent emails."
					},
					"limit": {
						"type": "integer",
						"description": "Maximum number of emails to return. Default is 10, maximum allowed is 50. Use smaller values for faster responses.",
						"default": 10,
						"minimum": 1,
						"maximum": 50
					},
					"mailbox": {
						"type": "string",
						"description": "Filter results to a specific mailbox/folder by name or role. Common values: 'inbox', 'sent', 'drafts', 'archive', 'trash', 'junk'. Leave empty to search all mailboxes."
					}
				},
				"required": []
			}`),
		},
		{
			Name: ToolGetEmail,
			Description: "Retrieve the full content of a specific email by its unique ID. " +
				"Fetches the body text, attachment information and all metadata. Use the email ID from search_emails results. Read-only.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"email_id": {
						"type": "string",
						"description": "The unique identifier of the email to retrieve. Obtain this from the search_emails tool results."
					}
				},
				"required": ["email_id"]
			}`),
		},
		{
			Name: ToolListMailboxes,
			Description: "List all mailboxes (folders) in your Fastmail account with email counts. " +
				"Includes inbox, sent, drafts, archive, trash, spam and custom folders, with total and unread counts. Read-only.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {},
				"required": []
			}`),
		},
	}
}
