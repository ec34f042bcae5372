package jmap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salmonumbrella/fastmail-mcp/internal/logging"
	"github.com/salmonumbrella/fastmail-mcp/internal/transport"
)

const (
	// DefaultSearchLimit applies when a search asks for no particular count.
	DefaultSearchLimit = 10

	// MaxSearchLimit is the most results a search returns.
	MaxSearchLimit = 50
)

// Call ids used within the read batches.
const (
	callMailboxes  = "mailboxes"
	callMailbox    = "mailbox"
	callCandidates = "candidates"
	callQuery      = "query"
	callEmails     = "emails"
)

var (
	mailboxProperties = []string{"id", "name", "role", "parentId", "sortOrder", "totalEmails", "unreadEmails"}

	searchProperties = []string{"id", "threadId", "subject", "from", "to", "receivedAt", "preview", "mailboxIds"}

	detailProperties = []string{
		"id", "threadId", "subject", "from", "to", "cc", "bcc", "replyTo",
		"receivedAt", "sentAt", "mailboxIds", "textBody", "htmlBody", "bodyValues", "attachments",
	}

	bodyProperties = []string{"partId", "blobId", "type", "name", "size", "disposition"}
)

// SearchOptions narrows an email search. Zero values mean "no restriction".
type SearchOptions struct {
	// Query is matched against subject, addresses and body.
	Query string

	// Mailbox is a mailbox name or role, matched case-insensitively.
	Mailbox string

	// Limit is the number of results (default 10, at most 50).
	Limit int

	After  time.Time
	Before time.Time

	// Ascending returns the oldest emails first.
	Ascending bool
}

// ClampSearchLimit applies the default and the cap to a requested limit.
func ClampSearchLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}

// ListMailboxes returns every mailbox in the account.
func (c *Client) ListMailboxes(ctx context.Context) ([]MailboxSummary, error) {
	resps, err := c.run(ctx, "list_mailboxes", func(s *Session) []MethodCall {
		return []MethodCall{{
			CallID: callMailboxes,
			Name:   MethodMailboxGet,
			Args: MailboxGetArgs{
				AccountID:  s.MailAccountID,
				Properties: mailboxProperties,
			},
		}}
	})
	if err != nil {
		return nil, err
	}

	var result MailboxGetResponse
	if err := resps.Decode(callMailboxes, &result); err != nil {
		return nil, &RequestContext{Method: MethodMailboxGet, Err: err}
	}

	mailboxes := make([]MailboxSummary, 0, len(result.List))
	for _, m := range result.List {
		summary, err := ToMailboxSummary(m)
		if err != nil {
			return nil, err
		}
		mailboxes = append(mailboxes, summary)
	}
	return mailboxes, nil
}

// SearchEmails finds emails matching opts, most recent first unless
// opts.Ascending is set. Mailbox resolution, the query and the fetch share a
// single request. When the first lookup candidate is only a partial match
// and an exact one exists, the search is repeated against the exact mailbox.
func (c *Client) SearchEmails(ctx context.Context, opts SearchOptions) ([]SearchHit, error) {
	limit := ClampSearchLimit(opts.Limit)
	mailbox := strings.TrimSpace(opts.Mailbox)

	resps, err := c.run(ctx, "search_emails", func(s *Session) []MethodCall {
		return searchCalls(s.MailAccountID, opts, mailboxTarget{Name: mailbox}, limit)
	})
	if err != nil {
		return nil, err
	}

	if mailbox != "" {
		id, searched, err := resolveMailbox(resps, mailbox)
		if err != nil {
			return nil, err
		}
		if !searched {
			logging.FromContext(ctx).Debug("mailbox lookup matched a later candidate", "mailbox", mailbox, "mailbox_id", id)
			resps, err = c.run(ctx, "search_emails", func(s *Session) []MethodCall {
				return searchCalls(s.MailAccountID, opts, mailboxTarget{ID: id}, limit)
			})
			if err != nil {
				return nil, err
			}
		}
	}

	var query QueryResponse
	if err := resps.Decode(callQuery, &query); err != nil {
		return nil, &RequestContext{Method: MethodEmailQuery, Err: err}
	}
	var got EmailGetResponse
	if err := resps.Decode(callEmails, &got); err != nil {
		return nil, &RequestContext{Method: MethodEmailGet, Err: err}
	}

	byID := make(map[string]Email, len(got.List))
	for _, e := range got.List {
		byID[e.ID] = e
	}

	// Email/get does not promise to preserve the query order.
	hits := make([]SearchHit, 0, len(query.IDs))
	for _, id := range query.IDs {
		e, ok := byID[id]
		if !ok {
			continue
		}
		hit, err := ToSearchHit(e)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// mailboxTarget is the mailbox a search is restricted to: either a name or
// role to look up within the batch, or an id already resolved.
type mailboxTarget struct {
	Name string
	ID   string
}

func searchCalls(accountID string, opts SearchOptions, target mailboxTarget, limit int) []MethodCall {
	filter := &EmailFilter{Text: strings.TrimSpace(opts.Query)}
	if !opts.After.IsZero() {
		filter.After = utcDate(opts.After)
	}
	if !opts.Before.IsZero() {
		filter.Before = utcDate(opts.Before)
	}

	var calls []MethodCall
	switch {
	case target.ID != "":
		filter.InMailbox = target.ID
	case target.Name != "":
		calls = append(calls,
			MethodCall{
				CallID: callMailbox,
				Name:   MethodMailboxQuery,
				Args:   mailboxLookupArgs(accountID, target.Name),
			},
			MethodCall{
				CallID: callCandidates,
				Name:   MethodMailboxGet,
				Args: MailboxGetArgs{
					AccountID:  accountID,
					IDsRef:     &ResultReference{ResultOf: callMailbox, Name: MethodMailboxQuery, Path: "/ids"},
					Properties: mailboxProperties,
				},
			},
		)
		filter.InMailboxRef = &ResultReference{
			ResultOf: callMailbox,
			Name:     MethodMailboxQuery,
			Path:     "/ids/0",
		}
	}
	if filter.IsEmpty() {
		filter = nil
	}

	return append(calls,
		MethodCall{
			CallID: callQuery,
			Name:   MethodEmailQuery,
			Args: EmailQueryArgs{
				AccountID: accountID,
				Filter:    filter,
				Sort:      []Comparator{{Property: "receivedAt", IsAscending: opts.Ascending}},
				Limit:     limit,
			},
		},
		MethodCall{
			CallID: callEmails,
			Name:   MethodEmailGet,
			Args: EmailGetArgs{
				AccountID:  accountID,
				IDsRef:     &ResultReference{ResultOf: callQuery, Name: MethodEmailQuery, Path: "/ids"},
				Properties: searchProperties,
			},
		},
	)
}

// mailboxLookupArgs matches a role word by role or by name, and anything
// else by name. The server's name filter is a substring match, so every
// candidate is returned and checked afterwards.
func mailboxLookupArgs(accountID, mailbox string) MailboxQueryArgs {
	args := MailboxQueryArgs{
		AccountID: accountID,
		Sort:      []Comparator{{Property: "name", IsAscending: true}},
	}
	if IsKnownRole(mailbox) {
		args.Filter = &MailboxFilter{
			Operator: "OR",
			Conditions: []MailboxFilter{
				{Role: string(NormalizeRole(mailbox))},
				{Name: mailbox},
			},
		}
	} else {
		args.Filter = &MailboxFilter{Name: mailbox}
	}
	return args
}

// resolveMailbox picks the lookup candidate that is exactly mailbox. A role
// match wins over a name match. searched reports whether the batch's query
// already ran against that candidate.
func resolveMailbox(resps Responses, mailbox string) (id string, searched bool, err error) {
	var lookup QueryResponse
	if err := resps.Decode(callMailbox, &lookup); err != nil {
		return "", false, &RequestContext{Method: MethodMailboxQuery, Err: err}
	}
	if len(lookup.IDs) == 0 {
		return "", false, &NotFoundError{Resource: "mailbox", ID: mailbox}
	}

	var got MailboxGetResponse
	if err := resps.Decode(callCandidates, &got); err != nil {
		return "", false, &RequestContext{Method: MethodMailboxGet, Err: err}
	}
	byID := make(map[string]Mailbox, len(got.List))
	for _, m := range got.List {
		byID[m.ID] = m
	}

	id = matchMailbox(lookup.IDs, byID, mailbox)
	if id == "" {
		nf := &NotFoundError{Resource: "mailbox", ID: mailbox}
		for _, candidate := range lookup.IDs {
			if m, ok := byID[candidate]; ok && m.Name != "" {
				nf.Candidates = append(nf.Candidates, m.Name)
			}
		}
		return "", false, nf
	}
	return id, id == lookup.IDs[0], nil
}

func matchMailbox(ids []string, byID map[string]Mailbox, want string) string {
	if IsKnownRole(want) {
		role := string(NormalizeRole(want))
		for _, id := range ids {
			if m, ok := byID[id]; ok && strings.EqualFold(m.Role, role) {
				return id
			}
		}
	}
	for _, id := range ids {
		if m, ok := byID[id]; ok && strings.EqualFold(strings.TrimSpace(m.Name), want) {
			return id
		}
	}
	return ""
}

// GetEmail fetches one email with its body rendered as text.
func (c *Client) GetEmail(ctx context.Context, id string) (*EmailDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "email_id", Message: "is required"}
	}

	resps, err := c.run(ctx, "get_email", func(s *Session) []MethodCall {
		return []MethodCall{{
			CallID: callEmails,
			Name:   MethodEmailGet,
			Args: EmailGetArgs{
				AccountID:           s.MailAccountID,
				IDs:                 []string{id},
				Properties:          detailProperties,
				BodyProperties:      bodyProperties,
				FetchTextBodyValues: true,
				FetchHTMLBodyValues: true,
			},
		}}
	})
	if err != nil {
		return nil, err
	}

	var got EmailGetResponse
	if err := resps.Decode(callEmails, &got); err != nil {
		return nil, &RequestContext{Method: MethodEmailGet, Err: err}
	}

	for _, e := range got.List {
		if e.ID != id {
			continue
		}
		detail, err := ToEmailDetail(e)
		if err != nil {
			return nil, err
		}
		return &detail, nil
	}
	return nil, &NotFoundError{Resource: "email", ID: id}
}

// run resolves the session and executes the calls built for it. An
// authorization failure is replayed once against a freshly discovered
// session; a rate-limited request is replayed once after a bounded wait.
func (c *Client) run(ctx context.Context, op string, build func(*Session) []MethodCall) (Responses, error) {
	logger := logging.FromContext(ctx).With("op", op, "op_id", uuid.NewString())
	ctx = logging.WithLogger(ctx, logger)

	session, err := c.GetSession(ctx, false)
	if err != nil {
		return nil, err
	}

	authRetried, rateLimitRetried := false, false
	for {
		resps, err := c.Execute(ctx, session, build(session)...)
		if err == nil {
			return resps, nil
		}

		var rle *RateLimitError
		switch {
		case IsAuthError(err) && !authRetried:
			authRetried = true
			logger.Debug("request unauthorized, refreshing session")
			session, err = c.refreshSession(ctx, session)
			if err != nil {
				return nil, err
			}

		case errors.As(err, &rle) && !rateLimitRetried:
			rateLimitRetried = true
			delay := transport.BoundedDelay(c.rateLimitConfig().backoff(), rle.RetryAfter, rle.Hinted)
			logger.Debug("rate limited, retrying", "delay", delay, "hinted", rle.Hinted)
			if err := transport.Sleep(ctx, delay); err != nil {
				return nil, networkError("waiting to retry", err)
			}

		default:
			return nil, err
		}
	}
}

func utcDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
