package jmap

// Method names used by the read operations.
const (
	MethodMailboxGet   = "Mailbox/get"
	MethodMailboxQuery = "Mailbox/query"
	MethodEmailQuery   = "Email/query"
	MethodEmailGet     = "Email/get"
)

// Comparator orders query results.
type Comparator struct {
	Property    string `json:"property"`
	IsAscending bool   `json:"isAscending"`
}

// MailboxGetArgs are the arguments of Mailbox/get. With neither IDs nor
// IDsRef set, every mailbox is fetched.
type MailboxGetArgs struct {
	AccountID  string           `json:"accountId"`
	IDs        []string         `json:"ids,omitempty"`
	IDsRef     *ResultReference `json:"#ids,omitempty"`
	Properties []string         `json:"properties,omitempty"`
}

// References implements referrer.
func (a MailboxGetArgs) References() []ResultReference {
	if a.IDsRef == nil {
		return nil
	}
	return []ResultReference{*a.IDsRef}
}

// Validate implements validator.
func (a MailboxGetArgs) Validate() error {
	if len(a.IDs) > 0 && a.IDsRef != nil {
		return &ValidationError{Field: "ids", Message: "ids and #ids are mutually exclusive"}
	}
	return nil
}

// MailboxFilter is a Mailbox/query FilterCondition, or a FilterOperator when
// Operator is set.
type MailboxFilter struct {
	Operator   string          `json:"operator,omitempty"`
	Conditions []MailboxFilter `json:"conditions,omitempty"`

	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// MailboxQueryArgs are the arguments of Mailbox/query.
type MailboxQueryArgs struct {
	AccountID string         `json:"accountId"`
	Filter    *MailboxFilter `json:"filter,omitempty"`
	Sort      []Comparator   `json:"sort,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// EmailFilter is an Email/query FilterCondition. InMailboxRef resolves the
// mailbox id from an earlier call in the same batch.
type EmailFilter struct {
	Text         string           `json:"text,omitempty"`
	InMailbox    string           `json:"inMailbox,omitempty"`
	InMailboxRef *ResultReference `json:"#inMailbox,omitempty"`
	After        string           `json:"after,omitempty"`
	Before       string           `json:"before,omitempty"`
}

// IsEmpty reports whether the filter matches everything.
func (f *EmailFilter) IsEmpty() bool {
	return f == nil || (f.Text == "" && f.InMailbox == "" && f.InMailboxRef == nil && f.After == "" && f.Before == "")
}

// EmailQueryArgs are the arguments of Email/query.
type EmailQueryArgs struct {
	AccountID       string       `json:"accountId"`
	Filter          *EmailFilter `json:"filter,omitempty"`
	Sort            []Comparator `json:"sort,omitempty"`
	Limit           int          `json:"limit,omitempty"`
	CollapseThreads bool         `json:"collapseThreads"`
}

// References implements referrer.
func (a EmailQueryArgs) References() []ResultReference {
	if a.Filter == nil || a.Filter.InMailboxRef == nil {
		return nil
	}
	return []ResultReference{*a.Filter.InMailboxRef}
}

// Validate implements validator.
func (a EmailQueryArgs) Validate() error {
	if a.Filter != nil && a.Filter.InMailbox != "" && a.Filter.InMailboxRef != nil {
		return &ValidationError{Field: "filter", Message: "inMailbox and #inMailbox are mutually exclusive"}
	}
	return nil
}

// EmailGetArgs are the arguments of Email/get. Exactly one of IDs and IDsRef is set.
type EmailGetArgs struct {
	AccountID           string           `json:"accountId"`
	IDs                 []string         `json:"ids,omitempty"`
	IDsRef              *ResultReference `json:"#ids,omitempty"`
	Properties          []string         `json:"properties,omitempty"`
	BodyProperties      []string         `json:"bodyProperties,omitempty"`
	FetchTextBodyValues bool             `json:"fetchTextBodyValues,omitempty"`
	FetchHTMLBodyValues bool             `json:"fetchHTMLBodyValues,omitempty"`
	MaxBodyValueBytes   int              `json:"maxBodyValueBytes,omitempty"`
}

// References implements referrer.
func (a EmailGetArgs) References() []ResultReference {
	if a.IDsRef == nil {
		return nil
	}
	return []ResultReference{*a.IDsRef}
}

// Validate implements validator. An Email/get without ids would fetch the
// whole account.
func (a EmailGetArgs) Validate() error {
	switch {
	case len(a.IDs) > 0 && a.IDsRef != nil:
		return &ValidationError{Field: "ids", Message: "ids and #ids are mutually exclusive"}
	case len(a.IDs) == 0 && a.IDsRef == nil:
		return &ValidationError{Field: "ids", Message: "ids or #ids is required"}
	}
	return nil
}

// MailboxGetResponse is the result of Mailbox/get.
type MailboxGetResponse struct {
	AccountID string    `json:"accountId"`
	State     string    `json:"state"`
	List      []Mailbox `json:"list"`
	NotFound  []string  `json:"notFound"`
}

// QueryResponse is the result of any /query method.
type QueryResponse struct {
	AccountID  string   `json:"accountId"`
	QueryState string   `json:"queryState"`
	IDs        []string `json:"ids"`
	Position   int      `json:"position"`
	Total      *int     `json:"total,omitempty"`
}

// EmailGetResponse is the result of Email/get.
type EmailGetResponse struct {
	AccountID string   `json:"accountId"`
	State     string   `json:"state"`
	List      []Email  `json:"list"`
	NotFound  []string `json:"notFound"`
}
