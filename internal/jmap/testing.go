package jmap

import "context"

// MockMailReader implements MailReader for testing.
// Each method can be overridden by setting the corresponding Func field.
// If a Func is not set, the method returns nil/empty values.
type MockMailReader struct {
	ListMailboxesFunc func(ctx context.Context) ([]MailboxSummary, error)
	SearchEmailsFunc  func(ctx context.Context, opts SearchOptions) ([]SearchHit, error)
	GetEmailFunc      func(ctx context.Context, id string) (*EmailDetail, error)
}

// Compile-time interface compliance check
var _ MailReader = (*MockMailReader)(nil)

func (m *MockMailReader) ListMailboxes(ctx context.Context) ([]MailboxSummary, error) {
	if m.ListMailboxesFunc != nil {
		return m.ListMailboxesFunc(ctx)
	}
	return nil, nil
}

func (m *MockMailReader) SearchEmails(ctx context.Context, opts SearchOptions) ([]SearchHit, error) {
	if m.SearchEmailsFunc != nil {
		return m.SearchEmailsFunc(ctx, opts)
	}
	return nil, nil
}

func (m *MockMailReader) GetEmail(ctx context.Context, id string) (*EmailDetail, error) {
	if m.GetEmailFunc != nil {
		return m.GetEmailFunc(ctx, id)
	}
	return nil, nil
}
