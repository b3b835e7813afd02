package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/logger"
	"github.com/rekindle/rekindle/internal/metrics"
)

type fakeSource struct {
	contacts    []contacts.Contact
	history     map[int64]contacts.PromptHistory
	suggestions map[int64]contacts.Suggestion
	settings    contacts.Settings
}

func newFakeSource(cs ...contacts.Contact) *fakeSource {
	return &fakeSource{
		contacts:    cs,
		history:     map[int64]contacts.PromptHistory{},
		suggestions: map[int64]contacts.Suggestion{},
		settings:    contacts.DefaultSettings(contacts.DefaultUserID, 14),
	}
}

func (f *fakeSource) GetContact(_ context.Context, userID, id int64) (contacts.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id && c.UserID == userID {
			return c, nil
		}
	}
	return contacts.Contact{}, contacts.ErrNotFound
}

func (f *fakeSource) ListContacts(context.Context, int64) ([]contacts.Contact, error) {
	return f.contacts, nil
}

func (f *fakeSource) ListPromptHistory(context.Context, int64) ([]contacts.PromptHistory, error) {
	var out []contacts.PromptHistory
	for _, h := range f.history {
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeSource) LogPrompt(_ context.Context, userID, contactID int64, at time.Time) error {
	f.history[contactID] = contacts.PromptHistory{UserID: userID, ContactID: contactID, LastPromptedAt: at}
	return nil
}

func (f *fakeSource) SnoozePrompt(_ context.Context, userID, contactID int64, until, at time.Time) error {
	h, ok := f.history[contactID]
	if !ok {
		h = contacts.PromptHistory{UserID: userID, ContactID: contactID, LastPromptedAt: at}
	}
	h.SnoozedUntil = &until
	f.history[contactID] = h
	return nil
}

func (f *fakeSource) LatestSuggestions(context.Context, int64) (map[int64]contacts.Suggestion, error) {
	return f.suggestions, nil
}

func (f *fakeSource) GetSettings(context.Context, int64) (contacts.Settings, error) {
	return f.settings, nil
}

func newTestService(src Source) *Service {
	return NewService(src, Policy{}, 0, logger.Nop(), metrics.New()).WithClock(func() time.Time { return now })
}

func TestService_LogPromptStartsCooldown(t *testing.T) {
	c := contact(1, "Alice")
	c.LastMessageDate = daysAgo(31)
	src := newFakeSource(c)
	svc := newTestService(src)
	ctx := context.Background()

	recs, err := svc.Recommendations(ctx, contacts.DefaultUserID)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	require.NoError(t, svc.LogPrompt(ctx, contacts.DefaultUserID, 1))

	recs, err = svc.Recommendations(ctx, contacts.DefaultUserID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestService_SnoozeUsesDefaultDays(t *testing.T) {
	c := contact(1, "Alice")
	src := newFakeSource(c)
	svc := newTestService(src)

	until, err := svc.SnoozePrompt(context.Background(), contacts.DefaultUserID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, DefaultSnoozeDays), until)
	assert.Equal(t, now, src.history[1].LastPromptedAt)
}

func TestService_UnknownContact(t *testing.T) {
	svc := newTestService(newFakeSource())
	ctx := context.Background()

	assert.ErrorIs(t, svc.LogPrompt(ctx, contacts.DefaultUserID, 99), contacts.ErrNotFound)
	_, err := svc.SnoozePrompt(ctx, contacts.DefaultUserID, 99, 3)
	assert.ErrorIs(t, err, contacts.ErrNotFound)
}

func TestService_PendingRemindersGatedBySettings(t *testing.T) {
	c := contact(1, "Alice")
	c.LastContactDate = daysAgo(20)
	c.ReminderFrequency = intp(14)
	src := newFakeSource(c)
	src.suggestions[1] = contacts.Suggestion{ContactID: 1, Text: "hello"}
	svc := newTestService(src)
	ctx := context.Background()

	got, err := svc.PendingReminders(ctx, contacts.DefaultUserID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	src.settings.ReminderEnabled = false
	got, err = svc.PendingReminders(ctx, contacts.DefaultUserID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNewService_NormalizesPolicy(t *testing.T) {
	svc := NewService(newFakeSource(), Policy{}, 0, logger.Nop(), nil)
	assert.Equal(t, DefaultPolicy(), svc.Policy())
}

func TestService_PendingRemindersUseLocationDayBoundary(t *testing.T) {
	// 02:00 UTC on June 1 is still May 31 five hours west.
	last := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	c := contact(1, "Alice")
	c.LastContactDate = &last
	c.ReminderFrequency = intp(14)
	src := newFakeSource(c)
	src.suggestions[1] = contacts.Suggestion{ContactID: 1, Text: "hello"}

	clock := func() time.Time { return time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	west := NewService(src, Policy{}, 0, logger.Nop(), nil).
		WithClock(clock).
		WithLocation(time.FixedZone("UTC-5", -5*60*60))
	got, err := west.PendingReminders(ctx, contacts.DefaultUserID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	utc := NewService(src, Policy{}, 0, logger.Nop(), nil).
		WithClock(clock).
		WithLocation(time.UTC)
	got, err = utc.PendingReminders(ctx, contacts.DefaultUserID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
