package contacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rekindle/rekindle/internal/chatexport"
	"github.com/rekindle/rekindle/internal/db"
)

// DefaultReminderFrequency is the reminder interval, in days, given to new
// contacts and new settings rows.
const DefaultReminderFrequency = 14

// timeLayout is fixed-width UTC so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides read/write access to the rekindle SQLite database.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Conn exposes the underlying *sql.DB for low-level queries.
func (s *Store) Conn() *sql.DB {
	return s.db.Conn()
}

// ---- Users ----

// EnsureUser creates the user row if it does not exist yet.
func (s *Store) EnsureUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("store: invalid user id %d", userID)
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, username) VALUES (?, ?)`,
		userID, fmt.Sprintf("user-%d", userID),
	)
	if err != nil {
		return fmt.Errorf("store: ensure user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, userID int64) (User, error) {
	var u User
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("store: get user: %w", err)
	}
	return u, nil
}

// ---- Contacts ----

const contactColumns = `id, user_id, name, phone, interests, relationship_type, notes,
	is_favorite, last_contact_date, last_message_date, reminder_frequency, priority_level`

// CreateContact inserts a contact owned by c.UserID and returns the stored row.
func (s *Store) CreateContact(ctx context.Context, c Contact) (Contact, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Contact{}, fmt.Errorf("store: %w: contact name is required", ErrInvalid)
	}
	if c.ReminderFrequency == nil {
		freq := DefaultReminderFrequency
		c.ReminderFrequency = &freq
	}
	if c.PriorityLevel == 0 {
		c.PriorityLevel = 1
	}
	if err := validateContact(c); err != nil {
		return Contact{}, err
	}

	var id int64
	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO contacts (user_id, name, phone, interests, relationship_type, notes,
		                      is_favorite, last_contact_date, last_message_date,
		                      reminder_frequency, priority_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.UserID, c.Name, c.Phone, encodeList(c.Interests), nullString(c.RelationshipType),
		nullString(c.Notes), c.IsFavorite, nullTime(c.LastContactDate), nullTime(c.LastMessageDate),
		*c.ReminderFrequency, c.PriorityLevel,
	).Scan(&id)
	if err != nil {
		return Contact{}, fmt.Errorf("store: create contact: %w", err)
	}
	return s.GetContact(ctx, c.UserID, id)
}

// GetContact returns the contact if it exists and belongs to userID.
func (s *Store) GetContact(ctx context.Context, userID, id int64) (Contact, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("store: get contact: %w", err)
	}
	return c, nil
}

// FindContactByName returns the user's contact whose name matches
// case-insensitively. When several match, the oldest wins.
func (s *Store) FindContactByName(ctx context.Context, userID int64, name string) (Contact, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE user_id = ? AND name = ? COLLATE NOCASE
		 ORDER BY id LIMIT 1`, userID, strings.TrimSpace(name))
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("store: find contact: %w", err)
	}
	return c, nil
}

// ListContacts returns all of a user's contacts ordered by name.
func (s *Store) ListContacts(ctx context.Context, userID int64) ([]Contact, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = ? ORDER BY name COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateContact applies the non-nil fields of p and returns the updated row.
func (s *Store) UpdateContact(ctx context.Context, userID, id int64, p ContactPatch) (Contact, error) {
	c, err := s.GetContact(ctx, userID, id)
	if err != nil {
		return c, err
	}

	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return c, fmt.Errorf("store: %w: contact name is required", ErrInvalid)
		}
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Interests != nil {
		c.Interests = *p.Interests
	}
	if p.RelationshipType != nil {
		c.RelationshipType = *p.RelationshipType
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.IsFavorite != nil {
		c.IsFavorite = *p.IsFavorite
	}
	if p.LastContactDate != nil {
		c.LastContactDate = p.LastContactDate
	}
	if p.LastMessageDate != nil {
		c.LastMessageDate = p.LastMessageDate
	}
	if p.ReminderFrequency != nil {
		c.ReminderFrequency = p.ReminderFrequency
	}
	if p.PriorityLevel != nil {
		c.PriorityLevel = *p.PriorityLevel
	}
	if err := validateContact(c); err != nil {
		return c, err
	}

	var freq any
	if c.ReminderFrequency != nil {
		freq = *c.ReminderFrequency
	}
	_, err = s.db.Conn().ExecContext(ctx, `
		UPDATE contacts SET
		    name               = ?,
		    phone              = ?,
		    interests          = ?,
		    relationship_type  = ?,
		    notes              = ?,
		    is_favorite        = ?,
		    last_contact_date  = ?,
		    last_message_date  = ?,
		    reminder_frequency = ?,
		    priority_level     = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Phone, encodeList(c.Interests), nullString(c.RelationshipType), nullString(c.Notes),
		c.IsFavorite, nullTime(c.LastContactDate), nullTime(c.LastMessageDate), freq, c.PriorityLevel,
		id, userID,
	)
	if err != nil {
		return c, fmt.Errorf("store: update contact: %w", err)
	}
	return c, nil
}

// DeleteContact removes a contact together with its messages, suggestions
// and prompt history.
func (s *Store) DeleteContact(ctx context.Context, userID, id int64) error {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("store: delete contact: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLastInteraction records at as both the last contact and last message date.
func (s *Store) SetLastInteraction(ctx context.Context, contactID int64, at time.Time) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`UPDATE contacts SET last_contact_date = ?, last_message_date = ? WHERE id = ?`,
		formatTime(at), formatTime(at), contactID,
	)
	if err != nil {
		return fmt.Errorf("store: set last interaction: %w", err)
	}
	return nil
}

// SetPriority updates a contact's priority level.
func (s *Store) SetPriority(ctx context.Context, contactID int64, level int) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`UPDATE contacts SET priority_level = ? WHERE id = ?`, level, contactID)
	if err != nil {
		return fmt.Errorf("store: set priority: %w", err)
	}
	return nil
}

// BackfillInterests sets interests only when the contact has none.
// It reports whether the row changed.
func (s *Store) BackfillInterests(ctx context.Context, contactID int64, interests []string) (bool, error) {
	if len(interests) == 0 {
		return false, nil
	}
	res, err := s.db.Conn().ExecContext(ctx, `
		UPDATE contacts SET interests = ?
		WHERE id = ? AND (interests IS NULL OR interests IN ('', '[]', 'null'))`,
		encodeList(interests), contactID,
	)
	if err != nil {
		return false, fmt.Errorf("store: backfill interests: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func validateContact(c Contact) error {
	if c.ReminderFrequency != nil && *c.ReminderFrequency <= 0 {
		return fmt.Errorf("store: %w: reminder frequency must be positive", ErrInvalid)
	}
	if c.PriorityLevel < 1 || c.PriorityLevel > 5 {
		return fmt.Errorf("store: %w: priority level must be between 1 and 5", ErrInvalid)
	}
	return nil
}

// ---- Messages ----

// InsertMessages stores parsed messages for contactID in one transaction,
// preserving their order. It returns the number of rows written.
func (s *Store) InsertMessages(ctx context.Context, contactID int64, msgs []chatexport.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (contact_id, timestamp, sender, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare insert message: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx, contactID, formatTime(m.Timestamp), m.Sender, m.Content); err != nil {
			return 0, fmt.Errorf("store: insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit messages: %w", err)
	}
	return len(msgs), nil
}

// AddMessage stores a single message and returns it with its id.
func (s *Store) AddMessage(ctx context.Context, m Message) (Message, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	err := s.db.Conn().QueryRowContext(ctx,
		`INSERT INTO messages (contact_id, timestamp, sender, content) VALUES (?, ?, ?, ?) RETURNING id`,
		m.ContactID, formatTime(m.Timestamp), m.Sender, m.Content,
	).Scan(&m.ID)
	if err != nil {
		return m, fmt.Errorf("store: add message: %w", err)
	}
	return m, nil
}

// ListMessages returns a contact's messages in insertion order.
func (s *Store) ListMessages(ctx context.Context, contactID int64) ([]Message, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, contact_id, timestamp, sender, content FROM messages WHERE contact_id = ? ORDER BY id`,
		contactID)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMessages(rows)
}

// RecentMessages returns the n newest messages of a contact by timestamp,
// oldest first. Ties keep insertion order.
func (s *Store) RecentMessages(ctx context.Context, contactID int64, n int) ([]Message, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, contact_id, timestamp, sender, content FROM (
		    SELECT * FROM messages WHERE contact_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp, id`,
		contactID, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent messages: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMessages(rows)
}

// CountMessages returns how many messages are stored for a contact.
func (s *Store) CountMessages(ctx context.Context, contactID int64) (int, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE contact_id = ?`, contactID).Scan(&n)
	return n, err
}

// ---- Suggestions ----

// InsertSuggestion persists a suggestion. CreatedAt defaults to now.
func (s *Store) InsertSuggestion(ctx context.Context, sg Suggestion) (Suggestion, error) {
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = time.Now().UTC()
	}
	if sg.Source == "" {
		sg.Source = SourceAI
	}
	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO suggestions (contact_id, suggestion, topics, context, created_at, source, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sg.ContactID, sg.Text, encodeList(sg.Topics), nullString(sg.Context),
		formatTime(sg.CreatedAt), sg.Source, nullString(sg.ErrorMessage),
	).Scan(&sg.ID)
	if err != nil {
		return sg, fmt.Errorf("store: insert suggestion: %w", err)
	}
	return sg, nil
}

const suggestionColumns = `s.id, s.contact_id, s.suggestion, s.topics, s.context, s.created_at, s.source, s.error_message`

// LatestSuggestion returns the newest suggestion for a contact.
func (s *Store) LatestSuggestion(ctx context.Context, contactID int64) (Suggestion, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions s
		 WHERE s.contact_id = ? ORDER BY s.created_at DESC, s.id DESC LIMIT 1`, contactID)
	if err != nil {
		return Suggestion{}, fmt.Errorf("store: latest suggestion: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out, err := scanSuggestions(rows)
	if err != nil {
		return Suggestion{}, err
	}
	if len(out) == 0 {
		return Suggestion{}, ErrNotFound
	}
	return out[0], nil
}

// LatestSuggestions returns the newest suggestion of every contact owned by
// userID, keyed by contact id. Contacts without suggestions are absent.
func (s *Store) LatestSuggestions(ctx context.Context, userID int64) (map[int64]Suggestion, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions s
		 JOIN contacts c ON c.id = s.contact_id
		 WHERE c.user_id = ?
		 ORDER BY s.contact_id, s.created_at DESC, s.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: latest suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	all, err := scanSuggestions(rows)
	if err != nil {
		return nil, err
	}
	latest := make(map[int64]Suggestion)
	for _, sg := range all {
		if _, seen := latest[sg.ContactID]; !seen {
			latest[sg.ContactID] = sg
		}
	}
	return latest, nil
}

// ---- Settings ----

// GetSettings returns the user's settings, or the defaults when none are stored.
func (s *Store) GetSettings(ctx context.Context, userID int64) (Settings, error) {
	st := Settings{UserID: userID}
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT reminder_enabled, reminder_frequency, notify_new_suggestions, notify_missed_connections,
		       privacy_mode, language_preference, preferred_contact_method
		FROM settings WHERE user_id = ?`, userID,
	).Scan(&st.ReminderEnabled, &st.ReminderFrequency, &st.NotifyNewSuggestions,
		&st.NotifyMissedConnections, &st.PrivacyMode, &st.LanguagePreference, &st.PreferredContactMethod)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(userID, DefaultReminderFrequency), nil
	}
	if err != nil {
		return st, fmt.Errorf("store: get settings: %w", err)
	}
	return st, nil
}

// UpdateSettings applies the non-nil fields of p on top of the current
// settings and upserts the row.
func (s *Store) UpdateSettings(ctx context.Context, userID int64, p SettingsPatch) (Settings, error) {
	st, err := s.GetSettings(ctx, userID)
	if err != nil {
		return st, err
	}

	if p.ReminderEnabled != nil {
		st.ReminderEnabled = *p.ReminderEnabled
	}
	if p.ReminderFrequency != nil {
		if *p.ReminderFrequency <= 0 {
			return st, fmt.Errorf("store: %w: reminder frequency must be positive", ErrInvalid)
		}
		st.ReminderFrequency = *p.ReminderFrequency
	}
	if p.NotifyNewSuggestions != nil {
		st.NotifyNewSuggestions = *p.NotifyNewSuggestions
	}
	if p.NotifyMissedConnections != nil {
		st.NotifyMissedConnections = *p.NotifyMissedConnections
	}
	if p.PrivacyMode != nil {
		st.PrivacyMode = *p.PrivacyMode
	}
	if p.LanguagePreference != nil {
		st.LanguagePreference = *p.LanguagePreference
	}
	if p.PreferredContactMethod != nil {
		st.PreferredContactMethod = *p.PreferredContactMethod
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO settings (user_id, reminder_enabled, reminder_frequency, notify_new_suggestions,
		                      notify_missed_connections, privacy_mode, language_preference,
		                      preferred_contact_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		    reminder_enabled          = excluded.reminder_enabled,
		    reminder_frequency        = excluded.reminder_frequency,
		    notify_new_suggestions    = excluded.notify_new_suggestions,
		    notify_missed_connections = excluded.notify_missed_connections,
		    privacy_mode              = excluded.privacy_mode,
		    language_preference       = excluded.language_preference,
		    preferred_contact_method  = excluded.preferred_contact_method`,
		userID, st.ReminderEnabled, st.ReminderFrequency, st.NotifyNewSuggestions,
		st.NotifyMissedConnections, st.PrivacyMode, st.LanguagePreference, st.PreferredContactMethod,
	)
	if err != nil {
		return st, fmt.Errorf("store: update settings: %w", err)
	}
	return st, nil
}

// ---- Prompt history ----

// ListPromptHistory returns every prompt history row of a user.
func (s *Store) ListPromptHistory(ctx context.Context, userID int64) ([]PromptHistory, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT user_id, contact_id, last_prompted_at, snoozed_until
		 FROM prompt_history WHERE user_id = ? ORDER BY contact_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list prompt history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []PromptHistory{}
	for rows.Next() {
		h, err := scanPromptHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan prompt history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetPromptHistory returns the prompt history row of one contact.
func (s *Store) GetPromptHistory(ctx context.Context, userID, contactID int64) (PromptHistory, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT user_id, contact_id, last_prompted_at, snoozed_until
		 FROM prompt_history WHERE user_id = ? AND contact_id = ?`, userID, contactID)
	h, err := scanPromptHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrNotFound
	}
	if err != nil {
		return h, fmt.Errorf("store: get prompt history: %w", err)
	}
	return h, nil
}

// LogPrompt records that the user was prompted at the given time and
// clears any snooze.
func (s *Store) LogPrompt(ctx context.Context, userID, contactID int64, at time.Time) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO prompt_history (user_id, contact_id, last_prompted_at, snoozed_until)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT(user_id, contact_id) DO UPDATE SET
		    last_prompted_at = excluded.last_prompted_at,
		    snoozed_until    = NULL`,
		userID, contactID, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("store: log prompt: %w", err)
	}
	return nil
}

// SnoozePrompt suppresses prompts for the contact until the given time. A
// new row also records at as the prompt time; an existing row keeps its
// last_prompted_at.
func (s *Store) SnoozePrompt(ctx context.Context, userID, contactID int64, until, at time.Time) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO prompt_history (user_id, contact_id, last_prompted_at, snoozed_until)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, contact_id) DO UPDATE SET
		    snoozed_until = excluded.snoozed_until`,
		userID, contactID, formatTime(at), formatTime(until),
	)
	if err != nil {
		return fmt.Errorf("store: snooze prompt: %w", err)
	}
	return nil
}

// ---- Stats ----

// Stats summarises the stored records of a user.
func (s *Store) Stats(ctx context.Context, userID int64) (Stats, error) {
	st := Stats{Suggestions: map[string]int{}}
	conn := s.db.Conn()

	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contacts WHERE user_id = ?`, userID).Scan(&st.Contacts); err != nil {
		return st, fmt.Errorf("store: count contacts: %w", err)
	}
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages m JOIN contacts c ON c.id = m.contact_id WHERE c.user_id = ?`,
		userID).Scan(&st.Messages); err != nil {
		return st, fmt.Errorf("store: count messages: %w", err)
	}
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prompt_history WHERE user_id = ?`, userID).Scan(&st.Prompts); err != nil {
		return st, fmt.Errorf("store: count prompts: %w", err)
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT COALESCE(s.source, ''), COUNT(*) FROM suggestions s
		JOIN contacts c ON c.id = s.contact_id
		WHERE c.user_id = ? GROUP BY s.source`, userID)
	if err != nil {
		return st, fmt.Errorf("store: count suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return st, err
		}
		st.Suggestions[source] = n
	}
	return st, rows.Err()
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (Contact, error) {
	var c Contact
	var interests, relType, notes, lastContact, lastMessage sql.NullString
	var freq sql.NullInt64
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &interests, &relType, &notes,
		&c.IsFavorite, &lastContact, &lastMessage, &freq, &c.PriorityLevel)
	if err != nil {
		return c, err
	}
	c.Interests = decodeList(interests.String)
	c.RelationshipType = relType.String
	c.Notes = notes.String
	c.LastContactDate = parseNullTime(lastContact)
	c.LastMessageDate = parseNullTime(lastMessage)
	if freq.Valid {
		f := int(freq.Int64)
		c.ReminderFrequency = &f
	}
	return c, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	out := []Message{}
	for rows.Next() {
		var m Message
		var ts string
		if err := rows.Scan(&m.ID, &m.ContactID, &ts, &m.Sender, &m.Content); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		m.Timestamp = parseTime(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanSuggestions(rows *sql.Rows) ([]Suggestion, error) {
	var out []Suggestion
	for rows.Next() {
		var sg Suggestion
		var topics, ctxText, source, errMsg sql.NullString
		var createdAt string
		if err := rows.Scan(&sg.ID, &sg.ContactID, &sg.Text, &topics, &ctxText, &createdAt, &source, &errMsg); err != nil {
			return nil, fmt.Errorf("store: scan suggestion: %w", err)
		}
		sg.Topics = decodeList(topics.String)
		sg.Context = ctxText.String
		sg.CreatedAt = parseTime(createdAt)
		sg.Source = source.String
		sg.ErrorMessage = errMsg.String
		out = append(out, sg)
	}
	return out, rows.Err()
}

func scanPromptHistory(row rowScanner) (PromptHistory, error) {
	var h PromptHistory
	var last string
	var snoozed sql.NullString
	if err := row.Scan(&h.UserID, &h.ContactID, &last, &snoozed); err != nil {
		return h, err
	}
	h.LastPromptedAt = parseTime(last)
	h.SnoozedUntil = parseNullTime(snoozed)
	return h, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func parseTime(s string) time.Time {
	layouts := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func encodeList(items []string) any {
	if len(items) == 0 {
		return nil
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
