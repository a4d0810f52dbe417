package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SettingRecord is the per-organization, per-provider configuration row.
// It is created and edited by the admin surface; the engine only reads it.
type SettingRecord struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Provider       string
	StartWorkflow  string
	Enabled        bool
	Config         map[string]string
}

// ConfigValue returns a config bag entry, empty when absent.
func (s SettingRecord) ConfigValue(key string) string {
	return s.Config[key]
}

// SenderRecord is one remote chat contact, unique per (setting, address).
type SenderRecord struct {
	ID          uuid.UUID
	SettingID   uuid.UUID
	UserID      *uuid.UUID
	FromAddress string
	Name        string
	Metadata    map[string]string
	// CurrentWorkflow empty means the sender is at the root state and the
	// Setting's start workflow applies. ParentWorkflow is non-empty exactly
	// when the sender is inside a delegated sub-conversation.
	CurrentWorkflow string
	ParentWorkflow  string
}

// MessageRecord is one stored inbound message, deduplicated by the
// provider-assigned external id.
type MessageRecord struct {
	ID         uuid.UUID
	SettingID  uuid.UUID
	SenderID   *uuid.UUID
	ChatID     string
	ExternalID string
	From       string
	To         string
	Type       string
	Content    map[string]string
	ReadAt     *time.Time
}

// Store is the conversation persistence boundary.
type Store interface {
	FindSetting(ctx context.Context, orgID uuid.UUID, provider string) (SettingRecord, error)
	FindOrCreateSender(ctx context.Context, setting SettingRecord, env *Envelope) (SenderRecord, error)
	FindOrCreateMessage(ctx context.Context, setting SettingRecord, sender SenderRecord, env *Envelope) (MessageRecord, bool, error)
	MarkMessageRead(ctx context.Context, messageID uuid.UUID) error
	SetWorkflow(ctx context.Context, senderID uuid.UUID, current, parent string) error
	ClearWorkflow(ctx context.Context, senderID uuid.UUID) error
}

// PgxPool is the subset of *pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore persists conversation state in Postgres. Idempotence relies on
// the unique indexes on (setting_id, from_address) and
// (setting_id, external_id): inserts race through ON CONFLICT DO NOTHING
// and fall back to selecting the surviving row.
type PgStore struct {
	pool PgxPool
}

func NewPgStore(pool PgxPool) *PgStore {
	if pool == nil {
		return nil
	}
	return &PgStore{pool: pool}
}

const settingColumns = "id, organization_id, provider, start_workflow, enabled, config"

func (s *PgStore) FindSetting(ctx context.Context, orgID uuid.UUID, provider string) (SettingRecord, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM chatbot_settings
		WHERE organization_id = $1 AND provider = $2
	`
	rec, err := scanSetting(s.pool.QueryRow(ctx, query, orgID, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SettingRecord{}, ErrSettingNotFound
		}
		return SettingRecord{}, fmt.Errorf("chat: find setting: %w", err)
	}
	return rec, nil
}

func scanSetting(row pgx.Row) (SettingRecord, error) {
	var rec SettingRecord
	var config []byte
	if err := row.Scan(&rec.ID, &rec.OrganizationID, &rec.Provider, &rec.StartWorkflow, &rec.Enabled, &config); err != nil {
		return SettingRecord{}, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &rec.Config); err != nil {
			return SettingRecord{}, fmt.Errorf("decode config: %w", err)
		}
	}
	return rec, nil
}

const senderColumns = "id, setting_id, user_id, from_address, name, metadata, current_workflow, parent_workflow"

// FindOrCreateSender returns the sender for the envelope's contact address,
// creating it on first contact. Name, metadata and locale are seeded only
// at creation; repeat calls return the stored row unchanged.
func (s *PgStore) FindOrCreateSender(ctx context.Context, setting SettingRecord, env *Envelope) (SenderRecord, error) {
	metadata := make(map[string]string, len(env.FromMetadata)+1)
	for k, v := range env.FromMetadata {
		metadata[k] = v
	}
	if env.FromLocale != "" {
		metadata["locale"] = env.FromLocale
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return SenderRecord{}, fmt.Errorf("chat: marshal sender metadata: %w", err)
	}

	insert := `
		INSERT INTO chatbot_senders (id, setting_id, from_address, name, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (setting_id, from_address) DO NOTHING
		RETURNING ` + senderColumns + `
	`
	rec, err := scanSender(s.pool.QueryRow(ctx, insert, uuid.New(), setting.ID, env.From, env.FromName, metaJSON))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return SenderRecord{}, fmt.Errorf("chat: create sender: %w", err)
	}

	// Lost the insert race (or the sender already existed): read the row
	// that won.
	query := `
		SELECT ` + senderColumns + `
		FROM chatbot_senders
		WHERE setting_id = $1 AND from_address = $2
	`
	rec, err = scanSender(s.pool.QueryRow(ctx, query, setting.ID, env.From))
	if err != nil {
		return SenderRecord{}, fmt.Errorf("chat: find sender: %w", err)
	}
	return rec, nil
}

func scanSender(row pgx.Row) (SenderRecord, error) {
	var rec SenderRecord
	var metadata []byte
	var current, parent *string
	if err := row.Scan(&rec.ID, &rec.SettingID, &rec.UserID, &rec.FromAddress, &rec.Name, &metadata, &current, &parent); err != nil {
		return SenderRecord{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return SenderRecord{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if current != nil {
		rec.CurrentWorkflow = *current
	}
	if parent != nil {
		rec.ParentWorkflow = *parent
	}
	return rec, nil
}

const messageColumns = "id, setting_id, sender_id, chat_id, external_id, from_address, to_address, type, content, read_at"

// FindOrCreateMessage stores the inbound message once per provider message
// id. The second return value reports whether this call created the row;
// redeliveries return the existing row with created=false so the caller
// can skip dispatch.
func (s *PgStore) FindOrCreateMessage(ctx context.Context, setting SettingRecord, sender SenderRecord, env *Envelope) (MessageRecord, bool, error) {
	content := map[string]string{"body": env.Body}
	if env.ButtonID != "" {
		content["button_id"] = env.ButtonID
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return MessageRecord{}, false, fmt.Errorf("chat: marshal message content: %w", err)
	}

	insert := `
		INSERT INTO chatbot_messages (id, setting_id, sender_id, chat_id, external_id, from_address, to_address, type, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (setting_id, external_id) DO NOTHING
		RETURNING ` + messageColumns + `
	`
	rec, err := scanMessage(s.pool.QueryRow(ctx, insert,
		uuid.New(), setting.ID, sender.ID, env.ChatID, env.MessageID, env.From, env.To, env.Classification(), contentJSON))
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return MessageRecord{}, false, fmt.Errorf("chat: create message: %w", err)
	}

	query := `
		SELECT ` + messageColumns + `
		FROM chatbot_messages
		WHERE setting_id = $1 AND external_id = $2
	`
	rec, err = scanMessage(s.pool.QueryRow(ctx, query, setting.ID, env.MessageID))
	if err != nil {
		return MessageRecord{}, false, fmt.Errorf("chat: find message: %w", err)
	}
	return rec, false, nil
}

func scanMessage(row pgx.Row) (MessageRecord, error) {
	var rec MessageRecord
	var content []byte
	if err := row.Scan(&rec.ID, &rec.SettingID, &rec.SenderID, &rec.ChatID, &rec.ExternalID, &rec.From, &rec.To, &rec.Type, &content, &rec.ReadAt); err != nil {
		return MessageRecord{}, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &rec.Content); err != nil {
			return MessageRecord{}, fmt.Errorf("decode content: %w", err)
		}
	}
	return rec, nil
}

// MarkMessageRead sets read_at once; redeliveries never move the timestamp.
func (s *PgStore) MarkMessageRead(ctx context.Context, messageID uuid.UUID) error {
	query := `
		UPDATE chatbot_messages
		SET read_at = now()
		WHERE id = $1 AND read_at IS NULL
	`
	if _, err := s.pool.Exec(ctx, query, messageID); err != nil {
		return fmt.Errorf("chat: mark message read: %w", err)
	}
	return nil
}

// SetWorkflow updates both workflow references in one statement so the
// delegation invariant cannot be observed half-applied.
func (s *PgStore) SetWorkflow(ctx context.Context, senderID uuid.UUID, current, parent string) error {
	query := `
		UPDATE chatbot_senders
		SET current_workflow = NULLIF($2, ''),
			parent_workflow = NULLIF($3, ''),
			updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, senderID, current, parent); err != nil {
		return fmt.Errorf("chat: set workflow: %w", err)
	}
	return nil
}

// ClearWorkflow returns the sender to the root state.
func (s *PgStore) ClearWorkflow(ctx context.Context, senderID uuid.UUID) error {
	query := `
		UPDATE chatbot_senders
		SET current_workflow = NULL,
			parent_workflow = NULL,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, query, senderID); err != nil {
		return fmt.Errorf("chat: clear workflow: %w", err)
	}
	return nil
}
