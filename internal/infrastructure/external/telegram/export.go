package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// TELEGRAM DESKTOP EXPORT
// "Export chat history" in Telegram Desktop writes result.json. Only the
// fields needed for replay are decoded.
// ══════════════════════════════════════════════════════════════════════════════

// Export is a decoded chat export.
type Export struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ID       int64           `json:"id"`
	Messages []exportMessage `json:"messages"`
}

type exportMessage struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Date         string     `json:"date"`
	DateUnixtime string     `json:"date_unixtime"`
	From         string     `json:"from"`
	FromID       string     `json:"from_id"`
	Text         exportText `json:"text"`
}

// exportText is either a plain string or a list of strings and entity
// objects with a "text" field.
type exportText string

func (t *exportText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = exportText(s)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	var sb strings.Builder
	for _, raw := range parts {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			sb.WriteString(s)
			continue
		}
		var entity struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &entity); err != nil {
			return err
		}
		sb.WriteString(entity.Text)
	}
	*t = exportText(sb.String())
	return nil
}

// ExportedMessage is one user message from an export.
type ExportedMessage struct {
	Source cup.MessageRef
	FromID int64
	From   string
	Text   string
	SentAt time.Time
}

// ParseExport decodes a result.json export.
func ParseExport(r io.Reader) (*Export, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to decode telegram export: %w", err)
	}
	return &exp, nil
}

// ChatID returns the Bot API chat id of the exported chat. Supergroups and
// channels carry the -100 prefix there.
func (e *Export) ChatID() int64 {
	switch {
	case strings.HasSuffix(e.Type, "supergroup"), strings.HasSuffix(e.Type, "channel"):
		return -1_000_000_000_000 - e.ID
	case strings.HasSuffix(e.Type, "group"):
		return -e.ID
	default:
		return e.ID
	}
}

// UserMessages returns the user-sent messages in export order. Service
// messages and messages without a user author are dropped. Dates without
// date_unixtime are read in loc, which is the exporting machine's zone.
func (e *Export) UserMessages(loc *time.Location) ([]ExportedMessage, error) {
	if loc == nil {
		loc = time.UTC
	}
	chatID := e.ChatID()

	out := make([]ExportedMessage, 0, len(e.Messages))
	for _, m := range e.Messages {
		if m.Type != "message" || !strings.HasPrefix(m.FromID, "user") {
			continue
		}
		fromID, err := strconv.ParseInt(strings.TrimPrefix(m.FromID, "user"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("message %d: invalid from_id %q", m.ID, m.FromID)
		}
		sentAt, err := m.sentAt(loc)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", m.ID, err)
		}
		out = append(out, ExportedMessage{
			Source: cup.MessageRef{ChatID: chatID, MessageID: m.ID},
			FromID: fromID,
			From:   m.From,
			Text:   string(m.Text),
			SentAt: sentAt,
		})
	}
	return out, nil
}

func (m exportMessage) sentAt(loc *time.Location) (time.Time, error) {
	if m.DateUnixtime != "" {
		sec, err := strconv.ParseInt(m.DateUnixtime, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date_unixtime %q", m.DateUnixtime)
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", m.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", m.Date)
	}
	return t.UTC(), nil
}
