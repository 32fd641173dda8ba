// Package envelope encodes cart line items into checkout session metadata and back.
//
// Provider metadata is limited to 50 keys of at most 500 characters each, so
// per-item fields use one-letter keys with truncated names, and the shared
// recipient fields are stored once under recipientInfo.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength    = 20
	MaxMessageLength = 100
	MaxValueLength   = 500
	MaxKeys          = 50

	ItemsKey     = "orderItems"
	RecipientKey = "recipientInfo"
	CountKey     = "itemCount"

	// keys left for callers that add their own metadata
	reservedKeys = 4
)

var (
	ErrInvalid  = errors.New("invalid metadata envelope")
	ErrTooLarge = errors.New("metadata envelope exceeds provider limits")
)

type Item struct {
	PlatformID     string `json:"p"`
	SubscriptionID string `json:"s"`
	RecipientName  string `json:"r"`
	RecipientEmail string `json:"e"`
	SenderName     string `json:"f"`
}

type Recipient struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type Envelope struct {
	Items     []Item
	Recipient Recipient
}

// New builds an envelope, truncating per-item names and the shared message.
func New(items []Item, recipient Recipient) Envelope {
	out := make([]Item, len(items))
	for i, it := range items {
		it.RecipientName = Truncate(it.RecipientName, MaxNameLength)
		it.SenderName = Truncate(it.SenderName, MaxNameLength)
		out[i] = it
	}
	recipient.Message = Truncate(recipient.Message, MaxMessageLength)
	return Envelope{Items: out, Recipient: recipient}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Encode renders the envelope as provider metadata.
func (e Envelope) Encode() (map[string]string, error) {
	if len(e.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalid)
	}

	recipient, err := json.Marshal(e.Recipient)
	if err != nil {
		return nil, fmt.Errorf("marshal recipient: %w", err)
	}
	if utf8.RuneCount(recipient) > MaxValueLength {
		return nil, fmt.Errorf("%w: recipient info", ErrTooLarge)
	}

	chunks, err := chunkItems(e.Items)
	if err != nil {
		return nil, err
	}
	if len(chunks)+2 > MaxKeys-reservedKeys {
		return nil, fmt.Errorf("%w: %d items", ErrTooLarge, len(e.Items))
	}

	metadata := map[string]string{
		RecipientKey: string(recipient),
		CountKey:     strconv.Itoa(len(e.Items)),
	}
	for i, chunk := range chunks {
		metadata[chunkKey(i)] = chunk
	}
	return metadata, nil
}

func chunkItems(items []Item) ([]string, error) {
	var chunks []string
	var current []Item

	flush := func() error {
		b, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal items: %w", err)
		}
		chunks = append(chunks, string(b))
		current = nil
		return nil
	}

	for _, it := range items {
		candidate := append(append([]Item(nil), current...), it)
		b, err := json.Marshal(candidate)
		if err != nil {
			return nil, fmt.Errorf("marshal items: %w", err)
		}
		if utf8.RuneCount(b) <= MaxValueLength {
			current = candidate
			continue
		}
		if len(current) == 0 {
			return nil, fmt.Errorf("%w: single item exceeds %d characters", ErrTooLarge, MaxValueLength)
		}
		if err := flush(); err != nil {
			return nil, err
		}
		current = []Item{it}
		if b, _ := json.Marshal(current); utf8.RuneCount(b) > MaxValueLength {
			return nil, fmt.Errorf("%w: single item exceeds %d characters", ErrTooLarge, MaxValueLength)
		}
	}
	if len(current) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

func chunkKey(i int) string {
	if i == 0 {
		return ItemsKey
	}
	return ItemsKey + "_" + strconv.Itoa(i)
}

// Decode parses and validates an envelope from provider metadata.
func Decode(metadata map[string]string) (Envelope, error) {
	var env Envelope

	first, ok := metadata[ItemsKey]
	if !ok || strings.TrimSpace(first) == "" {
		return env, fmt.Errorf("%w: missing %s", ErrInvalid, ItemsKey)
	}

	for i := 0; ; i++ {
		raw, ok := metadata[chunkKey(i)]
		if !ok {
			break
		}
		var chunk []Item
		if err := json.Unmarshal([]byte(raw), &chunk); err != nil {
			return env, fmt.Errorf("%w: %s: %v", ErrInvalid, chunkKey(i), err)
		}
		env.Items = append(env.Items, chunk...)
	}

	if count, ok := metadata[CountKey]; ok {
		n, err := strconv.Atoi(count)
		if err != nil || n != len(env.Items) {
			return env, fmt.Errorf("%w: item count %q does not match %d items", ErrInvalid, count, len(env.Items))
		}
	}
	if len(env.Items) == 0 {
		return env, fmt.Errorf("%w: no items", ErrInvalid)
	}

	if raw, ok := metadata[RecipientKey]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &env.Recipient); err != nil {
			return env, fmt.Errorf("%w: %s: %v", ErrInvalid, RecipientKey, err)
		}
	}

	for i, it := range env.Items {
		if it.PlatformID == "" || it.SubscriptionID == "" {
			return env, fmt.Errorf("%w: item %d missing platform or subscription", ErrInvalid, i)
		}
		if it.RecipientEmail == "" && env.Recipient.Email == "" {
			return env, fmt.Errorf("%w: item %d has no recipient email", ErrInvalid, i)
		}
	}
	return env, nil
}

// Resolve returns item i with recipient fields completed from the shared
// envelope. Names truncated in the item are replaced by the full shared name
// when they are a prefix of it.
func (e Envelope) Resolve(i int) Item {
	it := e.Items[i]
	shared := e.Recipient

	it.RecipientEmail = firstNonEmpty(it.RecipientEmail, shared.Email)
	it.RecipientName = expand(it.RecipientName, shared.Name)
	it.SenderName = expand(it.SenderName, shared.Sender)
	return it
}

func expand(short, full string) string {
	if short == "" {
		return full
	}
	if full != "" && short == Truncate(full, MaxNameLength) {
		return full
	}
	return short
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
