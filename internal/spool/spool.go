// =============================================================================
// Club Utilities - Email Spool
// =============================================================================
//
// The spool is a JSON file of emails waiting for the submission agent. It
// comes in two shapes:
//   - text:       [[["to", ...], "From: ...\nTo: ...\nSubject: ...\n\nbody"], ...]
//   - structured: [{"from": ..., "reply_to": ..., "to": [...], "subject": ...,
//                   "body": ..., "attachments": [...]}, ...]
//
// The text shape carries fully assembled messages; the structured shape
// leaves assembly to the composer and is required for attachments. Read
// accepts either.
//
// =============================================================================

package spool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/flock"
)

// Shape selects the JSON layout.
type Shape int

const (
	// ShapeText is the [[recipients], text] layout.
	ShapeText Shape = iota
	// ShapeStructured is the object layout.
	ShapeStructured
)

// ErrLocked is returned when another run holds the spool.
var ErrLocked = errors.New("spool is locked by another run")

// Item is one pending email.
type Item struct {
	From        string   `json:"from"`
	ReplyTo     string   `json:"reply_to"`
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

// Text assembles the message: headers, a blank line, then the body.
func (it Item) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", it.From)
	if it.ReplyTo != "" && it.ReplyTo != it.From {
		fmt.Fprintf(&b, "Reply-To: %s\n", it.ReplyTo)
	}
	fmt.Fprintf(&b, "To: %s\n", strings.Join(it.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", it.Subject)
	b.WriteString("\n")
	b.WriteString(it.Body)
	return b.String()
}

// ParseText splits an assembled message back into an Item.
func ParseText(recipients []string, text string) Item {
	it := Item{To: append([]string(nil), recipients...)}
	head, body, _ := strings.Cut(text, "\n\n")
	it.Body = body
	for _, line := range strings.Split(head, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(name) {
		case "from":
			it.From = value
		case "reply-to":
			it.ReplyTo = value
		case "subject":
			it.Subject = value
		}
	}
	return it
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes items in the given shape.
func Encode(w io.Writer, items []Item, shape Shape) error {
	var doc any
	switch shape {
	case ShapeStructured:
		out := make([]Item, len(items))
		for i, it := range items {
			if it.Attachments == nil {
				it.Attachments = []string{}
			}
			out[i] = it
		}
		doc = out
	default:
		pairs := make([][2]any, len(items))
		for i, it := range items {
			pairs[i] = [2]any{it.To, it.Text()}
		}
		doc = pairs
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Decode reads either shape.
func Decode(r io.Reader) ([]Item, Shape, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ShapeText, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ShapeText, fmt.Errorf("spool is not a JSON array: %w", err)
	}
	if len(raw) == 0 {
		return nil, ShapeText, nil
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte("{")) {
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, ShapeStructured, fmt.Errorf("decode structured spool: %w", err)
		}
		return items, ShapeStructured, nil
	}

	items := make([]Item, 0, len(raw))
	for i, elem := range raw {
		var pair []json.RawMessage
		if err := json.Unmarshal(elem, &pair); err != nil || len(pair) != 2 {
			return nil, ShapeText, fmt.Errorf("spool item %d is not a [recipients, text] pair", i+1)
		}
		var to []string
		var text string
		if err := json.Unmarshal(pair[0], &to); err != nil {
			return nil, ShapeText, fmt.Errorf("spool item %d recipients: %w", i+1, err)
		}
		if err := json.Unmarshal(pair[1], &text); err != nil {
			return nil, ShapeText, fmt.Errorf("spool item %d text: %w", i+1, err)
		}
		items = append(items, ParseText(to, text))
	}
	return items, ShapeText, nil
}

// =============================================================================
// FILES
// =============================================================================

// Lock takes the exclusive lock guarding path. The caller must Unlock.
func Lock(path string) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return lock, nil
}

// Release unlocks and removes the lock file.
func Release(lock *flock.Flock) error {
	if err := lock.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Write replaces the spool at path with items.
func Write(path string, items []Item, shape Shape) (err error) {
	lock, err := Lock(path)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := Release(lock); err == nil {
			err = rerr
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create spool: %w", err)
	}
	if err := Encode(f, items, shape); err != nil {
		f.Close()
		return fmt.Errorf("encode spool: %w", err)
	}
	return f.Close()
}

// Read loads the spool at path.
func Read(path string) ([]Item, Shape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ShapeText, fmt.Errorf("open spool: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
