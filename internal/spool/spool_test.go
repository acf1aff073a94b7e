package spool

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItem() Item {
	return Item{
		From:    "secretary@example.org",
		ReplyTo: "secretary@example.org",
		To:      []string{"jane@x"},
		Subject: "Club dues",
		Body:    "Dear Jane,\n\nPlease pay.\n",
	}
}

func TestItemText(t *testing.T) {
	it := sampleItem()
	assert.Equal(t,
		"From: secretary@example.org\nTo: jane@x\nSubject: Club dues\n\nDear Jane,\n\nPlease pay.\n",
		it.Text())

	back := ParseText(it.To, it.Text())
	assert.Equal(t, it.From, back.From)
	assert.Equal(t, it.Subject, back.Subject)
	assert.Equal(t, it.Body, back.Body)
}

func TestEncode_TextShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []Item{sampleItem()}, ShapeText))

	var doc [][]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc, 1)
	require.Len(t, doc[0], 2)
	assert.Equal(t, []any{"jane@x"}, doc[0][0])
	assert.True(t, strings.HasPrefix(doc[0][1].(string), "From: "))

	items, shape, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, ShapeText, shape)
	require.Len(t, items, 1)
	assert.Equal(t, "Club dues", items[0].Subject)
	assert.Equal(t, []string{"jane@x"}, items[0].To)
}

func TestEncode_StructuredShape(t *testing.T) {
	it := sampleItem()
	it.Attachments = []string{"/tmp/list.pdf"}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []Item{it, sampleItem()}, ShapeStructured))
	assert.Contains(t, buf.String(), `"reply_to"`)
	assert.Contains(t, buf.String(), `"attachments": []`)

	items, shape, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, ShapeStructured, shape)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"/tmp/list.pdf"}, items[0].Attachments)
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := Decode(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)

	_, _, err = Decode(strings.NewReader(`[["only one"]]`))
	assert.Error(t, err)

	items, _, err := Decode(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emails.json")
	require.NoError(t, Write(path, []Item{sampleItem()}, ShapeText))

	_, err := os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err))

	items, shape, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ShapeText, shape)
	assert.Len(t, items, 1)
}

func TestLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emails.json")
	lock, err := Lock(path)
	require.NoError(t, err)

	err = Write(path, nil, ShapeText)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, Release(lock))
	assert.NoError(t, Write(path, nil, ShapeText))
}
