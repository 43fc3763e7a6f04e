package gotodef

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/lsp"
)

func newTestEmitter(pub Publisher, clock *fakeClock) (*Emitter, *PendingTable) {
	pending := NewPendingTable(DefaultTimeout, clock.Now)
	return NewEmitter(EmitterConfig{
		Publisher:  pub,
		Pending:    pending,
		Translator: NewTranslator(nil),
		Topic:      DefaultRequestTopic,
		Source:     DefaultID,
		NewID:      seqIDs(),
		Now:        clock.Now,
	}), pending
}

func TestEmitterRequest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	pub := &recordingPublisher{}
	clock := newFakeClock()
	e, pending := newTestEmitter(pub, clock)

	s := &fakeSurface{buf: goFile("/src/main.go", "package main", "", "\tfmt.Println()"), line: 3, col: 8}
	id, err := e.Request(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "req-1", id)

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, DefaultRequestTopic, msg.Topic)
	assert.Equal(t, DefaultID, msg.Source)
	assert.Equal(t, "go", msg.FileType)
	assert.Equal(t, "req-1", msg.Metadata.CorrelationID)
	assert.JSONEq(t, `{"textDocument":{"uri":"file:///src/main.go"},"position":{"line":2,"character":5}}`, msg.Data)

	p, ok := pending.Take(id)
	require.True(t, ok)
	assert.Equal(t, lsp.DocumentURI("file:///src/main.go"), p.URI)
	assert.Equal(t, EditorPosition{Line: 3, Column: 8}, p.Origin)
	assert.Equal(t, "go", p.FileType)
	assert.Equal(t, clock.Now(), p.Issued)
}

func TestEmitterUntitled(t *testing.T) {
	pub := &recordingPublisher{}
	e, _ := newTestEmitter(pub, newFakeClock())

	buf := &fakeBuffer{name: "new", kind: host.KindFile, ft: "go", lines: []string{"x"}}
	_, err := e.Request(context.Background(), &fakeSurface{buf: buf, line: 1})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	params, err := lsp.DecodeDefinitionParams(pub.msgs[0].Data)
	require.NoError(t, err)
	assert.Equal(t, lsp.DocumentURI("untitled:new"), params.TextDocument.URI)
}

func TestEmitterSkips(t *testing.T) {
	tests := []struct {
		name    string
		surface *fakeSurface
	}{
		{"no buffer", &fakeSurface{line: 1}},
		{"special buffer", &fakeSurface{buf: &fakeBuffer{name: "*msgs", path: "/x", kind: host.KindFile, special: true, lines: []string{"a"}}, line: 1}},
		{"scratch buffer", &fakeSurface{buf: &fakeBuffer{name: "list", path: "/x", kind: host.KindScratch, lines: []string{"a"}}, line: 1}},
		{"untitled without name", &fakeSurface{buf: &fakeBuffer{kind: host.KindFile, lines: []string{"a"}}, line: 1}},
		{"cursor past end", &fakeSurface{buf: goFile("/a.go", "a"), line: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			e, pending := newTestEmitter(pub, newFakeClock())

			for i := 0; i < 2; i++ {
				id, err := e.Request(context.Background(), tt.surface)
				assert.NoError(t, err)
				assert.Empty(t, id)
			}
			assert.Empty(t, pub.msgs)
			assert.Zero(t, pending.Len())
		})
	}

	t.Run("nil surface", func(t *testing.T) {
		pub := &recordingPublisher{}
		e, _ := newTestEmitter(pub, newFakeClock())
		id, err := e.Request(context.Background(), nil)
		assert.NoError(t, err)
		assert.Empty(t, id)
		assert.Empty(t, pub.msgs)
	})
}

func TestEmitterPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: event.ErrBusClosed}
	e, pending := newTestEmitter(pub, newFakeClock())

	id, err := e.Request(context.Background(), &fakeSurface{buf: goFile("/a.go", "a"), line: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, event.ErrBusClosed))
	assert.Empty(t, id)
	assert.Zero(t, pending.Len(), "failed request is not left pending")
}

func TestEmitterRepeatedRequests(t *testing.T) {
	pub := &recordingPublisher{}
	clock := newFakeClock()
	e, pending := newTestEmitter(pub, clock)
	s := &fakeSurface{buf: goFile("/a.go", "abc"), line: 1, col: 1}

	first, err := e.Request(context.Background(), s)
	require.NoError(t, err)
	clock.Advance(time.Millisecond)
	second, err := e.Request(context.Background(), s)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, pub.msgs, 2)
	assert.Equal(t, []string{first, second}, pending.IDs())
	assert.Equal(t, 1, s.line, "requests never move the cursor")
	assert.Equal(t, 1, s.col)
}
