package gotodef

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/event/topic"
	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
)

// Publisher delivers messages to subscribers. *event.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *event.Message) (event.PublishResult, error)
}

// EmitterConfig configures an Emitter.
type EmitterConfig struct {
	Publisher  Publisher
	Pending    *PendingTable
	Translator *Translator
	Topic      topic.Topic
	Source     string
	NewID      IDGenerator
	Now        Clock
	Logger     *logging.Logger
}

// Emitter publishes definition requests for the active surface.
type Emitter struct {
	cfg EmitterConfig
}

// NewEmitter creates an emitter.
func NewEmitter(cfg EmitterConfig) *Emitter {
	return &Emitter{cfg: cfg}
}

// Request publishes a definition request for the cursor of s and returns
// its id.
//
// Surfaces a language server cannot address are skipped: no buffer, a
// special or non-file buffer, an empty document reference, or a cursor on a
// line that does not exist. Those return "" and a nil error.
func (e *Emitter) Request(ctx context.Context, s host.Surface) (string, error) {
	if s == nil {
		return "", nil
	}
	buf := s.Buffer()
	if buf == nil || buf.Kind() != host.KindFile || buf.Special() {
		return "", nil
	}

	uri := DocumentURIFor(buf)
	if uri == "" {
		return "", nil
	}

	pos := e.cfg.Translator.PositionInSurface(s)
	if !pos.IsValid() {
		e.cfg.Logger.Debug("no position under cursor", "uri", uri)
		return "", nil
	}

	body, err := lsp.EncodeDefinitionParams(uri, pos)
	if err != nil {
		return "", errors.Wrap(err, "encode definition params")
	}

	id := e.cfg.NewID()
	line, col := s.Cursor()
	e.cfg.Pending.Add(Pending{
		ID:       id,
		URI:      uri,
		Origin:   EditorPosition{Line: line, Column: col},
		FileType: buf.FileType(),
		Issued:   e.cfg.Now(),
	})

	msg := event.NewMessage(e.cfg.Topic, e.cfg.Source, body).
		WithCorrelation(id).
		WithFileType(buf.FileType())

	res, err := e.cfg.Publisher.Publish(ctx, msg)
	if err != nil {
		e.cfg.Pending.Remove(id)
		return "", errors.Wrapf(err, "publish %s", e.cfg.Topic)
	}

	e.cfg.Logger.Debug("definition requested",
		"id", id,
		"uri", uri,
		"position", pos,
		"delivered", res.Delivered,
	)
	return id, nil
}
