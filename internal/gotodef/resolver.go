package gotodef

import (
	"context"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/event/topic"
	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
)

// Outcome classifies how a response was handled.
type Outcome int

const (
	// OutcomeIgnored: the message was not a definition response from the
	// language server component.
	OutcomeIgnored Outcome = iota

	// OutcomeStale: no live request matches the response.
	OutcomeStale

	// OutcomeNoSurface: nothing is focused to navigate.
	OutcomeNoSurface

	// OutcomeParseError: the body or its location could not be read.
	OutcomeParseError

	// OutcomeNoResult: the server found no definition.
	OutcomeNoResult

	// OutcomeNavigationFailed: the target could not be opened or the target
	// line does not exist.
	OutcomeNavigationFailed

	// OutcomeNavigated: the cursor was moved to the definition.
	OutcomeNavigated
)

// String returns the outcome's name.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeStale:
		return "stale"
	case OutcomeNoSurface:
		return "no-surface"
	case OutcomeParseError:
		return "parse-error"
	case OutcomeNoResult:
		return "no-result"
	case OutcomeNavigationFailed:
		return "navigation-failed"
	case OutcomeNavigated:
		return "navigated"
	default:
		return "unknown"
	}
}

// Resolution reports what the Resolver did with one message.
type Resolution struct {
	// ID is the request the response was matched to, if any.
	ID      string
	Outcome Outcome

	// From and Origin are where the request was made.
	From   lsp.DocumentURI
	Origin EditorPosition

	// Path and Target are set once a location has been decoded.
	Path   string
	Target EditorPosition

	Err error
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Host       host.Host
	Pending    *PendingTable
	Translator *Translator
	Topic      topic.Topic
	LSPID      string
	Logger     *logging.Logger
}

// Resolver handles definition responses and moves the cursor.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Handle processes msg. Messages that are not definition responses from the
// language server component are left untouched; every other message is
// cancelled so later subscribers do not see it.
func (r *Resolver) Handle(ctx context.Context, msg *event.Message) Resolution {
	if msg == nil || msg.Source != r.cfg.LSPID || msg.Topic != r.cfg.Topic {
		return Resolution{Outcome: OutcomeIgnored}
	}
	msg.Cancel()

	res := r.resolve(msg)
	r.log(res)
	return res
}

func (r *Resolver) resolve(msg *event.Message) Resolution {
	var (
		p  Pending
		ok bool
	)
	if id := msg.Metadata.CorrelationID; id != "" {
		p, ok = r.cfg.Pending.Take(id)
		if !ok {
			return Resolution{ID: id, Outcome: OutcomeStale}
		}
	} else if p, ok = r.cfg.Pending.TakeNewest(); !ok {
		return Resolution{Outcome: OutcomeStale}
	}
	res := Resolution{ID: p.ID, From: p.URI, Origin: p.Origin}

	if s := r.cfg.Host.ActiveSurface(); s == nil {
		res.Outcome = OutcomeNoSurface
		return res
	}

	loc, found, err := lsp.ParseDefinitionResult(msg.Data)
	if err != nil {
		res.Outcome, res.Err = OutcomeParseError, err
		return res
	}
	if !found {
		res.Outcome = OutcomeNoResult
		if rpcErr := lsp.ResponseError(msg.Data); rpcErr != nil {
			res.Err = rpcErr
		}
		return res
	}

	path, err := lsp.URIToFilePath(loc.URI)
	if err != nil {
		res.Outcome, res.Err = OutcomeParseError, err
		return res
	}
	res.Path = path

	if err := r.cfg.Host.Execute("buffer", path); err != nil {
		res.Outcome, res.Err = OutcomeNavigationFailed, err
		return res
	}

	// The buffer command may have switched surfaces.
	s := r.cfg.Host.ActiveSurface()
	if s == nil || s.Buffer() == nil {
		res.Outcome = OutcomeNavigationFailed
		return res
	}
	content, ok := s.Buffer().Line(loc.Range.Start.Line + 1)
	if !ok {
		res.Outcome = OutcomeNavigationFailed
		return res
	}

	target := r.cfg.Translator.ToEditor(loc.Range.Start, content)
	line, col := s.Cursor()
	r.cfg.Host.MoveCursor(target.Line-line, target.Column-col)

	res.Target = target
	res.Outcome = OutcomeNavigated
	return res
}

func (r *Resolver) log(res Resolution) {
	l := r.cfg.Logger
	switch res.Outcome {
	case OutcomeNavigated:
		l.Info("definition", "id", res.ID, "from", res.From, "origin", res.Origin, "path", res.Path, "target", res.Target)
	case OutcomeNavigationFailed:
		l.Warn("definition navigation failed", "id", res.ID, "path", res.Path, "error", res.Err)
	default:
		l.Debug("definition response", "id", res.ID, "outcome", res.Outcome, "error", res.Err)
	}
}
