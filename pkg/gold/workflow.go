package gold

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Workflow applies a Mode to gold records in a Store. A Workflow is one
// generation session; its id tags every log record.
type Workflow struct {
	store  *Store
	codec  *Codec
	logger *slog.Logger
	id     string
}

// NewWorkflow creates a Workflow. A nil codec selects the default codec and a
// nil logger discards output.
func NewWorkflow(store *Store, codec *Codec, logger *slog.Logger) *Workflow {
	if codec == nil {
		codec = defaultCodec
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	id := uuid.NewString()
	return &Workflow{
		store:  store,
		codec:  codec,
		logger: logger.With("session", id),
		id:     id,
	}
}

// ID returns the session id.
func (w *Workflow) ID() string {
	return w.id
}

// Store returns the underlying store.
func (w *Workflow) Store() *Store {
	return w.store
}

// Codec returns the codec used for encoding and diffing.
func (w *Workflow) Codec() *Codec {
	return w.codec
}

// Assert applies mode to the record for key. In ModeVerify a difference is
// returned as a *MismatchError; every other error is fatal.
func (w *Workflow) Assert(mode Mode, key Key, actual any) error {
	switch mode {
	case ModeCapture:
		return w.capture(key, actual)
	case ModeReconcile:
		return w.reconcile(key, actual)
	case ModeVerify:
		return w.verify(key, actual)
	default:
		return fmt.Errorf("gold: unsupported mode %s", mode)
	}
}

// Load reads and decodes the record for key.
func (w *Workflow) Load(key Key) (any, error) {
	text, err := w.store.Read(key)
	if err != nil {
		return nil, err
	}
	v, err := w.codec.Decode(text)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = w.store.Location(key)
		}
		return nil, err
	}
	return v, nil
}

func (w *Workflow) capture(key Key, actual any) error {
	text, err := w.codec.Encode(actual)
	if err != nil {
		return fmt.Errorf("gold: encode %s: %w", key, err)
	}
	replaced := w.store.Exists(key)
	if err := w.store.Write(key, text); err != nil {
		return err
	}
	w.logger.Debug("captured gold", "key", key.Path(), "replaced", replaced)
	return nil
}

func (w *Workflow) reconcile(key Key, actual any) error {
	previous, err := w.Load(key)
	if err != nil {
		return err
	}

	merged, report, err := w.codec.Reconcile(previous, actual)
	if err != nil {
		return fmt.Errorf("gold: reconcile %s: %w", key, err)
	}
	if report == nil {
		w.logger.Debug("gold stable across captures", "key", key.Path())
		return nil
	}

	text, err := w.codec.Encode(merged)
	if err != nil {
		return fmt.Errorf("gold: encode %s: %w", key, err)
	}
	if err := w.store.Write(key, text); err != nil {
		return err
	}
	w.logger.Info("wildcarded volatile fields", "key", key.Path(), "changed_lines", countChanges(report))
	return nil
}

func (w *Workflow) verify(key Key, actual any) error {
	gold, err := w.Load(key)
	if err != nil {
		return err
	}
	report, err := w.codec.Diff(gold, actual)
	if err != nil {
		return fmt.Errorf("gold: diff %s: %w", key, err)
	}
	if report != nil {
		w.logger.Debug("gold mismatch", "key", key.Path())
		return &MismatchError{Path: w.store.Location(key), Report: report}
	}
	return nil
}

// Reconcile merges a second capture of the same test into the first. It
// returns the tree to persist and the difference between the captures; a nil
// report means they agree and previous is returned as is.
func (c *Codec) Reconcile(previous, actual any) (any, *Report, error) {
	report, err := c.Diff(previous, actual)
	if err != nil || report == nil {
		return previous, report, err
	}
	fresh, err := Normalize(actual)
	if err != nil {
		return nil, nil, err
	}
	return InsertWildcards(previous, fresh), report, nil
}

func countChanges(r *Report) int {
	n := 0
	for _, line := range r.Lines {
		if line.Kind != LineContext {
			n++
		}
	}
	return n
}
