package routine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pictor/internal/bags"
	"pictor/internal/logging"
)

// Descriptor declares a stage's place in the pipeline: the status it
// consumes, the claim marker it holds while working, the status it
// produces, and its human-readable outcome messages.
type Descriptor struct {
	Name       string
	Start      bags.Status
	InProgress bags.Status
	Done       bags.Status
	Success    string
	Idle       string
}

// Transform is the stage-specific work run against a claimed bag.
// Implementations mutate the bag in memory; the runner persists it.
type Transform interface {
	Execute(ctx context.Context, bag *bags.Bag) error
}

// TransformFunc adapts a plain function to the Transform interface.
type TransformFunc func(ctx context.Context, bag *bags.Bag) error

func (f TransformFunc) Execute(ctx context.Context, bag *bags.Bag) error { return f(ctx, bag) }

// Outcome reports the result of a stage invocation. Busy and Idle are
// normal no-op results, not errors.
type Outcome struct {
	Message   string
	Processed []string
	Busy      bool
	Idle      bool
}

// Runner executes stage transforms against the bag store, applying the
// claim/advance/rollback transition discipline.
type Runner struct {
	store  *bags.Store
	logger *slog.Logger
}

// NewRunner constructs a Runner. A nil logger disables logging.
func NewRunner(store *bags.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{store: store, logger: logger}
}

// Run claims at most one bag holding desc.Start and applies the
// transform. While any bag holds desc.InProgress the call reports a busy
// outcome without claiming; with no eligible bag it reports idle. On
// transform failure the claimed bag's status is reverted to desc.Start
// and the error propagates to the caller.
func (r *Runner) Run(ctx context.Context, desc Descriptor, transform Transform) (Outcome, error) {
	if transform == nil {
		return Outcome{}, fmt.Errorf("%s: transform is required", desc.Name)
	}

	busy, err := r.store.AnyWithStatus(ctx, desc.InProgress)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: check in-progress: %w", desc.Name, err)
	}
	if busy {
		r.logger.Warn("stage already running",
			logging.String(logging.FieldStage, desc.Name),
			logging.String("in_progress_status", string(desc.InProgress)))
		return Outcome{Busy: true, Message: fmt.Sprintf("%s is already running", desc.Name)}, nil
	}

	bag, err := r.store.NextForStatus(ctx, desc.Start)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: select bag: %w", desc.Name, err)
	}
	if bag == nil {
		return Outcome{Idle: true, Message: desc.Idle}, nil
	}

	logger := r.logger.With(
		logging.String(logging.FieldStage, desc.Name),
		logging.String(logging.FieldBag, bag.Identifier),
		logging.String(logging.FieldRequestID, uuid.NewString()),
	)

	bag.Status = desc.InProgress
	bag.ErrorMessage = ""
	if err := r.store.Update(ctx, bag); err != nil {
		return Outcome{}, fmt.Errorf("%s: claim bag: %w", desc.Name, err)
	}
	logger.Info("stage started", logging.String("in_progress_status", string(desc.InProgress)))

	if execErr := transform.Execute(ctx, bag); execErr != nil {
		r.rollback(ctx, logger, desc, bag, execErr)
		return Outcome{Processed: []string{bag.Identifier}}, execErr
	}

	bag.Status = desc.Done
	if err := r.store.Update(ctx, bag); err != nil {
		return Outcome{}, fmt.Errorf("%s: persist stage result: %w", desc.Name, err)
	}
	logger.Info("stage completed", logging.String("next_status", string(desc.Done)))

	return Outcome{Message: desc.Success, Processed: []string{bag.Identifier}}, nil
}

// rollback reloads the persisted record so in-memory mutations from the
// failed transform are discarded, then restores the pre-claim status.
func (r *Runner) rollback(ctx context.Context, logger *slog.Logger, desc Descriptor, bag *bags.Bag, cause error) {
	fresh, err := r.store.GetByID(ctx, bag.ID)
	if err != nil || fresh == nil {
		fresh = bag
	}
	fresh.Status = desc.Start
	fresh.ErrorMessage = cause.Error()
	if err := r.store.Update(ctx, fresh); err != nil {
		logger.Error("failed to persist status rollback", logging.Error(err))
	}
	logger.Error("stage failed",
		logging.String("reverted_status", string(desc.Start)),
		logging.Error(cause))
}
