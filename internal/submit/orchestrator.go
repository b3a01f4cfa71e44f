// Package submit drives the submission state machine: it holds the selected
// candidate file, guarantees a single in-flight request, dispatches the
// backend operation matching the caller's intent, and lands every attempt in
// a terminal succeeded or failed state.
package submit

import (
	"context"
	"fmt"
	"sync"

	"github.com/dharanvel/certvault/internal/certfile"
	"github.com/dharanvel/certvault/internal/model"
)

// State of one orchestrator instance.
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file-selected"
	StateSubmitting   State = "submitting"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Operations are the backend calls the orchestrator can dispatch to. Exactly
// one is invoked per Submit call; there are no implicit retries.
type Operations interface {
	UploadLegacy(ctx context.Context, f *certfile.File) (*model.UploadArtifact, error)
	UploadDigital(ctx context.Context, f *certfile.File) (*model.UploadArtifact, error)
	Verify(ctx context.Context, f *certfile.File) (*model.VerificationResult, error)
}

// Error kinds for SubmissionError.
const (
	ErrBusy       = "busy"
	ErrValidation = "validation"
	ErrRemote     = "remote"
)

// SubmissionError is the failure surface of Submit. Remote errors carry the
// upstream-provided detail when one exists, otherwise a per-operation
// fallback; raw transport errors never reach the user.
type SubmissionError struct {
	Kind       string
	Detail     string
	Validation *certfile.ValidationError
}

func (e *SubmissionError) Error() string {
	switch e.Kind {
	case ErrBusy:
		return "a submission is already in progress"
	case ErrValidation:
		if e.Validation != nil {
			return e.Validation.Error()
		}
		if e.Detail != "" {
			return e.Detail
		}
		return "invalid file"
	}
	return e.Detail
}

// statusDetailer is implemented by transport errors that carry a
// human-readable upstream detail.
type statusDetailer interface {
	StatusDetail() string
}

// Outcome of a successful submission: the raw artifact for uploads or the
// raw verdict for verification, ready for downstream normalization.
type Outcome struct {
	Intent   certfile.Intent
	Artifact *model.UploadArtifact
	Verdict  *model.VerificationResult
}

// Orchestrator owns one logical submission at a time. The submitting state is
// the mutual-exclusion mechanism: transitions happen under the mutex, so a
// concurrent Submit either observes submitting and rejects, or proceeds
// alone. There is no cancellation once a request is in flight beyond what the
// caller's context provides.
type Orchestrator struct {
	ops Operations

	mu      sync.Mutex
	state   State
	file    *certfile.File
	outcome *Outcome
}

// New returns an idle orchestrator dispatching to ops.
func New(ops Operations) *Orchestrator {
	return &Orchestrator{ops: ops, state: StateIdle}
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Outcome returns the held result of the last successful submission, if any.
func (o *Orchestrator) Outcome() *Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// Select associates a new candidate file, clearing any held result. It is
// permitted from every state except submitting: a selection mid-flight is
// rejected rather than cancelling the outstanding request.
func (o *Orchestrator) Select(f *certfile.File) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSubmitting {
		return &SubmissionError{Kind: ErrBusy}
	}
	o.file = f
	o.outcome = nil
	if f == nil {
		o.state = StateIdle
		return nil
	}
	o.state = StateFileSelected
	return nil
}

// Submit re-validates the held file for the intent, transitions to
// submitting atomically with respect to concurrent Submit calls, performs
// exactly one backend operation, and lands in succeeded or failed. A call
// while submitting fails fast with a busy error and no network traffic.
// Submitting again from succeeded or failed re-enters the cycle with the
// same file.
func (o *Orchestrator) Submit(ctx context.Context, intent certfile.Intent) (*Outcome, error) {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, &SubmissionError{Kind: ErrBusy}
	}
	if !knownIntent(intent) {
		o.state = StateFailed
		o.outcome = nil
		o.mu.Unlock()
		return nil, &SubmissionError{Kind: ErrValidation, Detail: fmt.Sprintf("unknown submission intent %q", intent)}
	}
	f := o.file
	if verr := certfile.Validate(f, intent); verr != nil {
		o.state = StateFailed
		o.outcome = nil
		o.mu.Unlock()
		return nil, &SubmissionError{Kind: ErrValidation, Validation: verr}
	}
	o.state = StateSubmitting
	o.outcome = nil
	o.mu.Unlock()

	outcome, err := o.dispatch(ctx, f, intent)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateFailed
		o.outcome = nil
		return nil, &SubmissionError{Kind: ErrRemote, Detail: remoteDetail(err, intent)}
	}
	o.state = StateSucceeded
	o.outcome = outcome
	return outcome, nil
}

func knownIntent(intent certfile.Intent) bool {
	switch intent {
	case certfile.IntentLegacyUpload, certfile.IntentDigitalUpload, certfile.IntentVerify:
		return true
	}
	return false
}

func (o *Orchestrator) dispatch(ctx context.Context, f *certfile.File, intent certfile.Intent) (*Outcome, error) {
	out := &Outcome{Intent: intent}
	var err error
	switch intent {
	case certfile.IntentLegacyUpload:
		out.Artifact, err = o.ops.UploadLegacy(ctx, f)
	case certfile.IntentDigitalUpload:
		out.Artifact, err = o.ops.UploadDigital(ctx, f)
	case certfile.IntentVerify:
		out.Verdict, err = o.ops.Verify(ctx, f)
	default:
		err = fmt.Errorf("unknown submission intent %q", intent)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func remoteDetail(err error, intent certfile.Intent) string {
	if d, ok := err.(statusDetailer); ok {
		if detail := d.StatusDetail(); detail != "" {
			return detail
		}
	}
	if intent == certfile.IntentVerify {
		return "Verification failed"
	}
	return "Upload failed"
}
