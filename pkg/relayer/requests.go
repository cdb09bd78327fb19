package relayer

import (
	"github.com/google/uuid"

	"github.com/chappie1998/fuel-core/pkg/types"
)

// Request is the control-channel sum type: everything the rest of the
// node can ask the relayer task to do. Every variant carries its own
// one-shot reply channel.
type Request interface {
	requestID() uuid.UUID
	isRequest()
}

// GetValidatorSetResult is the reply to GetValidatorSetRequest. Err is
// ErrValidatorSetEthClientSyncing, or ErrProviderError when the
// requested height no longer matches the projection's applied height.
type GetValidatorSetResult struct {
	Set map[types.Address]uint64
	Err error
}

// StopRequest asks the relayer to transition to Stopped and return.
type StopRequest struct {
	ID    uuid.UUID
	Reply chan<- struct{}
}

func (r StopRequest) requestID() uuid.UUID { return r.ID }
func (r StopRequest) isRequest()           {}

// GetValidatorSetRequest asks for the projection as of a specific DA
// height. Per §4.5, only an exact match against applied_da_height
// succeeds.
type GetValidatorSetRequest struct {
	ID       uuid.UUID
	DaHeight uint64
	Reply    chan<- GetValidatorSetResult
}

func (r GetValidatorSetRequest) requestID() uuid.UUID { return r.ID }
func (r GetValidatorSetRequest) isRequest()           {}

// GetStatusRequest asks for the relayer's current lifecycle phase.
type GetStatusRequest struct {
	ID    uuid.UUID
	Reply chan<- Status
}

func (r GetStatusRequest) requestID() uuid.UUID { return r.ID }
func (r GetStatusRequest) isRequest()           {}

// NewStopRequest builds a Stop request and the channel its caller
// should receive on. The reply channel is buffered so a relayer reply
// never blocks on a caller who stopped waiting.
func NewStopRequest() (StopRequest, <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return StopRequest{ID: uuid.New(), Reply: ch}, ch
}

// NewGetValidatorSetRequest builds a GetValidatorSet request.
func NewGetValidatorSetRequest(daHeight uint64) (GetValidatorSetRequest, <-chan GetValidatorSetResult) {
	ch := make(chan GetValidatorSetResult, 1)
	return GetValidatorSetRequest{ID: uuid.New(), DaHeight: daHeight, Reply: ch}, ch
}

// NewGetStatusRequest builds a GetStatus request.
func NewGetStatusRequest() (GetStatusRequest, <-chan Status) {
	ch := make(chan Status, 1)
	return GetStatusRequest{ID: uuid.New(), Reply: ch}, ch
}

// replyStop delivers a Stop acknowledgement without blocking if the
// caller already gave up waiting — "silently discarded" per §6.
func replyStop(r StopRequest) {
	select {
	case r.Reply <- struct{}{}:
	default:
	}
}

func replyValidatorSet(r GetValidatorSetRequest, result GetValidatorSetResult) {
	select {
	case r.Reply <- result:
	default:
	}
}

func replyStatus(r GetStatusRequest, status Status) {
	select {
	case r.Reply <- status:
	default:
	}
}
