package activities

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"

	"google.golang.org/grpc/codes"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/internal/ledger"
	"github.com/Youmanvi/venuereserve/internal/pkg/errors"
)

const maxRequestSize = 1 << 20

// Request is one newline-delimited request on the wire
type Request struct {
	ID       string          `json:"id,omitempty"`
	Activity string          `json:"activity"`
	TraceID  string          `json:"trace_id,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
}

// Response answers one Request
type Response struct {
	ID       string          `json:"id,omitempty"`
	Activity string          `json:"activity"`
	OK       bool            `json:"ok"`
	Output   json.RawMessage `json:"output,omitempty"`
	Error    *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody carries the error class so callers can branch without parsing
// messages.
type ErrorBody struct {
	Code          string               `json:"code"`
	GRPCCode      string               `json:"grpc_code"`
	Message       string               `json:"message"`
	Retryable     bool                 `json:"retryable"`
	Shortage      *errors.Shortage     `json:"shortage,omitempty"`
	ExistingEvent *domain.PaymentEvent `json:"existing_event,omitempty"`
}

// NewErrorBody classifies err for the wire
func NewErrorBody(err error) *ErrorBody {
	body := &ErrorBody{
		Code:     errors.CodeOf(err),
		GRPCCode: codes.Internal.String(),
		Message:  err.Error(),
	}
	if customErr, ok := errors.As(err); ok {
		body.GRPCCode = customErr.GRPCStatus().Code().String()
		body.Retryable = customErr.IsTransient()
		body.Shortage = customErr.Shortage
	}
	var reuse *ledger.KeyReuseError
	if stderrors.As(err, &reuse) {
		body.ExistingEvent = reuse.Existing
	}
	return body
}

// Handle runs one request and never fails; errors travel in the response
func (r *Registry) Handle(ctx context.Context, req Request) Response {
	if req.TraceID != "" {
		ctx = observability.ContextWithTraceID(ctx, req.TraceID)
	}

	resp := Response{ID: req.ID, Activity: req.Activity}
	output, err := r.Execute(ctx, req.Activity, req.Input)
	if err != nil {
		resp.Error = NewErrorBody(err)
		return resp
	}
	resp.OK = true
	resp.Output = output
	return resp
}

// Serve reads newline-delimited requests from in and writes one response
// line per request to out, until in is exhausted or ctx is done.
func (r *Registry) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = NewErrorBody(errors.NewPermanentError(errors.CodeValidation, "malformed request", err))
		} else {
			resp = r.Handle(ctx, req)
		}

		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
