// Package github executes GraphQL documents against the GitHub Projects API
// and decodes the typed responses the project storage consumes.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Client executes documents over a Transport.
type Client struct {
	transport Transport
	log       *zap.SugaredLogger
}

// NewClient returns a Client sending requests through t. A nil logger
// disables logging.
func NewClient(t Transport, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{transport: t, log: log}
}

type request struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
	Variables     any    `json:"variables"`
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

var errNoData = errors.New("response carries no data")

// Execute sends doc with variables and decodes the "data" member of the
// response into out, which must be a pointer. It returns the partial error
// list that accompanied the data; the list may be empty.
//
// When the data cannot be decoded the result is a *DecodeError carrying any
// remote error messages found in the body. Transport failures are returned
// as *TransportError.
func (c *Client) Execute(ctx context.Context, doc Document, variables any, out any) (Errors, error) {
	body, err := json.Marshal(request{
		Query:         doc.Source,
		OperationName: doc.Operation,
		Variables:     variables,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", doc.Operation, err)
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, body)
	if err != nil {
		c.log.Debugw("remote call failed",
			"operation", doc.Operation,
			"duration", time.Since(start),
			"error", err)
		return nil, err
	}
	c.log.Debugw("remote call",
		"operation", doc.Operation,
		"duration", time.Since(start),
		"request_bytes", len(body),
		"response_bytes", len(resp))

	var errResp errorResponse
	shapeErr := json.Unmarshal(resp, &errResp)

	if err := decodeData(resp, out); err != nil {
		derr := &DecodeError{Operation: doc.Operation, Err: err}
		if shapeErr != nil {
			derr.ShapeErr = shapeErr
		} else {
			derr.Remote = errResp.Errors
		}
		return nil, derr
	}

	if len(errResp.Errors) > 0 {
		c.log.Debugw("remote partial errors",
			"operation", doc.Operation,
			"errors", errResp.Errors.Messages())
	}
	return errResp.Errors, nil
}

// Mutate is Execute for operations whose errors are never partial: any
// remote error is returned as a *RemoteError.
func (c *Client) Mutate(ctx context.Context, doc Document, variables any, out any) error {
	errs, err := c.Execute(ctx, doc, variables, out)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return &RemoteError{Operation: doc.Operation, Errors: errs}
	}
	return nil
}

func decodeData(resp []byte, out any) error {
	var dr dataResponse
	if err := json.Unmarshal(resp, &dr); err != nil {
		return err
	}
	if len(dr.Data) == 0 || bytes.Equal(dr.Data, []byte("null")) {
		return errNoData
	}
	return json.Unmarshal(dr.Data, out)
}
