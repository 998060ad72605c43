package github

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os/exec"
	"strings"
)

// Transport delivers an encoded GraphQL request and returns the raw response
// body.
type Transport interface {
	Do(ctx context.Context, body []byte) ([]byte, error)
}

// maxDetail bounds the response text kept on a TransportError.
const maxDetail = 512

// HTTPTransport posts requests to a GraphQL endpoint with a bearer token.
type HTTPTransport struct {
	Endpoint  string
	Token     string
	UserAgent string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Authorization", "bearer "+t.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Detail: trimDetail(data)}
	}
	return data, nil
}

// GHTransport runs `gh api graphql --input -`, reusing the gh CLI's stored
// credentials and host configuration.
type GHTransport struct {
	// Path is the gh executable, default "gh".
	Path string
}

// Do implements Transport.
//
// gh exits non-zero whenever the response carries GraphQL errors, including
// partial errors next to usable data. A non-zero exit that still produced a
// response body returns the body so the client can decode it; only a run
// with no output is a TransportError.
func (t *GHTransport) Do(ctx context.Context, body []byte) ([]byte, error) {
	path := t.Path
	if path == "" {
		path = "gh"
	}
	cmd := exec.CommandContext(ctx, path, "api", "graphql", "--input", "-")
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stdout.Len() > 0 {
			return stdout.Bytes(), nil
		}
		return nil, &TransportError{ExitCode: exitErr.ExitCode(), Detail: trimDetail(stderr.Bytes())}
	}
	return nil, &TransportError{Err: err, Detail: trimDetail(stderr.Bytes())}
}

func trimDetail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxDetail {
		s = s[:maxDetail] + "..."
	}
	return s
}
