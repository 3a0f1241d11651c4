// Package apiclient talks to the contacts API over HTTP.
//
// Errors wrap contact.ErrTransportFailure when the request never got an
// answer and contact.ErrPersistenceFailure when the server answered with a
// non-2xx status, so callers can branch with errors.Is. A 404 also matches
// contact.ErrNotFound.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("server returned %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{contact.ErrNotFound, contact.ErrPersistenceFailure}
	}
	return []error{contact.ErrPersistenceFailure}
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A zero timeout means none.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateBatch posts every input in one request and returns the server's
// acknowledgement message.
func (c *Client) CreateBatch(ctx context.Context, inputs []types.ContactInput) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	body := struct {
		Contacts []types.ContactInput `json:"contacts"`
	}{Contacts: inputs}

	if err := c.do(ctx, http.MethodPost, "/api/contacts", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) List(ctx context.Context) ([]types.Contact, error) {
	var out types.ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/contact/all", nil, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

func (c *Client) Add(ctx context.Context, in types.ContactInput) (types.Contact, error) {
	var out types.ContactResponse
	if err := c.do(ctx, http.MethodPost, "/api/contact/add", in, &out); err != nil {
		return types.Contact{}, err
	}
	return out.Contact, nil
}

func (c *Client) Update(ctx context.Context, id int64, in types.ContactInput) (types.Contact, error) {
	var out types.ContactResponse
	if err := c.do(ctx, http.MethodPut, "/api/contact/"+strconv.FormatInt(id, 10), in, &out); err != nil {
		return types.Contact{}, err
	}
	return out.Contact, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/contact/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", contact.ErrTransportFailure, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", contact.ErrTransportFailure, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", contact.ErrTransportFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var envelope struct {
			Message string `json:"message"`
			Error   string `json:"error"`
			Details []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"details"`
		}
		if json.Unmarshal(raw, &envelope) == nil {
			se.Message = envelope.Message
			se.Detail = envelope.Error
			if se.Detail == "" && len(envelope.Details) > 0 {
				parts := make([]string, len(envelope.Details))
				for i, d := range envelope.Details {
					parts[i] = d.Message
				}
				se.Detail = strings.Join(parts, "; ")
			}
		}
		return se
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
