package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultAPIURL = "https://api.clerk.com/v1"

var ErrNotConfigured = errors.New("clerk: backend api not configured")

// User is the subset of the Clerk user object shown in the profile.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Client talks to the Clerk Backend API.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewClient(baseURL, secret string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Enabled() bool { return c != nil && c.secret != "" }

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+id, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:        gjson.GetBytes(body, "id").String(),
		FirstName: gjson.GetBytes(body, "first_name").String(),
		LastName:  gjson.GetBytes(body, "last_name").String(),
		ImageURL:  gjson.GetBytes(body, "image_url").String(),
	}
	primary := gjson.GetBytes(body, "primary_email_address_id").String()
	gjson.GetBytes(body, "email_addresses").ForEach(func(_, e gjson.Result) bool {
		if u.Email == "" || e.Get("id").String() == primary {
			u.Email = e.Get("email_address").String()
		}
		return true
	})
	return u, nil
}

// UpdatePublicMetadata merges md into the user's public metadata.
func (c *Client) UpdatePublicMetadata(ctx context.Context, id string, md map[string]any) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	b, err := json.Marshal(map[string]any{"public_metadata": md})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/users/"+id+"/metadata", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.send(req)
	return err
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.secret)
	return do(c.http, req)
}

func do(hc *http.Client, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "errors.0.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("clerk: %s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, msg)
	}
	return body, nil
}
