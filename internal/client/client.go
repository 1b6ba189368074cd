// Package client talks to the files API on behalf of the CLI.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const TokenHeader = "X-Token"

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (c *Client) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set(TokenHeader, c.Token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, nil, &APIError{Status: resp.StatusCode, Message: errResp.Error}
		}
		return nil, nil, &APIError{Status: resp.StatusCode, Message: string(data)}
	}
	return resp, data, nil
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	_, data, err := c.do(req)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) sendJSON(method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := c.newRequest(method, path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doJSON(req, out)
}

// Connect exchanges credentials for a session token.
func (c *Client) Connect(email, password string) (string, error) {
	req, err := c.newRequest(http.MethodGet, "/connect", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(email, password)

	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Disconnect() error {
	return c.sendJSON(http.MethodGet, "/disconnect", nil, nil)
}

func (c *Client) Register(email, password string) (*User, error) {
	var user User
	body := map[string]string{"email": email, "password": password}
	if err := c.sendJSON(http.MethodPost, "/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Me() (*User, error) {
	var user User
	if err := c.sendJSON(http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListFiles(parentID string, page int) ([]File, error) {
	params := url.Values{}
	if parentID != "" {
		params.Set("parentId", parentID)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	path := "/files"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var files []File
	if err := c.sendJSON(http.MethodGet, path, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) CreateFile(in CreateFileRequest) (*File, error) {
	var file File
	if err := c.sendJSON(http.MethodPost, "/files", in, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) GetFile(id string) (*File, error) {
	var file File
	if err := c.sendJSON(http.MethodGet, "/files/"+url.PathEscape(id), nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) SetPublic(id string, isPublic bool) (*File, error) {
	action := "unpublish"
	if isPublic {
		action = "publish"
	}
	var file File
	if err := c.sendJSON(http.MethodPut, "/files/"+url.PathEscape(id)+"/"+action, nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Data downloads a record's content, or one of its thumbnails when size > 0.
func (c *Client) Data(id string, size int) (*Content, error) {
	path := "/files/" + url.PathEscape(id) + "/data"
	if size > 0 {
		path += "?size=" + strconv.Itoa(size)
	}
	req, err := c.newRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return &Content{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}
