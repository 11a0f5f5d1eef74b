package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrozner/roomboard/web/messaging"
	"github.com/jrozner/roomboard/web/model"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrInternalError = errors.New("internal error")
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnknown       = errors.New("unknown error")
)

// APIError carries the server's explanation alongside one of the sentinel
// errors above.
type APIError struct {
	Status  int
	Message string
	Field   string
	err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %s", e.err, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

type Client struct {
	client http.Client
	host   string
	token  string
}

func NewClient(host, token string) *Client {
	return &Client{
		client: http.Client{Timeout: 30 * time.Second},
		host:   host,
		token:  token,
	}
}

func (c *Client) SetHost(host string) {
	c.host = host
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

// Message is a message as returned by the API.
type Message struct {
	model.Message
	Sender         *model.Profile `json:"sender,omitempty"`
	SenderUsername string         `json:"sender_username,omitempty"`
}

type SendRequest struct {
	ReceiverID  uint64 `json:"receiver_id"`
	Subject     string `json:"subject,omitempty"`
	Message     string `json:"message"`
	RelatedType string `json:"related_type,omitempty"`
	RelatedID   uint64 `json:"related_id,omitempty"`
}

type tokenResponse struct {
	Token string         `json:"token"`
	User  *model.Profile `json:"user"`
}

type statusResponse struct {
	Message       string `json:"message"`
	ID            uint64 `json:"id"`
	AffectedCount int64  `json:"affectedCount"`
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// Register creates an account and keeps the returned token for later calls.
func (c *Client) Register(ctx context.Context, username, email, password string) (*model.Profile, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}

	var response tokenResponse
	err := c.do(ctx, http.MethodPost, "/register", body, http.StatusCreated, &response)
	if err != nil {
		return nil, err
	}

	c.token = response.Token
	return response.User, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Profile, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var response tokenResponse
	err := c.do(ctx, http.MethodPost, "/login", body, http.StatusOK, &response)
	if err != nil {
		return nil, err
	}

	c.token = response.Token
	return response.User, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var response struct {
		User model.User `json:"user"`
	}

	err := c.do(ctx, http.MethodGet, "/me", nil, http.StatusOK, &response)
	if err != nil {
		return nil, err
	}

	return &response.User, nil
}

func (c *Client) SendMessage(ctx context.Context, request SendRequest) (uint64, error) {
	var response statusResponse
	err := c.do(ctx, http.MethodPost, "/messages", request, http.StatusCreated, &response)
	if err != nil {
		return 0, err
	}

	return response.ID, nil
}

func (c *Client) ContactOwner(ctx context.Context, kind string, listingID uint64, message string) (uint64, error) {
	endpoint := fmt.Sprintf("/messages/contact/%s/%d", url.PathEscape(kind), listingID)

	var response statusResponse
	err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"message": message}, http.StatusCreated, &response)
	if err != nil {
		return 0, err
	}

	return response.ID, nil
}

func (c *Client) Conversations(ctx context.Context) ([]messaging.Conversation, error) {
	var response struct {
		Conversations []messaging.Conversation `json:"conversations"`
	}

	err := c.do(ctx, http.MethodGet, "/messages", nil, http.StatusOK, &response)
	if err != nil {
		return nil, err
	}

	return response.Conversations, nil
}

func (c *Client) ConversationMessages(ctx context.Context, otherID uint64, relatedType, relatedID string) ([]Message, error) {
	endpoint := fmt.Sprintf("/messages/conversation/%d%s", otherID, relatedQuery(relatedType, relatedID))

	var response struct {
		Messages []Message `json:"messages"`
	}

	err := c.do(ctx, http.MethodGet, endpoint, nil, http.StatusOK, &response)
	if err != nil {
		return nil, err
	}

	return response.Messages, nil
}

func (c *Client) MarkConversationRead(ctx context.Context, otherID uint64, relatedType, relatedID string) (int64, error) {
	endpoint := fmt.Sprintf("/messages/conversation/%d/read%s", otherID, relatedQuery(relatedType, relatedID))

	var response statusResponse
	err := c.do(ctx, http.MethodPut, endpoint, nil, http.StatusOK, &response)
	if err != nil {
		return 0, err
	}

	return response.AffectedCount, nil
}

func (c *Client) GetMessage(ctx context.Context, id uint64) (*Message, error) {
	message := &Message{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/messages/%d", id), nil, http.StatusOK, message)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (c *Client) MarkMessageRead(ctx context.Context, id uint64) (int64, error) {
	var response statusResponse
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/messages/%d/read", id), nil, http.StatusOK, &response)
	if err != nil {
		return 0, err
	}

	return response.AffectedCount, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var response struct {
		UnreadCount int64 `json:"unreadCount"`
	}

	err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, http.StatusOK, &response)
	if err != nil {
		return 0, err
	}

	return response.UnreadCount, nil
}

func relatedQuery(relatedType, relatedID string) string {
	values := url.Values{}
	if relatedType != "" {
		values.Set("related_type", relatedType)
	}
	if relatedID != "" {
		values.Set("related_id", relatedID)
	}

	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, expected int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.host+endpoint, reader)
	if err != nil {
		return err
	}

	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	err = checkStatus(response, expected)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(response.Body).Decode(out)
}

func checkStatus(response *http.Response, expected int) error {
	if response.StatusCode == expected {
		return nil
	}

	apiErr := &APIError{Status: response.StatusCode}

	var body errorResponse
	if json.NewDecoder(response.Body).Decode(&body) == nil {
		apiErr.Message = body.Message
		apiErr.Field = body.Field
	}

	switch response.StatusCode {
	case http.StatusBadRequest:
		apiErr.err = ErrBadRequest
	case http.StatusUnauthorized:
		apiErr.err = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.err = ErrNotFound
	case http.StatusConflict:
		apiErr.err = ErrConflict
	case http.StatusTooManyRequests:
		apiErr.err = ErrRateLimited
	case http.StatusInternalServerError:
		apiErr.err = ErrInternalError
	default:
		apiErr.err = fmt.Errorf("%w: status %s", ErrUnknown, strconv.Itoa(response.StatusCode))
	}

	return apiErr
}
