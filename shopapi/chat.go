package shopapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atelierline/storesync/storetypes"
)

// MaxImageBytes caps chat image uploads. Checked client side before any bytes
// leave the process.
const MaxImageBytes = 5 * 1024 * 1024

// ErrAttachmentTooLarge is returned for image payloads over MaxImageBytes.
var ErrAttachmentTooLarge = errors.New("shopapi: attachment exceeds 5 MB limit")

// ChatAPI is the conversation surface consumed by the chat session. The
// server assigns message ids; ids are unique per conversation and increase
// in send order.
type ChatAPI interface {
	ListConversations(ctx context.Context) ([]storetypes.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*storetypes.Conversation, error)
	CreateConversation(ctx context.Context) (*storetypes.Conversation, error)
	// MessagesAfter returns the messages of the conversation with id greater
	// than afterID, ascending.
	MessagesAfter(ctx context.Context, conversationID string, afterID int64) ([]storetypes.Message, error)
	SendMessage(ctx context.Context, conversationID, content string) (*storetypes.Message, error)
	SendImage(ctx context.Context, conversationID, filename string, image io.Reader, size int64) (*storetypes.Message, error)
	MarkRead(ctx context.Context, conversationID string) error
}

var _ ChatAPI = (*Client)(nil)

func (c *Client) ListConversations(ctx context.Context) ([]storetypes.Conversation, error) {
	var conversations []storetypes.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (*storetypes.Conversation, error) {
	var conversation storetypes.Conversation
	path := "/api/conversations/" + url.PathEscape(conversationID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (c *Client) CreateConversation(ctx context.Context) (*storetypes.Conversation, error) {
	var conversation storetypes.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", struct{}{}, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (c *Client) MessagesAfter(ctx context.Context, conversationID string, afterID int64) ([]storetypes.Message, error) {
	var messages []storetypes.Message
	path := "/api/conversations/" + url.PathEscape(conversationID) +
		"/messages?after=" + strconv.FormatInt(afterID, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*storetypes.Message, error) {
	var message storetypes.Message
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/messages"
	payload := struct {
		Content string `json:"content"`
	}{Content: content}
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// SendImage uploads an image attachment as multipart form data. size is the
// payload length in bytes; oversized payloads are rejected locally with
// ErrAttachmentTooLarge before any network traffic.
func (c *Client) SendImage(ctx context.Context, conversationID, filename string, image io.Reader, size int64) (*storetypes.Message, error) {
	if size > MaxImageBytes {
		return nil, ErrAttachmentTooLarge
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("shopapi: failed to build multipart body: %w", err)
	}
	written, err := io.Copy(part, io.LimitReader(image, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("shopapi: failed to read image: %w", err)
	}
	// The declared size is advisory; the actual byte count is what binds.
	if written > MaxImageBytes {
		return nil, ErrAttachmentTooLarge
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("shopapi: failed to finalize multipart body: %w", err)
	}

	path := "/api/conversations/" + url.PathEscape(conversationID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, handleAPIError(resp)
	}
	var message storetypes.Message
	if err := decodeJSONBody(resp.Body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/read"
	return c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil)
}
