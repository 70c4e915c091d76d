package shopapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atelierline/storesync/shopapi"
	"github.com/atelierline/storesync/storetypes"
	"github.com/stretchr/testify/require"
)

func TestUnit_ClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]storetypes.Conversation{})
	}))
	defer server.Close()

	client := shopapi.NewClient(server.URL, shopapi.StaticToken("secret"), nil)
	_, err := client.ListConversations(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", gotAuth)
}

func TestUnit_ClientDecodesStructuredErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"conversation not found","type":"invalid_request_error","code":"not_found"}}`)
	}))
	defer server.Close()

	client := shopapi.NewClient(server.URL, nil, nil)
	_, err := client.GetConversation(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *shopapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "not_found", apiErr.Code())
	require.Equal(t, "invalid_request_error", apiErr.Type())
	require.Equal(t, http.StatusNotFound, apiErr.Status())
}

func TestUnit_ClientFallsBackOnUnstructuredErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	}))
	defer server.Close()

	client := shopapi.NewClient(server.URL, nil, nil)
	_, err := client.ListNotifications(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestUnit_MessagesAfterPassesCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/conversations/c1/messages", r.URL.Path)
		require.Equal(t, "42", r.URL.Query().Get("after"))
		json.NewEncoder(w).Encode([]storetypes.Message{
			{ID: 43, ConversationID: "c1", Content: "hello", CreatedAt: time.Now()},
		})
	}))
	defer server.Close()

	client := shopapi.NewClient(server.URL, nil, nil)
	messages, err := client.MessagesAfter(context.Background(), "c1", 42)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, int64(43), messages[0].ID)
}

func TestUnit_SendImageRejectsOversizedPayloadLocally(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := shopapi.NewClient(server.URL, nil, nil)
	_, err := client.SendImage(context.Background(), "c1", "big.jpg",
		bytes.NewReader(nil), shopapi.MaxImageBytes+1)
	require.ErrorIs(t, err, shopapi.ErrAttachmentTooLarge)
	require.Zero(t, calls, "oversized upload must not reach the network")
}

func TestUnit_SendImageUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "photo.jpg", header.Filename)
		json.NewEncoder(w).Encode(storetypes.Message{ID: 7, ConversationID: "c1", ImageRef: "img-7"})
	}))
	defer server.Close()

	client := shopapi.NewClient(server.URL, nil, nil)
	payload := strings.NewReader("fake image bytes")
	message, err := client.SendImage(context.Background(), "c1", "photo.jpg", payload, int64(payload.Len()))
	require.NoError(t, err)
	require.Equal(t, int64(7), message.ID)
	require.Equal(t, "img-7", message.ImageRef)
}

func TestUnit_NotificationEndpoints(t *testing.T) {
	var seenPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPaths = append(seenPaths, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/api/notifications/unread-count":
			fmt.Fprint(w, `{"count":3}`)
		case r.URL.Path == "/api/notifications" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode([]storetypes.Notification{{ID: "n1", Category: storetypes.NotificationOrder}})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := shopapi.NewClient(server.URL, nil, nil)

	count, err := client.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	notifications, err := client.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	require.NoError(t, client.MarkNotificationRead(ctx, "n1"))
	require.NoError(t, client.MarkAllNotificationsRead(ctx))
	require.NoError(t, client.DeleteNotification(ctx, "n1"))

	require.Contains(t, seenPaths, "POST /api/notifications/n1/read")
	require.Contains(t, seenPaths, "POST /api/notifications/read-all")
	require.Contains(t, seenPaths, "DELETE /api/notifications/n1")
}
