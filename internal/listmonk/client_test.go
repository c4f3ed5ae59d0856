package listmonk

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/makerletter/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(serverURL string) *Client {
	return NewClient(config.ListmonkConfig{
		URL:        serverURL,
		Username:   "admin",
		Password:   "secret",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}, testLogger())
}

func validRequest() CampaignRequest {
	return CampaignRequest{
		Name:        "August Newsletter",
		Subject:     "The Makery newsletter, August 2026",
		Lists:       []int{3},
		ContentType: "richtext",
		Body:        "<p>hello</p>",
		Messenger:   "email",
		Type:        "regular",
		Tags:        []string{"makerletter"},
		TemplateID:  1,
	}
}

func TestCreateCampaign(t *testing.T) {
	t.Parallel()

	var received CampaignRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/campaigns", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"id":42}}`))
	}))
	defer server.Close()

	id, err := testClient(server.URL).CreateCampaign(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, "The Makery newsletter, August 2026", received.Subject)
	assert.Equal(t, []int{3}, received.Lists)
	assert.Equal(t, "email", received.Messenger)
	assert.Equal(t, "regular", received.Type)
}

func TestCreateCampaignValidation(t *testing.T) {
	t.Parallel()

	client := testClient("http://localhost:0")

	testCases := []struct {
		name    string
		mutate  func(*CampaignRequest)
		wantErr string
	}{
		{
			name:    "empty subject",
			mutate:  func(r *CampaignRequest) { r.Subject = "" },
			wantErr: "subject is empty",
		},
		{
			name:    "no lists",
			mutate:  func(r *CampaignRequest) { r.Lists = nil },
			wantErr: "no target lists",
		},
		{
			name:    "invalid list id",
			mutate:  func(r *CampaignRequest) { r.Lists = []int{0} },
			wantErr: "invalid list ID",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := validRequest()
			tc.mutate(&req)
			_, err := client.CreateCampaign(context.Background(), req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCreateCampaignServerError(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid list"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateCampaign(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid list")
	// API errors are final, not retried.
	assert.Equal(t, 1, calls)
}

func TestCreateCampaignRetriesConnectionErrors(t *testing.T) {
	t.Parallel()

	// A server that is immediately closed produces connection errors.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	start := time.Now()
	_, err := testClient(server.URL).CreateCampaign(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable after 3 attempts")
	// Two retry delays of 10ms each were waited out.
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestStartCampaign(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/campaigns/42/status", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"running"}`, string(body))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"id":42}}`))
	}))
	defer server.Close()

	require.NoError(t, testClient(server.URL).StartCampaign(context.Background(), 42))
}

func TestStartCampaignInvalidID(t *testing.T) {
	t.Parallel()

	err := testClient("http://localhost:0").StartCampaign(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid campaign ID")
}
