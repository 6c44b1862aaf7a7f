package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://data.example.org/forest.csv"

func newMockClient(t *testing.T, cfg Config) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	cfg.Transport = transport
	client := New(&cfg)
	t.Cleanup(client.Close)
	return client, transport
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	client := New(nil)
	assert.Equal(t, DefaultTimeout, client.defaultTimeout)
	assert.Equal(t, defaultUserAgent, client.userAgent)

	client = New(&Config{DefaultTimeout: 5 * time.Second, UserAgent: "birdview-test/1.0"})
	assert.Equal(t, 5*time.Second, client.defaultTimeout)
	assert.Equal(t, "birdview-test/1.0", client.userAgent)
}

func TestGetSetsHeaders(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient(t, Config{})
	var gotUA, gotAccept string
	transport.RegisterResponder(http.MethodGet, testURL, func(req *http.Request) (*http.Response, error) {
		gotUA = req.Header.Get("User-Agent")
		gotAccept = req.Header.Get("Accept")
		return httpmock.NewStringResponse(http.StatusOK, "Common_Name\nRobin\n"), nil
	})

	resp, err := client.Get(t.Context(), testURL, "text/csv")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "Common_Name\nRobin\n", string(body))
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, "text/csv", gotAccept)
}

func TestDoKeepsExplicitUserAgent(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient(t, Config{})
	var gotUA string
	transport.RegisterResponder(http.MethodGet, testURL, func(req *http.Request) (*http.Response, error) {
		gotUA = req.Header.Get("User-Agent")
		return httpmock.NewStringResponse(http.StatusOK, ""), nil
	})

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, testURL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")

	resp, err := client.Do(t.Context(), req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "custom", gotUA)
}

func TestDoAppliesDefaultTimeout(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient(t, Config{DefaultTimeout: time.Minute})
	var (
		hasDeadline bool
		deadline    time.Time
	)
	transport.RegisterResponder(http.MethodGet, testURL, func(req *http.Request) (*http.Response, error) {
		deadline, hasDeadline = req.Context().Deadline()
		return httpmock.NewStringResponse(http.StatusOK, ""), nil
	})

	resp, err := client.Get(t.Context(), testURL, "")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestDoKeepsCallerDeadline(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient(t, Config{DefaultTimeout: time.Hour})
	var deadline time.Time
	transport.RegisterResponder(http.MethodGet, testURL, func(req *http.Request) (*http.Response, error) {
		deadline, _ = req.Context().Deadline()
		return httpmock.NewStringResponse(http.StatusOK, ""), nil
	})

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	want, _ := ctx.Deadline()

	resp, err := client.Get(ctx, testURL, "")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, want, deadline)
}

func TestAfterResponseHook(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient(t, Config{})
	transport.RegisterResponder(http.MethodGet, testURL, httpmock.NewStringResponder(http.StatusNotFound, "missing"))
	transport.RegisterResponder(http.MethodGet, "https://data.example.org/down.csv",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	type call struct {
		url    string
		status int
		err    error
	}
	var calls []call
	client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, _ time.Duration, err error) {
		c := call{url: req.URL.String(), err: err}
		if resp != nil {
			c.status = resp.StatusCode
		}
		calls = append(calls, c)
	})

	resp, err := client.Get(t.Context(), testURL, "")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	_, err = client.Get(t.Context(), "https://data.example.org/down.csv", "")
	require.Error(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, http.StatusNotFound, calls[0].status)
	require.NoError(t, calls[0].err)
	assert.Equal(t, "https://data.example.org/down.csv", calls[1].url)
	require.Error(t, calls[1].err)
}

func TestDoRejectsNilRequest(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Do(t.Context(), nil)
	require.Error(t, err)
}

func TestCancelOnCloseReleasesContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	body := &cancelOnClose{ReadCloser: io.NopCloser(nil), cancel: cancel}

	require.NoError(t, body.Close())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
