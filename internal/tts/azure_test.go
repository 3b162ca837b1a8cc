package tts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAzureClient_RequiresKey(t *testing.T) {
	_, err := NewAzureClient("", "eastus")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestSynthesize_WritesAudioFile(t *testing.T) {
	var gotBody string
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotHeaders = r.Header.Clone()
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))
	defer srv.Close()

	client, err := NewAzureClient("test-key", "eastus", WithEndpoint(srv.URL))
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := client.Synthesize(context.Background(), "Hello world", "en", "", dir)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotHeaders.Get("Ocp-Apim-Subscription-Key"))
	assert.Equal(t, "application/ssml+xml", gotHeaders.Get("Content-Type"))
	assert.Contains(t, gotBody, "en-US-JennyNeural")
	assert.Contains(t, gotBody, "Hello world")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp3-bytes", string(data))
	assert.True(t, strings.HasSuffix(path, ".mp3"))
}

func TestSynthesize_EscapesSSML(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	client, err := NewAzureClient("k", "eastus", WithEndpoint(srv.URL))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "fish & <chips>", "en-US", "en-US-GuyNeural", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, gotBody, "fish &amp; &lt;chips&gt;")
	assert.Contains(t, gotBody, "en-US-GuyNeural")
}

func TestSynthesize_EmptyText(t *testing.T) {
	client, err := NewAzureClient("k", "eastus")
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "   ", "en", "", t.TempDir())
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSynthesize_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	client, err := NewAzureClient("k", "eastus",
		WithEndpoint(srv.URL),
		WithMaxRetries(3),
		WithBaseBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "retry me", "en", "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSynthesize_MaxRetriesExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewAzureClient("k", "eastus",
		WithEndpoint(srv.URL),
		WithMaxRetries(1),
		WithBaseBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "nope", "en", "", t.TempDir())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSynthesize_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewAzureClient("k", "eastus",
		WithEndpoint(srv.URL),
		WithBaseBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "bad ssml", "en", "", t.TempDir())
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en-US", NormalizeLocale(""))
	assert.Equal(t, "en-US", NormalizeLocale("en"))
	assert.Equal(t, "ja-JP", NormalizeLocale("ja"))
	assert.Equal(t, "en-GB", NormalizeLocale("en-GB"))
	assert.Equal(t, "xx", NormalizeLocale("xx"))
}

func TestDefaultVoice(t *testing.T) {
	assert.Equal(t, "en-US-JennyNeural", DefaultVoice("en-US"))
	assert.Equal(t, "ne-NP-HemkalaNeural", DefaultVoice("ne-NP"))
	assert.Equal(t, "en-US-JennyNeural", DefaultVoice("unknown"))
}
