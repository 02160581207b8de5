// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestHTTPFetcher_Remote verifies remote assets and upstream failures.
*/
func TestHTTPFetcher_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/audio/track.mp3" {
			http.NotFound(writer, request)
			return
		}
		_, _ = writer.Write([]byte("ID3-audio-bytes"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(time.Second)

	// 1. Found
	asset, err := fetcher.Open(context.Background(), server.URL+"/audio/track.mp3")
	require.NoError(t, err)
	defer asset.Body.Close()

	body, err := io.ReadAll(asset.Body)
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio-bytes", string(body))
	assert.Equal(t, int64(len(body)), asset.Size)

	// 2. Upstream 404
	_, err = fetcher.Open(context.Background(), server.URL+"/audio/missing.mp3")
	assert.ErrorIs(t, err, ErrAssetUnavailable)
}

/*
TestHTTPFetcher_SlowBody verifies that a body streaming for longer than the
timeout still arrives whole, while slow headers are refused.
*/
func TestHTTPFetcher_SlowBody(t *testing.T) {
	const chunks, chunkSize = 5, 1024

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/stalled.mp3" {
			time.Sleep(300 * time.Millisecond)
			return
		}

		writer.Header().Set("Content-Length", strconv.Itoa(chunks*chunkSize))
		writer.WriteHeader(http.StatusOK)
		flusher := writer.(http.Flusher)
		for index := 0; index < chunks; index++ {
			_, _ = writer.Write(bytes.Repeat([]byte{byte('a' + index)}, chunkSize))
			flusher.Flush()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(200 * time.Millisecond)

	// 1. Body takes ~500ms against a 200ms timeout
	asset, err := fetcher.Open(context.Background(), server.URL+"/slow.mp3")
	require.NoError(t, err)
	defer asset.Body.Close()

	body, err := io.ReadAll(asset.Body)
	require.NoError(t, err)
	assert.Len(t, body, chunks*chunkSize)
	assert.Equal(t, int64(chunks*chunkSize), asset.Size)

	// 2. Headers that never arrive in time
	_, err = fetcher.Open(context.Background(), server.URL+"/stalled.mp3")
	assert.ErrorIs(t, err, ErrAssetUnavailable)
}

/*
TestHTTPFetcher_Local verifies file locations.
*/
func TestHTTPFetcher_Local(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "track.mp3")
	require.NoError(t, os.WriteFile(path, []byte("local-audio"), 0o600))

	fetcher := NewHTTPFetcher(time.Second)

	asset, err := fetcher.Open(context.Background(), "file://"+path)
	require.NoError(t, err)
	defer asset.Body.Close()
	assert.Equal(t, int64(len("local-audio")), asset.Size)

	tests := []struct {
		name     string
		location string
	}{
		{"missing_file", "file://" + filepath.Join(directory, "missing.mp3")},
		{"directory", "file://" + directory},
		{"unsupported_scheme", "ftp://example.com/track.mp3"},
		{"no_scheme", "track.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.Open(context.Background(), tt.location)
			assert.ErrorIs(t, err, ErrAssetUnavailable)
		})
	}
}
