// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// ErrAssetUnavailable reports that an audio asset could not be opened.
var ErrAssetUnavailable = errors.New("download: asset unavailable")

// Asset is an open audio stream.
type Asset struct {
	Body io.ReadCloser
	// Size is the byte length, or -1 when unknown.
	Size int64
}

// AssetFetcher opens the audio stream behind a song's audio location.
type AssetFetcher interface {
	Open(ctx context.Context, location string) (*Asset, error)
}

// HTTPFetcher opens http(s) locations with an HTTP client and file://
// locations from the local filesystem.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher that gives up when connecting or waiting
// for response headers takes longer than timeout.
//
// The body has no deadline of its own: once the grant is spent the copy runs
// until the request context ends or the server write timeout fires.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   16,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPFetcher{client: &http.Client{Transport: transport}}
}

/*
Open resolves location into a readable stream.

Parameters:
  - ctx: context.Context
  - location: string (http, https, or file URL)

Returns:
  - *Asset: Caller must close Body
  - error: ErrAssetUnavailable wrapping the cause
*/
func (fetcher *HTTPFetcher) Open(ctx context.Context, location string) (*Asset, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid location: %v", ErrAssetUnavailable, err)
	}

	switch parsed.Scheme {
	case "http", "https":
		return fetcher.openRemote(ctx, parsed.String())
	case "file":
		return openLocal(parsed.Path)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrAssetUnavailable, parsed.Scheme)
	}
}

func (fetcher *HTTPFetcher) openRemote(ctx context.Context, location string) (*Asset, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	response, err := fetcher.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()
		return nil, fmt.Errorf("%w: upstream status %d", ErrAssetUnavailable, response.StatusCode)
	}

	return &Asset{Body: response.Body, Size: response.ContentLength}, nil
}

func openLocal(path string) (*Asset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrAssetUnavailable, path)
	}

	return &Asset{Body: file, Size: info.Size()}, nil
}
