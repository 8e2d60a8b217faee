package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
)

const (
	// DefaultUserAgent is sent upstream since some storage hosts reject
	// non-browser clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultMaxBytes  = 20 << 20
	fallbackType     = "image/jpeg"
)

var (
	ErrInvalidURL     = errors.New("invalid url format")
	ErrHostNotAllowed = errors.New("host is not allowed")
	ErrEmptyImage     = errors.New("empty image data received")
	ErrTooLarge       = errors.New("image exceeds size limit")
)

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "upstream responded " + e.StatusLine()
}

// StatusLine returns "<code> <text>", such as "404 Not Found".
func (e *StatusError) StatusLine() string {
	if e.Status != "" {
		return e.Status
	}
	return strings.TrimSpace(strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode))
}

// RelayConfig tunes the relay.
type RelayConfig struct {
	// AllowedHosts restricts upstream hosts; empty allows every host.
	AllowedHosts []string
	UserAgent    string
	MaxBytes     int64
}

// Image is a fetched payload.
type Image struct {
	Data        []byte
	ContentType string
	Sniffed     bool
}

// Relay fetches images server-side for clients that cannot load them
// directly.
type Relay struct {
	client    *http.Client
	allowed   map[string]struct{}
	userAgent string
	maxBytes  int64
	log       zerolog.Logger
}

// NewRelay creates a relay using client for upstream requests.
func NewRelay(client *http.Client, cfg RelayConfig) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	r := &Relay{
		client:    client,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		log:       logger.For("image-proxy"),
	}
	if r.userAgent == "" {
		r.userAgent = DefaultUserAgent
	}
	if r.maxBytes <= 0 {
		r.maxBytes = DefaultMaxBytes
	}
	if len(cfg.AllowedHosts) > 0 {
		r.allowed = make(map[string]struct{}, len(cfg.AllowedHosts))
		for _, host := range cfg.AllowedHosts {
			if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
				r.allowed[host] = struct{}{}
			}
		}
	}
	return r
}

// Target turns the proxy's url parameter into the upstream URL: one more
// round of decoding, the "/public//" fix and URI normalization.
func (r *Relay) Target(param string) (*url.URL, error) {
	decoded, err := url.PathUnescape(param)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	normalized, err := normalizeURI(collapsePublic(decoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	target, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, ErrInvalidURL
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, target.Scheme)
	}
	if r.allowed != nil {
		if _, ok := r.allowed[strings.ToLower(target.Hostname())]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, target.Hostname())
		}
	}
	return target, nil
}

// Fetch resolves param with Target and downloads the image. A missing
// upstream content type is sniffed from the payload, then defaults to
// image/jpeg.
func (r *Relay) Fetch(ctx context.Context, param string) (*Image, error) {
	target, err := r.Target(param)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.Warn().Str("url", target.String()).Int("status", resp.StatusCode).Msg("upstream rejected image request")
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img := &Image{Data: data, ContentType: resp.Header.Get("Content-Type")}
	if img.ContentType == "" {
		img.ContentType = fallbackType
		if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
			img.ContentType = kind.MIME.Value
			img.Sniffed = true
		}
	}

	r.log.Debug().Str("url", target.String()).Int("bytes", len(data)).Str("contentType", img.ContentType).Msg("image relayed")
	return img, nil
}
