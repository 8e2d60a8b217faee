// Package image turns stored image URLs into ordered loading candidates,
// tracks which candidate is current, probes them over HTTP and relays
// image bytes for the proxy endpoint.
package image

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultProxyPath is where the image proxy endpoint is mounted.
const DefaultProxyPath = "/api/image-proxy"

// ErrUnusableURL is returned for empty, undecodable or unparsable image URLs.
var ErrUnusableURL = errors.New("image url is empty or malformed")

// Strategy names how a candidate was derived from the original URL.
type Strategy string

const (
	StrategyEncoded   Strategy = "encoded"
	StrategyCollapsed Strategy = "collapsed"
	StrategyProxy     Strategy = "proxy"
	StrategyInsecure  Strategy = "insecure"
)

// Candidate is one URL to try when loading an image.
type Candidate struct {
	Strategy Strategy `json:"strategy"`
	URL      string   `json:"url"`
}

// Size is the requested display size; zero means unspecified.
type Size struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Reference is an image URL with its candidates, computed once.
type Reference struct {
	Original   string      `json:"original"`
	Candidates []Candidate `json:"candidates"`
	Size       Size        `json:"size"`
}

type options struct {
	proxyPath string
	size      Size
}

// Option customizes NewReference.
type Option func(*options)

// WithProxyPath points the proxy candidate at path.
func WithProxyPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.proxyPath = path
		}
	}
}

// WithSize records the display size on the reference.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.size = Size{Width: width, Height: height}
	}
}

// NewReference derives the candidates for original, in the order they
// should be tried: the encoded URL, the encoded URL with a collapsed
// "/public//", the proxy URL and the encoded URL over plain http.
func NewReference(original string, opts ...Option) (Reference, error) {
	o := options{proxyPath: DefaultProxyPath}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(original) == "" {
		return Reference{Original: original, Size: o.size}, ErrUnusableURL
	}
	encoded, err := normalizeURI(original)
	if err != nil || !parsable(encoded) {
		return Reference{Original: original, Size: o.size}, ErrUnusableURL
	}

	return Reference{
		Original: original,
		Size:     o.size,
		Candidates: []Candidate{
			{Strategy: StrategyEncoded, URL: encoded},
			{Strategy: StrategyCollapsed, URL: collapsePublic(encoded)},
			{Strategy: StrategyProxy, URL: o.proxyPath + "?url=" + url.QueryEscape(original)},
			{Strategy: StrategyInsecure, URL: strings.Replace(encoded, "https://", "http://", 1)},
		},
	}, nil
}

// parsable reports whether u parses as a URL and names a host whenever it
// names a scheme.
func parsable(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == "" || parsed.Host != ""
}

// URLs returns the candidate URLs in order.
func (r Reference) URLs() []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.URL
	}
	return out
}
