package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
)

// ErrExhausted means no candidate of a reference could be loaded.
var ErrExhausted = errors.New("all image candidates failed")

// Prober loads candidates over HTTP the way a browser would, resolving
// relative candidates such as the proxy URL against a base URL.
type Prober struct {
	client *http.Client
	base   *url.URL
	log    zerolog.Logger
}

// NewProber creates a prober. baseURL may be empty, in which case relative
// candidates count as failures.
func NewProber(client *http.Client, baseURL string) (*Prober, error) {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Prober{client: client, log: logger.For("image")}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("invalid base url %q", baseURL)
		}
		p.base = base
	}
	return p, nil
}

// Probe advances r until a candidate answers with a 2xx status and returns
// that candidate. Exhaustion returns ErrExhausted.
func (p *Prober) Probe(ctx context.Context, r *Resolver) (Candidate, error) {
	candidate, ok := r.Current()
	for ok {
		err := p.try(ctx, candidate.URL)
		if err == nil {
			r.Loaded()
			p.log.Debug().Str("strategy", string(candidate.Strategy)).Int("attempt", r.Attempt()).Msg("image loaded")
			return candidate, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, ctxErr
		}

		p.log.Debug().Err(err).Str("strategy", string(candidate.Strategy)).Int("attempt", r.Attempt()).Msg("image candidate failed")
		candidate, ok = r.Fail()
	}
	return Candidate{}, fmt.Errorf("%w: %s", ErrExhausted, r.Reference().Original)
}

func (p *Prober) try(ctx context.Context, raw string) error {
	target, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !target.IsAbs() {
		if p.base == nil {
			return fmt.Errorf("relative candidate %q without base url", raw)
		}
		target = p.base.ResolveReference(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
