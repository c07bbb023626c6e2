// Package source provides the candidate sources a resolver composes: a
// remote search endpoint, a TTL-cached local collection, and a direct
// store adapter.
package source

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/errors"
	"github.com/odyomed/resolve/internal/httpclient"
)

// Remote searches a backend entity endpoint. Transport failures are
// wrapped with errors.ErrUnavailable so the resolver can recognize them
// and degrade to local search.
type Remote struct {
	baseURL string
	kind    resolve.Kind
	client  *httpclient.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewRemote creates a Remote source for one entity kind. rps caps
// outbound searches per second; zero disables limiting.
func NewRemote(baseURL string, kind resolve.Kind, client *httpclient.Client, rps float64, log *zap.SugaredLogger) *Remote {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Remote{
		baseURL: baseURL,
		kind:    kind,
		client:  client,
		limiter: limiter,
		log:     log,
	}
}

// Search implements resolve.Source against GET {base}/api/{kind}?q=.
func (r *Remote) Search(ctx context.Context, query string, limit int) ([]resolve.Entity, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrUnavailable, err.Error())
		}
	}

	u := fmt.Sprintf("%s/api/%s?q=%s&limit=%d",
		r.baseURL, r.kind, url.QueryEscape(query), limit)

	var entities []resolve.Entity
	if err := r.client.GetJSON(ctx, u, &entities); err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "remote %s search: %v", r.kind, err)
	}

	if r.log != nil {
		r.log.Debugw("remote search",
			"kind", r.kind,
			"query", query,
			"matches", len(entities),
		)
	}

	return entities, nil
}
