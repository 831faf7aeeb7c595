package api

import (
	"context"
	"fmt"
)

// Builder turns params into a request descriptor.
type Builder func(Params) (*Request, error)

// API binds the request builders to a Transport.
type API struct {
	transport Transport
}

// New returns an API that sends every request through t.
func New(t Transport) *API {
	return &API{transport: t}
}

// Do builds a request with b and performs it.
func (a *API) Do(ctx context.Context, name string, b Builder, p Params, opts Options) (*Response, error) {
	req, err := b(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	res, err := a.transport.Perform(ctx, req, opts)
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

func (a *API) Info(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "Info", Info, p, opts)
}

func (a *API) Search(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "Search", Search, p, opts)
}

func (a *API) NodesInfo(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "NodesInfo", NodesInfo, p, opts)
}

func (a *API) IndicesCreate(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "IndicesCreate", IndicesCreate, p, opts)
}

func (a *API) MlGetRecords(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "MlGetRecords", MlGetRecords, p, opts)
}

func (a *API) MlUpdateDatafeed(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "MlUpdateDatafeed", MlUpdateDatafeed, p, opts)
}

func (a *API) DataFrameStopDataFrameTransform(ctx context.Context, p Params, opts Options) (*Response, error) {
	return a.Do(ctx, "DataFrameStopDataFrameTransform", DataFrameStopDataFrameTransform, p, opts)
}
