package query

import (
	"context"
	"log/slog"
)

// Engine fans one query out across every configured source, in order:
// personal vault first, then knowledge and peer vaults, then the network
// when the caller opts in. A failing source contributes zero hits and an
// error in its report; it never aborts the query.
type Engine struct {
	sources []Source
	network *NetworkSource
	logger  *slog.Logger
}

// NewEngine builds an engine over the given sources. network may be nil.
func NewEngine(sources []Source, network *NetworkSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{sources: sources, network: network, logger: logger}
}

// Query runs the federated search and returns the deduplicated response.
func (e *Engine) Query(ctx context.Context, q string, includeNetwork bool) *Response {
	sources := e.sources
	if includeNetwork && e.network != nil {
		sources = append(append([]Source{}, e.sources...), e.network)
	}

	var pooled []Result
	var reports []SourceReport
	for _, src := range sources {
		report := SourceReport{Name: src.Name(), Type: src.Type()}
		hits, err := src.Search(ctx, q)
		if err != nil {
			report.Error = err.Error()
			e.logger.Warn("query source failed", "source", src.Name(), "err", err)
		} else {
			report.Hits = len(hits)
			pooled = append(pooled, hits...)
		}
		reports = append(reports, report)
	}

	primary, conflicts := deduplicate(pooled)
	return &Response{
		Query:          q,
		Results:        primary,
		AlsoFound:      conflicts,
		SourcesChecked: reports,
		TotalHits:      len(pooled),
	}
}
