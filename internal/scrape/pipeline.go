package scrape

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/metrics"
)

// Pipeline sequences one export run: enumerate listing references, extract
// a record per reference, append each to the sink. Fully sequential; a
// fatal failure terminates the run after the session is released and any
// partial output is deleted.
type Pipeline struct {
	backend    Backend
	enumerator *Enumerator
	extractor  *Extractor
	sink       RowSink
	limit      int
	logger     *zap.Logger
}

// NewPipeline wires a run controller. limit bounds the number of exported
// records regardless of how many references the listing yields.
func NewPipeline(
	backend Backend,
	enumerator *Enumerator,
	extractor *Extractor,
	sink RowSink,
	limit int,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		backend:    backend,
		enumerator: enumerator,
		extractor:  extractor,
		sink:       sink,
		limit:      limit,
		logger:     logger,
	}
}

// Run executes the pipeline against the listing at uri. The backend session
// is released on every exit path; on failure the partially written output
// is removed before the error propagates.
func (p *Pipeline) Run(ctx context.Context, uri string) (err error) {
	logger := p.logger.With(zap.String("run_id", uuid.NewString()))

	defer func() {
		if cerr := p.backend.Close(); cerr != nil {
			logger.Warn("close fetch session", zap.Error(cerr))
		}
		if err != nil {
			if rerr := p.sink.Remove(); rerr != nil {
				logger.Warn("remove partial output", zap.Error(rerr))
			}
		}
	}()

	logger.Info("exporting top shops from the search results",
		zap.String("uri", uri),
		zap.Int("limit", p.limit),
	)

	refs, err := p.enumerator.Enumerate(ctx, uri, p.limit)
	if err != nil {
		return fmt.Errorf("enumerate listing: %w", err)
	}
	logger.Info("collected detail references", zap.Int("count", len(refs)))

	exported := 0
	for i, ref := range refs {
		shop, xerr := p.extractor.Extract(ctx, ref, i+1, len(refs))
		if xerr != nil {
			err = xerr
			return err
		}
		if aerr := p.sink.Append(shop); aerr != nil {
			err = fmt.Errorf("append record %d: %w", i+1, aerr)
			return err
		}
		metrics.IncShopExported()
		exported++
		if exported >= p.limit {
			break
		}
	}

	if cerr := p.sink.Close(); cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
		return err
	}

	logger.Info("export finished", zap.Int("shops", exported))
	return nil
}
