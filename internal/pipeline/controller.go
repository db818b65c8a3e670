// Package pipeline owns the lifecycle of the current vector index. A
// Controller builds an index per ingested document, publishes it with an
// atomic swap and answers questions against whichever index is current.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/answer"
	"github.com/realshak7781/pdfqa-go/internal/logging"
	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// State is the observable lifecycle stage of a Controller.
type State int

const (
	// StateEmpty means no index has been built yet.
	StateEmpty State = iota
	// StateBuilding means a build is in flight. Answers keep using the
	// prior index, if any. Publishers running after a swap do not count.
	StateBuilding
	// StateReady means an index is current and no build is running.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Publisher observes every successful swap, e.g. to mirror the index into a
// vector database or record document metadata. Publish errors are logged,
// never returned to the ingest caller, because the swap already happened.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, doc rag.Document, idx *rag.VectorIndex) error
}

// IngestResult reports a successful build.
type IngestResult struct {
	DocumentID   string
	PassageCount int
	// Generation is the publish counter value of this build.
	Generation uint64
}

// AnswerResult is the outcome of one question.
type AnswerResult struct {
	Answer     string
	Sources    []rag.ScoredPassage
	Truncation answer.Truncation
	// Generation identifies the index the answer was computed against.
	Generation uint64
}

// published pairs an index with its publish counter so both are read in one
// atomic load.
type published struct {
	idx        *rag.VectorIndex
	generation uint64
}

// Controller is the single owner of the current index. It is safe for
// concurrent use; at most one build runs at a time and a concurrent Ingest is
// rejected with BuildInProgress.
type Controller struct {
	retriever  *rag.Retriever
	composer   *answer.Composer
	cfg        *Config
	publishers []Publisher

	current    atomic.Pointer[published]
	building   sync.Mutex
	inFlight   atomic.Bool
	generation atomic.Uint64
	// publishMu guards lastPublished; publishers run one generation at a
	// time, in order, outside the build guard.
	publishMu     sync.Mutex
	publishTurn   *sync.Cond
	lastPublished uint64
}

// New constructs a Controller. cfg may be nil for defaults.
func New(retriever *rag.Retriever, composer *answer.Composer, cfg *Config, publishers ...Publisher) (*Controller, error) {
	if retriever == nil {
		return nil, fmt.Errorf("pipeline: retriever must not be nil")
	}
	if composer == nil {
		return nil, fmt.Errorf("pipeline: composer must not be nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		retriever:  retriever,
		composer:   composer,
		cfg:        cfg,
		publishers: publishers,
	}
	c.publishTurn = sync.NewCond(&c.publishMu)
	return c, nil
}

// State reports the lifecycle stage.
func (c *Controller) State() State {
	switch {
	case c.inFlight.Load():
		return StateBuilding
	case c.current.Load() != nil:
		return StateReady
	}
	return StateEmpty
}

// Current returns the current index, or nil before the first successful build.
func (c *Controller) Current() *rag.VectorIndex {
	if p := c.current.Load(); p != nil {
		return p.idx
	}
	return nil
}

// Generation returns the number of successful publishes so far.
func (c *Controller) Generation() uint64 {
	return c.generation.Load()
}

// Ingest builds an index from doc and makes it current. On failure the
// previous index stays current and the error is returned. Publishers run
// after the build guard is released, so the controller reports Ready and
// accepts the next Ingest while they do; publishes still happen in
// generation order.
func (c *Controller) Ingest(ctx context.Context, doc rag.Document) (*IngestResult, error) {
	log := logging.FromContext(ctx).With(slog.String("document_id", doc.ID))

	idx, gen, err := c.buildAndSwap(ctx, log, doc)
	if err != nil {
		return nil, err
	}
	c.awaitTurn(gen)
	defer c.finishTurn(gen)
	c.publish(context.WithoutCancel(ctx), log, doc, idx)

	return &IngestResult{DocumentID: doc.ID, PassageCount: idx.Len(), Generation: gen}, nil
}

// buildAndSwap builds and swaps in the index under the build guard and
// returns its generation.
func (c *Controller) buildAndSwap(ctx context.Context, log *slog.Logger, doc rag.Document) (*rag.VectorIndex, uint64, error) {
	const op = "pipeline.ingest"

	if !c.building.TryLock() {
		log.Warn("pipeline: ingest rejected, build in progress")
		return nil, 0, rag.Errorf(rag.KindBuildInProgress, op, "another document is being ingested")
	}
	defer c.building.Unlock()
	c.inFlight.Store(true)
	defer c.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.IngestTimeout)
	defer cancel()

	start := time.Now()
	log.Info("pipeline: build started",
		slog.Int("text_bytes", len(doc.Text)),
		slog.Int("chunk_size", c.cfg.ChunkSize),
		slog.Int("chunk_overlap", c.cfg.ChunkOverlap),
	)
	idx, err := c.retriever.BuildFromDocument(ctx, doc, c.cfg.ChunkSize, c.cfg.ChunkOverlap)
	if err == nil && ctx.Err() != nil {
		err = &rag.Error{Kind: rag.KindEmbeddingUnavailable, Op: op, Msg: "build abandoned", Err: ctx.Err()}
	}
	if err != nil {
		log.Error("pipeline: build failed",
			slog.String("kind", string(rag.KindOf(err))),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, 0, err
	}

	gen := c.generation.Add(1)
	c.current.Store(&published{idx: idx, generation: gen})
	log.Info("pipeline: index published",
		slog.Int("passages", idx.Len()),
		slog.Int("dimension", idx.Dimension()),
		slog.Uint64("generation", gen),
		slog.Duration("elapsed", time.Since(start)),
	)

	return idx, gen, nil
}

// awaitTurn blocks until every earlier generation has been published.
// Generations are assigned under the build guard, so they are gap-free.
func (c *Controller) awaitTurn(gen uint64) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	for c.lastPublished != gen-1 {
		c.publishTurn.Wait()
	}
}

// finishTurn marks gen as published and wakes the next generation.
func (c *Controller) finishTurn(gen uint64) {
	c.publishMu.Lock()
	c.lastPublished = gen
	c.publishMu.Unlock()
	c.publishTurn.Broadcast()
}

// publish runs every Publisher with its own timeout, logging failures.
func (c *Controller) publish(ctx context.Context, log *slog.Logger, doc rag.Document, idx *rag.VectorIndex) {
	for _, p := range c.publishers {
		pctx, cancel := context.WithTimeout(ctx, c.cfg.PublishTimeout)
		if err := p.Publish(pctx, doc, idx); err != nil {
			log.Warn("pipeline: publisher failed",
				slog.String("publisher", p.Name()),
				slog.String("error", err.Error()),
			)
		} else {
			log.Debug("pipeline: publisher done", slog.String("publisher", p.Name()))
		}
		cancel()
	}
}

// Answer retrieves passages for question from the current index and asks the
// generator. topK == 0 uses the configured default. The index is loaded
// once, so a concurrent swap never mixes two indexes in one answer.
func (c *Controller) Answer(ctx context.Context, question string, topK int) (*AnswerResult, error) {
	const op = "pipeline.answer"
	cur := c.current.Load()
	if cur == nil {
		return nil, rag.Errorf(rag.KindNoIndexAvailable, op, "no document has been ingested yet")
	}
	if topK == 0 {
		topK = c.cfg.TopK
	}
	log := logging.FromContext(ctx).With(slog.Uint64("generation", cur.generation))

	ctx, cancel := context.WithTimeout(ctx, c.cfg.AnswerTimeout)
	defer cancel()

	hits, err := c.retriever.RetrieveScored(ctx, cur.idx, question, topK)
	if err != nil {
		return nil, err
	}
	passages := make([]rag.Passage, len(hits))
	for i, h := range hits {
		passages[i] = h.Passage
	}

	prompt, tr := c.composer.ComposePrompt(passages, question)
	if tr.Truncated() {
		log.Warn("pipeline: context truncated to fit budget",
			slog.Int("dropped_passages", tr.Dropped),
			slog.Bool("head_cut", tr.HeadCut),
			slog.Int("max_context_tokens", c.composer.MaxContextTokens()),
		)
	}

	text, err := c.composer.Answer(ctx, prompt)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: answered",
		slog.Int("passages", len(passages)),
		slog.Int("answer_bytes", len(text)),
	)
	return &AnswerResult{
		Answer:     text,
		Sources:    hits,
		Truncation: tr,
		Generation: cur.generation,
	}, nil
}
