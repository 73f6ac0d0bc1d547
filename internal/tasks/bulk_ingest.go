package tasks

import (
	"context"
	"sync"
)

// BulkIngestOpts contains configuration for ingesting many ISRCs.
type BulkIngestOpts struct {
	NumWorkers int // Concurrent ingests (default: 4, max: 10)
}

// ISRCResult is the outcome of one ISRC within a bulk ingest.
type ISRCResult struct {
	Index  int           // Position of the ISRC in the request
	ISRC   string        // ISRC as requested
	Result *IngestResult // Nil when Error is set
	Error  error
}

// BulkIngestResult summarizes a bulk ingest.
type BulkIngestResult struct {
	Total    int
	Created  int
	Existing int
	Failed   int
	Results  []ISRCResult // In request order
}

type ingestJob struct {
	index int
	isrc  string
}

// BulkIngest ingests isrcs with a worker pool and reports each outcome through prog.
//
// A failing ISRC does not stop the others. Each ingest has its own retry budget; the catalog client
// paces requests across workers.
func (p *Pipeline) BulkIngest(ctx context.Context, prog chan<- ProgressUpdate, isrcs []string, opts BulkIngestOpts) *BulkIngestResult {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	result := &BulkIngestResult{
		Total:   len(isrcs),
		Results: make([]ISRCResult, len(isrcs)),
	}

	jobs := make(chan ingestJob, len(isrcs))
	results := make(chan ISRCResult, len(isrcs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go p.ingestWorker(ctx, &wg, jobs, results)
	}

	for i, isrc := range isrcs {
		jobs <- ingestJob{index: i, isrc: isrc}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results[res.Index] = res

		switch {
		case res.Error != nil:
			result.Failed++
			sendProgress(prog, ingestFailedUpdate(completed, len(isrcs), res.ISRC, res.Error))
		case res.Result.Created:
			result.Created++
			sendProgress(prog, ingestCompletedUpdate(completed, len(isrcs), res.Result.Track, true))
		default:
			result.Existing++
			sendProgress(prog, ingestCompletedUpdate(completed, len(isrcs), res.Result.Track, false))
		}
	}

	return result
}

// ingestWorker ingests ISRCs from the jobs channel until it closes.
// Jobs left after cancellation are reported with the context error.
func (p *Pipeline) ingestWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan ingestJob, results chan<- ISRCResult) {
	defer wg.Done()

	for job := range jobs {
		res := ISRCResult{Index: job.index, ISRC: job.isrc}
		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		res.Result, res.Error = p.Ingest(ctx, job.isrc)
		results <- res
	}
}
