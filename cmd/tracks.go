package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/tracklib/internal/formatter"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/shared"
	"github.com/desertthunder/tracklib/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Ingest fetches and stores each ISRC given as an argument or listed in --file.
//
// A single ISRC reports each pipeline step; several run through the bulk worker pool.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	isrcs := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		fromFile, err := readISRCFile(path)
		if err != nil {
			return err
		}
		isrcs = append(isrcs, fromFile...)
	}
	if len(isrcs) == 0 {
		return fmt.Errorf("%w: at least one ISRC is required", shared.ErrMissingArgument)
	}
	for _, isrc := range isrcs {
		if !shared.ValidISRC(shared.NormalizeISRC(isrc)) {
			return fmt.Errorf("%w: invalid ISRC %q", shared.ErrInvalidInput, isrc)
		}
	}

	pipeline, closeStore, err := r.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	progress := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	if len(isrcs) == 1 {
		result, err := pipeline.Run(ctx, isrcs[0], progress)
		close(progress)
		<-done
		if err != nil {
			return err
		}
		return r.render(ctx, cmd, pipeline, "Ingested track", []*models.Track{result.Track})
	}

	summary := pipeline.BulkIngest(ctx, progress, isrcs, tasks.BulkIngestOpts{NumWorkers: int(cmd.Int("workers"))})
	close(progress)
	<-done

	var stored []*models.Track
	for _, res := range summary.Results {
		if res.Error == nil {
			stored = append(stored, res.Result.Track)
		}
	}

	r.logger.Info("bulk ingest complete",
		"total", summary.Total, "created", summary.Created, "existing", summary.Existing, "failed", summary.Failed)

	if err := r.render(ctx, cmd, pipeline, "Ingested tracks", stored); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d ISRCs failed", summary.Failed, summary.Total)
	}
	return nil
}

// Track prints a stored track.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	isrc := cmd.Args().First()
	if isrc == "" {
		return fmt.Errorf("%w: ISRC is required", shared.ErrMissingArgument)
	}

	pipeline, closeStore, err := r.newLookupPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	track, err := pipeline.LookupByISRC(ctx, isrc)
	if err != nil {
		return fmt.Errorf("track %s: %w", shared.NormalizeISRC(isrc), err)
	}
	return r.render(ctx, cmd, pipeline, "Track "+track.ISRC, []*models.Track{track})
}

// Tracks prints the stored tracks crediting --artist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	pipeline, closeStore, err := r.newLookupPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	name := cmd.String("artist")
	tracks, err := pipeline.LookupByArtist(ctx, name)
	if err != nil {
		return err
	}
	return r.render(ctx, cmd, pipeline, fmt.Sprintf("Tracks by %s", strings.TrimSpace(name)), tracks)
}

// render expands artists and writes tracks in the --format to --output or the runner output.
func (r *Runner) render(ctx context.Context, cmd *cli.Command, pipeline *tasks.Pipeline, title string, tracks []*models.Track) error {
	listing := &formatter.Listing{Title: title, Tracks: make([]formatter.TrackView, 0, len(tracks))}
	for _, track := range tracks {
		artists, err := pipeline.Artists(ctx, track)
		if err != nil {
			return err
		}
		listing.Tracks = append(listing.Tracks, formatter.TrackView{Track: track, Artists: artists})
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(listing, format, path); err != nil {
			return err
		}
		r.logger.Info("output written", "path", path, "format", format)
		return nil
	}

	data, err := formatter.Render(listing, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// readISRCFile reads one ISRC per line, skipping blanks and # comments.
func readISRCFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ISRC file: %w", err)
	}
	defer f.Close()

	var isrcs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isrcs = append(isrcs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ISRC file: %w", err)
	}
	return isrcs, nil
}
