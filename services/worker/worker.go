package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"sjsage522/hoyocodeworker/internal/profile"
	"sjsage522/hoyocodeworker/internal/scraper"
	"sjsage522/hoyocodeworker/logger"
	apperrors "sjsage522/hoyocodeworker/pkg/errors"
	"sjsage522/hoyocodeworker/services/metrics"
	"sjsage522/hoyocodeworker/services/notifier"
	"sjsage522/hoyocodeworker/services/publisher"
	"sjsage522/hoyocodeworker/services/report"
	"sjsage522/hoyocodeworker/services/store"

	"github.com/google/uuid"
)

const (
	failureMessage = "Whoops~ Looks like HoYo Scraper ran into an error."

	// summaryLimit caps the soft errors listed in the trailing notification
	summaryLimit = 10
)

// Scraper fetches the records of one game
type Scraper interface {
	FetchCodes(ctx context.Context) (*scraper.CodeResult, error)
	FetchEvents(ctx context.Context) (*scraper.EventResult, error)
}

// Options tunes a run
type Options struct {
	DryRun           bool
	Events           bool
	OutputFile       string
	NotifyOnFirstRun bool
	PushgatewayURL   string
}

// Summary describes a finished run
type Summary struct {
	RunID      string
	Codes      int
	Events     int
	New        []string
	Notified   int
	Seeded     bool
	SoftErrors []string
}

// Worker runs the fetch, diff, persist and notify pass for one game
type Worker struct {
	profile   *profile.Profile
	scraper   Scraper
	store     store.Store
	notifier  notifier.Notifier
	publisher publisher.Publisher
	opts      Options
	out       io.Writer
}

// NewWorker creates a new worker. notifier and publisher may be nil.
func NewWorker(
	p *profile.Profile,
	s Scraper,
	st store.Store,
	n notifier.Notifier,
	pub publisher.Publisher,
	opts Options,
) *Worker {
	return &Worker{
		profile:   p,
		scraper:   s,
		store:     st,
		notifier:  n,
		publisher: pub,
		opts:      opts,
		out:       os.Stdout,
	}
}

// SetOutput redirects the dry-run tables
func (w *Worker) SetOutput(out io.Writer) {
	w.out = out
}

// Run executes one pass. The returned error is fatal; soft errors are listed
// in the summary.
func (w *Worker) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	game := w.profile.ID
	summary := &Summary{RunID: uuid.NewString()}
	log := logger.ForGame(game).WithField("run_id", summary.RunID)
	m := metrics.NewRun()
	var soft apperrors.Log

	log.Info().Bool("dry_run", w.opts.DryRun).Msg("starting run")

	codes, err := w.scraper.FetchCodes(ctx)
	if err != nil {
		return summary, w.fail(ctx, m, start, err)
	}
	soft.Merge(&codes.Errors)
	summary.Codes = len(codes.Codes)

	var events *scraper.EventResult
	if w.opts.Events || w.opts.OutputFile != "" {
		events, err = w.scraper.FetchEvents(ctx)
		if err != nil {
			return summary, w.fail(ctx, m, start, err)
		}
		soft.Merge(&events.Errors)
		summary.Events = len(events.Events)
	}

	if w.opts.DryRun {
		w.printCodes(codes)
		if events != nil {
			w.printEvents(events)
		}
		summary.SoftErrors = soft.Messages()
		log.Info().Int("codes", summary.Codes).Msg("dry run finished, nothing persisted")
		return summary, nil
	}

	known, err := w.store.Load(ctx, game)
	if err != nil {
		return summary, w.fail(ctx, m, start, apperrors.NewCache(game, "failed to load known codes", err))
	}

	fresh := store.Diff(codes.Codes, known)
	for _, c := range fresh {
		summary.New = append(summary.New, c.Code)
	}
	log.Info().
		Int("known", known.Len()).
		Int("parsed", len(codes.Codes)).
		Strs("new", summary.New).
		Msg("compared with known codes")

	var saveErr error
	if len(codes.Codes) == 0 {
		log.Warn().Msg("no codes parsed, keeping the previous cache")
	} else if err := w.store.Save(ctx, game, codes.CodeList()); err != nil {
		saveErr = apperrors.NewCache(game, "failed to save known codes", err)
		log.Error().Err(err).Msg("failed to save known codes")
	}

	if w.opts.OutputFile != "" {
		if err := report.Write(w.opts.OutputFile, report.Build(codes, events)); err != nil {
			soft.Add(apperrors.NewValidation(game, err.Error()))
		} else {
			log.Info().Str("path", w.opts.OutputFile).Msg("report written")
			w.notifyText(ctx, &soft, fmt.Sprintf("`%s` was updated.", filepath.Base(w.opts.OutputFile)))
		}
	}

	announce := fresh
	if !known.Persisted && !w.opts.NotifyOnFirstRun {
		summary.Seeded = true
		announce = nil
		log.Info().Int("codes", len(fresh)).Msg("first run, seeding the cache without notifications")
	}

	failures := 0
	if w.notifier != nil {
		for _, c := range announce {
			if err := w.notifier.SendCode(ctx, c); err != nil {
				failures++
				w.recordSoft(&soft, err)
				continue
			}
			summary.Notified++
		}
	}
	w.publish(ctx, &soft, announce, summary.RunID)

	if soft.Len() > 0 {
		w.notifyText(ctx, &soft, fmt.Sprintf("%s: %d problem(s) during the last run\n```\n%s\n```",
			w.profile.Name, soft.Len(), soft.Summary(summaryLimit)))
	}
	summary.SoftErrors = soft.Messages()

	m.CodesTotal.Set(float64(len(codes.Codes)))
	m.CodesActive.Set(float64(len(codes.Active())))
	m.CodesNew.Set(float64(len(fresh)))
	if events != nil {
		for status, list := range events.ByStatus() {
			m.EventsTotal.WithLabelValues(string(status)).Set(float64(len(list)))
		}
	}
	m.SoftErrors.Set(float64(soft.Len()))
	m.NotifyFailures.Set(float64(failures))

	if saveErr != nil {
		return summary, w.fail(ctx, m, start, saveErr)
	}

	w.finish(ctx, m, start, true)
	log.Info().
		Int("notified", summary.Notified).
		Int("soft_errors", soft.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("run finished")
	return summary, nil
}

// fail reports a fatal error through the webhook and returns it. A dry run
// only logs it.
func (w *Worker) fail(ctx context.Context, m *metrics.Run, start time.Time, err error) error {
	logger.LogError(w.profile.ID, err, "run aborted")
	if w.opts.DryRun {
		return err
	}
	if w.notifier != nil {
		content := fmt.Sprintf("%s\n```\n%v\n```", failureMessage, err)
		if nerr := w.notifier.SendAlert(ctx, content); nerr != nil {
			logger.LogError(w.profile.ID, nerr, "failed to send failure notification")
		}
	}
	w.finish(ctx, m, start, false)
	return err
}

func (w *Worker) finish(ctx context.Context, m *metrics.Run, start time.Time, ok bool) {
	m.Finish(start, ok)
	if w.opts.PushgatewayURL == "" {
		return
	}
	if err := m.Push(ctx, w.opts.PushgatewayURL, w.profile.ID); err != nil {
		logger.ForGame(w.profile.ID).Warn().Err(err).Msg("metrics push failed")
	}
}

func (w *Worker) notifyText(ctx context.Context, soft *apperrors.Log, content string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.SendText(ctx, content); err != nil {
		w.recordSoft(soft, err)
	}
}

// recordSoft logs err and keeps it for the run summary
func (w *Worker) recordSoft(soft *apperrors.Log, err error) {
	logger.ForGame(w.profile.ID).Warn().Err(err).Msg("recoverable failure")
	var scrapeErr *apperrors.ScrapeError
	if errors.As(err, &scrapeErr) {
		soft.Add(scrapeErr)
		return
	}
	soft.Add(apperrors.NewNotify(w.profile.ID, "delivery failed", err))
}

// streamMessage is the payload added to the Redis streams
type streamMessage struct {
	Game   string             `json:"game"`
	RunID  string             `json:"runId"`
	Link   string             `json:"link"`
	Record scraper.CodeRecord `json:"record"`
}

func (w *Worker) publish(ctx context.Context, soft *apperrors.Log, codes []scraper.CodeRecord, runID string) {
	if w.publisher == nil || len(codes) == 0 {
		return
	}
	game := w.profile.ID
	for _, c := range codes {
		data, err := json.Marshal(streamMessage{
			Game:   game,
			RunID:  runID,
			Link:   w.profile.ActivationLink(c.Code),
			Record: c,
		})
		if err != nil {
			soft.Add(apperrors.NewPublisher(game, "failed to encode "+c.Code, err))
			continue
		}
		if err := w.publisher.Publish(ctx, "b64_hoyocodes", data); err != nil {
			soft.Add(apperrors.NewPublisher(game, "failed to publish "+c.Code, err))
		}
	}
	if err := w.publisher.TrimStreams(ctx); err != nil {
		soft.Add(apperrors.NewPublisher(game, "failed to trim streams", err))
	}
}
