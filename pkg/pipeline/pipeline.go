// Package pipeline runs a complete dictionary build: fetch the source table,
// reconcile and sanitize its rows, then load them into the store together
// with their search index entries.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/japaniel/lexdict/pkg/config"
	"github.com/japaniel/lexdict/pkg/db"
	"github.com/japaniel/lexdict/pkg/dictionary"
	"github.com/japaniel/lexdict/pkg/metrics"
	"github.com/japaniel/lexdict/pkg/phonetic"
)

// Options carry the collaborators of a run which are not part of the configuration.
type Options struct {
	// HTTPClient fetches the source table. Nil means a client with conf.HTTPTimeout.
	HTTPClient *http.Client
	// Transcriber derives readings when conf.DeriveReadings is set for Japanese.
	// Nil means a phonetic.KanaTranscriber created on demand.
	Transcriber phonetic.Transcriber
	// SearchModule forces the FTS module of a newly created search index.
	SearchModule string
}

// Report summarizes a finished run.
type Report struct {
	RunID      string
	Language   string
	Downloaded bool
	Sanitize   dictionary.SanitizeStats
	Enriched   int
	Inserted   int
	Indexed    int64
	// Skipped is set when the store already held words of Language
	// and nothing was written.
	Skipped  bool
	Duration time.Duration
}

// Run executes one build described by conf.
// Any error aborts the run. Store writes happen in a single transaction,
// so a failed run leaves the store as it was.
func Run(ctx context.Context, conf *config.Conf, opts Options) (report *Report, err error) {
	t0 := time.Now()
	report = &Report{RunID: uuid.New().String(), Language: conf.Language}
	logger := log.With().Str("runId", report.RunID).Str("lang", conf.Language).Logger()
	defer func() {
		report.Duration = time.Since(t0)
		metrics.RunDuration.Observe(report.Duration.Seconds())
		switch {
		case err != nil:
			metrics.RunsTotal.WithLabelValues("failed").Inc()
		case report.Skipped:
			metrics.RunsTotal.WithLabelValues("skipped").Inc()
		default:
			metrics.RunsTotal.WithLabelValues("ok").Inc()
		}
	}()

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: conf.HTTPTimeout()}
	}
	report.Downloaded, err = dictionary.EnsureSource(ctx, client, conf.SourceURL, conf.CachePath)
	if err != nil {
		return report, err
	}
	if report.Downloaded {
		metrics.SourceDownloadsTotal.Inc()
	}

	table, err := dictionary.LoadTable(conf.CachePath)
	if err != nil {
		return report, err
	}
	metrics.RowsTotal.WithLabelValues(metrics.StageRead).Add(float64(len(table.Rows)))
	logger.Info().Int("rows", len(table.Rows)).Strs("header", table.Header).Msg("source table read")

	reconciled, err := dictionary.Reconcile(table, conf.Language)
	if err != nil {
		return report, err
	}
	rows, stats := dictionary.Sanitize(reconciled)
	report.Sanitize = stats
	metrics.RowsTotal.WithLabelValues(metrics.StageSanitized).Add(float64(stats.Output))
	logger.Info().
		Int("input", stats.Input).
		Int("droppedEmptyLemma", stats.DroppedEmptyLemma).
		Int("droppedDuplicate", stats.DroppedDuplicate).
		Int("filledPhonetic", stats.FilledPhonetic).
		Int("filledFrequency", stats.FilledFrequency).
		Int("output", stats.Output).
		Msg("rows sanitized")

	if conf.DeriveReadings && conf.IsJapanese() {
		tr := opts.Transcriber
		if tr == nil {
			if tr, err = phonetic.NewKanaTranscriber(); err != nil {
				return report, fmt.Errorf("failed to create transcriber: %w", err)
			}
		}
		report.Enriched = phonetic.Fill(rows, tr)
		metrics.RowsTotal.WithLabelValues(metrics.StageEnriched).Add(float64(report.Enriched))
		logger.Info().Int("enriched", report.Enriched).Msg("readings derived")
	}

	conn, err := db.Open(conf.DBPath, false)
	if err != nil {
		return report, err
	}
	defer conn.Close()
	schemaOpts := db.SchemaOptions{JournalMode: conf.JournalMode, SearchModule: opts.SearchModule}
	if err := db.EnsureSchema(ctx, conn, schemaOpts); err != nil {
		return report, err
	}

	res, err := Load(ctx, conn, conf.Language, rows)
	if err != nil {
		return report, err
	}
	report.Inserted, report.Indexed, report.Skipped = res.Inserted, res.Indexed, res.Skipped
	if report.Skipped {
		logger.Warn().Str("db", conf.DBPath).Msg("store already holds this language, nothing loaded")
		return report, nil
	}
	metrics.RowsTotal.WithLabelValues(metrics.StageInserted).Add(float64(report.Inserted))
	metrics.RowsTotal.WithLabelValues(metrics.StageIndexed).Add(float64(report.Indexed))
	logger.Info().Int("inserted", report.Inserted).Int64("indexed", report.Indexed).Msg("store loaded")
	return report, nil
}

// LoadResult tells what Load wrote.
type LoadResult struct {
	Inserted int
	Indexed  int64
	Skipped  bool
}

// Load appends rows as words of lang and rebuilds the search index of lang,
// all in one transaction. When the store already holds words of lang
// nothing is written and the result is marked as skipped.
func Load(ctx context.Context, conn *sql.DB, lang string, rows []dictionary.Row) (LoadResult, error) {
	var res LoadResult
	err := db.RunInTx(ctx, conn, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := db.CountWords(ctx, tx, lang)
		if err != nil {
			return fmt.Errorf("failed to count existing words: %w", err)
		}
		if existing > 0 {
			res.Skipped = true
			return nil
		}

		words := make([]db.Word, len(rows))
		for i, row := range rows {
			words[i] = db.Word{
				Language:  lang,
				Lemma:     row.Lemma.String,
				Phonetic:  row.Phonetic.String,
				Frequency: row.Frequency.Float64,
			}
		}
		if res.Inserted, err = db.InsertWords(ctx, tx, words); err != nil {
			return err
		}
		if res.Indexed, err = db.RebuildSearchIndex(ctx, tx, lang); err != nil {
			return err
		}
		stored, err := db.CountWords(ctx, tx, lang)
		if err != nil {
			return err
		}
		if stored != res.Indexed {
			return fmt.Errorf("search index out of sync for %s: %d words, %d index entries", lang, stored, res.Indexed)
		}
		return nil
	})
	if err != nil {
		return LoadResult{}, err
	}
	return res, nil
}
