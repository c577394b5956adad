package detector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/logger"
)

const (
	cacheExpiration      = 30 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
)

// Session keeps a predictor loaded across interactive commands and caches
// verdicts by file content. A cached verdict is reused only while the run
// parameters that produced it are unchanged.
type Session struct {
	predictor Predictor
	cache     *gocache.Cache

	tta       bool
	batchSize int
	workers   int
	override  *float64
}

// SessionInfo is a snapshot of the mutable session state.
type SessionInfo struct {
	Models    []ModelInfo
	TTA       bool
	BatchSize int
	Workers   int
}

// NewSession wraps a predictor with the initial run parameters from the
// settings.
func NewSession(p Predictor, settings *conf.Settings) *Session {
	return &Session{
		predictor: p,
		cache:     gocache.New(cacheExpiration, cacheCleanupInterval),
		tta:       settings.Detector.TTA.Enabled,
		batchSize: settings.Detector.BatchSize,
		workers:   settings.Detector.Workers,
		override:  settings.ThresholdOverride(),
	}
}

// ToggleTTA flips test-time augmentation and returns the new state.
func (s *Session) ToggleTTA() bool {
	s.tta = !s.tta
	return s.tta
}

// TTA reports whether test-time augmentation is active.
func (s *Session) TTA() bool { return s.tta }

// SetBatchSize updates the batch size.
func (s *Session) SetBatchSize(n int) error {
	if n <= 0 {
		return errors.Newf("batch size must be positive, got %d", n).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}
	s.batchSize = n
	return nil
}

// BatchSize returns the current batch size.
func (s *Session) BatchSize() int { return s.batchSize }

// SetWorkers updates the worker count.
func (s *Session) SetWorkers(n int) error {
	if n < 0 {
		return errors.Newf("workers must not be negative, got %d", n).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}
	s.workers = n
	return nil
}

// Workers returns the current worker count.
func (s *Session) Workers() int { return s.workers }

// DisplayThreshold returns the session's global decision threshold for
// display, nil when the ensemble decides per model.
func (s *Session) DisplayThreshold() *float64 {
	return DisplayThreshold(s.predictor, s.override)
}

// Info returns the loaded models and current run parameters.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Models:    s.predictor.Describe(),
		TTA:       s.tta,
		BatchSize: s.batchSize,
		Workers:   s.workers,
	}
}

// options builds the predictor options from the session state.
func (s *Session) options(progress ProgressFunc) PredictOptions {
	return PredictOptions{
		UseTTA:    s.tta,
		Override:  s.override,
		BatchSize: s.batchSize,
		Workers:   s.workers,
		Progress:  progress,
	}
}

// fingerprint identifies the run parameters a cached verdict depends on.
func (s *Session) fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tta=%v;batch=%d", s.tta, s.batchSize)
	if s.override != nil {
		fmt.Fprintf(&b, ";override=%g", *s.override)
	}

	names := make([]string, 0)
	for _, info := range s.predictor.Describe() {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	fmt.Fprintf(&b, ";models=%s", strings.Join(names, ","))
	return b.String()
}

// cacheKey hashes the file content so renamed or touched but unchanged
// files still hit.
func (s *Session) cacheKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)) + "|" + s.fingerprint(), nil
}

// Classify scores the given images, serving unchanged files from the cache.
// Predictions are returned in input order with undecodable images removed.
// A path given more than once is scored once and every occurrence receives
// the verdict.
func (s *Session) Classify(ctx context.Context, paths []string, progress ProgressFunc) (*PredictResult, error) {
	type slot struct {
		key    string
		cached *Prediction
	}

	slots := make([]slot, len(paths))
	var uncached []string
	uncachedAt := make(map[string][]int)

	markUncached := func(path string, i int) {
		if len(uncachedAt[path]) == 0 {
			uncached = append(uncached, path)
		}
		uncachedAt[path] = append(uncachedAt[path], i)
	}

	for i, path := range paths {
		key, err := s.cacheKey(path)
		if err != nil {
			// Unreadable files surface through the runner's skip path.
			markUncached(path, i)
			continue
		}
		slots[i].key = key

		if entry, ok := s.cache.Get(key); ok {
			pred := entry.(Prediction)
			pred.Path = path
			slots[i].cached = &pred
			continue
		}
		markUncached(path, i)
	}

	fresh := make(map[int]Prediction)
	var summarySkipped []string
	if len(uncached) > 0 {
		run, err := s.predictor.Predict(ctx, uncached, s.options(nil))
		if err != nil {
			return nil, err
		}
		summarySkipped = run.Summary.Skipped

		for _, pred := range run.Predictions {
			for _, idx := range uncachedAt[pred.Path] {
				fresh[idx] = pred
				if key := slots[idx].key; key != "" {
					s.cache.Set(key, pred, gocache.DefaultExpiration)
				}
			}
		}
	}

	result := &PredictResult{Summary: Summary{Skipped: summarySkipped}}
	hits := 0
	for i := range paths {
		var pred Prediction
		switch {
		case slots[i].cached != nil:
			pred = *slots[i].cached
			hits++
		default:
			p, ok := fresh[i]
			if !ok {
				continue // skipped by the runner
			}
			pred = p
		}

		result.Predictions = append(result.Predictions, pred)
		if pred.Label == LabelFake {
			result.Summary.Fake++
		} else {
			result.Summary.Real++
		}
		if progress != nil {
			progress(pred)
		}
	}

	if hits > 0 {
		getLogger().Debug("served verdicts from cache", logger.Int("hits", hits))
	}
	return result, nil
}

// Evaluate runs a labeled test directory with the session parameters. The
// cache is bypassed so the metrics always reflect a full run.
func (s *Session) Evaluate(ctx context.Context, testDir string, progress ProgressFunc) (*EvalResult, error) {
	return Evaluate(ctx, s.predictor, testDir, s.options(progress))
}

// Close releases the predictor.
func (s *Session) Close() error {
	return s.predictor.Close()
}
