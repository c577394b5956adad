package detector

import (
	"context"
	"math"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/imagery"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// RunConfig holds the per-run inference parameters.
type RunConfig struct {
	ImageSize int
	BatchSize int
	Workers   int                 // decode and preprocess parallelism, 0 means synchronous
	Plan      []imagery.Transform // augmentation variants, empty means identity only
}

// RunResult maps every surviving image to one probability per model. Probs
// is indexed by the model's position in the runner, checkpoint stems are not
// unique across formats. Indices refers back to the caller's input slice,
// Skipped lists images that failed to decode.
type RunResult struct {
	Images  []string
	Indices []int
	Skipped []string
	Probs   [][]float64
}

// Runner drives batched inference over a set of models. Images are decoded
// and preprocessed by a bounded worker pool, model invocation stays
// sequential. The decode and tensor hooks exist for tests.
type Runner struct {
	models []*Model

	decode func(path string) (gocv.Mat, error)
	build  func(src gocv.Mat, t imagery.Transform) ([]float32, error)
}

// NewRunner creates a runner over the given models.
func NewRunner(models []*Model) *Runner {
	return &Runner{
		models: models,
		decode: imagery.ReadImage,
		build:  buildVariantTensor,
	}
}

func buildVariantTensor(src gocv.Mat, t imagery.Transform) ([]float32, error) {
	variant, err := imagery.Apply(src, t)
	if err != nil {
		return nil, err
	}
	defer variant.Close()
	return imagery.BuildTensor(variant, t.Size)
}

// Run scores all images with every model. Each image expands to one tensor
// per plan variant and the variant probabilities are averaged back into a
// single probability per image and model. A resource exhaustion error
// retries the whole run once at batch size 1.
func (r *Runner) Run(ctx context.Context, paths []string, cfg RunConfig) (*RunResult, error) {
	plan := cfg.Plan
	if len(plan) == 0 {
		plan = []imagery.Transform{imagery.Base(cfg.ImageSize)}
	}
	batchSize := max(1, cfg.BatchSize)
	workers := max(1, cfg.Workers)

	result := &RunResult{Probs: make([][]float64, len(r.models))}

	decoded, err := r.decodeAll(ctx, paths, workers, result)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range decoded {
			decoded[i].Close()
		}
	}()

	perVariant, err := r.score(ctx, decoded, plan, batchSize, workers)
	if err != nil && errors.IsResourceExhaustion(err) && batchSize > 1 {
		getLogger().Warn("inference ran out of resources, retrying",
			logger.Int("batch_size", batchSize),
			logger.Int("retry_batch_size", 1))
		perVariant, err = r.score(ctx, decoded, plan, 1, workers)
	}
	if err != nil {
		return nil, err
	}

	// Collapse the variant axis in probability space.
	variants := len(plan)
	for mi, probs := range perVariant {
		averaged := make([]float64, len(result.Images))
		for i := range averaged {
			averaged[i] = stat.Mean(probs[i*variants:(i+1)*variants], nil)
		}
		result.Probs[mi] = averaged
	}
	return result, nil
}

// decodeAll reads every image concurrently. Undecodable images are skipped
// with a warning so the variant count per surviving image stays uniform.
func (r *Runner) decodeAll(ctx context.Context, paths []string, workers int, result *RunResult) ([]gocv.Mat, error) {
	mats := make([]gocv.Mat, len(paths))
	decoded := make([]bool, len(paths))
	failed := make([]bool, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := r.decode(path)
			if err != nil {
				getLogger().Warn("skipping undecodable image",
					logger.String("path", path),
					logger.Error(err))
				failed[i] = true
				return nil
			}
			mats[i] = img
			decoded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for i := range mats {
			if decoded[i] {
				mats[i].Close()
			}
		}
		return nil, err
	}

	kept := make([]gocv.Mat, 0, len(paths))
	for i, path := range paths {
		if failed[i] {
			result.Skipped = append(result.Skipped, path)
			continue
		}
		result.Images = append(result.Images, path)
		result.Indices = append(result.Indices, i)
		kept = append(kept, mats[i])
	}
	return kept, nil
}

// score produces one probability per (image, variant) pair for every model,
// indexed by model position.
func (r *Runner) score(ctx context.Context, images []gocv.Mat, plan []imagery.Transform, batchSize, workers int) ([][]float64, error) {
	variants := len(plan)
	total := len(images) * variants
	itemLen := imagery.NumChannels * plan[0].Size * plan[0].Size

	perVariant := make([][]float64, len(r.models))
	for mi := range perVariant {
		perVariant[mi] = make([]float64, 0, total)
	}

	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items := min(batchSize, total-start)

		batch := Batch{
			Data:     make([]float32, items*itemLen),
			Items:    items,
			Channels: imagery.NumChannels,
			Size:     plan[0].Size,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for slot := 0; slot < items; slot++ {
			pair := start + slot
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				tensor, err := r.build(images[pair/variants], plan[pair%variants])
				if err != nil {
					return err
				}
				copy(batch.Data[slot*itemLen:(slot+1)*itemLen], tensor)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for mi, m := range r.models {
			logits, err := m.Score(batch)
			if err != nil {
				return nil, err
			}
			for _, logit := range logits {
				perVariant[mi] = append(perVariant[mi], sigmoid(logit))
			}
		}
	}
	return perVariant, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
