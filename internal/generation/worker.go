package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/internal/analytics/writer"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/metrics"
)

const (
	timedOutMessage   = "generation timed out"
	noMediaMessage    = "generation produced no media"
	thumbnailMimeType = "image/png"
)

var errInterrupted = errors.New("generation interrupted")

// Outcome is what the worker did with one job.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeSuperseded Outcome = "superseded"
)

type terminalStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
	Complete(ctx context.Context, id uuid.UUID, version int, done models.MediaItemCompletion) (bool, error)
	Fail(ctx context.Context, id uuid.UUID, version int, failed models.MediaItemFailure) (bool, error)
}

type jobClaimer interface {
	ClaimJob(ctx context.Context, jobID, worker string, ttl time.Duration) (bool, error)
	ReleaseJob(ctx context.Context, jobID string) error
}

type remoteGenerator interface {
	RewritePrompt(ctx context.Context, instruction, prompt string) (string, error)
	Submit(ctx context.Context, req genai.Request) (genai.Operation, error)
	Poll(ctx context.Context, op genai.Operation) (genai.Operation, error)
}

type objectStore interface {
	Get(ctx context.Context, uri string) ([]byte, error)
	Put(ctx context.Context, data []byte, path, contentType string) (string, error)
}

type thumbnailer interface {
	Generate(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

type eventRecorder interface {
	RecordGeneration(ctx context.Context, row writer.GenerationEventRow) error
}

type instructionSource interface {
	RewriteInstruction(video bool) string
}

// WorkerConfig carries the polling contract and output locations.
type WorkerConfig struct {
	PollInterval  time.Duration
	PollCeiling   time.Duration
	ClaimTTL      time.Duration
	PromptRewrite bool
	// OutputBase is the gs:// prefix generated media is written under.
	OutputBase string
	WorkerID   string
}

type WorkerDeps struct {
	Items        terminalStore
	Claims       jobClaimer
	Remote       remoteGenerator
	Store        objectStore
	Thumbnails   thumbnailer
	Instructions instructionSource
	Events       eventRecorder
	Metrics      *metrics.GenerationMetrics
	Logger       *logger.Logger
}

// Worker runs one generation job from claim to terminal write.
type Worker struct {
	WorkerDeps
	cfg   WorkerConfig
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWorker(deps WorkerDeps, cfg WorkerConfig) (*Worker, error) {
	switch {
	case deps.Items == nil:
		return nil, errors.New("media item store required")
	case deps.Claims == nil:
		return nil, errors.New("job claimer required")
	case deps.Remote == nil:
		return nil, errors.New("remote generator required")
	case deps.Store == nil:
		return nil, errors.New("object store required")
	case deps.Thumbnails == nil:
		return nil, errors.New("thumbnailer required")
	case deps.Logger == nil:
		return nil, errors.New("logger required")
	}
	if cfg.PollInterval <= 0 || cfg.PollCeiling < cfg.PollInterval {
		return nil, fmt.Errorf("invalid poll interval %s / ceiling %s", cfg.PollInterval, cfg.PollCeiling)
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = cfg.PollCeiling * 2
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = uuid.NewString()
	}
	return &Worker{WorkerDeps: deps, cfg: cfg, now: time.Now, sleep: sleepCtx}, nil
}

// Process runs job. A non-nil error means the message should be redelivered.
func (w *Worker) Process(ctx context.Context, job Job) (outcome Outcome, err error) {
	id := job.MediaItemID.String()
	ctx = w.Logger.WithMediaItemID(ctx, id)
	ctx = w.Logger.WithField(ctx, "job_attempt", job.Attempt)

	claimed, err := w.Claims.ClaimJob(ctx, id, w.cfg.WorkerID, w.cfg.ClaimTTL)
	if err != nil {
		return "", fmt.Errorf("claim job: %w", err)
	}
	if !claimed {
		w.Logger.Info(ctx, "job already claimed; skipping duplicate delivery")
		return OutcomeSkipped, nil
	}

	item, err := w.Items.FindByID(ctx, job.MediaItemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			w.Logger.Warn(ctx, "media item for job not found")
			return OutcomeSkipped, nil
		}
		w.release(ctx, id)
		return "", fmt.Errorf("load media item: %w", err)
	}
	if item.Status != enums.JobStatusProcessing {
		w.Logger.Info(ctx, "media item already terminal; skipping")
		return OutcomeSkipped, nil
	}

	started := w.now()
	defer func() {
		if r := recover(); r != nil {
			w.Logger.Error(ctx, "generation worker panic", fmt.Errorf("panic: %v", r))
			outcome, err = w.fail(ctx, item, job, started, fmt.Sprintf("internal error: %v", r))
		}
	}()

	result, runErr := w.run(ctx, item, job, started)
	if errors.Is(runErr, errInterrupted) {
		w.release(context.WithoutCancel(ctx), id)
		return "", runErr
	}
	if runErr != nil {
		return w.fail(ctx, item, job, started, failureMessage(runErr))
	}
	return w.complete(ctx, item, job, started, result)
}

type runResult struct {
	gcsURIs         []string
	thumbnailURIs   []string
	rewrittenPrompt string
}

func (w *Worker) run(ctx context.Context, item *models.MediaItem, job Job, started time.Time) (runResult, error) {
	deadline := w.deadline(item, started)
	if !w.now().Before(deadline) {
		return runResult{}, errors.New(timedOutMessage)
	}

	prompt := w.rewrite(ctx, item)

	req := genai.Request{
		Model:           item.Model,
		Prompt:          prompt,
		NegativePrompt:  item.NegativePrompt,
		NumMedia:        item.NumMedia,
		AspectRatio:     item.AspectRatio,
		AddWatermark:    item.AddWatermark,
		GenerateAudio:   item.GenerateAudio,
		DurationSeconds: item.DurationSeconds,
		Seed:            item.Seed,
		OutputURI:       w.outputURI(item.ID),
		EditMode:        job.EditMode,
		MaskMode:        job.MaskMode,
		MaskDilation:    job.MaskDilation,
	}
	for _, ref := range job.References {
		req.References = append(req.References, genai.Reference{URI: ref.URI, MimeType: ref.MimeType, Role: ref.Role})
	}

	op, err := w.Remote.Submit(ctx, req)
	if err != nil {
		return runResult{}, err
	}

	for !op.Done {
		if !w.now().Add(w.cfg.PollInterval).Before(deadline) {
			return runResult{}, errors.New(timedOutMessage)
		}
		if err := w.sleep(ctx, w.cfg.PollInterval); err != nil {
			return runResult{}, errInterrupted
		}
		w.Logger.Debug(w.Logger.WithField(ctx, "operation", op.Name), "polling generation operation")
		op, err = w.Remote.Poll(ctx, op)
		if err != nil {
			return runResult{}, fmt.Errorf("poll operation: %w", err)
		}
	}

	if op.Error != "" {
		return runResult{}, errors.New(op.Error)
	}
	if len(op.Artifacts) == 0 {
		return runResult{}, errors.New(noMediaMessage)
	}

	artifacts, err := w.persistInline(ctx, item.ID, op.Artifacts)
	if err != nil {
		return runResult{}, err
	}
	uris := make([]string, len(artifacts))
	for i, a := range artifacts {
		uris[i] = a.URI
	}
	rewritten := ""
	if prompt != item.Prompt {
		rewritten = prompt
	}
	return runResult{
		gcsURIs:         uris,
		thumbnailURIs:   w.thumbnails(ctx, item.ID, artifacts, item.MimeType),
		rewrittenPrompt: rewritten,
	}, nil
}

// deadline bounds the whole job by the poll ceiling, counted from the
// placeholder's creation like the stale-job reaper does.
func (w *Worker) deadline(item *models.MediaItem, started time.Time) time.Time {
	if item.CreatedAt.IsZero() {
		return started.Add(w.cfg.PollCeiling)
	}
	return item.CreatedAt.Add(w.cfg.PollCeiling)
}

// rewrite falls back to the composed prompt when rewriting is off or fails.
// Edit, try-on and recontext prompts are sent as written.
func (w *Worker) rewrite(ctx context.Context, item *models.MediaItem) string {
	if !item.Model.RewritesPrompt() {
		return item.Prompt
	}
	composed := composePrompt(item)
	if !w.cfg.PromptRewrite || w.Instructions == nil {
		return composed
	}
	out, err := w.Remote.RewritePrompt(ctx, w.Instructions.RewriteInstruction(item.Model.IsVideo()), composed)
	if err != nil {
		w.Logger.Warn(ctx, "prompt rewrite failed; using original prompt: "+err.Error())
		return composed
	}
	return out
}

// persistInline stores artifacts the model returned as bytes under
// generated/{id}/ so every result ends up with a URI.
func (w *Worker) persistInline(ctx context.Context, id uuid.UUID, artifacts []genai.Artifact) ([]genai.Artifact, error) {
	out := make([]genai.Artifact, len(artifacts))
	for i, a := range artifacts {
		out[i] = a
		if a.URI != "" || a.Data == nil {
			continue
		}
		mime := enums.MimeType(a.MimeType)
		ext := mime.Extension()
		if ext == "" {
			mime, ext = enums.MimeTypePNG, enums.MimeTypePNG.Extension()
		}
		uri, err := w.Store.Put(ctx, a.Data, fmt.Sprintf("generated/%s/%d%s", id, i, ext), mime.String())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store generated media")
		}
		out[i].URI = uri
	}
	return out, nil
}

// thumbnails renders one thumbnail per artifact concurrently. Failed slots
// are dropped; order follows the artifacts.
func (w *Worker) thumbnails(ctx context.Context, id uuid.UUID, artifacts []genai.Artifact, fallback enums.MimeType) []string {
	slots := make([]string, len(artifacts))
	var g errgroup.Group
	g.SetLimit(4)
	for i, a := range artifacts {
		g.Go(func() error {
			uri, err := w.thumbnail(ctx, id, i, a, fallback)
			if err != nil {
				w.Metrics.IncThumbnail(false)
				logCtx := w.Logger.WithFields(ctx, map[string]any{"artifact_index": i, "gcs_uri": a.URI})
				w.Logger.Warn(logCtx, "thumbnail failed; continuing without it: "+err.Error())
				return nil
			}
			w.Metrics.IncThumbnail(true)
			slots[i] = uri
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(slots))
	for _, uri := range slots {
		if uri != "" {
			out = append(out, uri)
		}
	}
	return out
}

func (w *Worker) thumbnail(ctx context.Context, id uuid.UUID, index int, a genai.Artifact, fallback enums.MimeType) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("thumbnail panic: %v", r)
		}
	}()
	mime := a.MimeType
	if mime == "" {
		mime = fallback.String()
	}
	data := a.Data
	if data == nil {
		if data, err = w.Store.Get(ctx, a.URI); err != nil {
			return "", fmt.Errorf("download artifact: %w", err)
		}
	}
	thumb, err := w.Thumbnails.Generate(ctx, data, mime)
	if err != nil {
		return "", fmt.Errorf("render thumbnail: %w", err)
	}
	return w.Store.Put(ctx, thumb, fmt.Sprintf("thumbnails/%s/%d.png", id, index), thumbnailMimeType)
}

func (w *Worker) complete(ctx context.Context, item *models.MediaItem, job Job, started time.Time, res runResult) (Outcome, error) {
	elapsed := w.now().Sub(started)
	ok, err := w.Items.Complete(ctx, item.ID, item.Version, models.MediaItemCompletion{
		GCSURIs:         res.gcsURIs,
		ThumbnailURIs:   res.thumbnailURIs,
		RewrittenPrompt: res.rewrittenPrompt,
		GenerationTime:  elapsed.Seconds(),
	})
	if err != nil {
		w.Logger.Error(ctx, "terminal write failed", err)
		return "", err
	}
	if !ok {
		w.Logger.Warn(ctx, "media item left processing before completion was written")
		return OutcomeSuperseded, nil
	}
	w.finished(ctx, item, job, enums.JobStatusCompleted, elapsed, len(res.gcsURIs), len(res.thumbnailURIs), res.rewrittenPrompt != "", "")
	w.Logger.Info(w.Logger.WithFields(ctx, map[string]any{
		"generation_time_seconds": elapsed.Seconds(),
		"media_generated":         len(res.gcsURIs),
	}), "generation job completed")
	return OutcomeCompleted, nil
}

func (w *Worker) fail(ctx context.Context, item *models.MediaItem, job Job, started time.Time, message string) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	elapsed := w.now().Sub(started)
	ok, err := w.Items.Fail(ctx, item.ID, item.Version, models.MediaItemFailure{
		ErrorMessage:   message,
		GenerationTime: elapsed.Seconds(),
	})
	if err != nil {
		w.Logger.Error(ctx, "terminal write failed", err)
		return "", err
	}
	if !ok {
		w.Logger.Warn(ctx, "media item left processing before failure was written")
		return OutcomeSuperseded, nil
	}
	w.finished(ctx, item, job, enums.JobStatusFailed, elapsed, 0, 0, false, message)
	w.Logger.Error(ctx, "generation job failed", errors.New(message))
	return OutcomeFailed, nil
}

func (w *Worker) finished(ctx context.Context, item *models.MediaItem, job Job, status enums.JobStatus, elapsed time.Duration, produced, thumbs int, rewritten bool, message string) {
	w.Metrics.ObserveFinished(job.Kind.String(), status.String(), elapsed)
	if w.Events == nil {
		return
	}
	row := writer.GenerationEventRow{
		EventID:         uuid.NewString(),
		OccurredAt:      w.now().UTC(),
		MediaItemID:     item.ID.String(),
		WorkspaceID:     item.WorkspaceID.String(),
		UserID:          item.UserID.String(),
		Model:           item.Model.String(),
		MimeType:        item.MimeType.String(),
		Status:          status.String(),
		NumRequested:    int64(item.NumMedia),
		NumProduced:     int64(produced),
		NumThumbnails:   int64(thumbs),
		GenerationTime:  elapsed.Seconds(),
		PromptRewritten: rewritten,
	}
	if message != "" {
		row.ErrorMessage.StringVal, row.ErrorMessage.Valid = message, true
	}
	if err := w.Events.RecordGeneration(ctx, row); err != nil {
		w.Logger.Warn(ctx, "record generation event failed: "+err.Error())
	}
}

func (w *Worker) release(ctx context.Context, id string) {
	if err := w.Claims.ReleaseJob(ctx, id); err != nil {
		w.Logger.Warn(ctx, "release job claim failed: "+err.Error())
	}
}

func (w *Worker) outputURI(id uuid.UUID) string {
	if w.cfg.OutputBase == "" {
		return ""
	}
	return strings.TrimRight(w.cfg.OutputBase, "/") + "/" + id.String() + "/"
}

func composePrompt(item *models.MediaItem) string {
	var mods []string
	if item.Style != nil {
		mods = append(mods, "Style: "+item.Style.String())
	}
	if item.Lighting != nil {
		mods = append(mods, "Lighting: "+item.Lighting.String())
	}
	if item.ColorAndTone != nil {
		mods = append(mods, "Color and tone: "+item.ColorAndTone.String())
	}
	if item.Composition != nil {
		mods = append(mods, "Composition: "+item.Composition.String())
	}
	if len(mods) == 0 {
		return item.Prompt
	}
	return item.Prompt + "\n" + strings.Join(mods, "\n")
}

func failureMessage(err error) string {
	if e := pkgerrors.As(err); e != nil {
		return e.Message()
	}
	return err.Error()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
