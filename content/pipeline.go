// Package content runs the ordered save steps for every entity: validate,
// resolve the slug, persist, then refresh the image derivative when the
// stored image changed.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressroom/images"
	"pressroom/logger"
	"pressroom/metrics"
	"pressroom/slug"
)

// SlugSuffixLength is the random suffix length used for every entity.
const SlugSuffixLength = 4

var (
	ErrNotFound        = errors.New("record not found")
	ErrSiteSetupExists = errors.New("a site setup already exists")

	// ErrDerivative is returned when the record was committed but the image
	// derivative could not be produced. It wraps images.ErrProcessing.
	ErrDerivative = errors.New("image derivative refresh failed")
)

// State is how far a save got.
type State int

const (
	Unsaved State = iota
	SlugResolved
	Persisted
	DerivativeRefreshed
)

func (s State) String() string {
	switch s {
	case Unsaved:
		return "UNSAVED"
	case SlugResolved:
		return "SLUG_RESOLVED"
	case Persisted:
		return "PERSISTED"
	case DerivativeRefreshed:
		return "DERIVATIVE_REFRESHED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome reports the final state of a save. Resize is set only when the
// derivative step ran.
type Outcome struct {
	State  State
	Resize *images.Result
}

// ValidationError carries per-field messages; nothing was written.
type ValidationError struct {
	Entity string
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return e.Entity + ": " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Fields
}

// Upload is a new file for an entity's image field.
type Upload struct {
	Filename string
	Body     io.Reader
}

// FileStore stores uploads and hands back the stored media name.
type FileStore interface {
	Save(dir, filename string, src io.Reader) (string, error)
	Delete(name string) error
}

// Resizer produces the derivative of a stored image in place.
type Resizer interface {
	Resize(name string, width int, optimize bool, quality int) (images.Result, error)
}

type derivative struct {
	dir      string
	width    int
	optimize bool
	quality  int
}

var (
	coverDerivative      = derivative{images.PostCoverDir, images.CoverWidth, true, images.DefaultQuality}
	attachmentDerivative = derivative{images.AttachmentDir, images.AttachmentWidth, true, images.DefaultQuality}
	faviconDerivative    = derivative{images.FaviconDir, images.FaviconWidth, true, 60}
)

type Pipeline struct {
	db      *gorm.DB
	files   FileStore
	resizer Resizer
	hooks   []func()
}

func NewPipeline(db *gorm.DB, files FileStore, resizer Resizer) *Pipeline {
	return &Pipeline{db: db, files: files, resizer: resizer}
}

// OnSaved registers fn to run after every committed save or delete.
func (p *Pipeline) OnSaved(fn func()) {
	p.hooks = append(p.hooks, fn)
}

func (p *Pipeline) changed() {
	for _, fn := range p.hooks {
		fn()
	}
}

func (p *Pipeline) validate(entity string, v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	metrics.EntitySaves.WithLabelValues(entity, "invalid").Inc()

	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Entity: entity, Fields: fields}
	}
	return err
}

func fieldError(field, code, message string) validation.Errors {
	return validation.Errors{field: validation.NewError(code, message)}
}

// checkSlugFree rejects an explicit slug already used by another row.
func (p *Pipeline) checkSlugFree(ctx context.Context, entity string, model interface{}, id uint, value string) error {
	if value == "" {
		return nil
	}
	var n int64
	if err := p.db.WithContext(ctx).Model(model).Where("slug = ? AND id <> ?", value, id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		metrics.EntitySaves.WithLabelValues(entity, "invalid").Inc()
		return &ValidationError{Entity: entity, Fields: fieldError("slug", "slug_taken", "slug is already in use")}
	}
	return nil
}

// resolveSlug fills a blank slug from source and never touches a set one.
func resolveSlug(entity string, s *string, source string) {
	if *s != "" {
		return
	}
	*s = slug.SlugifyNew(source, SlugSuffixLength)
	metrics.SlugsGenerated.WithLabelValues(entity).Inc()
}

// persist stores a pending upload into field and runs write in a
// transaction. A stored file whose row never committed is removed again.
func (p *Pipeline) persist(ctx context.Context, entity string, d derivative, field *string, up *Upload, write func(tx *gorm.DB) error) error {
	var stored string
	if up != nil {
		name, err := p.files.Save(d.dir, up.Filename, up.Body)
		if err != nil {
			metrics.EntitySaves.WithLabelValues(entity, "error").Inc()
			return fmt.Errorf("store %s upload: %w", entity, err)
		}
		stored = name
		*field = name
	}

	if err := p.db.WithContext(ctx).Transaction(write); err != nil {
		if stored != "" {
			_ = p.files.Delete(stored)
		}
		metrics.EntitySaves.WithLabelValues(entity, "error").Inc()
		return fmt.Errorf("save %s: %w", entity, err)
	}

	metrics.EntitySaves.WithLabelValues(entity, "ok").Inc()
	p.changed()
	return nil
}

// refreshDerivative resizes the image when its stored name changed across
// the write. An empty name after the write means no image.
func (p *Pipeline) refreshDerivative(entity string, id uint, d derivative, before, after string, out *Outcome) error {
	if after == "" || before == after {
		metrics.Derivatives.WithLabelValues(entity, "skipped").Inc()
		return nil
	}

	start := time.Now()
	res, err := p.resizer.Resize(after, d.width, d.optimize, d.quality)
	metrics.DerivativeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Derivatives.WithLabelValues(entity, "failed").Inc()
		logger.Log.Error("image derivative failed, record kept",
			zap.String("entity", entity),
			zap.Uint("id", id),
			zap.String("file", after),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %d: %w", ErrDerivative, entity, id, err)
	}

	outcome := "unchanged"
	if res.Resized {
		outcome = "resized"
	}
	metrics.Derivatives.WithLabelValues(entity, outcome).Inc()
	out.State = DerivativeRefreshed
	out.Resize = &res
	return nil
}
