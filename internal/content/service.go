// Package content manages the public site's blog posts, events and partners.
package content

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/models"
)

// Store persists one kind of content document.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, doc T) error
	Replace(ctx context.Context, doc T) error
	Delete(ctx context.Context, id string) error
}

// ValidationError lists the required fields missing from a document.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Doc constrains T so that *T carries document identity and timestamps.
type Doc[T any] interface {
	*T
	models.Document
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Service wraps a Store with identifiers, timestamps, required-field checks
// and a cached list.
type Service[T any, P Doc[T]] struct {
	kind  string
	store Store[T]
	cache *listCache[T]
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service for the named kind. Lists are cached for ttl.
func NewService[T any, P Doc[T]](kind string, store Store[T], ttl time.Duration) *Service[T, P] {
	return &Service[T, P]{
		kind:  kind,
		store: store,
		cache: newListCache[T](ttl),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Kind returns the collection name the service manages.
func (s *Service[T, P]) Kind() string {
	return s.kind
}

// List returns every document, from cache when fresh.
func (s *Service[T, P]) List(ctx context.Context) ([]T, error) {
	now := s.now()
	items, gen, ok := s.cache.get(now)
	if ok {
		return items, nil
	}

	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind, err)
	}
	if items == nil {
		items = []T{}
	}
	s.cache.put(items, gen, now)
	return items, nil
}

// Get returns a single document.
func (s *Service[T, P]) Get(ctx context.Context, id string) (T, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s %s: %w", s.kind, id, err)
	}
	return doc, nil
}

// Create assigns an id and timestamps, then stores doc.
func (s *Service[T, P]) Create(ctx context.Context, doc T) (T, error) {
	var zero T
	if err := check(doc); err != nil {
		return zero, err
	}

	now := s.now()
	p := P(&doc)
	p.SetDocumentID(s.newID())
	p.Stamp(now, now)

	if err := s.store.Insert(ctx, doc); err != nil {
		return zero, fmt.Errorf("create %s: %w", s.kind, err)
	}
	s.cache.invalidate()
	logging.FromContext(ctx).Info("content created", "kind", s.kind, "id", p.DocumentID())
	return doc, nil
}

// Update replaces the document stored under id, keeping its creation time.
func (s *Service[T, P]) Update(ctx context.Context, id string, doc T) (T, error) {
	var zero T
	if err := check(doc); err != nil {
		return zero, err
	}

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", s.kind, id, err)
	}

	p := P(&doc)
	p.SetDocumentID(id)
	p.Stamp(P(&existing).CreatedTime(), s.now())

	if err := s.store.Replace(ctx, doc); err != nil {
		return zero, fmt.Errorf("update %s %s: %w", s.kind, id, err)
	}
	s.cache.invalidate()
	logging.FromContext(ctx).Info("content updated", "kind", s.kind, "id", id)
	return doc, nil
}

// Delete removes the document stored under id.
func (s *Service[T, P]) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", s.kind, id, err)
	}
	s.cache.invalidate()
	logging.FromContext(ctx).Info("content deleted", "kind", s.kind, "id", id)
	return nil
}

func check(doc any) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
	}
	return &ValidationError{Messages: messages}
}
