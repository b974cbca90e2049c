package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/repository"
)

var (
	ErrStationNotFound      = repository.ErrStationNotFound
	ErrUserNotFound         = repository.ErrUserNotFound
	ErrRequestNotFound      = repository.ErrRequestNotFound
	ErrNotificationNotFound = repository.ErrNotificationNotFound

	// ErrRequestDecided is returned when approving or rejecting a request
	// that already left the pending state.
	ErrRequestDecided = errors.New("station request: already decided")
	// ErrStationCodeExhausted is returned when every drawn station code
	// collided with an existing one.
	ErrStationCodeExhausted = errors.New("station: could not draw a unique station code")
)

// Broadcaster pushes a stored notification to live subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, n models.AppNotification) error
}

// EventPublisher emits integration events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Random is the randomness used for codes and map placement.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int   { return rand.IntN(n) }
func (globalRandom) Float64() float64 { return rand.Float64() }

type options struct {
	now        func() time.Time
	newID      func() string
	random     Random
	staleAfter time.Duration
}

// Option customises service construction.
type Option func(*options)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides uuid.NewString for record ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithRandom overrides the package-level math/rand/v2 source.
func WithRandom(r Random) Option {
	return func(o *options) { o.random = r }
}

// WithStaleAfter sets how old a station status may get before its operator
// is reminded. Defaults to 24h.
func WithStaleAfter(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleAfter = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:        time.Now,
		newID:      uuid.NewString,
		random:     globalRandom{},
		staleAfter: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time { return o.now().UTC() }

// ValidationError lists offending input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = describeRule(fe)
	}
	return out
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "eqfield":
		return "must match " + strings.ToLower(fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag()
	}
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, models.AppNotification) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
