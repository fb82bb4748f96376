// Package form holds the vehicle submission form: its fields, the staged
// photos and the submit lifecycle.
package form

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/api"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/staging"
	"github.com/VinMeld/autopost/internal/transport"
	"github.com/VinMeld/autopost/internal/validation"
)

const (
	// MsgSubmitFailed is shown when the server gives no reason.
	MsgSubmitFailed = "Failed to submit vehicle."
	// MsgSubmitted is shown after a successful submission.
	MsgSubmitted = "Vehicle submitted successfully!"
)

var (
	ErrUnknownField       = errors.New("unknown form field")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrClosed             = errors.New("form closed")
)

// DefaultCities seeds the city list.
var DefaultCities = []string{"Lahore", "Karachi"}

// Status is the phase of the submit lifecycle.
type Status int

const (
	Idle Status = iota
	Validating
	Submitting
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the status shown to the user. Message is set for Success and Error.
type Result struct {
	Status  Status
	Message string
}

// Sender performs API requests.
type Sender interface {
	Send(ctx context.Context, method, path string, body api.Body) (*api.Response, error)
}

// Fields are the scalar inputs of the form.
type Fields struct {
	Model string
	Price string
	Phone string
	City  string
}

// Controller drives one mounted submission form.
type Controller struct {
	mu         sync.Mutex
	fields     Fields
	phoneError string
	cities     []string
	images     *staging.Manager
	defaultMax int
	sender     Sender
	validate   *validator.Validate
	status     Result
	onStatus   func(Result)
	inFlight   bool
	cancel     context.CancelFunc
	closed     bool
	logger     *zap.Logger
}

// NewController creates a form that stages photos in images and submits
// through sender. cities seeds the city list; nil means DefaultCities.
func NewController(sender Sender, images *staging.Manager, cities []string, logger *zap.Logger) *Controller {
	if cities == nil {
		cities = DefaultCities
	}
	c := &Controller{
		images:     images,
		defaultMax: images.Max(),
		sender:     sender,
		logger:     logging.OrNop(logger),
	}
	for _, city := range cities {
		c.addCity(city)
	}
	c.validate = newValidator(c.hasCity)
	return c
}

// OnStatus registers fn to be called after every status change. fn runs
// outside the controller lock.
func (c *Controller) OnStatus(fn func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// Status returns the current status.
func (c *Controller) Status() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// setStatus records r and returns the callback to run once the lock is
// released.
func (c *Controller) setStatus(r Result) func() {
	c.status = r
	fn := c.onStatus
	if fn == nil {
		return func() {}
	}
	return func() { fn(r) }
}

// Fields returns the current field values.
func (c *Controller) Fields() Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Images returns the staging manager backing the form.
func (c *Controller) Images() *staging.Manager {
	return c.images
}

// UpdateField sets one of model, price, phone or city. Setting phone
// refreshes the inline phone message.
func (c *Controller) UpdateField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	switch name {
	case "model":
		c.fields.Model = value
	case "price":
		c.fields.Price = value
	case "phone":
		c.fields.Phone = value
		c.phoneError = ""
		if !ValidPhone(value) {
			c.phoneError = msgInvalidPhone
		}
	case "city":
		c.fields.City = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// PhoneError returns the inline phone message, empty when the phone is valid.
func (c *Controller) PhoneError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phoneError
}

// CityList returns the selectable cities in order.
func (c *Controller) CityList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cities...)
}

// AddCity appends name to the city list. Blank names and exact duplicates
// are ignored. It reports whether the list changed.
func (c *Controller) AddCity(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addCity(name)
}

func (c *Controller) addCity(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || c.hasCity(name) {
		return false
	}
	c.cities = append(c.cities, name)
	return true
}

func (c *Controller) hasCity(name string) bool {
	for _, city := range c.cities {
		if city == name {
			return true
		}
	}
	return false
}

// SetMaxImages changes how many photos may be staged.
func (c *Controller) SetMaxImages(n int) error {
	return c.images.SetMax(n)
}

// Validate checks the form without submitting it. The returned error is a
// validation.Errors holding every failed rule.
func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.check()
}

func (c *Controller) check() error {
	return check(c.validate, submission{
		Model:  c.fields.Model,
		Price:  c.fields.Price,
		Phone:  c.fields.Phone,
		City:   c.fields.City,
		Images: c.images.Len(),
	})
}

// body builds the request from the current fields and staged images. It
// also returns the previews of the images it carries.
func (c *Controller) body() (api.MultipartBody, []staging.Handle) {
	body := api.MultipartBody{
		Fields: []api.Field{
			{Name: "model", Value: c.fields.Model},
			{Name: "price", Value: c.fields.Price},
			{Name: "phone", Value: c.fields.Phone},
			{Name: "city", Value: c.fields.City},
		},
	}
	images := c.images.Images()
	sent := make([]staging.Handle, 0, len(images))
	for _, img := range images {
		body.Files = append(body.Files, api.FilePart{
			FieldName:   "images",
			FileName:    img.File.Name,
			ContentType: img.File.ContentType,
			Data:        img.File.Data,
		})
		sent = append(sent, img.Preview)
	}
	return body, sent
}

// Submit validates the form and posts it. Validation failures never reach
// the network. On success the fields and the photos that were sent are
// reset; on failure they are kept so the user can retry.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, ErrClosed
	}
	if c.inFlight {
		r := c.status
		c.mu.Unlock()
		return r, ErrSubmissionInFlight
	}
	c.inFlight = true
	notify := c.setStatus(Result{Status: Validating})
	c.mu.Unlock()
	notify()

	c.mu.Lock()
	if c.closed {
		c.inFlight = false
		c.mu.Unlock()
		return Result{}, ErrClosed
	}
	if err := c.check(); err != nil {
		c.inFlight = false
		r := Result{Status: Error, Message: firstMessage(err)}
		notify := c.setStatus(r)
		c.mu.Unlock()
		notify()
		return r, err
	}

	body, sent := c.body()
	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	notify = c.setStatus(Result{Status: Submitting})
	c.mu.Unlock()
	notify()

	_, err := c.sender.Send(subCtx, http.MethodPost, transport.VehiclePath, body)
	canceled := subCtx.Err() != nil
	cancel()

	c.mu.Lock()
	c.inFlight = false
	c.cancel = nil
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("submission finished after close, discarding result")
		return Result{}, ErrClosed
	}
	if err != nil && canceled {
		notify := c.setStatus(Result{Status: Idle})
		c.mu.Unlock()
		notify()
		return Result{Status: Idle}, context.Cause(subCtx)
	}

	var r Result
	if err != nil {
		msg := api.ServerMessage(err)
		if msg == "" {
			msg = MsgSubmitFailed
		}
		c.logger.Warn("vehicle submission failed", zap.Error(err))
		r = Result{Status: Error, Message: msg}
	} else {
		c.logger.Info("vehicle submitted", zap.String("model", c.fields.Model))
		c.fields = Fields{}
		c.phoneError = ""
		// photos staged while the request was in flight stay for the next listing
		c.images.Discard(sent)
		if err := c.images.SetMax(c.defaultMax); err != nil {
			c.logger.Warn("failed to reset max images", zap.Error(err))
		}
		r = Result{Status: Success, Message: MsgSubmitted}
	}
	notify = c.setStatus(r)
	c.mu.Unlock()
	notify()
	return r, err
}

// Close unmounts the form: an in-flight submission is canceled, staged
// photos are released and later calls fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.images.Close()
}

func firstMessage(err error) string {
	var errs validation.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		return errs[0].Error()
	}
	return err.Error()
}
