package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/form"
	"github.com/VinMeld/autopost/internal/staging"
	"github.com/VinMeld/autopost/internal/validation"
)

// Listing is the input for one submission view.
type Listing struct {
	Fields    form.Fields
	AddCities []string
	Images    []string // file paths, in order
	MaxImages int      // 0 keeps the configured limit
}

// SubmissionView fills a fresh form from a Listing and submits it. Each mount
// starts with an empty form, like a remounted page, so only the first mount
// carries the listing; later mounts report that nothing was resent.
type SubmissionView struct {
	app       *App
	listing   Listing
	previewer staging.Previewer
	out       io.Writer

	mu     sync.Mutex
	mounts int
	result form.Result
}

// NewSubmissionView creates the view. previewer backs the staged photos.
func (a *App) NewSubmissionView(listing Listing, previewer staging.Previewer, out io.Writer) *SubmissionView {
	return &SubmissionView{app: a, listing: listing, previewer: previewer, out: out}
}

// Result returns the status left by the last submission.
func (v *SubmissionView) Result() form.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

func (v *SubmissionView) Render(ctx context.Context) error {
	v.mu.Lock()
	v.mounts++
	first := v.mounts == 1
	v.mu.Unlock()

	if !first {
		_, _ = fmt.Fprintln(v.out, "Form was reset. Run submit again to send the listing.")
		return nil
	}

	f, err := v.app.NewForm(v.previewer)
	if err != nil {
		return err
	}
	defer f.Close()

	f.OnStatus(func(r form.Result) {
		v.app.logger.Debug("form status", zap.Stringer("status", r.Status), zap.String("message", r.Message))
	})

	if err := v.fill(f); err != nil {
		v.setResult(form.Result{Status: form.Error, Message: err.Error()})
		return err
	}

	res, err := f.Submit(ctx)
	v.setResult(res)
	if err != nil {
		return submitError(res, err)
	}
	_, _ = fmt.Fprintln(v.out, res.Message)
	return nil
}

// submitError puts the status message in front of err unless err already
// says the same thing.
func submitError(res form.Result, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) || res.Message == "" || res.Message == err.Error() {
		return err
	}
	return fmt.Errorf("%s (%w)", res.Message, err)
}

func (v *SubmissionView) setResult(r form.Result) {
	v.mu.Lock()
	v.result = r
	v.mu.Unlock()
}

func (v *SubmissionView) fill(f *form.Controller) error {
	l := v.listing
	if l.MaxImages > 0 {
		if err := f.SetMaxImages(l.MaxImages); err != nil {
			return err
		}
	}
	for _, city := range l.AddCities {
		f.AddCity(city)
	}

	fields := []struct{ name, value string }{
		{"model", l.Fields.Model},
		{"price", l.Fields.Price},
		{"phone", l.Fields.Phone},
		{"city", l.Fields.City},
	}
	for _, fv := range fields {
		if err := f.UpdateField(fv.name, fv.value); err != nil {
			return err
		}
	}

	if len(l.Images) == 0 {
		return nil
	}
	files := make([]staging.File, 0, len(l.Images))
	for _, path := range l.Images {
		file, err := staging.OpenFile(path)
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	return f.Images().AddFiles(files)
}
