package structure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/ccsdb/internal/fetch"
	"github.com/KaramelBytes/ccsdb/internal/logging"
)

// URL resolves a row's structure reference against the image service base.
func URL(base, ref string) string {
	return strings.TrimRight(base, "/") + "/" + ref + "/PNG"
}

// Result is the outcome of fetching one structure image.
type Result struct {
	ID          uuid.UUID
	Ref         string
	Src         string
	Data        []byte
	Placeholder bool
	Attempts    int
}

// Fetcher downloads structure images through the retry state machine.
type Fetcher struct {
	Getter      fetch.Getter
	Base        string
	Placeholder string
	Delay       time.Duration
	Scheduler   Scheduler
	Log         *logging.Logger
}

// Fetch loads the image of ref. A failed first attempt is retried once after
// Delay; a second failure yields the placeholder, which is not an error. Only
// a failure to read the placeholder itself is returned.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Result, error) {
	log := f.Log
	if log == nil {
		log = logging.Default
	}
	retry := make(chan string, 1)
	img := NewImage(URL(f.Base, ref), f.Placeholder, f.Delay, f.Scheduler, func(src string) { retry <- src })
	res := &Result{ID: img.ID, Ref: ref}

	src := img.Src()
	for {
		res.Attempts++
		data, err := f.Getter.Get(ctx, src)
		if err == nil {
			img.Succeeded()
			res.Src, res.Data = src, data
			return res, nil
		}
		if ctx.Err() != nil {
			img.Cancel()
			return nil, ctx.Err()
		}
		log.Debug("structure %s (%s): attempt %d failed: %v", ref, img.ID, res.Attempts, err)
		if img.Failed() == Fallback {
			break
		}
		select {
		case src = <-retry:
		case <-ctx.Done():
			img.Cancel()
			return nil, ctx.Err()
		}
	}

	res.Placeholder = true
	res.Src = img.Src()
	if res.Src == "" {
		return res, nil
	}
	data, err := f.Getter.Get(ctx, res.Src)
	if err != nil {
		return nil, fmt.Errorf("structure %s: placeholder: %w", ref, err)
	}
	res.Data = data
	return res, nil
}
