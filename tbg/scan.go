package tbg

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/util"
)

// ScanResult holds the flat-band width at each scanned angle.
type ScanResult struct {
	Angles     []float64
	Bandwidths []float64

	// MagicAngle is the angle of smallest bandwidth, and MinBandwidth its bandwidth.
	MagicAngle   float64
	MinBandwidth float64
}

type ScanOptions struct {
	workers  int
	logEvery time.Duration
}

func NewScanOptions() ScanOptions {
	opt := ScanOptions{workers: 1, logEvery: 10 * time.Second}
	return opt
}

// Workers sets the number of angles evaluated concurrently.
func (opt ScanOptions) Workers(n int) ScanOptions {
	opt.workers = n
	return opt
}

// LogEvery sets the interval between progress logs.
func (opt ScanOptions) LogEvery(d time.Duration) ScanOptions {
	opt.logEvery = d
	return opt
}

// Scan computes the bandwidth at each angle in degrees, and locates the magic angle.
// Results are in the order of angles regardless of the number of workers.
// The first failure stops the angles that have not started yet.
func Scan(angles []float64, p Params, options ...ScanOptions) (ScanResult, error) {
	opt := NewScanOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	return scan(angles, p, opt, Bandwidth)
}

func scan(angles []float64, p Params, opt ScanOptions, bandwidth func(float64, Params) (float64, error)) (ScanResult, error) {
	if len(angles) == 0 {
		return ScanResult{}, errors.Wrapf(condmat.ErrInvalidParameter, "no angles")
	}
	if opt.workers < 1 {
		return ScanResult{}, errors.Wrapf(condmat.ErrInvalidParameter, "%d workers", opt.workers)
	}

	bandwidths := make([]float64, len(angles))
	throttler := util.NewSkipThrottler(opt.logEvery)
	var mu sync.Mutex
	var done int

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(opt.workers)
	for i, theta := range angles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bw, err := bandwidth(theta, p)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("angle %d", i))
			}
			bandwidths[i] = bw

			mu.Lock()
			defer mu.Unlock()
			done++
			if throttler.Ok() {
				log.Printf("%d/%d theta %f bandwidth %g", done, len(angles), theta, bw)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, errors.Wrap(err, "")
	}

	idx := floats.MinIdx(bandwidths)
	res := ScanResult{
		Angles:       append([]float64(nil), angles...),
		Bandwidths:   bandwidths,
		MagicAngle:   angles[idx],
		MinBandwidth: bandwidths[idx],
	}
	return res, nil
}

// DefaultScanAngles returns a grid that is dense around the first magic angle.
// It concatenates 10 angles on [0.3, 0.9], 20 on [0.9, 1.2] and 15 on [1.2, 2.5], so 0.9 and 1.2 appear twice.
func DefaultScanAngles() []float64 {
	angles := make([]float64, 0, 45)
	angles = append(angles, floats.Span(make([]float64, 10), 0.3, 0.9)...)
	angles = append(angles, floats.Span(make([]float64, 20), 0.9, 1.2)...)
	angles = append(angles, floats.Span(make([]float64, 15), 1.2, 2.5)...)
	return angles
}
