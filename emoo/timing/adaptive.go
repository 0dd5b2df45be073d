package timing

import (
	"context"
	"log/slog"
	"time"
)

// maxLag is how far behind schedule the limiter may fall before it gives up catching up.
const maxLag = 5 * time.Millisecond

// AdaptiveLimiter schedules frames against an absolute timeline so sleep overshoot does
// not accumulate.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
	resyncs         int64

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewAdaptiveLimiter paces at speed times the DMG frame rate; speed <= 0 means 1.
func NewAdaptiveLimiter(speed float64) *AdaptiveLimiter {
	if speed <= 0 {
		speed = 1
	}
	a := &AdaptiveLimiter{
		targetFrameTime: time.Duration(float64(FrameDuration()) / speed),
		now:             time.Now,
		sleep:           sleepContext,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	now := a.now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if err := a.sleep(ctx, sleepTime); err != nil {
			return err
		}
	} else if sleepTime < -maxLag {
		a.resyncs++
		slog.Debug("frame pacing behind schedule, resyncing",
			"behind_ms", (-sleepTime).Milliseconds(), "frame", a.frameCounter)
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++
	return nil
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = a.now()
	a.frameCounter = 0
}

// Frames returns the number of frames paced since the last reset.
func (a *AdaptiveLimiter) Frames() int64 { return a.frameCounter }
