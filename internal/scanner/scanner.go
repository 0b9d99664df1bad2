package scanner

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qrprint/kiosk/internal/core"
)

// Worker is the scan-and-dispatch loop: read a token from the source,
// resolve it against the server, feed the file to the printer, confirm.
// A per-token cooldown debounces the same physical code sitting in front
// of the camera across consecutive frames.
type Worker struct {
	client   *Client
	printer  PrintSubmitter
	source   TokenSource
	cooldown time.Duration

	lastSeen map[string]time.Time
	now      func() time.Time
}

func NewWorker(client *Client, printer PrintSubmitter, source TokenSource, cooldown time.Duration) *Worker {
	return &Worker{
		client:   client,
		printer:  printer,
		source:   source,
		cooldown: cooldown,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	log.Info().Dur("cooldown", w.cooldown).Msg("scan worker started")

	for {
		token, err := w.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				log.Info().Msg("scan worker stopping")
				return nil
			}
			return err
		}

		if !w.shouldProcess(token) {
			continue
		}

		w.dispatch(ctx, token)
	}
}

// shouldProcess records the scan time and reports whether the token is
// outside its cooldown window. Rejected scans count too, so a refused
// code lying on the scanner bed does not hammer the server.
func (w *Worker) shouldProcess(token string) bool {
	now := w.now()
	if last, ok := w.lastSeen[token]; ok && now.Sub(last) < w.cooldown {
		return false
	}
	w.lastSeen[token] = now
	w.prune(now)
	return true
}

func (w *Worker) prune(now time.Time) {
	for token, seen := range w.lastSeen {
		if now.Sub(seen) >= w.cooldown {
			delete(w.lastSeen, token)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, token string) {
	path, err := w.client.Resolve(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			log.Warn().Str("token", token).Msg("unknown token scanned")
		case errors.Is(err, core.ErrExpired):
			log.Warn().Str("token", token).Msg("expired token scanned")
		case errors.Is(err, core.ErrPaymentRequired):
			log.Warn().Str("token", token).Msg("unpaid token scanned")
		case errors.Is(err, core.ErrAlreadyPrinted):
			log.Warn().Str("token", token).Msg("token already printed")
		default:
			log.Error().Err(err).Str("token", token).Msg("failed to resolve token")
		}
		return
	}

	if err := w.printer.Print(ctx, path); err != nil {
		// Leave the job resolvable: a failed physical print must not
		// consume the token.
		log.Error().Err(err).Str("token", token).Str("path", path).Msg("print failed")
		return
	}

	if err := w.client.MarkPrinted(ctx, token); err != nil {
		log.Error().Err(err).Str("token", token).Msg("printed but failed to confirm")
		return
	}

	log.Info().Str("token", token).Str("path", path).Msg("printed and marked")
}
