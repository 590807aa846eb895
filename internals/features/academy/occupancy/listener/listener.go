// file: internals/features/academy/occupancy/listener/listener.go
package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"go.uber.org/zap"

	enrollmentModel "academy_backend/internals/features/academy/enrollments/model"
	"academy_backend/internals/features/academy/occupancy/dto"
	"academy_backend/internals/features/academy/occupancy/service"
)

// EventHandler is satisfied by *service.Engine.
type EventHandler interface {
	Handle(ctx context.Context, ev enrollmentModel.EnrollmentEvent) service.Result
}

/* =========================
   LISTEN/NOTIFY consumer
   the enrollments trigger publishes {kind, before, after} with pg_notify
========================= */

type Listener struct {
	DSN       string
	Channel   string
	Handler   EventHandler
	Log       *zap.Logger
	PingEvery time.Duration
}

func New(dsn, channel string, h EventHandler, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{
		DSN:       dsn,
		Channel:   channel,
		Handler:   h,
		Log:       log.Named("listener"),
		PingEvery: 90 * time.Second,
	}
}

// Run blocks until ctx is done. Reconnects are handled by pq.Listener;
// a reconnect may drop notifications, which the reconcile sweep repairs.
func (l *Listener) Run(ctx context.Context) error {
	if l.Channel == "" {
		return errors.New("listener: channel is required")
	}
	pl := pq.NewListener(l.DSN, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.Log.Info("listener connected", zap.String("channel", l.Channel))
		case pq.ListenerEventDisconnected:
			l.Log.Warn("listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			l.Log.Warn("listener reconnected, notifications may have been missed")
		case pq.ListenerEventConnectionAttemptFailed:
			l.Log.Error("listener connect failed", zap.Error(err))
		}
	})
	defer pl.Close()

	if err := pl.Listen(l.Channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.Channel, err)
	}

	ticker := time.NewTicker(l.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			if n == nil {
				// nil after a reconnect
				continue
			}
			if _, err := l.Dispatch(ctx, n.Extra); err != nil {
				l.Log.Error("bad enrollment notification", zap.Error(err), zap.Int("bytes", len(n.Extra)))
			}
		case <-ticker.C:
			if err := pl.Ping(); err != nil {
				l.Log.Warn("listener ping failed", zap.Error(err))
			}
		}
	}
}

// Dispatch decodes one payload and hands it to the engine. Only decoding
// fails; engine outcomes are reported through the Result.
func (l *Listener) Dispatch(ctx context.Context, payload string) (service.Result, error) {
	var req dto.EnrollmentEventRequest
	if err := sonic.UnmarshalString(payload, &req); err != nil {
		return service.Result{}, fmt.Errorf("decode: %w", err)
	}
	ev, err := req.ToEvent()
	if err != nil {
		return service.Result{}, err
	}
	return l.Handler.Handle(ctx, ev), nil
}
