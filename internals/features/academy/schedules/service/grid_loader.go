// file: internals/features/academy/schedules/service/grid_loader.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/academy/store"
)

// GridLoader reads what one grid needs from the stores.
type GridLoader struct {
	Store     store.Store
	Directory store.Directory
}

func NewGridLoader(s store.Store, d store.Directory) *GridLoader {
	return &GridLoader{Store: s, Directory: d}
}

func (l *GridLoader) Load(ctx context.Context, scope store.Scope, ref time.Time, view ViewMode, turn Turn) (*Grid, error) {
	if !scope.Valid() {
		return nil, store.ErrInvalidScope
	}
	days := GridDays(ref, view)
	from, to := days[0], days[len(days)-1]

	sessions, err := l.Store.ListSessions(ctx, scope, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	classes, err := l.Store.ListClasses(ctx, scope, true)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	seen := map[uuid.UUID]bool{}
	var activityIDs []uuid.UUID
	for _, s := range sessions {
		if !seen[s.ClassSessionActivityID] {
			seen[s.ClassSessionActivityID] = true
			activityIDs = append(activityIDs, s.ClassSessionActivityID)
		}
	}
	for _, c := range classes {
		if !seen[c.ClassActivityID] {
			seen[c.ClassActivityID] = true
			activityIDs = append(activityIDs, c.ClassActivityID)
		}
	}
	names := map[uuid.UUID]string{}
	if l.Directory != nil && len(activityIDs) > 0 {
		if names, err = l.Directory.ActivityNames(ctx, scope, activityIDs); err != nil {
			return nil, fmt.Errorf("activity names: %w", err)
		}
	}

	return BuildGrid(GridInput{
		Sessions:      sessions,
		Classes:       SortClasses(classes),
		ActivityNames: names,
		Reference:     ref,
		View:          view,
		Turn:          turn,
	}), nil
}
