// file: internals/features/academy/attendance/service/roster.go
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	directoryModel "academy_backend/internals/features/academy/directory/model"
	helper "academy_backend/internals/helpers"
)

var (
	ErrJustificationRequired = errors.New("attendance: an absence needs a justification")
	ErrNotInRoster           = errors.New("attendance: client is not in the roster")
	ErrAlreadyInRoster       = errors.New("attendance: client is already in the roster")
	ErrUnknownStatus         = errors.New("attendance: unknown status")
)

// Roster is one session's attendance list, in display order.
type Roster []attendanceModel.RosterEntry

func (r Roster) Index(clientID uuid.UUID) int {
	for i := range r {
		if r[i].ClientID == clientID {
			return i
		}
	}
	return -1
}

// EntryFromClient copies the display fields of a directory client.
func EntryFromClient(c directoryModel.ClientModel) attendanceModel.RosterEntry {
	e := attendanceModel.RosterEntry{
		ClientID: c.ClientID,
		Name:     c.ClientName,
		Status:   attendanceModel.StatusPresent,
	}
	if c.ClientTag != nil {
		e.Tag = *c.ClientTag
	}
	if c.ClientPhotoURL != nil {
		e.Photo = *c.ClientPhotoURL
	}
	return e
}

// AddExtra appends a participant with no backing enrollment.
func (r *Roster) AddExtra(c directoryModel.ClientModel) (attendanceModel.RosterEntry, error) {
	if r.Index(c.ClientID) >= 0 {
		return attendanceModel.RosterEntry{}, ErrAlreadyInRoster
	}
	e := EntryFromClient(c)
	e.IsExtra = true
	*r = append(*r, e)
	return e, nil
}

func (r *Roster) RemoveExtra(clientID uuid.UUID) error {
	i := r.Index(clientID)
	if i < 0 || !(*r)[i].IsExtra {
		return ErrNotInRoster
	}
	*r = append((*r)[:i], (*r)[i+1:]...)
	return nil
}

// MarkAbsent moves a present entry into editing; it stays there until
// ConfirmAbsent gets a justification.
func (r Roster) MarkAbsent(clientID uuid.UUID) error {
	i := r.Index(clientID)
	if i < 0 {
		return ErrNotInRoster
	}
	r[i].Status = attendanceModel.StatusEditing
	return nil
}

func (r Roster) ConfirmAbsent(clientID uuid.UUID, justification string) error {
	i := r.Index(clientID)
	if i < 0 {
		return ErrNotInRoster
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return ErrJustificationRequired
	}
	r[i].Status = attendanceModel.StatusAbsent
	r[i].Justification = justification
	return nil
}

func (r Roster) MarkPresent(clientID uuid.UUID) error {
	i := r.Index(clientID)
	if i < 0 {
		return ErrNotInRoster
	}
	r[i].Status = attendanceModel.StatusPresent
	r[i].Justification = ""
	return nil
}

// Counts splits on status == absent; everything else counts as present.
func (r Roster) Counts() (present, absent int) {
	for _, e := range r {
		if e.Status == attendanceModel.StatusAbsent {
			absent++
		} else {
			present++
		}
	}
	return present, absent
}

// Settled is a copy of r with entries still in editing back to present,
// the status the counts already give them.
func (r Roster) Settled() Roster {
	out := make(Roster, len(r))
	copy(out, r)
	for i := range out {
		if out[i].Status == attendanceModel.StatusEditing {
			out[i].Status = attendanceModel.StatusPresent
			out[i].Justification = ""
		}
	}
	return out
}

// Normalize trims text, defaults empty statuses to present and drops the
// enrollment id of extras.
func (r Roster) Normalize() {
	for i := range r {
		e := &r[i]
		e.Justification = strings.TrimSpace(e.Justification)
		if e.Status == "" {
			e.Status = attendanceModel.StatusPresent
		}
		if e.IsExtra {
			e.EnrollmentID = nil
		}
	}
}

// Validate runs before any write: known statuses, one entry per client,
// and a justification on every absence.
func (r Roster) Validate() error {
	seen := make(map[uuid.UUID]bool, len(r))
	for _, e := range r {
		if e.ClientID == uuid.Nil {
			return fmt.Errorf("attendance: roster entry without client_id")
		}
		if seen[e.ClientID] {
			return fmt.Errorf("%w: %s", ErrAlreadyInRoster, e.ClientID)
		}
		seen[e.ClientID] = true

		switch e.Status {
		case attendanceModel.StatusPresent, attendanceModel.StatusLate,
			attendanceModel.StatusJustified, attendanceModel.StatusEditing:
		case attendanceModel.StatusAbsent:
			if strings.TrimSpace(e.Justification) == "" {
				return fmt.Errorf("%w: %s", ErrJustificationRequired, e.ClientID)
			}
		default:
			return fmt.Errorf("%w %q", ErrUnknownStatus, e.Status)
		}
	}
	return nil
}

// sortByName orders a derived roster by name, then client id.
func (r Roster) sortByName() {
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].Name != r[j].Name {
			return helper.LessName(r[i].Name, r[j].Name)
		}
		return r[i].ClientID.String() < r[j].ClientID.String()
	})
}
