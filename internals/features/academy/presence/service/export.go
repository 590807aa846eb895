// file: internals/features/academy/presence/service/export.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	attendanceModel "academy_backend/internals/features/academy/attendance/model"
	"academy_backend/internals/features/academy/calendar"
	"academy_backend/internals/features/academy/store"
	"academy_backend/internals/helpers/logger"
)

var ErrExportFailed = errors.New("presence: failed to build spreadsheet")

const exportSheet = "Attendance"

var exportHeader = []string{"Date", "Client", "Tag", "Status", "Justification", "Type", "Session", "Recorded at"}

// ExportMonthXLSX writes every attendance record of the branch dated in
// month's month, oldest first, plus a per-client summary sheet.
func (c *Calculator) ExportMonthXLSX(ctx context.Context, scope store.Scope, month time.Time) (*bytes.Buffer, string, error) {
	if !scope.Valid() {
		return nil, "", store.ErrInvalidScope
	}
	from, to := calendar.StartOfMonth(month), calendar.EndOfMonth(month)
	records, _, err := c.Store.ListAttendanceRecords(ctx, scope, store.AttendanceFilter{From: &from, To: &to})
	if err != nil {
		return nil, "", fmt.Errorf("list attendance: %w", err)
	}

	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, r := range records {
		if !seen[r.AttendanceRecordClientID] {
			seen[r.AttendanceRecordClientID] = true
			ids = append(ids, r.AttendanceRecordClientID)
		}
	}
	names := map[uuid.UUID]string{}
	tags := map[uuid.UUID]string{}
	if len(ids) > 0 && c.Directory != nil {
		clients, err := c.Directory.LookupClients(ctx, scope, ids)
		if err != nil {
			return nil, "", fmt.Errorf("lookup clients: %w", err)
		}
		for id, cl := range clients {
			names[id] = cl.ClientName
			if cl.ClientTag != nil {
				tags[id] = *cl.ClientTag
			}
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range exportHeader {
		f.SetCellValue(exportSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(exportSheet, "A1", cell(colName(len(exportHeader)-1), 1), headerStyle)
	f.SetColWidth(exportSheet, "A", "A", 12)
	f.SetColWidth(exportSheet, "B", "B", 28)
	f.SetColWidth(exportSheet, "E", "E", 32)
	f.SetColWidth(exportSheet, "G", "H", 38)

	row := 2
	for _, r := range records {
		typ, just := "extra", ""
		if r.AttendanceRecordEnrollmentType != nil {
			typ = *r.AttendanceRecordEnrollmentType
		}
		if r.AttendanceRecordJustification != nil {
			just = *r.AttendanceRecordJustification
		}
		values := []any{
			calendar.FormatDate(r.AttendanceRecordSessionDate),
			names[r.AttendanceRecordClientID],
			tags[r.AttendanceRecordClientID],
			r.AttendanceRecordStatus,
			just,
			typ,
			r.AttendanceRecordSessionID.String(),
			r.AttendanceRecordRecordedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for i, v := range values {
			f.SetCellValue(exportSheet, cell(colName(i), row), v)
		}
		row++
	}

	if err := writeSummary(f, records, names, month, headerStyle); err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		c.Log.Error("xlsx write failed", zap.Error(err),
			zap.String(logger.FieldTenantID, scope.TenantID.String()),
			zap.String(logger.FieldBranchID, scope.BranchID.String()))
		return nil, "", ErrExportFailed
	}
	return buf, fmt.Sprintf("attendance_%s.xlsx", from.Format("2006-01")), nil
}

// writeSummary adds one row per client with their month stats.
func writeSummary(f *excelize.File, records []attendanceModel.AttendanceRecordModel, names map[uuid.UUID]string, month time.Time, headerStyle int) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	byClient := map[uuid.UUID][]attendanceModel.AttendanceRecordModel{}
	var ids []uuid.UUID
	for _, r := range records {
		if _, ok := byClient[r.AttendanceRecordClientID]; !ok {
			ids = append(ids, r.AttendanceRecordClientID)
		}
		byClient[r.AttendanceRecordClientID] = append(byClient[r.AttendanceRecordClientID], r)
	}
	sort.Slice(ids, func(i, j int) bool {
		if names[ids[i]] != names[ids[j]] {
			return names[ids[i]] < names[ids[j]]
		}
		return ids[i].String() < ids[j].String()
	})

	for i, h := range []string{"Client", "Expected", "Attended", "Frequency %"} {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 28)

	for i, id := range ids {
		st := ComputeMonthStats(byClient[id], month)
		row := i + 2
		name := names[id]
		if name == "" {
			name = id.String()
		}
		f.SetCellValue(sheet, cell("A", row), name)
		f.SetCellValue(sheet, cell("B", row), st.Expected)
		f.SetCellValue(sheet, cell("C", row), st.Attended)
		f.SetCellValue(sheet, cell("D", row), fmt.Sprintf("%.1f", st.Frequency))
	}
	return nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
