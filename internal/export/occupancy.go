package export

import (
	"context"
	"fmt"
	"io"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders occupancy calendars into an xlsx workbook for hosts who
// reconcile their books in a spreadsheet. One sheet per room, one row per
// date.
type Exporter struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewExporter(store domain.Store, logger *zerolog.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

type sheetRow struct {
	date    string
	status  string
	guestID string
	notes   string
}

// WriteOccupancy writes one workbook covering rng for every active room.
func (e *Exporter) WriteOccupancy(ctx context.Context, rng models.DateRange, w io.Writer) error {
	if !rng.Valid() {
		return domain.ErrInvalidRange
	}

	rooms, err := e.store.GetActiveRooms(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, room := range rooms {
		sheet := sheetName(room)
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet for room %d: %w", room.ID, err)
			}
		}

		rows, err := e.roomRows(ctx, room.ID, rng)
		if err != nil {
			return err
		}

		headers := []string{"Date", "Status", "Guest", "Notes"}
		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
		}
		if err := f.SetCellStyle(sheet, "A1", "D1", headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetColWidth(sheet, "B", "D", 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}

		for rowIdx, row := range rows {
			values := []string{row.date, row.status, row.guestID, row.notes}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("failed to write row: %w", err)
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info().
		Int("rooms", len(rooms)).
		Str("range", rng.String()).
		Msg("Occupancy export written")
	return nil
}

func (e *Exporter) roomRows(ctx context.Context, roomID int64, rng models.DateRange) ([]sheetRow, error) {
	bookings, err := e.store.BookingsIntersecting(ctx, roomID, rng)
	if err != nil {
		return nil, err
	}
	blocks, err := e.store.BlockedDatesInRange(ctx, roomID, rng)
	if err != nil {
		return nil, err
	}

	blockedDays := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if b.Blocked {
			blockedDays[b.Date.Format(models.DateLayout)] = true
		}
	}

	rows := make([]sheetRow, 0, rng.Nights())
	for _, d := range rng.Dates() {
		row := sheetRow{date: d.Format(models.DateLayout), status: "free"}

		if blockedDays[row.date] {
			row.status = "blocked"
		}
		for _, b := range bookings {
			if !b.Range().ContainsDate(d) {
				continue
			}
			row.status = b.Status
			row.guestID = fmt.Sprintf("guest %d", b.GuestID)
			row.notes = b.Notes
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sheetName keeps room names inside excelize's 31-character sheet limit.
func sheetName(room *models.Room) string {
	name := fmt.Sprintf("%d %s", room.ID, room.Name)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
