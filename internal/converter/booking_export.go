package converter

import (
	"fmt"
	"time"

	"workshop-scheduler/internal/domain/entity"

	"github.com/xuri/excelize/v2"
)

const bookingSheet = "Bookings"

var bookingExportHeaders = []string{
	"Booking ID", "Vehicle Number", "Make", "Model", "Year", "Customer", "Technician",
	"Service Type", "Scheduled Date", "Scheduled Time", "Duration (min)", "Status",
	"Priority", "Estimated Cost", "Actual Cost", "Started At", "Completed At",
}

// BookingsToWorkbook renders bookings as a single-sheet spreadsheet. Times are shown in loc.
func BookingsToWorkbook(bookings []entity.Booking, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(bookingSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range bookingExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(bookingSheet, cell, header); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(bookingExportHeaders), 1)
	if err := f.SetCellStyle(bookingSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i := range bookings {
		row := bookingRow(&bookings[i], loc)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(bookingSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

func bookingRow(b *entity.Booking, loc *time.Location) []interface{} {
	scheduledAt := b.ScheduledAt.In(loc)

	var year interface{}
	if b.VehicleYear != nil {
		year = *b.VehicleYear
	}
	customer, technician := "", ""
	if b.Customer != nil {
		customer = b.Customer.FullName
	}
	if b.Technician != nil {
		technician = b.Technician.FullName
	}
	actualCost := ""
	if b.ActualCost != nil {
		actualCost = b.ActualCost.StringFixed(2)
	}

	return []interface{}{
		b.ID.String(),
		b.VehicleNumber,
		b.VehicleMake,
		b.VehicleModel,
		year,
		customer,
		technician,
		b.ServiceType,
		scheduledAt.Format("2006-01-02"),
		scheduledAt.Format("15:04"),
		b.EstimatedDurationMinutes,
		string(b.Status),
		string(b.Priority),
		b.EstimatedCost.StringFixed(2),
		actualCost,
		formatOptionalTime(b.StartedAt, loc),
		formatOptionalTime(b.CompletedAt, loc),
	}
}

func formatOptionalTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
