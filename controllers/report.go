// controllers/report.go
package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// ReportController exports view data as XLSX workbooks.
type ReportController struct {
	Store *store.UnifiedStore
}

// ExportReport streams one view as a spreadsheet. The type query parameter
// selects assignments, reminders or services.
func (rc *ReportController) ExportReport(c *gin.Context) {
	reportType := c.DefaultQuery("type", "assignments")

	f := excelize.NewFile()
	defer f.Close()

	var err error
	switch reportType {
	case "assignments":
		err = rc.writeAssignments(f)
	case "reminders":
		err = rc.writeReminders(f)
	case "services":
		err = rc.writeServices(f)
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown report type: "+reportType)
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build report: "+err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-report.xlsx", reportType))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to write report: "+err.Error())
	}
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func (rc *ReportController) writeAssignments(f *excelize.File) error {
	sheet := "Assignments"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, []string{
		"Customer", "Vehicle", "Product", "Purchase Date", "Warranty (Months)",
		"Expiry Date", "Days Until Expiry", "Status",
	}); err != nil {
		return err
	}
	for i, a := range rc.Store.Data().Assignments {
		status := "Active"
		if a.ReminderStatus.WarrantyRenewed {
			status = "Renewed"
		} else if a.IsExpired {
			status = "Expired"
		}
		days := ""
		if a.DaysUntilExpiry != nil {
			days = strconv.Itoa(*a.DaysUntilExpiry)
		}
		if err := writeRow(f, sheet, i+2, []any{
			a.CustomerName, a.Customer.VehicleNumber, a.ProductName,
			utils.FormatDisplayDate(a.PurchaseDate), a.WarrantyPeriodMonths,
			utils.FormatDisplayDate(a.WarrantyExpiryDate), days, status,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (rc *ReportController) writeReminders(f *excelize.File) error {
	sheet := "Reminders"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, []string{
		"Customer", "Mobile", "Product", "Expiry Date", "Days Until Expiry",
		"Level", "Due Tier",
	}); err != nil {
		return err
	}
	for i, r := range rc.Store.Data().Reminders {
		if err := writeRow(f, sheet, i+2, []any{
			r.CustomerName, r.MobileNumber, r.ProductName,
			utils.FormatDisplayDate(r.WarrantyExpiryDate), r.DaysUntilExpiry,
			r.ReminderLevel, r.ReminderToSend,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (rc *ReportController) writeServices(f *excelize.File) error {
	sheet := "Service History"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, []string{
		"Customer", "Vehicle", "Product", "Service Date", "Type", "Status",
		"Next Service Due", "Notes",
	}); err != nil {
		return err
	}
	for i, s := range rc.Store.Data().ServiceHistory {
		if err := writeRow(f, sheet, i+2, []any{
			s.CustomerName, s.VehicleNumber, s.ProductName,
			utils.FormatDisplayDate(s.ServiceDate), s.ServiceType, s.ServiceStatus,
			utils.FormatDisplayDate(s.NextServiceDate), s.ServiceNotes,
		}); err != nil {
			return err
		}
	}
	return nil
}
