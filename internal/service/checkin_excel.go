package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"postcare/internal/models"

	"github.com/xuri/excelize/v2"
)

// CheckInHistorySheet 导出工作表名
const CheckInHistorySheet = "Check-ins"

// CheckInHistoryHeader 导出表头
var CheckInHistoryHeader = []string{
	"Date",
	"Pain Level",
	"Temperature (F)",
	"Medications Taken",
	"Symptoms",
	"Notes",
	"Risk Score",
	"Risk Level",
	"Risk Reasons",
	"Submitted At",
}

var checkInHistoryColumnWidths = []float64{12, 12, 16, 18, 30, 30, 12, 12, 50, 20}

// GenerateCheckInHistoryExport 生成打卡历史 Excel；checkIns 为空时只有表头
func GenerateCheckInHistoryExport(checkIns []*models.CheckIn, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()

	index, err := f.NewSheet(CheckInHistorySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range CheckInHistoryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(CheckInHistorySheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(CheckInHistorySheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(CheckInHistorySheet, colName, colName, checkInHistoryColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, c := range checkIns {
		row := i + 2 // 第1行是表头
		notes := ""
		if c.Notes != nil {
			notes = *c.Notes
		}
		medications := "No"
		if c.MedicationsTaken {
			medications = "Yes"
		}
		values := []interface{}{
			c.CheckInDate.Format("2006-01-02"),
			c.PainLevel,
			c.Temperature,
			medications,
			strings.Join(c.Symptoms, ", "),
			notes,
			c.RiskScore,
			string(c.RiskLevel),
			strings.Join(c.RiskReasons, "; "),
			c.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(CheckInHistorySheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(CheckInHistorySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
