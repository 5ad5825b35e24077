package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/storewatch/backend/internal/models"
)

const incidentSheet = "Incidents"

var incidentExportHeader = []string{
	"ID", "Branch ID", "Branch", "Region", "Brand", "Title", "Category", "Priority",
	"Priority Reasoning", "Status", "Description", "Photo", "Audio Transcript", "Created At", "Updated At",
}

var incidentColumnWidths = []float64{38, 12, 24, 14, 14, 36, 16, 10, 40, 12, 60, 30, 40, 20, 20}

func writeIncidentWorkbook(incidents []models.Incident) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(incidentSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range incidentExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(incidentSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(incidentSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(incidentSheet, name, name, incidentColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, inc := range incidents {
		var branchName, region, brand string
		if inc.Branch != nil {
			branchName, region, brand = inc.Branch.Name, inc.Branch.Region, inc.Branch.Brand
		}
		values := []interface{}{
			inc.ID.String(), inc.BranchID, branchName, region, brand, inc.Title, inc.Category,
			string(inc.Priority), inc.PriorityReasoning, string(inc.Status), inc.Description,
			inc.PhotoRef, inc.AudioTranscript,
			inc.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			inc.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(incidentSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(incidentSheet, &excelize.Panes{
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
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
