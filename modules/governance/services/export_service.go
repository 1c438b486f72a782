package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
)

const exportSheet = "Access Report"

var exportHeaders = []string{"Name", "Identifier", "Company", "System", "Profile", "Synced At"}
var exportWidths = []float64{30, 40, 20, 20, 25, 25}

type ExportService struct {
	policy identity.Policy
}

func NewExportService(policy identity.Policy) *ExportService {
	return &ExportService{policy: policy}
}

// BuildWorkbook renders the merged report, one row per (user, access).
// Companies missing an explicit value fall back to the derived label.
func (s *ExportService) BuildWorkbook(snap snapshot.Snapshot) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, exportSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	for i, width := range exportWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, errors.Wrap(err, "resolve column")
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return nil, errors.Wrap(err, "set column width")
		}
	}

	rowNum := 2
	for _, u := range snap.Users {
		company := u.Company()
		if company == "" {
			company = s.policy.CompanyFromIdentifier(u.Identifier())
		}
		for _, a := range u.Accesses() {
			cell := fmt.Sprintf("A%d", rowNum)
			row := []interface{}{
				u.DisplayName(),
				u.Identifier(),
				company,
				a.SystemName(),
				a.Profile(),
				a.ImportedAt().Format(time.RFC3339),
			}
			if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
				return nil, errors.Wrap(err, "write row")
			}
			rowNum++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "serialize workbook")
	}
	return buf, nil
}
