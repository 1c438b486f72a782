package importing

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/accessinsight/accessinsight/modules/governance/domain/reconcile"
)

// ParseXLSX reads the first sheet of a workbook, treats row 1 as the
// header, and normalizes the rest.
func ParseXLSX(r io.Reader) ([]reconcile.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return []reconcile.Row{}, nil
	}

	return NormalizeAll(rows[0], rows[1:]), nil
}
