package importing

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/accessinsight/accessinsight/modules/governance/domain/reconcile"
)

// ParseCSV reads a comma-separated sheet with row 1 as the header.
// A UTF-8 BOM is tolerated; records may have ragged lengths.
func ParseCSV(r io.Reader) ([]reconcile.Row, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []reconcile.Row{}, nil
		}
		return nil, errors.Wrap(err, "read header")
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		records = append(records, record)
	}

	return NormalizeAll(headers, records), nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
