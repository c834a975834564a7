package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/qaharness/api-test-framework/internal/util"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	exportSheet = "Result"
)

type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export runs a read statement and encodes its rows as csv or xlsx.
func (s *SQLService) Export(ctx context.Context, t Target, query, format string) (*Export, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, srvErrors.NewValidationError("format", "unsupported export format %q", format)
	}
	if !IsReadStatement(query) {
		return nil, srvErrors.NewValidationError("sql", "only read statements can be exported")
	}

	result, err := s.Exec(ctx, t, query)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("sql_result_%s.%s", util.FileStamp(time.Now()), format)

	switch format {
	case FormatXLSX:
		data, err := EncodeXLSX(result)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    name,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		data, err := EncodeCSV(result)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: name, ContentType: "text/csv; charset=utf-8", Data: data}, nil
	}
}

func EncodeCSV(result *ExecResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(result.Columns); err != nil {
		return nil, err
	}
	for _, row := range result.Rows {
		record := make([]string, len(row.Values))
		for i, v := range row.Values {
			record[i] = cellText(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()

	return buf.Bytes(), w.Error()
}

func EncodeXLSX(result *ExecResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := make([]any, len(result.Columns))
	for i, c := range result.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range result.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row.Values))
		for j, v := range row.Values {
			values[j] = v
			if v == nil {
				values[j] = ""
			}
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.DateTime)
	default:
		return fmt.Sprint(t)
	}
}
