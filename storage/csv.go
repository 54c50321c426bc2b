package storage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"leadprep/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeTable parses a CSV stream whose first record is the header. Records
// shorter than the header are kept as-is; longer ones are rejected.
func DecodeTable(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: %w: no header row", ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: %w: read header: %v", ErrMalformedTable, err)
	}

	t := &models.Table{Header: header}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w: %v", ErrMalformedTable, err)
		}
		if len(rec) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("csv: %w: line %d has %d fields, header has %d",
				ErrMalformedTable, line, len(rec), len(header))
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// EncodeTable writes the header followed by every record.
func EncodeTable(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, rec := range t.Records {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CountRows returns the number of data records, header excluded.
func CountRows(r io.Reader) (int, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	n := -1
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("csv: %w: %v", ErrMalformedTable, err)
		}
		n++
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
