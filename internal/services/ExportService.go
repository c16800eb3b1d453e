package services

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/symbology"
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

func ParseExportFormat(value string) (ExportFormat, error) {
	switch ExportFormat(value) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unsupported export format %q", value))
	}
}

func (f ExportFormat) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

var csvHeader = []string{"id", "scanned_at", "barcode", "username", "symbology"}

type exportRow struct {
	ID        string `json:"id"`
	ScannedAt string `json:"scanned_at"`
	Barcode   string `json:"barcode"`
	Username  string `json:"username"`
	Symbology string `json:"symbology"`
}

type ExportServiceInterface interface {
	Export(snap Snapshot, format ExportFormat) ([]byte, error)
}

type ExportService struct {
	cache  providers.CacheProviderInterface
	logger providers.Logger
}

func NewExportService(cache providers.CacheProviderInterface, logger providers.Logger) ExportServiceInterface {
	return &ExportService{cache: cache, logger: logger}
}

// Export renders snap. Output is cached per snapshot version, so a stale
// entry can never be served for a newer collection.
func (es *ExportService) Export(snap Snapshot, format ExportFormat) ([]byte, error) {
	key := string(format) + ":" + snap.User + ":" + strconv.FormatUint(snap.Version, 10)
	if data, ok := es.cache.Get(key); ok {
		return data, nil
	}

	rows := make([]exportRow, len(snap.Scans))
	for i, s := range snap.Scans {
		rows[i] = exportRow{
			ID:        s.ID,
			ScannedAt: s.ScannedAt.UTC().Format(time.RFC3339Nano),
			Barcode:   s.Barcode,
			Username:  s.Username,
			Symbology: string(symbology.Preferred(s.Barcode)),
		}
	}

	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.Marshal(rows)
	case FormatCSV:
		data, err = renderCSV(rows)
	default:
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		es.logger.Errorf(providers.TypeApp, "Export of %d scans as %s failed: %v", len(rows), format, err)
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "export failed")
	}

	es.cache.Set(key, data)
	return data, nil
}

func renderCSV(rows []exportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.ID, r.ScannedAt, r.Barcode, r.Username, r.Symbology}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
