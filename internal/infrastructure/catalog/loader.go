package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const objectScheme = "s3://"

// ObjectSource отдаёт содержимое объекта из объектного хранилища.
type ObjectSource interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Loader читает каталог товаров из CSV или XLSX, локально или из объектного хранилища.
type Loader struct {
	objects ObjectSource // nil, если MinIO не настроен
	logger  logger.Logger
}

func NewLoader(objects ObjectSource, logger logger.Logger) *Loader {
	return &Loader{
		objects: objects,
		logger:  logger,
	}
}

// Load возвращает строки каталога в исходном порядке. Схема проверяется один раз,
// все найденные проблемы возвращаются одной ошибкой *DataError.
func (l *Loader) Load(ctx context.Context, source string) ([]domain.CatalogRow, error) {
	r, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records [][]string
	switch ext := strings.ToLower(path.Ext(source)); ext {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, newDataError(source, nil, fmt.Sprintf("unsupported file extension %q", ext))
	}
	if err != nil {
		return nil, newDataError(source, err, err.Error())
	}

	rows, problems := parseRecords(records)
	if len(problems) > 0 {
		return nil, newDataError(source, nil, problems...)
	}

	l.logger.Infof("loaded %d catalog rows from %s", len(rows), source)
	return rows, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, objectScheme) {
		f, err := os.Open(source)
		if err != nil {
			return nil, newDataError(source, err, err.Error())
		}
		return f, nil
	}

	if l.objects == nil {
		return nil, newDataError(source, nil, "object storage is not configured")
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(source, objectScheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, newDataError(source, nil, "object path must look like s3://bucket/key")
	}

	r, err := l.objects.Open(ctx, bucket, key)
	if err != nil {
		return nil, newDataError(source, err, err.Error())
	}
	return r, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // неровные строки собираются как проблемы, а не обрывают чтение

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// readXLSX читает первый лист. excelize отрезает пустые ячейки в конце строки,
// поэтому короткие строки дополняются до длины заголовка.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}

	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			for len(rows[i]) < width {
				rows[i] = append(rows[i], "")
			}
		}
	}

	return rows, nil
}
