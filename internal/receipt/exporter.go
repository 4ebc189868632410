package receipt

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/settlement/internal/clock"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/zap"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"

	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Exporter renders receipts and statements and keeps receipts in Storage.
type Exporter struct {
	storage Storage
	prefix  string
	clock   clock.Clock
	log     *zap.Logger
}

func NewExporter(storage Storage, prefix string, clk clock.Clock, log *zap.Logger) *Exporter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		storage: storage,
		prefix:  strings.Trim(prefix, "/"),
		clock:   clk,
		log:     log.Named("receipt.exporter"),
	}
}

func (e *Exporter) Render(_ context.Context, doc settlementdomain.ReceiptDocument) ([]byte, error) {
	start := time.Now()
	data, err := RenderReceiptPDF(doc)
	observe(FormatPDF, start, err)
	return data, err
}

// Store writes data under <prefix>/<yyyy>/<mm>/<slug(hint)>-<ulid>.pdf.
func (e *Exporter) Store(ctx context.Context, data []byte, fileNameHint string) (string, error) {
	key := e.objectKey(fileNameHint)
	ref, err := e.storage.Put(ctx, key, ContentTypePDF, data)
	if err != nil {
		return "", err
	}
	e.log.Debug("receipt stored", zap.String("ref", ref), zap.Int("bytes", len(data)))
	return ref, nil
}

func (e *Exporter) Open(ctx context.Context, ref string) ([]byte, error) {
	data, err := e.storage.Get(ctx, ref)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, settlementdomain.ErrReceiptNotFound
	}
	return data, err
}

// MonthlyPDF renders a monthly statement; statements are streamed, not stored.
func (e *Exporter) MonthlyPDF(view settlementdomain.MonthlyView) ([]byte, error) {
	start := time.Now()
	data, err := RenderMonthlyPDF(view)
	observe(FormatPDF, start, err)
	return data, err
}

func (e *Exporter) MonthlyXLSX(view settlementdomain.MonthlyView) ([]byte, error) {
	start := time.Now()
	data, err := BuildStatementXLSX(view)
	observe(FormatXLSX, start, err)
	return data, err
}

func (e *Exporter) objectKey(hint string) string {
	now := e.clock.Now().UTC()
	name := slug.Make(hint)
	if name == "" {
		name = "receipt"
	}
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	file := fmt.Sprintf("%s-%s.%s", name, strings.ToLower(id.String()), FormatPDF)
	return path.Join(e.prefix, now.Format("2006"), now.Format("01"), file)
}

func observe(format string, start time.Time, err error) {
	result := obsmetrics.ExportResultSuccess
	if err != nil {
		result = obsmetrics.ExportResultError
	}
	obsmetrics.ObserveExport(format, result, time.Since(start))
}

var _ settlementdomain.ReceiptExporter = (*Exporter)(nil)
