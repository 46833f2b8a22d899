package http

import (
	"encoding/csv"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"txaudit/internal/domain/transaction"
	"txaudit/internal/shared/apperr"
	"txaudit/internal/shared/logger"
	"txaudit/internal/shared/middleware"
)

const reportFilename = "transaction_report.csv"

var (
	reportMeter           = otel.Meter("txaudit/reports")
	reportRowsExported, _ = reportMeter.Int64Counter("txaudit.report.rows",
		metric.WithDescription("Transactions written to reports"),
	)
)

type ReportHandler struct {
	service *transaction.Service
}

func NewReportHandler(service *transaction.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// HandleReport returns every transaction matching the filters, as a JSON
// array or, with format=csv, as a CSV attachment.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthenticated("authentication required"))
		return
	}

	query := r.URL.Query()
	filters, err := transaction.NormalizeFilters(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := query.Get("format"); format {
	case "", "json":
		rows, err := h.service.GenerateReport(r.Context(), filters, caller)
		if err != nil {
			writeError(w, r, err)
			return
		}
		reportRowsExported.Add(r.Context(), int64(len(rows)), metric.WithAttributes(attribute.String("format", "json")))
		writeJSON(w, http.StatusOK, rows)
	case "csv":
		h.streamCSV(w, r, filters)
	default:
		writeError(w, r, apperr.Validation("format", "must be json or csv"))
	}
}

// streamCSV writes the report batch by batch. Errors before the first batch
// still produce a JSON error; later ones can only cut the stream short.
func (h *ReportHandler) streamCSV(w http.ResponseWriter, r *http.Request, filters transaction.Filters) {
	caller, _ := middleware.CallerFrom(r.Context())
	cw := csv.NewWriter(w)
	started := false
	var written int64

	begin := func() error {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+reportFilename+`"`)
		w.WriteHeader(http.StatusOK)
		started = true
		return cw.Write(transaction.CSVHeader)
	}

	err := h.service.StreamReport(r.Context(), filters, caller, func(batch []*transaction.Transaction) error {
		if !started {
			if err := begin(); err != nil {
				return err
			}
		}
		for _, tx := range batch {
			if err := cw.Write(tx.CSVRecord()); err != nil {
				return err
			}
		}
		written += int64(len(batch))
		cw.Flush()
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return cw.Error()
	})
	if err != nil {
		if !started {
			writeError(w, r, err)
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("rows_written", written).Msg("csv report aborted")
		return
	}

	if !started {
		err = begin()
	}
	cw.Flush()
	if err == nil {
		err = cw.Error()
	}
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("rows_written", written).Msg("csv report aborted")
		return
	}
	reportRowsExported.Add(r.Context(), written, metric.WithAttributes(attribute.String("format", "csv")))
}
