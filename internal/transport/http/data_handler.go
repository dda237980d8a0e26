package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"investcli/internal/dataprocessing"
	apierrors "investcli/internal/errors"
	"investcli/internal/middleware"
	"investcli/internal/services"
)

// DataHandler serves the dashboard queries over the canonical dataset.
type DataHandler struct {
	service      DataServiceInterface
	validator    *middleware.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    middleware.NewQueryValidator(logger),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes, mounted under /api/data.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.GetOverview)
	r.Get("/filters", h.GetFilterOptions)
	r.Get("/summary", h.GetSummary)

	r.Route("/markets", func(r chi.Router) {
		r.Get("/top", h.GetTopMarkets)
		r.Get("/share", h.GetMarketShare)
		r.Get("/acquisition-rate", h.GetAcquisitionRates)
	})
	r.Get("/countries/top", h.GetTopCountries)

	r.Route("/funding", func(r chi.Router) {
		r.Get("/by-year", h.GetFundingByYear)
		r.Get("/by-type", h.GetFundingByType)
	})

	r.Post("/cache/invalidate", h.InvalidateCache)
	return r
}

// query parses the common filter parameters. On failure the problem
// response is already written.
func (h *DataHandler) query(w http.ResponseWriter, r *http.Request) (services.Query, bool) {
	fq, err := h.validator.ParseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return services.Query{}, false
	}
	return services.Query{Filter: fq.Filter(), Limit: fq.Limit}, true
}

// fail maps service errors onto API errors.
func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), "data query failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("request_id", chimw.GetReqID(r.Context())),
	)

	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		h.errorHandler.HandleError(w, r, apierrors.DatasetNotFoundError(h.service.DatasetPath()))
	case errors.Is(err, dataprocessing.ErrMissingColumn),
		errors.Is(err, dataprocessing.ErrEmptyInput):
		h.errorHandler.HandleError(w, r, apierrors.DatasetInvalidError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func respond(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	})
}

// GetOverview handles GET /api/data/overview
func (h *DataHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	ov, err := h.service.Overview(r.Context(), q)
	if err != nil {
		h.fail(w, r, "overview", err)
		return
	}
	respond(w, r, ov, ov.Filtered)
}

// GetFilterOptions handles GET /api/data/filters
func (h *DataHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.fail(w, r, "filters", err)
		return
	}
	respond(w, r, opts, len(opts.Markets))
}

// GetSummary handles GET /api/data/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), q)
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	respond(w, r, summary, summary.TotalStartups)
}

// GetTopMarkets handles GET /api/data/markets/top?metric=sum|mean
func (h *DataHandler) GetTopMarkets(w http.ResponseWriter, r *http.Request) {
	metric, err := h.validator.ValidateEnum(r, "metric", []string{services.MetricSum, services.MetricMean}, services.MetricSum)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	res, err := h.service.TopMarkets(r.Context(), q, metric)
	if err != nil {
		h.fail(w, r, "top_markets", err)
		return
	}
	respond(w, r, res, len(res.Items))
}

// GetMarketShare handles GET /api/data/markets/share
func (h *DataHandler) GetMarketShare(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	res, err := h.service.MarketShare(r.Context(), q)
	if err != nil {
		h.fail(w, r, "market_share", err)
		return
	}
	respond(w, r, res, len(res.Items))
}

// GetAcquisitionRates handles GET /api/data/markets/acquisition-rate
func (h *DataHandler) GetAcquisitionRates(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	res, err := h.service.AcquisitionRates(r.Context(), q)
	if err != nil {
		h.fail(w, r, "acquisition_rates", err)
		return
	}
	respond(w, r, res, len(res.Items))
}

// GetTopCountries handles GET /api/data/countries/top
func (h *DataHandler) GetTopCountries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	res, err := h.service.TopCountries(r.Context(), q)
	if err != nil {
		h.fail(w, r, "top_countries", err)
		return
	}
	respond(w, r, res, len(res.Items))
}

// GetFundingByYear handles GET /api/data/funding/by-year
func (h *DataHandler) GetFundingByYear(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	res, err := h.service.FundingByYear(r.Context(), q)
	if err != nil {
		h.fail(w, r, "funding_by_year", err)
		return
	}
	respond(w, r, res, len(res.Items))
}

// GetFundingByType handles GET /api/data/funding/by-type
func (h *DataHandler) GetFundingByType(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	res, err := h.service.FundingByType(r.Context(), q)
	if err != nil {
		h.fail(w, r, "funding_by_type", err)
		return
	}
	respond(w, r, res, len(res.Items))
}

// InvalidateCache handles POST /api/data/cache/invalidate
func (h *DataHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	removed := h.service.InvalidateCache(r.Context())
	respond(w, r, map[string]interface{}{
		"dataset": h.service.DatasetPath(),
		"removed": removed,
	}, removed)
}
