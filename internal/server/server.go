package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/iwvelando/mortgage-calculator/internal/keyrate"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/output"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// RateSource supplies the suggested interest rate.
type RateSource interface {
	Fetch(ctx context.Context) (keyrate.Rate, error)
}

// Options configures NewHandler.
type Options struct {
	Logger      *zap.Logger
	MaxBodySize int64
	Version     string
	// Defaults fill query parameters missing from schedule requests.
	Defaults loans.LoanParameters
	History  *history.Service
	// KeyRate may be nil, in which case /api/key-rate reports it unavailable.
	KeyRate RateSource
	// Now is the clock used for export dates; time.Now when nil.
	Now func() time.Time
}

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	defaults    loans.LoanParameters
	history     *history.Service
	keyRate     RateSource
	now         func() time.Time
}

// NewHandler constructs the HTTP handler that serves the web UI and calculator API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	historyService := opts.History
	if historyService == nil {
		historyService = history.NewService(history.NewMemoryStore(), logger)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	h := &handler{
		logger:      logger,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		defaults:    opts.Defaults,
		history:     historyService,
		keyRate:     opts.KeyRate,
		now:         now,
	}

	r := mux.NewRouter()
	r.Use(h.limitBody, h.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/calculate", h.handleCalculate).Methods(http.MethodPost)
	api.HandleFunc("/export", h.handleExport).Methods(http.MethodPost)
	api.HandleFunc("/schedule/{year:[0-9]+}", h.handleSchedule).Methods(http.MethodGet)
	api.HandleFunc("/calculations", h.handleListCalculations).Methods(http.MethodGet)
	api.HandleFunc("/calculations", h.handleSaveCalculation).Methods(http.MethodPost)
	api.HandleFunc("/calculations", h.handleClearCalculations).Methods(http.MethodDelete)
	api.HandleFunc("/calculations/{id:[0-9]+}", h.handleGetCalculation).Methods(http.MethodGet)
	api.HandleFunc("/calculations/{id:[0-9]+}", h.handleDeleteCalculation).Methods(http.MethodDelete)
	api.HandleFunc("/key-rate", h.handleKeyRate).Methods(http.MethodGet)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	r.PathPrefix("/").MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		return !strings.HasPrefix(req.URL.Path, "/api/")
	}).Handler(http.FileServer(http.FS(sub)))

	return r
}

func (h *handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request served",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type calculationResponse struct {
	Params             loans.LoanParameters `json:"params"`
	Result             loans.Result         `json:"result"`
	Analytics          loans.Analytics      `json:"analytics"`
	DownPaymentPercent float64              `json:"downPaymentPercent"`
	Years              int                  `json:"years"`
	FirstYear          loans.YearTotals     `json:"firstYear"`
}

type titledRequest struct {
	Title  string               `json:"title"`
	Params loans.LoanParameters `json:"params"`
}

type savedCalculationResponse struct {
	Calculation history.Calculation `json:"calculation"`
	calculationResponse
}

type calculationListResponse struct {
	Calculations   []history.Calculation `json:"calculations"`
	Count          int                   `json:"count"`
	AveragePayment float64               `json:"averagePayment"`
}

func buildCalculationResponse(params loans.LoanParameters, result loans.Result) calculationResponse {
	return calculationResponse{
		Params:             params,
		Result:             result,
		Analytics:          loans.Analyze(result, params.LoanTermYears),
		DownPaymentPercent: loans.DownPaymentPercent(params),
		Years:              loans.YearCount(result.Schedule),
		FirstYear:          loans.YearSummary(result.Schedule, 1),
	}
}

// normalizeParams validates params and canonicalizes the payment type.
func normalizeParams(params loans.LoanParameters) (loans.LoanParameters, error) {
	if err := loans.Validate(params); err != nil {
		return params, err
	}
	paymentType, err := loans.ParsePaymentType(string(params.PaymentType))
	if err != nil {
		return params, err
	}
	params.PaymentType = paymentType
	return params, nil
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	var params loans.LoanParameters
	if !h.decodeJSON(w, r, &params, op) {
		return
	}
	params, err := normalizeParams(params)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result := loans.Compute(params)
	if !result.IsFinite() {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, loans.ErrNonFinite.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, buildCalculationResponse(params, result))
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	var req titledRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	params, err := normalizeParams(req.Params)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result := loans.Compute(params)
	if !result.IsFinite() {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, loans.ErrNonFinite.Error(), op)
		return
	}

	now := h.now()
	report := output.Report{
		Title:      req.Title,
		Params:     params,
		Result:     result,
		ExportedAt: now,
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": output.ExportFileName(now),
	}))
	w.WriteHeader(http.StatusOK)
	if err := output.CsvFormat(w, report); err != nil {
		h.logger.Error("failed to write CSV export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"

	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "invalid year", op)
		return
	}

	params, err := h.paramsFromQuery(r.URL.Query())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	params, err = normalizeParams(params)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result := loans.Compute(params)
	if year < 1 || year > loans.YearCount(result.Schedule) {
		h.respondErrorWithOp(w, http.StatusNotFound,
			fmt.Sprintf("year %d is outside the %d year term", year, params.LoanTermYears), op)
		return
	}

	h.writeJSON(w, http.StatusOK, loans.YearSummary(result.Schedule, year))
}

// paramsFromQuery overlays query values (price, down, years, rate, type) on
// the configured defaults.
func (h *handler) paramsFromQuery(query url.Values) (loans.LoanParameters, error) {
	params := h.defaults

	floatFields := []struct {
		key    string
		target *float64
	}{
		{"price", &params.PropertyPrice},
		{"down", &params.DownPayment},
		{"rate", &params.InterestRate},
	}
	for _, field := range floatFields {
		raw := strings.TrimSpace(query.Get(field.key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, fmt.Errorf("invalid %s %q", field.key, raw)
		}
		*field.target = value
	}

	if raw := strings.TrimSpace(query.Get("years")); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("invalid years %q", raw)
		}
		params.LoanTermYears = years
	}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		params.PaymentType = loans.PaymentType(raw)
	}
	return params, nil
}

func (h *handler) handleListCalculations(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListCalculations"
	ctx := r.Context()

	calcs, err := h.history.Query(ctx, history.Filter{
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
	})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to list calculations: %v", err), op)
		return
	}

	average, err := h.history.Average(ctx)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to average calculations: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, calculationListResponse{
		Calculations:   calcs,
		Count:          len(calcs),
		AveragePayment: average,
	})
}

func (h *handler) handleSaveCalculation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveCalculation"

	var req titledRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	params, err := normalizeParams(req.Params)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	calc, err := h.history.Save(r.Context(), req.Title, params, loans.Compute(params))
	if errors.Is(err, history.ErrEmptyTitle) {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if errors.Is(err, loans.ErrNonFinite) {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save calculation: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusCreated, calc)
}

func (h *handler) handleGetCalculation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetCalculation"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	calc, result, err := h.history.Load(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load calculation: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, savedCalculationResponse{
		Calculation:         calc,
		calculationResponse: buildCalculationResponse(calc.Params(), result),
	})
}

func (h *handler) handleDeleteCalculation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteCalculation"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	err := h.history.Delete(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete calculation: %v", err), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleClearCalculations(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to clear calculations: %v", err), "server.handleClearCalculations")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleKeyRate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleKeyRate"

	if h.keyRate == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "key rate lookup is not configured", op)
		return
	}

	rate, err := h.keyRate.Fetch(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadGateway, fmt.Sprintf("failed to get key rate: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, rate)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "invalid calculation id", op)
		return 0, false
	}
	return id, true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}, op string) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
