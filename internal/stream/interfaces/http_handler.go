package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paystream/internal/audit"
	"paystream/internal/auth"
	"paystream/internal/observability/metrics"
	"paystream/internal/stream/application"
	stream "paystream/internal/stream/domain"
)

// Handler handles stream APIs under /api/v1.
type Handler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("stream handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes stream requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/initialize" && r.Method == http.MethodPost:
		h.handleInitialize(w, r)
	case path == "/api/v1/settings" && r.Method == http.MethodGet:
		h.handleSettings(w, r)
	case path == "/api/v1/streams" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case strings.HasPrefix(path, "/api/v1/streams/"):
		h.handleStream(w, r, strings.TrimPrefix(path, "/api/v1/streams/"))
	case strings.HasPrefix(path, "/api/v1/fees/"):
		h.handleFees(w, r, strings.TrimPrefix(path, "/api/v1/fees/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin   string `json:"admin"`
		BaseFee int64  `json:"base_fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Admin == "" {
		http.Error(w, "missing admin", http.StatusBadRequest)
		return
	}
	err := h.service.Initialize(r.Context(), stream.Settings{Admin: req.Admin, BaseFee: req.BaseFee})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.logAudit(r, "", "stream.initialize", map[string]any{"admin": req.Admin, "base_fee": req.BaseFee})
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]any{
		"admin":    settings.Admin,
		"base_fee": settings.BaseFee,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveOperation("create", result, time.Since(start))
	}()

	var req struct {
		Recipient   string `json:"recipient"`
		Amount      int64  `json:"amount"`
		Asset       string `json:"asset"`
		StartTime   int64  `json:"start_time"`
		StopTime    int64  `json:"stop_time"`
		Cancellable bool   `json:"cancellable"`
		CliffTime   int64  `json:"cliff_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	sender := auth.SubjectFromContext(r.Context())
	id, err := h.service.Create(r.Context(), application.CreateRequest{
		Sender:      sender,
		Recipient:   req.Recipient,
		Amount:      req.Amount,
		Asset:       req.Asset,
		StartTime:   req.StartTime,
		StopTime:    req.StopTime,
		Cancellable: req.Cancellable,
		CliffTime:   req.CliffTime,
	})
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"stream_id": id})
	h.logAudit(r, strconv.FormatUint(id, 10), "stream.create", map[string]any{
		"recipient": req.Recipient,
		"amount":    req.Amount,
		"asset":     req.Asset,
	})
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid stream id", http.StatusBadRequest)
		return
	}
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "streamed":
			if r.Method == http.MethodGet {
				h.handleStreamed(w, r, id)
				return
			}
		case "status":
			if r.Method == http.MethodGet {
				h.handleStatus(w, r, id)
				return
			}
		case "withdraw":
			if r.Method == http.MethodPost {
				h.handleWithdraw(w, r, id)
				return
			}
		case "cancel":
			if r.Method == http.MethodPost {
				h.handleCancel(w, r, id)
				return
			}
		case "statement.pdf":
			if r.Method == http.MethodGet {
				h.handleStatementExport(w, r, id, "pdf")
				return
			}
		case "statement.xlsx":
			if r.Method == http.MethodGet {
				h.handleStatementExport(w, r, id, "xlsx")
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id uint64) {
	record, err := h.service.GetStream(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if record == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	respondJSON(w, streamResponse(record))
}

func (h *Handler) handleStreamed(w http.ResponseWriter, r *http.Request, id uint64) {
	amount, err := h.service.StreamedAmount(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, map[string]any{"stream_id": id, "streamed": amount})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, id uint64) {
	status, found, err := h.service.Status(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	respondJSON(w, map[string]any{"stream_id": id, "status": status})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request, id uint64) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveOperation("withdraw", result, time.Since(start))
	}()

	var req struct {
		Recipient string `json:"recipient"`
		Amount    int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	caller := auth.SubjectFromContext(r.Context())
	if err := h.service.Withdraw(r.Context(), caller, req.Recipient, id, req.Amount); err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	metrics.AddWithdrawn(req.Amount)
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, strconv.FormatUint(id, 10), "stream.withdraw", map[string]any{
		"recipient": req.Recipient,
		"amount":    req.Amount,
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, id uint64) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveOperation("cancel", result, time.Since(start))
	}()

	caller := auth.SubjectFromContext(r.Context())
	if err := h.service.Cancel(r.Context(), caller, id); err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	refunded := int64(0)
	if record, err := h.service.GetStream(r.Context(), id); err == nil && record != nil {
		refunded = record.Refunded
	}
	metrics.AddRefunded(refunded)
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, strconv.FormatUint(id, 10), "stream.cancel", map[string]any{
		"refunded": refunded,
	})
}

func (h *Handler) handleStatementExport(w http.ResponseWriter, r *http.Request, id uint64, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementExport(format, result, time.Since(start))
	}()

	record, err := h.service.GetStream(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	if record == nil {
		result = metrics.ResultError
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	streamed, err := h.service.StreamedAmount(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	status, _, err := h.service.Status(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	view := StatementView{
		Stream:   record,
		Streamed: streamed,
		Status:   status,
		AsOf:     time.Now().Unix(),
	}

	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = BuildStreamStatementPDF(view)
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildStreamStatementXLSX(view)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		http.Error(w, "unknown format", http.StatusNotFound)
		return
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, strconv.FormatUint(id, 10), "stream.statement", map[string]any{"format": format})
}

func (h *Handler) handleFees(w http.ResponseWriter, r *http.Request, asset string) {
	if asset == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		fee, err := h.service.AssetFee(r.Context(), asset)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, map[string]any{"asset": asset, "fee": fee})
	case http.MethodPut:
		var req struct {
			Fee int64 `json:"fee"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		caller := auth.SubjectFromContext(r.Context())
		if err := h.service.SetAssetFee(r.Context(), caller, asset, req.Fee); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, asset, "fee.set", map[string]any{"asset": asset, "fee": req.Fee})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) logAudit(r *http.Request, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "stream",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func streamResponse(record *stream.Stream) map[string]any {
	return map[string]any{
		"stream_id":   record.ID,
		"sender":      record.Sender,
		"recipient":   record.Recipient,
		"asset":       record.Token,
		"deposit":     record.Deposit,
		"withdrawn":   record.Withdrawn,
		"refunded":    record.Refunded,
		"start_time":  record.StartTime,
		"cliff_time":  record.CliffTime,
		"stop_time":   record.StopTime,
		"cancellable": record.IsCancellable,
		"cancelled":   record.IsCancelled,
		"depleted":    record.IsDepleted,
	}
}

func respondJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, stream.ErrStreamNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, stream.ErrUnauthorized):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, stream.ErrInvalidAmount),
		errors.Is(err, stream.ErrInvalidTimeOrdering),
		errors.Is(err, stream.ErrSelfTransferRejected):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, stream.ErrAlreadyInitialized),
		errors.Is(err, stream.ErrNotInitialized),
		errors.Is(err, stream.ErrStreamCancelled),
		errors.Is(err, stream.ErrExceedsEntitlement):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, stream.ErrTransferFailed):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
