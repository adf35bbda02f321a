// Package linkhandler serves payment links and the merchant payment API over HTTP
package linkhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MuLx10/morph-payment-sdk/pkg/chains"
	"github.com/MuLx10/morph-payment-sdk/pkg/codec"
	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/sdk"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
	"github.com/MuLx10/morph-payment-sdk/pkg/utils"
)

// Handler exposes an SDK instance over HTTP. The signer is optional; without one the
// pay endpoints report that no wallet is connected.
type Handler struct {
	sdk    *sdk.SDK
	signer chains.Signer
	logger *slog.Logger
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error  string             `json:"error"`
	Kind   types.ErrorKind    `json:"kind,omitempty"`
	Fields []types.FieldError `json:"fields,omitempty"`
}

// LinkResponse describes a decoded payment link
type LinkResponse struct {
	Payment types.Payload `json:"payment"`
	// Display is the amount formatted for a payer, e.g. "12.50 USDC"
	Display  string `json:"display"`
	Network  string `json:"network"`
	ChainID  int64  `json:"chainId"`
	Explorer string `json:"explorer"`
}

// PayResponse is returned after a successful submission
type PayResponse struct {
	Payment     *types.PaymentRequest `json:"payment"`
	TxHash      string                `json:"txHash"`
	ExplorerURL string                `json:"explorerUrl"`
}

type CreatePaymentBody struct {
	Amount      string         `json:"amount"`
	Currency    types.Currency `json:"currency"`
	Description *string        `json:"description,omitempty"`
	// ExpiresIn is in hours
	ExpiresIn float64        `json:"expiresIn,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type UpdateStatusBody struct {
	Status types.Status `json:"status"`
	TxHash *string      `json:"txHash,omitempty"`
}

func New(s *sdk.SDK, signer chains.Signer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sdk:    s,
		signer: signer,
		logger: logger,
	}
}

// Router registers every route on a new mux.Router
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

// Register adds the routes to an existing router
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(constants.PaymentLinkPath, h.DecodeLinkHandler).Methods(http.MethodGet)
	r.HandleFunc(constants.PaymentLinkPath, h.PayLinkHandler).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/payments", h.CreatePaymentHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments", h.ListPaymentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.GetPaymentHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.UpdateStatusHandler).Methods(http.MethodPatch)
	api.HandleFunc("/payments/{id}/link", h.LinkHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/qr", h.QRHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/requirements", h.RequirementsHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/pay", h.PayHandler).Methods(http.MethodPost)
	api.HandleFunc("/stats", h.StatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/export", h.ExportHandler).Methods(http.MethodGet)
}

// DecodeLinkHandler decodes the data parameter of a payment link
func (h *Handler) DecodeLinkHandler(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeLink(w, r)
	if !ok {
		return
	}

	network := h.sdk.Network()
	writeJSON(w, http.StatusOK, LinkResponse{
		Payment:  payload,
		Display:  utils.FormatAmount(payload.Amount, payload.Currency) + " " + payload.Currency.String(),
		Network:  network.Name,
		ChainID:  network.ChainID,
		Explorer: network.ExplorerTx,
	})
}

// PayLinkHandler pays a decoded payment link with the configured signer
func (h *Handler) PayLinkHandler(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeLink(w, r)
	if !ok {
		return
	}

	// the submission is not abandoned when the client goes away
	ctx := context.WithoutCancel(r.Context())
	result := h.sdk.PayLink(ctx, payload, h.signer, nil, nil)
	h.writeResult(w, result)
}

func (h *Handler) decodeLink(w http.ResponseWriter, r *http.Request) (types.Payload, bool) {
	payload, err := codec.DecodeLink(r.URL)
	switch {
	case errors.Is(err, codec.ErrNoPaymentData):
		writeError(w, http.StatusNotFound, ErrorResponse{Error: codec.ErrNoPaymentData.Error(), Kind: types.KindDecode})
		return types.Payload{}, false
	case err != nil:
		h.logger.Debug("invalid payment link", "error", err)
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: codec.ErrInvalidPaymentLink.Error(), Kind: types.KindDecode})
		return types.Payload{}, false
	}
	return payload, true
}

func (h *Handler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var body CreatePaymentBody
	if !decodeBody(w, r, &body) {
		return
	}

	p, err := h.sdk.CreatePayment(sdk.CreatePaymentOptions{
		Amount:      body.Amount,
		Currency:    body.Currency,
		Description: body.Description,
		ExpiresIn:   time.Duration(body.ExpiresIn * float64(time.Hour)),
		Metadata:    body.Metadata,
	})
	if err != nil {
		var verrs types.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid payment request", Kind: types.KindValidation, Fields: verrs})
			return
		}
		h.logger.Error("failed to create payment", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sdk.GetPaymentRequests())
}

func (h *Handler) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body UpdateStatusBody
	if !decodeBody(w, r, &body) {
		return
	}
	if !body.Status.IsValid() {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid status", Kind: types.KindValidation})
		return
	}

	if !h.sdk.UpdatePaymentStatus(id, body.Status, body.TxHash) {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: sdk.ErrPaymentNotFound.Error(), Kind: types.KindNotFound})
		return
	}

	p, _ := h.sdk.GetPaymentRequest(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) LinkHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	base := r.URL.Query().Get("base")
	if base == "" {
		base = requestOrigin(r)
	}

	link, err := h.sdk.GeneratePaymentLink(p, base)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: types.KindValidation})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

func (h *Handler) QRHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := h.sdk.GenerateQRData(p)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: types.KindValidation})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"data": data})
}

// RequirementsHandler returns the request as x402 payment requirements. The resource
// defaults to the request's own API URL.
func (h *Handler) RequirementsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	resource := r.URL.Query().Get("resource")
	if resource == "" {
		resource = requestOrigin(r) + r.URL.Path
	}

	reqs, err := h.sdk.PaymentRequirements(id, resource)
	switch {
	case errors.Is(err, sdk.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: types.KindNotFound})
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: types.KindValidation})
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// PayHandler dispatches a stored payment request with the configured signer
func (h *Handler) PayHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx := context.WithoutCancel(r.Context())
	result := h.sdk.Pay(ctx, id, h.signer, nil, nil)
	h.writeResult(w, result)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sdk.GetPaymentStats())
}

func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	format := types.ExportFormat(r.URL.Query().Get("format"))

	out, err := h.sdk.ExportPaymentData(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: types.KindValidation})
		return
	}

	contentType := "application/json"
	if format == types.ExportCSV {
		contentType = "text/csv"
		w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*types.PaymentRequest, bool) {
	id := mux.Vars(r)["id"]
	p, ok := h.sdk.GetPaymentRequest(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrorResponse{Error: sdk.ErrPaymentNotFound.Error(), Kind: types.KindNotFound})
		return nil, false
	}
	return p, true
}

func (h *Handler) writeResult(w http.ResponseWriter, result types.Result) {
	if result.IsOk() {
		hash := ""
		if result.Payment.TxHash != nil {
			hash = *result.Payment.TxHash
		}
		writeJSON(w, http.StatusOK, PayResponse{
			Payment:     result.Payment,
			TxHash:      hash,
			ExplorerURL: h.sdk.ExplorerURL(hash),
		})
		return
	}

	writeError(w, statusForResult(result), ErrorResponse{Error: result.Message, Kind: result.Kind})
}

func statusForResult(result types.Result) int {
	err := result.AsError()
	switch {
	case result.Kind == types.KindNotFound:
		return http.StatusNotFound
	case errors.Is(err, sdk.ErrPaymentInProgress):
		return http.StatusConflict
	case errors.Is(err, chains.ErrSignerNotConnected):
		return http.StatusServiceUnavailable
	case result.Kind == types.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Kind: types.KindValidation})
		return false
	}
	return true
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}
