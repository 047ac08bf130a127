// Package cajaclient is the register-side library of Mi Caja: it talks to
// the backend over JSON/HTTP and keeps the local state a register screen
// needs (pending charges, the loaded daily summary) with the validation
// that runs before any request is sent.
package cajaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"micaja/internal/dto"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Backend payloads are used as-is on the client side.
type (
	PendingCharge = dto.TurnoPendienteCobro
	Transaction   = dto.TransaccionResponse
	DailySummary  = dto.ResumenDiario
	CashClosing   = dto.CierreCajaResponse
	Product       = dto.ProductoResponse
)

// Client calls the Mi Caja backend on behalf of the operator in session.
// Every call goes through a circuit breaker; while it is open calls fail
// fast with a TransportError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	cb         *gobreaker.CircuitBreaker
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient  *http.Client
	maxFailures uint32
	openTimeout time.Duration
}

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open before letting a probe through.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(o *clientOptions) {
		o.maxFailures = maxFailures
		o.openTimeout = openTimeout
	}
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	o := clientOptions{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		maxFailures: 5,
		openTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		session:    session,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "micaja-api",
			Timeout: o.openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= o.maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("cajaclient: circuit breaker state changed")
			},
		}),
	}
}

func (c *Client) Session() *Session { return c.session }

// ── Auth ─────────────────────────────────────────────────────────────────────

// Login authenticates and stores the tokens in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.UsuarioResponse, error) {
	var resp dto.LoginResponse
	err := c.do(ctx, "login", http.MethodPost, "/v1/auth/login", nil,
		dto.LoginRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return nil, err
	}
	c.session.set(&resp)
	return c.session.Operator(), nil
}

// Refresh trades the session's refresh token for new tokens. Never called
// implicitly: an expired access token surfaces as an unauthorized error.
func (c *Client) Refresh(ctx context.Context) error {
	rt := c.session.refreshToken()
	if rt == "" {
		return &TransportError{Op: "refresh", Unauthorized: true, Err: ErrNoSession}
	}
	var resp dto.LoginResponse
	if err := c.do(ctx, "refresh", http.MethodPost, "/v1/auth/refresh", nil,
		dto.RefreshRequest{RefreshToken: rt}, &resp, false); err != nil {
		return err
	}
	c.session.set(&resp)
	return nil
}

// ── Mi Caja ──────────────────────────────────────────────────────────────────

// ListPendingCharges returns the completed, unpaid appointments of the
// operator in the order the backend delivers them.
func (c *Client) ListPendingCharges(ctx context.Context) (Page[PendingCharge], error) {
	raw, err := c.raw(ctx, "listPendingCharges", "/v1/mi-caja/turnos-pendientes-cobro", nil)
	if err != nil {
		return Page[PendingCharge]{}, err
	}
	page, err := DecodePage[PendingCharge](raw, "turnos")
	if err != nil {
		return Page[PendingCharge]{}, &TransportError{Op: "listPendingCharges", Err: err}
	}
	return page, nil
}

func (c *Client) RecordAppointmentCharge(ctx context.Context, req dto.CobrarTurnoRequest) (*dto.CobrarTurnoResponse, error) {
	var resp dto.CobrarTurnoResponse
	if err := c.do(ctx, "recordAppointmentCharge", http.MethodPost, "/v1/mi-caja/cobrar-turno", nil, req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RecordProductSale(ctx context.Context, req dto.VenderProductoRequest) (*dto.VenderProductoResponse, error) {
	var resp dto.VenderProductoResponse
	if err := c.do(ctx, "recordProductSale", http.MethodPost, "/v1/mi-caja/vender-producto", nil, req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProduct fetches the price and stock a sale is validated against.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var resp Product
	if err := c.do(ctx, "getProduct", http.MethodGet, "/v1/mi-caja/productos/"+url.PathEscape(id), nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDailySummary loads the summary for fecha (YYYY-MM-DD, empty for today).
func (c *Client) GetDailySummary(ctx context.Context, fecha string) (*DailySummary, error) {
	q := url.Values{}
	if fecha != "" {
		q.Set("fecha", fecha)
	}
	var resp DailySummary
	if err := c.do(ctx, "getDailySummary", http.MethodGet, "/v1/mi-caja/resumen-dia", q, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateCashClosing(ctx context.Context, req dto.CierreCajaRequest) (*dto.CrearCierreResponse, error) {
	var resp dto.CrearCierreResponse
	if err := c.do(ctx, "createCashClosing", http.MethodPost, "/v1/mi-caja/cierre-caja", nil, req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListClosings returns one page of the operator's closing history.
func (c *Client) ListClosings(ctx context.Context, page, limit int) (Page[CashClosing], error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	raw, err := c.raw(ctx, "listClosings", "/v1/mi-caja/cierres", q)
	if err != nil {
		return Page[CashClosing]{}, err
	}
	p, err := DecodePage[CashClosing](raw, "cierres")
	if err != nil {
		return Page[CashClosing]{}, &TransportError{Op: "listClosings", Err: err}
	}
	return p, nil
}

// ── Transport ────────────────────────────────────────────────────────────────

// errorBody matches both apierror.APIError and apierror.ValidationError.
type errorBody struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

// statusError marks a 5xx so the breaker counts it as a failure.
type statusError struct{ status int }

func (e statusError) Error() string { return fmt.Sprintf("status %d", e.status) }

type response struct {
	status int
	body   []byte
}

func (c *Client) raw(ctx context.Context, op, path string, q url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, q, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in, out any, auth bool) error {
	token := ""
	if auth {
		token = c.session.token()
		if token == "" {
			return &TransportError{Op: op, Unauthorized: true, Err: ErrNoSession}
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, statusError{status: resp.StatusCode}
		}
		return response{status: resp.StatusCode, body: data}, nil
	})
	if err != nil {
		var se statusError
		if errors.As(err, &se) {
			return &TransportError{Op: op, Status: se.status, Err: err}
		}
		return &TransportError{Op: op, Err: err}
	}

	resp := result.(response)
	if resp.status >= 200 && resp.status < 300 {
		if out == nil || len(resp.body) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.body, out); err != nil {
			return &TransportError{Op: op, Status: resp.status, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}
	return statusToError(op, resp)
}

func statusToError(op string, resp response) error {
	var eb errorBody
	_ = json.Unmarshal(resp.body, &eb)
	msg := eb.Detail
	if msg == "" {
		msg = http.StatusText(resp.status)
	}

	switch resp.status {
	case http.StatusUnauthorized:
		return &TransportError{Op: op, Status: resp.status, Unauthorized: true, Err: errors.New(msg)}
	case http.StatusConflict:
		return &ConflictError{Message: msg}
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity:
		ve := &ValidationError{Message: msg}
		if len(eb.Fields) > 0 {
			fields := make([]string, 0, len(eb.Fields))
			for f := range eb.Fields {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			parts := make([]string, len(fields))
			for i, f := range fields {
				parts[i] = f + ": " + eb.Fields[f]
			}
			ve.Field = fields[0]
			ve.Message = msg + " (" + strings.Join(parts, ", ") + ")"
		}
		return ve
	default:
		return &TransportError{Op: op, Status: resp.status, Err: errors.New(msg)}
	}
}
