package paymentinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/payment"
)

const (
	masumiDefaultTimeout = 30 * time.Second
	masumiMaxRetries     = 3
)

// MasumiGateway implements payment.Gateway against a Masumi payment service
// node. Purchases are opened with a POST and later polled for settlement.
type MasumiGateway struct {
	apiKey     string
	baseURL    string
	network    string
	agentID    string
	httpClient *http.Client
	maxRetries int
}

// NewMasumiGateway creates a gateway client for the payment service at baseURL.
func NewMasumiGateway(baseURL, apiKey, network, agentID string, httpClient *http.Client) *MasumiGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: masumiDefaultTimeout}
	}
	return &MasumiGateway{
		apiKey:     apiKey,
		baseURL:    baseURL,
		network:    network,
		agentID:    agentID,
		httpClient: httpClient,
		maxRetries: masumiMaxRetries,
	}
}

type masumiPurchaseRequest struct {
	AgentIdentifier string `json:"agent_identifier"`
	Network         string `json:"network"`
	Identifier      string `json:"identifier"`
}

type masumiPurchaseResponse struct {
	PaymentID string     `json:"payment_id"`
	PayByTime *time.Time `json:"pay_by_time,omitempty"`
}

type masumiStatusResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

func (g *MasumiGateway) CreatePurchase(ctx context.Context, req payment.PurchaseRequest) (*payment.Purchase, error) {
	network := req.Network
	if network == "" {
		network = g.network
	}
	agentID := req.AgentIdentifier
	if agentID == "" {
		agentID = g.agentID
	}

	body, err := g.post(ctx, "/purchase", masumiPurchaseRequest{
		AgentIdentifier: agentID,
		Network:         network,
		Identifier:      req.JobID.String(),
	})
	if err != nil {
		return nil, err
	}

	var resp masumiPurchaseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "failed to decode purchase response").
			WithDetail("cause", err.Error())
	}
	if resp.PaymentID == "" {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "purchase response carries no payment id")
	}

	purchase := &payment.Purchase{PaymentID: kernel.NewPaymentID(resp.PaymentID)}
	if resp.PayByTime != nil {
		purchase.PayByTime = *resp.PayByTime
	}
	return purchase, nil
}

func (g *MasumiGateway) GetPurchaseStatus(ctx context.Context, paymentID kernel.PaymentID) (*payment.PurchaseStatus, error) {
	body, err := g.get(ctx, fmt.Sprintf("/purchase/%s/status", paymentID.String()))
	if err != nil {
		return nil, err
	}

	var resp masumiStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "failed to decode status response").
			WithDetail("cause", err.Error())
	}

	status := &payment.PurchaseStatus{PaymentID: paymentID}
	switch resp.Status {
	case "confirmed", "FundsLocked", "Withdrawn":
		status.Resolved = true
		status.Outcome = payment.OutcomeConfirmed
	case "rejected", "RefundRequested", "Refunded":
		status.Resolved = true
		status.Outcome = payment.OutcomeRejected
	}
	return status, nil
}

func (g *MasumiGateway) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "failed to marshal request payload").
			WithDetail("cause", err.Error())
	}
	return g.withRetries(ctx, func() ([]byte, *errx.Error) {
		return g.doRequest(ctx, http.MethodPost, endpoint, jsonData)
	})
}

func (g *MasumiGateway) get(ctx context.Context, endpoint string) ([]byte, error) {
	return g.withRetries(ctx, func() ([]byte, *errx.Error) {
		return g.doRequest(ctx, http.MethodGet, endpoint, nil)
	})
}

func (g *MasumiGateway) withRetries(ctx context.Context, do func() ([]byte, *errx.Error)) ([]byte, error) {
	var lastErr *errx.Error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, payment.ErrGatewayFailure().
					WithDetail("error", "context cancelled during retry").
					WithDetail("cause", ctx.Err().Error())
			}
		}

		body, err := do()
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			break
		}
	}

	return nil, lastErr
}

func (g *MasumiGateway) doRequest(ctx context.Context, method, endpoint string, body []byte) ([]byte, *errx.Error) {
	url := g.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "failed to create HTTP request").
			WithDetail("cause", err.Error())
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("User-Agent", "workgate/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "HTTP request failed").
			WithDetail("url", url).
			WithDetail("cause", err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, payment.ErrGatewayFailure().
			WithDetail("error", "failed to read response body").
			WithDetail("cause", err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, payment.ErrGatewayFailure().
			WithDetail("status_code", resp.StatusCode).
			WithDetail("url", url).
			WithDetail("body", string(respBody))
	}

	return respBody, nil
}

// shouldRetry keeps retries for rate limits and server-side failures only.
func shouldRetry(err *errx.Error) bool {
	statusCode, ok := err.Details["status_code"].(int)
	if !ok {
		// Transport-level failure, worth another attempt.
		_, hasURL := err.Details["url"]
		return hasURL
	}
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}
