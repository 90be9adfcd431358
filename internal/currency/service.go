package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Conversion is the result of converting an amount between currencies as of
// a given date. Immutable once attached to a transaction.
type Conversion struct {
	ConvertedAmount decimal.Decimal
	Rate            decimal.Decimal
	RateDate        time.Time
}

// Service resolves exchange rates from a frankfurter-style HTTP rate API
// (GET /{date}?from=X&to=Y returning a rates map).
type Service struct {
	client  *http.Client
	baseURL string
}

func NewService(baseURL string) *Service {
	return &Service{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type rateResponse struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Convert converts amount from one currency to another at the rate effective
// on asOf. Same-currency conversions short-circuit with rate 1 and no
// network call.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (*Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return &Conversion{
			ConvertedAmount: amount,
			Rate:            decimal.NewFromInt(1),
			RateDate:        asOf,
		}, nil
	}

	reqURL := fmt.Sprintf("%s/%s?from=%s&to=%s",
		s.baseURL, asOf.Format(time.DateOnly), url.QueryEscape(from), url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate service returned status %d for %s->%s", resp.StatusCode, from, to)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", err)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return nil, fmt.Errorf("rate service returned no rate for %s->%s", from, to)
	}

	rateDate, err := time.Parse(time.DateOnly, body.Date)
	if err != nil {
		// The rate is still usable; fall back to the requested date.
		rateDate = asOf
	}

	rateDec := decimal.NewFromFloat(rate)

	return &Conversion{
		ConvertedAmount: amount.Mul(rateDec).Round(2),
		Rate:            rateDec,
		RateDate:        rateDate,
	}, nil
}
