package rates

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Rates holds the official VES exchange rates published by the
// Banco Central de Venezuela for one trading day.
type Rates struct {
	USDToVES  decimal.Decimal `json:"usd_to_ves"`
	EURToVES  decimal.Decimal `json:"eur_to_ves"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// RateFor returns the VES rate for a supported currency.
func (r *Rates) RateFor(currency valueobject.Currency) (decimal.Decimal, error) {
	switch currency {
	case valueobject.USD:
		return r.USDToVES, nil
	case valueobject.EUR:
		return r.EURToVES, nil
	case valueobject.VES:
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, fmt.Errorf("no VES rate for currency %q", currency)
}

// Provider fetches the current exchange rates.
type Provider interface {
	FetchRates(ctx context.Context) (*Rates, error)
}

// BCVClient scrapes the BCV homepage. The page has no API; the official
// rates live in #dolar and #euro blocks with a comma decimal separator.
type BCVClient struct {
	url    string
	client *http.Client
}

// NewBCVClient creates a scraper for the given BCV URL.
func NewBCVClient(url string, timeout time.Duration) *BCVClient {
	return &BCVClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchRates downloads and parses the BCV homepage.
func (c *BCVClient) FetchRates(ctx context.Context) (*Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build BCV request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch BCV page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BCV returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse BCV page: %w", err)
	}

	usd, err := parseRate(doc, "#dolar")
	if err != nil {
		return nil, err
	}
	eur, err := parseRate(doc, "#euro")
	if err != nil {
		return nil, err
	}

	return &Rates{
		USDToVES:  usd,
		EURToVES:  eur,
		FetchedAt: time.Now(),
	}, nil
}

// parseRate extracts a rate value from a BCV currency block.
func parseRate(doc *goquery.Document, selector string) (decimal.Decimal, error) {
	text := strings.TrimSpace(doc.Find(selector + " strong").First().Text())
	if text == "" {
		return decimal.Zero, fmt.Errorf("rate element %s not found in BCV page", selector)
	}

	// BCV formats rates as "36,58" with an optional thousands dot.
	normalized := strings.ReplaceAll(text, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	rate, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse rate %q from %s: %w", text, selector, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %q from %s", text, selector)
	}
	return rate, nil
}

var _ Provider = (*BCVClient)(nil)
