package gasreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// CoinMarketCapURL is the production quotes endpoint.
const CoinMarketCapURL = "https://pro-api.coinmarketcap.com/v2/cryptocurrency/quotes/latest"

// CoinMarketCap is a PriceSource backed by CoinMarketCap quotes API.
type CoinMarketCap struct {
	// Key is CoinMarketCap API key.
	Key string
	// URL overrides CoinMarketCapURL.
	URL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

type cmcResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string][]struct {
		Quote map[string]struct {
			Price float64 `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// Price implements PriceSource.
func (c CoinMarketCap) Price(ctx context.Context, token, currency string) (float64, error) {
	if c.Key == "" {
		return 0, errors.New("missing API key")
	}

	endpoint := c.URL
	if endpoint == "" {
		endpoint = CoinMarketCapURL
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	q := url.Values{}
	q.Set("symbol", token)
	q.Set("convert", currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.Key)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request quotes: %w", err)
	}
	defer resp.Body.Close()

	var res cmcResponse

	err = json.NewDecoder(resp.Body).Decode(&res)
	if err != nil {
		return 0, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || res.Status.ErrorCode != 0 {
		return 0, fmt.Errorf("API error %d: %s", res.Status.ErrorCode, res.Status.ErrorMessage)
	}

	for _, d := range res.Data[token] {
		if q, ok := d.Quote[currency]; ok {
			return q.Price, nil
		}
	}

	return 0, fmt.Errorf("no %s quote for %s", currency, token)
}
