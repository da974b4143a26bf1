package address

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"conecta-ongs/internal/domain"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://viacep.com.br"

var (
	lookupFoundCounter    = metrics.GetOrCreateCounter(`lookup_requests_total{service="viacep",result="found"}`)
	lookupNotFoundCounter = metrics.GetOrCreateCounter(`lookup_requests_total{service="viacep",result="not_found"}`)
	lookupErrorCounter    = metrics.GetOrCreateCounter(`lookup_requests_total{service="viacep",result="error"}`)
)

// Lookup resolves a CEP to an address. Implementations return
// domain.ErrAddressNotFound when the postal code is unknown.
type Lookup interface {
	Lookup(ctx context.Context, cep string) (domain.Address, error)
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	// ViaCEP has sent both true and "true" here
	Erro any `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

type ViaCEPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewViaCEPClient(baseURL string, timeout time.Duration) *ViaCEPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ViaCEPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *ViaCEPClient) Lookup(ctx context.Context, cep string) (domain.Address, error) {
	digits := domain.Digits(cep)
	if len(digits) != 8 {
		lookupNotFoundCounter.Inc()
		return domain.Address{}, domain.ErrAddressNotFound
	}

	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		lookupErrorCounter.Inc()
		return domain.Address{}, errors.Wrap(err, "build viacep request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		lookupErrorCounter.Inc()
		return domain.Address{}, errors.Wrap(err, "call viacep")
	}
	defer resp.Body.Close()

	// ViaCEP answers 400 for malformed codes
	if resp.StatusCode == http.StatusBadRequest {
		lookupNotFoundCounter.Inc()
		return domain.Address{}, domain.ErrAddressNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		lookupErrorCounter.Inc()
		return domain.Address{}, errors.Errorf("viacep error (status %d): %s", resp.StatusCode, string(body))
	}

	var result viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		lookupErrorCounter.Inc()
		return domain.Address{}, errors.Wrap(err, "decode viacep response")
	}
	if result.notFound() {
		lookupNotFoundCounter.Inc()
		return domain.Address{}, domain.ErrAddressNotFound
	}

	lookupFoundCounter.Inc()
	return domain.Address{
		Street:       result.Logradouro,
		Neighborhood: result.Bairro,
		City:         result.Localidade,
		State:        domain.StateName(result.UF),
	}, nil
}
