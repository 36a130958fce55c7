package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/obs"
	"github.com/storelinehq/storeline-api/internal/resilience"
)

const (
	serviceUsers        = "users"
	serviceSiteSettings = "site-settings"
)

// Client talks to the remote subgraphs. The caller's bearer token is forwarded
// from the request context so the downstream service applies its own
// authorization.
type Client struct {
	HTTP            *resilience.HTTPClient
	UserServiceURL  string
	SiteSettingsURL string
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

type baseResult struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}

const taxExemptionQuery = `query GetTaxExemptionEntryByUserId($userId: ID!) {
  getTaxExemptionEntryByUserId(userId: $userId) {
    statusCode
    success
    message
    ... on TaxExemptionResponse {
      taxExemptionEntry { id userId status expiryDate }
    }
  }
}`

// TaxExemptionByUserID fetches the buyer's tax exemption entry. A 404 union
// member means the buyer has none and yields nil.
func (c *Client) TaxExemptionByUserID(ctx context.Context, userID uuid.UUID) (*TaxExemption, error) {
	var payload struct {
		Result struct {
			baseResult
			Entry *TaxExemption `json:"taxExemptionEntry,omitempty"`
		} `json:"getTaxExemptionEntryByUserId"`
	}
	err := c.post(ctx, serviceUsers, c.UserServiceURL, taxExemptionQuery,
		map[string]any{"userId": userID.String()}, &payload)
	if err != nil {
		return nil, err
	}
	switch {
	case payload.Result.StatusCode == http.StatusOK:
		return payload.Result.Entry, nil
	case payload.Result.StatusCode == http.StatusNotFound:
		return nil, nil
	default:
		return nil, unionError(serviceUsers, "getTaxExemptionEntryByUserId", payload.Result.baseResult)
	}
}

const addressBookQuery = `query GetAddressBookEntryById($id: ID!, $userId: ID!) {
  getAddressBookEntryById(id: $id, userId: $userId) {
    statusCode
    success
    message
    ... on AddressBookResponse {
      addressBook { id userId country state city zipCode defaultTaxAddress }
    }
  }
}`

// AddressByID fetches one of the buyer's address-book entries. A 404 union
// member yields nil; the caller decides whether a missing address is an error.
func (c *Client) AddressByID(ctx context.Context, id, userID uuid.UUID) (*Address, error) {
	var payload struct {
		Result struct {
			baseResult
			Address *Address `json:"addressBook,omitempty"`
		} `json:"getAddressBookEntryById"`
	}
	err := c.post(ctx, serviceUsers, c.UserServiceURL, addressBookQuery,
		map[string]any{"id": id.String(), "userId": userID.String()}, &payload)
	if err != nil {
		return nil, err
	}
	switch {
	case payload.Result.StatusCode == http.StatusOK:
		return payload.Result.Address, nil
	case payload.Result.StatusCode == http.StatusNotFound:
		return nil, nil
	default:
		return nil, unionError(serviceUsers, "getAddressBookEntryById", payload.Result.baseResult)
	}
}

const shopDefaultTaxQuery = `query GetShopForDefaultTax {
  getShopForDefaultTax {
    statusCode
    success
    message
    ... on ShopResponse {
      shop { addresses { id country state city zipCode defaultTaxAddress } }
    }
  }
}`

// DefaultTaxAddress fetches the shop address flagged as the default tax
// address from site settings. Nil when no address carries the flag.
func (c *Client) DefaultTaxAddress(ctx context.Context) (*Address, error) {
	var payload struct {
		Result struct {
			baseResult
			Shop *struct {
				Addresses []Address `json:"addresses,omitempty"`
			} `json:"shop,omitempty"`
		} `json:"getShopForDefaultTax"`
	}
	err := c.post(ctx, serviceSiteSettings, c.SiteSettingsURL, shopDefaultTaxQuery, nil, &payload)
	if err != nil {
		return nil, err
	}
	switch {
	case payload.Result.StatusCode == http.StatusOK:
		if payload.Result.Shop == nil {
			return nil, nil
		}
		for i := range payload.Result.Shop.Addresses {
			if payload.Result.Shop.Addresses[i].DefaultTaxAddress {
				return &payload.Result.Shop.Addresses[i], nil
			}
		}
		return nil, nil
	case payload.Result.StatusCode == http.StatusNotFound:
		return nil, nil
	default:
		return nil, unionError(serviceSiteSettings, "getShopForDefaultTax", payload.Result.baseResult)
	}
}

func (c *Client) post(ctx context.Context, service, url, query string, vars map[string]any, out any) error {
	if c == nil || c.HTTP == nil {
		return fmt.Errorf("remote: client not configured for %s", service)
	}
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := common.BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		recordCall(service, "error")
		return fmt.Errorf("remote: %s call failed: %w", service, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		recordCall(service, "error")
		return fmt.Errorf("remote: %s returned %s", service, resp.Status)
	}

	var envelope gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordCall(service, "error")
		return fmt.Errorf("remote: decode %s response: %w", service, err)
	}
	if len(envelope.Errors) > 0 {
		recordCall(service, "error")
		return fmt.Errorf("remote: %s graphql error: %s", service, envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		recordCall(service, "error")
		return fmt.Errorf("remote: decode %s payload: %w", service, err)
	}
	recordCall(service, "ok")
	return nil
}

func unionError(service, op string, res baseResult) error {
	msg := res.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Errorf("remote: %s %s returned %d: %s", service, op, res.StatusCode, msg)
}

func recordCall(service, result string) {
	if obs.RemoteCallTotal != nil {
		obs.RemoteCallTotal.WithLabelValues(service, result).Inc()
	}
}
