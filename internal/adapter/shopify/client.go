package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hoangnm/variant-sync/internal/core/domain"
	"github.com/hoangnm/variant-sync/internal/port"
)

const (
	defaultAPIVersion       = "2024-07"
	defaultVariantPageLimit = 50

	// set-quantities parameters fixed by the sync semantics: the write
	// is a correction of absolute quantities, not a delta, so compare
	// quantity checks are bypassed.
	quantityName   = "available"
	quantityReason = "correction"
)

// TransportError is a non-2xx HTTP exchange with the Admin API,
// distinct from the mutation's application-level userErrors.
type TransportError struct {
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// Temporary reports whether the failure is a rate limit or upstream
// outage worth retrying.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Throttled reports whether the upstream rejected the call for rate
// limiting.
func (e *TransportError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type Config struct {
	StoreDomain      string // e.g. "example.myshopify.com"
	AccessToken      string
	APIVersion       string
	VariantPageLimit int

	// Endpoint overrides the URL built from StoreDomain; used by tests.
	Endpoint string

	HTTPClient *http.Client
}

// Client talks to the Shopify Admin GraphQL API.
type Client struct {
	endpoint   string
	token      string
	pageLimit  int
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.StoreDomain, version)
	}

	pageLimit := cfg.VariantPageLimit
	if pageLimit <= 0 {
		pageLimit = defaultVariantPageLimit
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		endpoint:   endpoint,
		token:      cfg.AccessToken,
		pageLimit:  pageLimit,
		httpClient: httpClient,
	}
}

const resolveProductQuery = `query($id: ID!) {
  inventoryItem(id: $id) {
    variant {
      id
      product { id }
    }
  }
}`

func (c *Client) ResolveOwningProduct(ctx context.Context, inventoryItemID domain.ID) (domain.ID, error) {
	var out struct {
		InventoryItem *struct {
			Variant *struct {
				ID      string `json:"id"`
				Product struct {
					ID string `json:"id"`
				} `json:"product"`
			} `json:"variant"`
		} `json:"inventoryItem"`
	}

	vars := map[string]any{"id": toGID("InventoryItem", inventoryItemID)}
	if err := c.do(ctx, resolveProductQuery, vars, &out); err != nil {
		return "", fmt.Errorf("resolve owning product: %w", err)
	}

	if out.InventoryItem == nil || out.InventoryItem.Variant == nil {
		return "", fmt.Errorf("inventory item %s: %w", inventoryItemID, port.ErrItemNotFound)
	}

	return fromGID(out.InventoryItem.Variant.Product.ID), nil
}

const listVariantsQuery = `query($id: ID!, $first: Int!) {
  product(id: $id) {
    variants(first: $first) {
      pageInfo { hasNextPage }
      edges {
        node {
          id
          inventoryItem { id }
        }
      }
    }
  }
}`

func (c *Client) ListVariants(ctx context.Context, productID domain.ID) ([]domain.VariantRef, bool, error) {
	var out struct {
		Product *struct {
			Variants struct {
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
				Edges []struct {
					Node struct {
						ID            string `json:"id"`
						InventoryItem struct {
							ID string `json:"id"`
						} `json:"inventoryItem"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"variants"`
		} `json:"product"`
	}

	vars := map[string]any{
		"id":    toGID("Product", productID),
		"first": c.pageLimit,
	}
	if err := c.do(ctx, listVariantsQuery, vars, &out); err != nil {
		return nil, false, fmt.Errorf("list variants: %w", err)
	}

	if out.Product == nil {
		return nil, false, fmt.Errorf("product %s not found upstream", productID)
	}

	members := make([]domain.VariantRef, 0, len(out.Product.Variants.Edges))
	for _, edge := range out.Product.Variants.Edges {
		members = append(members, domain.VariantRef{
			VariantID:       fromGID(edge.Node.ID),
			InventoryItemID: fromGID(edge.Node.InventoryItem.ID),
		})
	}

	return members, out.Product.Variants.PageInfo.HasNextPage, nil
}

const setQuantitiesMutation = `mutation($input: InventorySetQuantitiesInput!) {
  inventorySetQuantities(input: $input) {
    userErrors { field message }
  }
}`

func (c *Client) SetQuantity(ctx context.Context, inventoryItemID, locationID domain.ID, quantity int) ([]port.UserError, error) {
	var out struct {
		InventorySetQuantities struct {
			UserErrors []port.UserError `json:"userErrors"`
		} `json:"inventorySetQuantities"`
	}

	vars := map[string]any{
		"input": map[string]any{
			"name":                  quantityName,
			"reason":                quantityReason,
			"ignoreCompareQuantity": true,
			"quantities": []map[string]any{{
				"inventoryItemId": toGID("InventoryItem", inventoryItemID),
				"locationId":      toGID("Location", locationID),
				"quantity":        quantity,
			}},
		},
	}
	if err := c.do(ctx, setQuantitiesMutation, vars, &out); err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}

	return out.InventorySetQuantities.UserErrors, nil
}

type gqlError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}

	return nil
}
