package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/keithyco/shopping-cart-api/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Client fetches the product listing from a fakestore-style JSON API and
// caches it. Records are mapped into domain.Product values; the cart never
// sees the wire format.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration

	sfg singleflight.Group // collapses concurrent refreshes

	mu        sync.RWMutex
	products  []domain.Product
	fetchedAt time.Time
}

func NewClient(baseURL string, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   cacheTTL,
	}
}

// apiProduct is the upstream record shape. Ids and prices arrive as JSON
// numbers or strings depending on the backend, so both decode through
// json.Number; "title" and "name" are accepted interchangeably.
type apiProduct struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Image string      `json:"image"`
}

// Products returns the cached listing, refreshing it when stale.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	fresh := c.products != nil && time.Since(c.fetchedAt) < c.cacheTTL
	cached := c.products
	c.mu.RUnlock()
	if fresh {
		return cached, nil
	}

	v, err, _ := c.sfg.Do("products", func() (interface{}, error) {
		products, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.products = products
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		// Serve the stale listing if there is one.
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}
	return v.([]domain.Product), nil
}

// Product looks up a single catalog entry by id.
func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (c *Client) fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog responded with status %d", resp.StatusCode)
	}

	var records []apiProduct
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		price, err := decimal.NewFromString(rec.Price.String())
		if err != nil {
			return nil, fmt.Errorf("product %s: bad price %q: %w", rec.ID, rec.Price, err)
		}
		name := rec.Title
		if name == "" {
			name = rec.Name
		}
		products = append(products, domain.Product{
			ID:    rec.ID.String(),
			Name:  name,
			Price: price,
			Image: rec.Image,
		})
	}
	return products, nil
}
