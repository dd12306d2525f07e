package source

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/oladoye/sitesync/pkg/model"
)

const (
	defaultBookCategory = "Spiritual Growth"
	defaultBookPages    = 200
	defaultBookImage    = "https://via.placeholder.com/300x450.png?text=New+Book"
)

// flexString accepts both JSON strings and numbers, since Selar is not
// consistent about id and price types across events.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*f = flexString(s)
		return nil
	}

	*f = flexString(data)
	return nil
}

// Product is the payload Selar sends with product events.
type Product struct {
	ID          flexString `json:"id"`
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       flexString `json:"price"`
	Currency    string     `json:"currency"`
	ImageURL    string     `json:"image_url"`
	Thumbnail   string     `json:"thumbnail"`
	Pages       int        `json:"pages"`
	Category    string     `json:"category"`
	PreviewURL  string     `json:"preview_url"`
	URL         string     `json:"url"`
}

// Selar normalizes webhook product payloads into catalog candidates. This is
// the push variant of a catalog client: items arrive one at a time instead of
// being polled in batches.
type Selar struct {
	// Author credited on every book
	Author string
	// StoreURL is the purchase fallback when the product carries no URL
	StoreURL string
}

// Normalize validates a raw product payload and converts it into a candidate.
// Payloads without an id or a title are rejected rather than guessed at.
func (s *Selar) Normalize(data []byte, now time.Time) (*Candidate, error) {
	var product Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "failed to parse product payload: %v", err)
	}

	if product.ID == "" {
		return nil, errors.Wrap(model.ErrInvalidRequest, "product id is required")
	}

	title := product.Name
	if title == "" {
		title = product.Title
	}
	if title == "" {
		return nil, errors.Wrap(model.ErrInvalidRequest, "product name is required")
	}

	category := model.Category(product.Category)
	if category == "" {
		category = defaultBookCategory
	}

	c := &Candidate{
		ExternalID:  string(product.ID),
		Title:       title,
		Description: product.Description,
		PublishedAt: now,
		Category:    category,
	}

	price, _ := strconv.ParseFloat(string(product.Price), 64)
	_ = c.setExtra("price", price)

	currency := product.Currency
	if currency == "" {
		currency = "USD"
	}
	_ = c.setExtra("currency", currency)

	image := product.ImageURL
	if image == "" {
		image = product.Thumbnail
	}
	if image == "" {
		image = defaultBookImage
	}
	_ = c.setExtra("image", image)

	pages := product.Pages
	if pages == 0 {
		pages = defaultBookPages
	}
	_ = c.setExtra("pages", pages)

	if s.Author != "" {
		_ = c.setExtra("author", s.Author)
	}

	if product.PreviewURL != "" {
		_ = c.setExtra("previewUrl", product.PreviewURL)
	}

	purchaseURL := product.URL
	if purchaseURL == "" {
		purchaseURL = s.StoreURL
	}
	if purchaseURL != "" {
		_ = c.setExtra("purchaseUrl", purchaseURL)
	}

	// Keep the original payload for reference
	c.Extra["selar"] = json.RawMessage(data)

	return c, nil
}
