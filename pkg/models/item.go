package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item is one listing on the board.
type Item struct {
	// ID is assigned by the store. Zero means "not yet assigned".
	ID          int64   `json:"id" jsonschema:"minimum=0,description=Store-assigned id; 0 when submitting"`
	Title       string  `json:"title" jsonschema:"required,minLength=1"`
	Description string  `json:"description" jsonschema:"required,minLength=1"`
	Price       float64 `json:"price" jsonschema:"required,minimum=0"`
	ImageURL    string  `json:"image_url" jsonschema:"description=Reference to displayable media; not checked"`
}

// FormatPrice renders the price without a fraction when it is whole.
func (i Item) FormatPrice() string {
	if i.Price == float64(int64(i.Price)) {
		return fmt.Sprintf("%d", int64(i.Price))
	}
	return fmt.Sprintf("%.2f", i.Price)
}

// Assigned reports whether the store has given the item an id.
func (i Item) Assigned() bool {
	return i.ID != 0
}

// UnmarshalJSON decodes an item, accepting "imageRef" as an alias of "image_url".
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var aux struct {
		plain
		ImageRef *string `json:"imageRef"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Item(aux.plain)
	if i.ImageURL == "" && aux.ImageRef != nil {
		i.ImageURL = *aux.ImageRef
	}
	return nil
}

// ParseItem decodes exactly one pushed item. Pushed items always carry a
// store-assigned id, so a payload that is not a JSON object or has no positive
// id is rejected.
func ParseItem(data []byte) (Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Item{}, fmt.Errorf("payload is not a JSON object")
	}

	var item Item
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return Item{}, fmt.Errorf("decode item: %w", err)
	}
	if item.ID <= 0 {
		return Item{}, fmt.Errorf("pushed item has no assigned id (got %d)", item.ID)
	}
	return item, nil
}

// ParseItems decodes a snapshot: a JSON array of items.
func ParseItems(data []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("payload is not a JSON array")
	}

	var items []Item
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
