package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ID is a commerce platform identifier. Webhook payloads carry ids as
// JSON numbers while the Admin API uses string gids, so both forms
// decode into it.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

var ErrMissingField = errors.New("missing required field")

// InventoryUpdateEvent is the parsed inventory_levels/update webhook
// payload. Available is a pointer so an absent field is distinguishable
// from a legitimate zero quantity.
type InventoryUpdateEvent struct {
	InventoryItemID ID   `json:"inventory_item_id"`
	LocationID      ID   `json:"location_id"`
	Available       *int `json:"available"`
}

func (e InventoryUpdateEvent) Validate() error {
	if e.InventoryItemID == "" {
		return fmt.Errorf("%w: inventory_item_id", ErrMissingField)
	}
	if e.LocationID == "" {
		return fmt.Errorf("%w: location_id", ErrMissingField)
	}
	if e.Available == nil {
		return fmt.Errorf("%w: available", ErrMissingField)
	}
	return nil
}
