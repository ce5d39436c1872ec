package cart

// AddItemRequest is the payload for appending or merging a cart line.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       *int   `json:"qty" validate:"required,gt=0"`
}

// SetQuantityRequest overwrites a line quantity. Zero and negative values
// remove the line, so the field only has to be present.
type SetQuantityRequest struct {
	Qty *int `json:"qty" validate:"required"`
}
