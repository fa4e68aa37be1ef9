package models

import (
	"bytes"
	"encoding/json"
)

// Request fields are untyped so that a wrong JSON type reaches the
// validation layer and is reported as an invalid_type error instead of a
// decode failure.

// Optional holds a field that may be left out. Set records that the key was
// present, so an explicit null is told apart from a missing key.
type Optional struct {
	Set   bool
	Value interface{}
}

// Some returns an Optional holding v.
func Some(v interface{}) Optional {
	return Optional{Set: true, Value: v}
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	o.Set, o.Value = true, v
	return nil
}

func (o Optional) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

type AddItemRequest struct {
	Name     interface{} `json:"name"`
	Price    interface{} `json:"price"`
	Quantity Optional    `json:"quantity"`
}

type DiscountRequest struct {
	Subtotal interface{} `json:"subtotal"`
	Discount interface{} `json:"discount"`
}

type AmountRequest struct {
	Amount interface{} `json:"amount"`
}

// QuoteRequest describes a standalone order to price without touching the
// cart session.
type QuoteRequest struct {
	Items    []AddItemRequest `json:"items"`
	Discount Optional         `json:"discount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}
