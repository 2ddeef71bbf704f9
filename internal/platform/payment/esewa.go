// Package payment implements the eSewa ePay v2 signing scheme and the
// redirect callback payload format.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NishanKutu/ghumfir-api/pkg/config"
)

// Signer produces the keyed signature eSewa expects when a payment form
// is submitted. It holds no state beyond the configured credentials.
type Signer struct {
	secretKey   string
	productCode string
}

func NewSigner(cfg config.ESewaConfig) *Signer {
	return &Signer{
		secretKey:   cfg.SecretKey,
		productCode: cfg.ProductCode,
	}
}

type Signature struct {
	Signature       string `json:"signature"`
	SignedFields    string `json:"signed_field_names"`
	ProductCode     string `json:"product_code"`
	TransactionUUID string `json:"transaction_uuid"`
}

// signedFieldNames is part of the gateway contract; field order and the
// exact key names in the signed message must not change.
const signedFieldNames = "total_amount,transaction_uuid,product_code"

// Sign computes the Base64 HMAC-SHA256 over the gateway's canonical
// message for the given amount and transaction id. The amount is taken
// as the exact string the client will submit to the gateway, so the
// signed bytes match byte for byte.
func (s *Signer) Sign(totalAmount, transactionUUID string) Signature {
	message := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		totalAmount, transactionUUID, s.productCode)

	mac := hmac.New(sha256.New, []byte(s.secretKey))
	mac.Write([]byte(message))

	return Signature{
		Signature:       base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		SignedFields:    signedFieldNames,
		ProductCode:     s.productCode,
		TransactionUUID: transactionUUID,
	}
}

// StatusComplete is the gateway status that confirms a captured payment.
// Anything else routes to the failure path.
const StatusComplete = "COMPLETE"

// CallbackPayload is the JSON document the gateway passes back, Base64
// encoded, in the success-redirect query string.
type CallbackPayload struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

// DecodeCallback decodes the Base64 JSON payload from the gateway
// redirect. The gateway has been observed emitting both standard and
// URL-safe Base64, padded or not, so all four alphabets are tried.
func DecodeCallback(data string) (*CallbackPayload, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, fmt.Errorf("empty callback data")
	}

	var raw []byte
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		raw, err = enc.DecodeString(data)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid callback JSON: %w", err)
	}
	if payload.TransactionUUID == "" {
		return nil, fmt.Errorf("callback missing transaction_uuid")
	}
	return &payload, nil
}

// IsComplete reports whether the payload confirms a captured payment.
func (p *CallbackPayload) IsComplete() bool {
	return p.Status == StatusComplete
}
