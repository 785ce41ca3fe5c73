package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/commands"

	"github.com/google/uuid"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Payment-Signature"

type wireEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Credits    int32     `json:"credits"`
	PaymentRef string    `json:"payment_ref"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Verifier authenticates webhook deliveries from the payment provider.
// The signature covers the raw body bytes, so verification must happen
// before any decoding.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) VerifyAndParse(body []byte, signature string) (*commands.PaymentEvent, error) {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	got := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if got == "" || !hmac.Equal([]byte(expected), []byte(got)) {
		return nil, errs.ErrInvalidSignature
	}

	var wire wireEvent
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, errs.Mark(err, errs.ErrMalformedEvent)
	}
	if wire.ID == "" || wire.Credits <= 0 {
		return nil, errs.ErrMalformedEvent
	}
	userID, err := uuid.Parse(wire.UserID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrMalformedEvent)
	}

	return &commands.PaymentEvent{
		ID:         wire.ID,
		UserID:     userID,
		Credits:    wire.Credits,
		PaymentRef: wire.PaymentRef,
		OccurredAt: wire.OccurredAt,
	}, nil
}
