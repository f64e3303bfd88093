// Package push delivers browser Web Push notifications over VAPID,
// grounded on the pack's webpush-go usage and adapted to wodbooker's
// subscription store instead of an in-process map.
package push

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"wodbooker-go/internal/config"
	"wodbooker-go/internal/store/postgres"
)

// Message is the payload delivered to a subscribed browser. Data
// carries structured fields (reservation ID, weekday label) the
// service worker uses to build the on-screen notification and deep
// link; see SPEC_FULL's day-of-week preservation note.
type Message struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Tag   string         `json:"tag,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender delivers Messages to every subscription on file for a user,
// pruning subscriptions the push service reports as gone.
type Sender struct {
	repo       *postgres.PushRepository
	publicKey  string
	privateKey string
	subject    string
	logger     *zap.Logger
}

// New creates a Sender. privateKey is normalized once at construction
// time so the per-send hot path never pays the decode cost.
func New(repo *postgres.PushRepository, cfg config.PushConfig, logger *zap.Logger) (*Sender, error) {
	privateKey, err := normalizePrivateKey(cfg.VAPIDPrivateKey)
	if err != nil {
		return nil, err
	}
	return &Sender{
		repo:       repo,
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: privateKey,
		subject:    cfg.VAPIDSubject,
		logger:     logger,
	}, nil
}

// Enabled reports whether VAPID credentials are configured;
// SendToUser sends nothing and returns nil when they are not.
func (s *Sender) Enabled() bool {
	return s != nil && s.publicKey != "" && s.privateKey != ""
}

// SendToUser delivers msg to every subscription registered for
// userID, deleting any endpoint the push service reports as expired
// (404/410). Errors from individual endpoints are logged, not
// returned, so one stale subscription never blocks delivery to the
// user's other devices.
func (s *Sender) SendToUser(ctx context.Context, userID string, msg Message) error {
	if !s.Enabled() {
		return nil
	}

	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		s.deliver(ctx, sub.Endpoint, sub.P256dhKey, sub.AuthKey, payload)
	}
	return nil
}

func (s *Sender) deliver(ctx context.Context, endpoint, p256dh, auth string, payload []byte) {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subject,
		TTL:             60,
	})
	if err != nil {
		s.logger.Warn("push delivery failed", zap.Error(err), zap.String("endpoint", endpoint))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if err := s.repo.DeleteByEndpoint(ctx, endpoint); err != nil {
			s.logger.Warn("failed to prune expired push subscription", zap.Error(err))
		}
		return
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("push service rejected notification", zap.Int("status", resp.StatusCode), zap.String("endpoint", endpoint))
	}
}

// normalizePrivateKey accepts either a raw base64url-encoded P-256
// scalar (32 bytes, as emitted by common generate_vapid_keys.py-style
// tooling) or an already base64url-encoded PKCS8 DER key, and returns
// the PKCS8 form webpush-go expects.
func normalizePrivateKey(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", err
	}

	if _, err := x509.ParsePKCS8PrivateKey(decoded); err == nil {
		return raw, nil
	}

	// Not PKCS8: treat as a raw 32-byte P-256 scalar and wrap it.
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(decoded)
	x, y := curve.ScalarBaseMult(decoded)
	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(der), nil
}
