package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"queryresults/internal/types"
)

// ErrMalformedRequest is returned when a download request body cannot be
// decoded or is missing a field.
var ErrMalformedRequest = errors.New("malformed download request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// RecordStore persists a secure download record.
type RecordStore interface {
	Write(ctx context.Context, in DownloadRecordInput) (types.SecureDownloadRecord, error)
}

// RequestPublisher enqueues a JSON message on a queue.
type RequestPublisher interface {
	Publish(ctx context.Context, queueURL string, v any) (string, error)
}

// GeneratorConfig holds the static settings of a Generator.
type GeneratorConfig struct {
	SendToEmailQueueURL string
	LinkBaseURL         string
}

// Generator turns a completed query into a secure download link and queues the
// email that delivers it.
type Generator struct {
	store     RecordStore
	publisher RequestPublisher
	cfg       GeneratorConfig
	newHash   func() string
	logger    types.Logger
}

// NewGenerator creates a Generator that hashes random UUIDs for download links.
func NewGenerator(store RecordStore, publisher RequestPublisher, cfg GeneratorConfig, logger types.Logger) *Generator {
	return &Generator{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		newHash:   NewDownloadHash,
		logger:    logger,
	}
}

// NewDownloadHash returns the hex SHA-256 of a random UUID v4.
func NewDownloadHash() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

// ParseDownloadRequest decodes and validates a download request body.
func ParseDownloadRequest(body string) (types.DownloadRequest, error) {
	var req types.DownloadRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return types.DownloadRequest{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := validate.Struct(req); err != nil {
		return types.DownloadRequest{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return req, nil
}

// DownloadURL returns the public link for hash.
func (g *Generator) DownloadURL(hash string) string {
	return strings.TrimSuffix(g.cfg.LinkBaseURL, "/") + "/" + hash
}

// Generate handles one download request body: it writes the record, then
// publishes the NotificationRequest for the send-email stage and returns it.
func (g *Generator) Generate(ctx context.Context, body string) (types.NotificationRequest, error) {
	in, err := ParseDownloadRequest(body)
	if err != nil {
		return types.NotificationRequest{}, err
	}

	hash := g.newHash()
	if _, err := g.store.Write(ctx, DownloadRecordInput{
		AthenaQueryID: in.AthenaQueryID,
		DownloadHash:  hash,
		ZendeskID:     in.ZendeskID,
	}); err != nil {
		return types.NotificationRequest{}, err
	}

	req := types.NotificationRequest{
		Email:             in.RecipientEmail,
		FirstName:         in.RecipientName,
		ZendeskID:         in.ZendeskID,
		SecureDownloadURL: g.DownloadURL(hash),
	}

	if _, err := g.publisher.Publish(ctx, g.cfg.SendToEmailQueueURL, req); err != nil {
		return types.NotificationRequest{}, fmt.Errorf("queue email request for ticket %s: %w", in.ZendeskID, err)
	}

	if g.logger != nil {
		g.logger.Info("secure download generated", "zendesk_id", in.ZendeskID)
	}
	return req, nil
}
