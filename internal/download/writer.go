// Package download creates secure download records and hands the resulting
// link to the send-email queue.
package download

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"queryresults/internal/metrics"
	"queryresults/internal/types"
)

// DynamoPutter abstracts the DynamoDB PutItem operation for testability.
// Production code uses the *dynamodb.Client from aws-sdk-go-v2.
type DynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// WriteRecorder counts record writes.
type WriteRecorder interface {
	RecordDownloadWrite(ctx context.Context, result metrics.Result)
}

// DownloadRecordInput identifies the results a secure download record points at.
type DownloadRecordInput struct {
	AthenaQueryID string
	DownloadHash  string
	ZendeskID     string
}

// WriterConfig holds the static settings of a RecordWriter.
type WriterConfig struct {
	TableName  string
	BucketName string
	TTL        time.Duration
}

// RecordWriter persists SecureDownloadRecords to DynamoDB. It performs a
// single PutItem per record and does not retry.
type RecordWriter struct {
	client   DynamoPutter
	cfg      WriterConfig
	recorder WriteRecorder
	logger   types.Logger
	now      func() time.Time
}

// WriterOption is a functional option for configuring a RecordWriter.
type WriterOption func(*RecordWriter)

// WithClock overrides the clock used for createdDate and ttl.
func WithClock(now func() time.Time) WriterOption {
	return func(w *RecordWriter) {
		w.now = now
	}
}

// WithWriteRecorder sets the metrics recorder.
func WithWriteRecorder(r WriteRecorder) WriterOption {
	return func(w *RecordWriter) {
		w.recorder = r
	}
}

// NewRecordWriter creates a RecordWriter.
func NewRecordWriter(client DynamoPutter, cfg WriterConfig, logger types.Logger, opts ...WriterOption) *RecordWriter {
	w := &RecordWriter{
		client:   client,
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewRecord builds the record for in at time now. The results object is
// "<athenaQueryId>.csv" in the configured bucket.
func (w *RecordWriter) NewRecord(in DownloadRecordInput, now time.Time) types.SecureDownloadRecord {
	return types.SecureDownloadRecord{
		DownloadHash:       in.DownloadHash,
		S3ResultsKey:       in.AthenaQueryID + ".csv",
		S3ResultsBucket:    w.cfg.BucketName,
		DownloadsRemaining: types.InitialDownloadsRemaining,
		ZendeskID:          in.ZendeskID,
		CreatedDate:        now.UnixMilli(),
		TTL:                now.Unix() + int64(w.cfg.TTL/time.Second),
	}
}

// Write stores the record for in and returns it.
func (w *RecordWriter) Write(ctx context.Context, in DownloadRecordInput) (types.SecureDownloadRecord, error) {
	record := w.NewRecord(in, w.now())

	if w.logger != nil {
		w.logger.Info("writing secure download record", "zendesk_id", in.ZendeskID)
	}

	_, err := w.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(w.cfg.TableName),
		Item:      marshalRecord(record),
	})
	w.recorder.RecordDownloadWrite(ctx, metrics.ResultOf(err))
	if err != nil {
		return types.SecureDownloadRecord{}, fmt.Errorf("put secure download record for ticket %s: %w", in.ZendeskID, err)
	}

	return record, nil
}

func marshalRecord(r types.SecureDownloadRecord) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"downloadHash":       &ddbtypes.AttributeValueMemberS{Value: r.DownloadHash},
		"s3ResultsKey":       &ddbtypes.AttributeValueMemberS{Value: r.S3ResultsKey},
		"s3ResultsBucket":    &ddbtypes.AttributeValueMemberS{Value: r.S3ResultsBucket},
		"downloadsRemaining": &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(r.DownloadsRemaining)},
		"zendeskId":          &ddbtypes.AttributeValueMemberS{Value: r.ZendeskID},
		"createdDate":        &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(r.CreatedDate, 10)},
		"ttl":                &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(r.TTL, 10)},
	}
}
