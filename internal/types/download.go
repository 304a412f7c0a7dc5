package types

// InitialDownloadsRemaining is the number of times a secure download link can
// be used. The download-serving component decrements it.
const InitialDownloadsRemaining = 2

// SecureDownloadRecord is the DynamoDB item that backs a secure download link.
// It is keyed by DownloadHash and only ever created by this service.
type SecureDownloadRecord struct {
	DownloadHash       string
	S3ResultsKey       string
	S3ResultsBucket    string
	DownloadsRemaining int
	ZendeskID          string
	CreatedDate        int64 // epoch milliseconds
	TTL                int64 // epoch seconds
}
