package types

// Telemetry metric names for CloudWatch.
const (
	MetricEmailRequestOutcome  = "EmailRequestOutcome"
	MetricDownloadRecordWrites = "DownloadRecordWritten"

	DimResult = "Result"

	MetricNamespace = "QueryResults"
)
