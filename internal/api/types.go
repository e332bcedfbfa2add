package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Upload describes an upload record in a transport-friendly format, including
// the metrics derived at snapshot time.
type Upload struct {
	ID               string  `json:"id"`
	OwnerID          string  `json:"ownerId"`
	Destination      string  `json:"destination"`
	FileName         string  `json:"fileName"`
	MimeType         string  `json:"mimeType"`
	TotalBytes       int64   `json:"totalBytes"`
	BytesTransferred int64   `json:"bytesTransferred"`
	State            string  `json:"state"`
	PausedByNetwork  bool    `json:"pausedByNetwork,omitempty"`
	ErrorKind        string  `json:"errorKind,omitempty"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	ResultURL        string  `json:"resultUrl,omitempty"`
	ResultPath       string  `json:"resultPath,omitempty"`
	Attempts         int     `json:"attempts,omitempty"`
	Context          string  `json:"context,omitempty"`
	CreatedAt        string  `json:"createdAt,omitempty"`
	UpdatedAt        string  `json:"updatedAt,omitempty"`
	StartedAt        string  `json:"startedAt,omitempty"`
	Percentage       float64 `json:"percentage"`
	ThroughputBPS    float64 `json:"throughputBps"`
	// ETASeconds is nil when throughput is zero or unmeasured.
	ETASeconds *int64 `json:"etaSeconds,omitempty"`
}

// Metrics carries the derived figures computed by the manager for one upload.
type Metrics struct {
	Percentage    float64
	ThroughputBPS float64
	ETASeconds    *int64
}

// Notification describes one persisted notification.
type Notification struct {
	ID        int64             `json:"id"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	DatabasePath  string         `json:"databasePath"`
	LockFilePath  string         `json:"lockFilePath"`
	SocketPath    string         `json:"socketPath"`
	NetworkOnline bool           `json:"networkOnline"`
	StateCounts   map[string]int `json:"stateCounts"`
}

// UploadListResponse wraps a collection of uploads for API responses.
type UploadListResponse struct {
	Uploads []Upload `json:"uploads"`
}

// UploadResponse wraps a single upload.
type UploadResponse struct {
	Upload Upload `json:"upload"`
}

// NotificationListResponse wraps a collection of notifications.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
}
