package broker

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/amaumene/tritonevents/internal/models"
)

const (
	// TopicDownload carries acquisition jobs to the download workers
	TopicDownload = "v1.download"
	// TopicStatus carries status updates from the workers
	TopicStatus = "v1.telemetry.status"
)

// DownloadJob is the acquisition job wire format
type DownloadJob struct {
	CreatedAt time.Time `json:"createdAt"`
	Media     JobMedia  `json:"media"`
}

// JobMedia is the media section of a DownloadJob
type JobMedia struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Creator    models.Creator          `json:"creator"`
	CreatorID  string                  `json:"creatorId"`
	Type       models.MediaType        `json:"type"`
	Source     models.SourceProtocol   `json:"source"`
	SourceURI  string                  `json:"sourceURI"`
	Metadata   models.MetadataProvider `json:"metadata"`
	MetadataID string                  `json:"metadataId"`
	Status     models.Status           `json:"status"`
}

// StatusUpdate is the status update wire format
type StatusUpdate struct {
	MediaID string        `json:"mediaId"`
	Status  models.Status `json:"status"`
}

// NewDownloadJob builds the job for a record
func NewDownloadJob(media *models.MediaRecord, createdAt time.Time) *DownloadJob {
	var creatorID string
	if media.CreatorRef != nil {
		creatorID = *media.CreatorRef
	}

	return &DownloadJob{
		CreatedAt: createdAt.UTC(),
		Media: JobMedia{
			ID:         media.ID,
			Name:       media.Name,
			Creator:    media.Creator,
			CreatorID:  creatorID,
			Type:       media.MediaType,
			Source:     media.SourceProtocol,
			SourceURI:  media.SourceLocator,
			Metadata:   media.MetadataProvider,
			MetadataID: media.MetadataID,
			Status:     media.Status,
		},
	}
}

// EncodeJob serializes a download job
func EncodeJob(job *DownloadJob) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	return data, nil
}

// DecodeJob deserializes a download job
func DecodeJob(data []byte) (*DownloadJob, error) {
	var job DownloadJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// EncodeStatusUpdate serializes a status update
func EncodeStatusUpdate(update *StatusUpdate) ([]byte, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status update: %w", err)
	}
	return data, nil
}

// DecodeStatusUpdate deserializes and validates a status update
func DecodeStatusUpdate(data []byte) (*StatusUpdate, error) {
	var update StatusUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("failed to decode status update: %w", err)
	}
	if update.MediaID == "" {
		return nil, fmt.Errorf("status update has no mediaId")
	}
	if !update.Status.Valid() {
		return nil, fmt.Errorf("status update has unknown status %d", update.Status)
	}
	return &update, nil
}
