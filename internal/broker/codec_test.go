package broker

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/tritonevents/internal/models"
)

func TestDownloadJobWireFormat(t *testing.T) {
	cardID := "card-1"
	rec := &models.MediaRecord{
		ID:               "5f0c8c4e-8b39-4c38-9a47-2f1b0c3a9d11",
		Name:             "Cowboy Bebop",
		Creator:          models.CreatorBoard,
		CreatorRef:       &cardID,
		MediaType:        models.MediaTypeSeries,
		SourceProtocol:   models.SourceMagnet,
		SourceLocator:    "magnet:?xt=urn:btih:abc",
		MetadataProvider: models.MetadataMAL,
		MetadataID:       "1",
		Status:           models.StatusQueued,
	}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	data, err := EncodeJob(NewDownloadJob(rec, created))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2026-01-02T03:04:05Z", raw["createdAt"])

	media := raw["media"].(map[string]interface{})
	assert.Equal(t, rec.ID, media["id"])
	assert.Equal(t, "Cowboy Bebop", media["name"])
	assert.EqualValues(t, 1, media["creator"])
	assert.Equal(t, "card-1", media["creatorId"])
	assert.EqualValues(t, 1, media["type"])
	assert.EqualValues(t, 1, media["source"])
	assert.Equal(t, "magnet:?xt=urn:btih:abc", media["sourceURI"])
	assert.EqualValues(t, 0, media["metadata"])
	assert.Equal(t, "1", media["metadataId"])
	assert.EqualValues(t, 0, media["status"])

	job, err := DecodeJob(data)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, job.Media.ID)
}

func TestDecodeStatusUpdate(t *testing.T) {
	update, err := DecodeStatusUpdate([]byte(`{"mediaId":"m-1","status":4}`))
	require.NoError(t, err)
	assert.Equal(t, "m-1", update.MediaID)
	assert.Equal(t, models.StatusDeployed, update.Status)

	for _, body := range []string{
		`not json`,
		`{"status":1}`,
		`{"mediaId":"m-1","status":9}`,
		`{"mediaId":"m-1","status":-1}`,
	} {
		_, err := DecodeStatusUpdate([]byte(body))
		assert.Error(t, err, body)
	}
}
