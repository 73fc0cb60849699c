package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/constants"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	return db
}

func TestMediaCacheLookupMissIsNotAnError(t *testing.T) {
	repo := NewMediaCacheRepository(testDB(t), nil)

	record, err := repo.Lookup(context.Background(), "youtube", "abc123", constants.MediaKindVideo)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMediaCacheUpsertThenLookup(t *testing.T) {
	repo := NewMediaCacheRepository(testDB(t), nil)
	ctx := context.Background()

	err := repo.Upsert(ctx, &models.MediaCacheRecord{
		Provider:     "youtube",
		MediaID:      "abc123",
		Kind:         constants.MediaKindVideo,
		Source:       "https://youtube.com/shorts/abc123",
		FileID:       "file-1",
		FileUniqueID: "uniq-1",
	})
	require.NoError(t, err)

	record, err := repo.Lookup(ctx, "youtube", "abc123", constants.MediaKindVideo)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "file-1", record.FileID)
	assert.Equal(t, "uniq-1", record.FileUniqueID)
}

func TestMediaCacheUpsertOverwritesHandles(t *testing.T) {
	db := testDB(t)
	repo := NewMediaCacheRepository(db, nil)
	ctx := context.Background()

	first := &models.MediaCacheRecord{
		Provider: "youtube", MediaID: "abc123", Kind: constants.MediaKindVideo,
		FileID: "file-old",
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.MediaCacheRecord{
		Provider: "youtube", MediaID: "abc123", Kind: constants.MediaKindVideo,
		FileID: "file-new", FileUniqueID: "uniq-new",
	}
	require.NoError(t, repo.Upsert(ctx, second))

	record, err := repo.Lookup(ctx, "youtube", "abc123", constants.MediaKindVideo)
	require.NoError(t, err)
	assert.Equal(t, "file-new", record.FileID)
	assert.Equal(t, "uniq-new", record.FileUniqueID)

	var count int64
	require.NoError(t, db.Model(&models.MediaCacheRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMediaCacheKindsAreSeparateEntries(t *testing.T) {
	repo := NewMediaCacheRepository(testDB(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.MediaCacheRecord{
		Provider: "youtube", MediaID: "abc123", Kind: constants.MediaKindVideo, FileID: "vid",
	}))
	require.NoError(t, repo.Upsert(ctx, &models.MediaCacheRecord{
		Provider: "youtube", MediaID: "abc123", Kind: constants.MediaKindAudio, FileID: "aud",
	}))

	video, err := repo.Lookup(ctx, "youtube", "abc123", constants.MediaKindVideo)
	require.NoError(t, err)
	audio, err := repo.Lookup(ctx, "youtube", "abc123", constants.MediaKindAudio)
	require.NoError(t, err)

	assert.Equal(t, "vid", video.FileID)
	assert.Equal(t, "aud", audio.FileID)
}

func TestMediaCacheConcurrentUpsertsSameIdentity(t *testing.T) {
	db := testDB(t)
	repo := NewMediaCacheRepository(db, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Upsert(ctx, &models.MediaCacheRecord{
				Provider: "tiktok", MediaID: "race", Kind: constants.MediaKindVideo,
				FileID: "file-x",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&models.MediaCacheRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
