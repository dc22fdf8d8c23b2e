package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/referral-api/internal/dto"
	"github.com/noah-isme/referral-api/internal/models"
	appErrors "github.com/noah-isme/referral-api/pkg/errors"
)

var uploadTime = time.Date(2024, 3, 1, 12, 0, 0, 123_000_000, time.UTC)

func newMediaFixture() (*MediaService, *fakeSchools, *fakeColleges, *fakeStore) {
	schools := &fakeSchools{}
	colleges := &fakeColleges{}
	store := newFakeStore()
	svc := NewMediaService(schools, colleges, store, &fakeAudit{}, NewMetricsService(), zap.NewNop(), MediaConfig{KeyPrefix: "Videos", MaxUploadBytes: 1 << 20})
	svc.now = func() time.Time { return uploadTime }
	return svc, schools, colleges, store
}

func videoFile(name, body string) dto.VideoUpload {
	return dto.VideoUpload{Filename: name, MimeType: "video/mp4", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func TestMediaServiceObjectKey(t *testing.T) {
	svc, _, _, _ := newMediaFixture()
	assert.Equal(t, "Videos/1709294400123-intro.mp4", svc.ObjectKey("intro.mp4", uploadTime))
	assert.Equal(t, "Videos/1709294400123-intro.mp4", svc.ObjectKey(`C:\Users\me\intro.mp4`, uploadTime))
	assert.Equal(t, "Videos/1709294400123-intro.mp4", svc.ObjectKey("../../intro.mp4", uploadTime))
}

func TestMediaServiceUploadVideo(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	school := schools.add(models.School{ReferralCode: models.DirectReferralCode, IsEnabled: true})

	res, err := svc.UploadVideo(context.Background(), school.ID, videoFile("intro.mp4", "frames"), admin, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/Videos/1709294400123-intro.mp4", res.URL)
	assert.Equal(t, []byte("frames"), store.objects["Videos/1709294400123-intro.mp4"])

	stored, _ := schools.FindByID(context.Background(), school.ID)
	require.NotNil(t, stored.VideoKey)
	assert.Equal(t, "Videos/1709294400123-intro.mp4", *stored.VideoKey)
	assert.Equal(t, res.URL, *stored.VideoURL)
}

func TestMediaServiceUploadVideoWithoutFile(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	school := schools.add(models.School{IsEnabled: true})

	_, err := svc.UploadVideo(context.Background(), school.ID, dto.VideoUpload{}, admin, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
	assert.Zero(t, store.calls())
	stored, _ := schools.FindByID(context.Background(), school.ID)
	assert.Nil(t, stored.VideoKey)
}

func TestMediaServiceUploadVideoTooLarge(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	school := schools.add(models.School{IsEnabled: true})

	file := videoFile("big.mp4", "x")
	file.Size = 2 << 20
	_, err := svc.UploadVideo(context.Background(), school.ID, file, admin, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
	assert.Zero(t, store.calls())
}

func TestMediaServiceUploadVideoUnknownSchool(t *testing.T) {
	svc, _, _, store := newMediaFixture()

	_, err := svc.UploadVideo(context.Background(), "missing", videoFile("intro.mp4", "frames"), admin, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, store.calls())
}

func TestMediaServiceUploadVideoForbiddenForOtherCollege(t *testing.T) {
	svc, schools, colleges, store := newMediaFixture()
	colleges.items = []*models.College{{ID: "c-1", ReferralCode: "AAAAAAAAAA"}}
	school := schools.add(models.School{ReferralCode: "BBBBBBBBBB", IsEnabled: true})

	_, err := svc.UploadVideo(context.Background(), school.ID, videoFile("intro.mp4", "frames"), models.Actor{ID: "c-1", Role: models.RoleCollege}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Zero(t, store.calls())
}

func TestMediaServiceUploadVideoSameMillisecondOverwrites(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	school := schools.add(models.School{IsEnabled: true})
	ctx := context.Background()

	first, err := svc.UploadVideo(ctx, school.ID, videoFile("intro.mp4", "first"), admin, models.RequestMeta{})
	require.NoError(t, err)
	second, err := svc.UploadVideo(ctx, school.ID, videoFile("intro.mp4", "second"), admin, models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, []byte("second"), store.objects["Videos/1709294400123-intro.mp4"])
	assert.Empty(t, store.deletes)
}

func TestMediaServiceUploadVideoReplacesPreviousObject(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	oldKey := "Videos/1-old.mp4"
	store.objects[oldKey] = []byte("old")
	school := schools.add(models.School{IsEnabled: true, VideoKey: &oldKey})

	_, err := svc.UploadVideo(context.Background(), school.ID, videoFile("new.mp4", "new"), admin, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{oldKey}, store.deletes)
	assert.NotContains(t, store.objects, oldKey)
}

func TestMediaServiceUploadVideoCompensatesFailedUpdate(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	school := schools.add(models.School{IsEnabled: true})
	schools.updateVideoErr = errors.New("db down")

	_, err := svc.UploadVideo(context.Background(), school.ID, videoFile("intro.mp4", "frames"), admin, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, []string{"Videos/1709294400123-intro.mp4"}, store.deletes)
	assert.Empty(t, store.objects)
}

func TestMediaServiceUploadVideoStorageFailure(t *testing.T) {
	svc, schools, _, store := newMediaFixture()
	school := schools.add(models.School{IsEnabled: true})
	store.putErr = errors.New("bucket unavailable")

	_, err := svc.UploadVideo(context.Background(), school.ID, videoFile("intro.mp4", "frames"), admin, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	stored, _ := schools.FindByID(context.Background(), school.ID)
	assert.Nil(t, stored.VideoKey)
}

func TestMediaServiceDeleteFromStorage(t *testing.T) {
	svc, _, _, store := newMediaFixture()
	store.objects["Videos/1-a.mp4"] = []byte("a")

	require.NoError(t, svc.DeleteFromStorage(context.Background(), "Videos/1-a.mp4"))
	assert.Empty(t, store.objects)

	store.deleteErr = errors.New("denied")
	assert.Error(t, svc.DeleteFromStorage(context.Background(), "Videos/1-a.mp4"))
}
