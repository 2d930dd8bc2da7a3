package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citybites/site/internal/observability"
)

func newTestService(t *testing.T) (*Service, *fakeBlobs, *fakeOwner, *fakeOwner) {
	t.Helper()
	blobs := newFakeBlobs()
	events := newFakeOwner()
	restaurants := newFakeOwner()
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)
	svc := NewService(blobs, map[Kind]Owner{
		KindEvent:      events,
		KindRestaurant: restaurants,
	}, zap.NewNop(), metrics)
	return svc, blobs, events, restaurants
}

func pngFile(name string) File {
	return File{Name: name, ContentType: "image/png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)}
}

func pngFiles(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = pngFile(fmt.Sprintf("f%d.png", i))
	}
	return files
}

func TestReplaceSingleRetiresPreviousFile(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("events/e1/cover/coverA.png")
	events.add("e1", map[string]string{"cover": "events/e1/cover/coverA.png"}, nil)

	coverB, err := svc.ReplaceSingle(context.Background(), EventCover, "e1", pngFile("b.png"))
	require.NoError(t, err)

	assert.NotEqual(t, "events/e1/cover/coverA.png", coverB)
	assert.False(t, blobs.Exists("events/e1/cover/coverA.png"))
	assert.True(t, blobs.Exists(coverB))
	assert.Equal(t, coverB, events.rows["e1"].single["cover"])
	assert.Equal(t, []string{coverB}, blobs.Keys())
}

func TestReplaceSingleEmptySlot(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	events.add("e1", nil, nil)

	p, err := svc.ReplaceSingle(context.Background(), EventCover, "e1", pngFile("a.png"))
	require.NoError(t, err)
	assert.True(t, blobs.Exists(p))
	assert.Empty(t, blobs.deleteCalls, "nothing to retire")
}

func TestReplaceSingleUploadFailureLeavesStateUntouched(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("events/e1/cover/coverA.png")
	events.add("e1", map[string]string{"cover": "events/e1/cover/coverA.png"}, nil)
	blobs.failUploadN = 1

	_, err := svc.ReplaceSingle(context.Background(), EventCover, "e1", pngFile("b.png"))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, StageUpload, opErr.Stage)

	assert.Equal(t, []string{"events/e1/cover/coverA.png"}, blobs.Keys())
	assert.Equal(t, "events/e1/cover/coverA.png", events.rows["e1"].single["cover"])
}

func TestReplaceSingleDeleteFailureRollsBackUpload(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("events/e1/cover/coverA.png")
	events.add("e1", map[string]string{"cover": "events/e1/cover/coverA.png"}, nil)
	blobs.failDelete = true

	_, err := svc.ReplaceSingle(context.Background(), EventCover, "e1", pngFile("b.png"))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, StageDelete, opErr.Stage)

	// delete of old + compensating delete of new were both attempted
	require.Len(t, blobs.deleteCalls, 2)
	assert.Equal(t, []string{"events/e1/cover/coverA.png"}, blobs.deleteCalls[0])
	assert.True(t, strings.HasPrefix(blobs.deleteCalls[1][0], "events/e1/cover/"))
	assert.Equal(t, "events/e1/cover/coverA.png", events.rows["e1"].single["cover"])
}

func TestReplaceSingleCompensationRemovesNewBlob(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("events/e1/cover/coverA.png")
	events.add("e1", map[string]string{"cover": "events/e1/cover/coverA.png"}, nil)

	// Fail only the first delete: the compensating one goes through.
	failing := &failFirstDelete{fakeBlobs: blobs}
	svc.blobs = failing

	_, err := svc.ReplaceSingle(context.Background(), EventCover, "e1", pngFile("b.png"))
	require.Error(t, err)
	assert.Equal(t, []string{"events/e1/cover/coverA.png"}, blobs.Keys())
}

type failFirstDelete struct {
	*fakeBlobs
	calls int
}

func (f *failFirstDelete) Delete(ctx context.Context, keys []string) error {
	f.calls++
	if f.calls == 1 {
		return errInjected
	}
	return f.fakeBlobs.Delete(ctx, keys)
}

func TestReplaceSingleUpdateFailureKeepsNewBlob(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	events.add("e1", nil, nil)
	events.failUpdate = true

	_, err := svc.ReplaceSingle(context.Background(), EventCover, "e1", pngFile("b.png"))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, StageUpdate, opErr.Stage)
	assert.Len(t, blobs.Keys(), 1, "orphan is surfaced, not cleaned up")
}

func TestReplaceSingleRejectsListSlotAndUnknownOwner(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ReplaceSingle(context.Background(), EventGallery, "e1", pngFile("a.png"))
	require.ErrorIs(t, err, ErrSlotType)

	_, err = svc.ReplaceSingle(context.Background(), EventCover, "missing", pngFile("a.png"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ReplaceSingle(context.Background(), SectionLogo, "header", pngFile("a.png"))
	require.ErrorIs(t, err, ErrUnknownSlot)
}

func TestAppendCapacityRejectedBeforeUpload(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	gallery := make([]string, 24)
	for i := range gallery {
		gallery[i] = fmt.Sprintf("events/e1/gallery/%d.png", i)
	}
	events.add("e1", nil, map[string][]string{"gallery": gallery})

	_, err := svc.Append(context.Background(), EventGallery, "e1", pngFiles(2))
	require.ErrorIs(t, err, ErrCapacity)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 24, capErr.Current)
	assert.Equal(t, 2, capErr.Adding)

	assert.Zero(t, blobs.uploads)
	assert.Empty(t, blobs.Keys())
	assert.Len(t, events.rows["e1"].lists["gallery"], 24)
}

func TestAppendFillsToCapacity(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	events.add("e1", nil, map[string][]string{"gallery": {"events/e1/gallery/0.png"}})

	paths, err := svc.Append(context.Background(), EventGallery, "e1", pngFiles(24))
	require.NoError(t, err)
	require.Len(t, paths, 24)

	stored := events.rows["e1"].lists["gallery"]
	require.Len(t, stored, 25)
	assert.Equal(t, "events/e1/gallery/0.png", stored[0])
	assert.Equal(t, paths, stored[1:], "appended in upload order")
	for _, p := range paths {
		assert.True(t, blobs.Exists(p))
	}
}

func TestAppendStopsAtFirstUploadFailure(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	events.add("e1", nil, map[string][]string{"gallery": {"events/e1/gallery/0.png"}})
	blobs.failUploadN = 2

	_, err := svc.Append(context.Background(), EventGallery, "e1", pngFiles(3))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, StageUpload, opErr.Stage)

	assert.Equal(t, 2, blobs.uploads, "no upload after the failing one")
	assert.Len(t, blobs.Keys(), 1, "first upload is left behind")
	assert.Equal(t, []string{"events/e1/gallery/0.png"}, events.rows["e1"].lists["gallery"])
}

func TestAppendValidation(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	events.add("e1", nil, nil)

	_, err := svc.Append(context.Background(), EventGallery, "e1", nil)
	require.ErrorIs(t, err, ErrNoFiles)

	_, err = svc.Append(context.Background(), EventCover, "e1", pngFiles(1))
	require.ErrorIs(t, err, ErrSlotType)

	files := pngFiles(2)
	files[1].ContentType = "text/plain"
	_, err = svc.Append(context.Background(), EventGallery, "e1", files)
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Zero(t, blobs.uploads)
}

func TestRemoveFromGalleryPreservesOrder(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("p1", "p2", "p3")
	events.add("e1", nil, map[string][]string{"gallery": {"p1", "p2", "p3"}})

	require.NoError(t, svc.Remove(context.Background(), EventGallery, "e1", "p2"))

	assert.False(t, blobs.Exists("p2"))
	assert.Equal(t, []string{"p1", "p3"}, events.rows["e1"].lists["gallery"])
}

func TestRemoveBlobFailureKeepsReference(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("p1", "p2")
	events.add("e1", nil, map[string][]string{"gallery": {"p1", "p2"}})
	blobs.failDelete = true

	err := svc.Remove(context.Background(), EventGallery, "e1", "p2")
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, StageDelete, opErr.Stage)
	assert.Equal(t, []string{"p1", "p2"}, events.rows["e1"].lists["gallery"])
}

func TestRemoveRejectsForeignPath(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("p1", "other")
	events.add("e1", nil, map[string][]string{"gallery": {"p1"}})

	err := svc.Remove(context.Background(), EventGallery, "e1", "other")
	require.ErrorIs(t, err, ErrNotOwned)
	assert.True(t, blobs.Exists("other"))
	assert.Empty(t, blobs.deleteCalls)
}

func TestRemoveClearsSingleSlot(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	blobs.seed("c1")
	events.add("e1", map[string]string{"cover": "c1"}, nil)

	require.NoError(t, svc.Remove(context.Background(), EventCover, "e1", "c1"))
	assert.False(t, blobs.Exists("c1"))
	assert.Equal(t, "", events.rows["e1"].single["cover"])
}

func TestDeleteByDiff(t *testing.T) {
	svc, blobs, _, _ := newTestService(t)
	a := "events/e1/gallery/a.png"
	b := "events/e1/gallery/b.png"
	c := "events/e1/gallery/c.png"
	blobs.seed(a, b, c)

	deleted, err := svc.DeleteByDiff(context.Background(), []string{a, b, c}, []string{c, a, a})
	require.NoError(t, err)
	assert.Equal(t, []string{b}, deleted)
	assert.Equal(t, []string{a, c}, blobs.Keys())
	require.Len(t, blobs.deleteCalls, 1, "single bulk call")

	deleted, err = svc.DeleteByDiff(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Len(t, blobs.deleteCalls, 1, "no call for an empty diff")
}

func TestDeletePathsToleratesMissingKeys(t *testing.T) {
	svc, blobs, _, _ := newTestService(t)
	blobs.seed("events/e1/cover/a.png")

	deleted, err := svc.DeletePaths(context.Background(), []string{"events/e1/cover/a.png", "events/e1/cover/gone.png"})
	require.NoError(t, err)
	assert.Len(t, deleted, 2)
	assert.Empty(t, blobs.Keys())

	_, err = svc.DeletePaths(context.Background(), []string{"../../etc/passwd"})
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestDeleteWithAssetsCascades(t *testing.T) {
	svc, blobs, _, restaurants := newTestService(t)
	blobs.seed("c1", "g1", "g2", "c3", "unrelated")
	restaurants.add("r1", map[string]string{"cover": "c1"}, map[string][]string{"gallery": {"g1", "g2"}}, "child")
	restaurants.add("child", map[string]string{"cover": "c3"}, nil)

	res, err := svc.DeleteWithAssets(context.Background(), KindRestaurant, "r1")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"c1", "g1", "g2", "c3"}, res.DeletedPaths)
	assert.Equal(t, 1, res.RelatedCount)
	assert.Equal(t, []string{"unrelated"}, blobs.Keys())
	assert.Empty(t, restaurants.rows)
	require.Len(t, blobs.deleteCalls, 1, "single bulk call")
}

func TestDeleteWithAssetsBlobFailureDeletesNoRows(t *testing.T) {
	svc, blobs, _, restaurants := newTestService(t)
	blobs.seed("c1", "c3")
	restaurants.add("r1", map[string]string{"cover": "c1"}, nil, "child")
	restaurants.add("child", map[string]string{"cover": "c3"}, nil)
	blobs.failDelete = true

	_, err := svc.DeleteWithAssets(context.Background(), KindRestaurant, "r1")
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, StageDelete, opErr.Stage)

	assert.Contains(t, restaurants.rows, "r1")
	assert.Contains(t, restaurants.rows, "child")
	cover, err := restaurants.Single(context.Background(), "child", "cover")
	require.NoError(t, err)
	assert.Equal(t, "c3", cover)
}

func TestDeleteWithAssetsNoFiles(t *testing.T) {
	svc, blobs, events, _ := newTestService(t)
	events.add("e1", nil, nil)

	res, err := svc.DeleteWithAssets(context.Background(), KindEvent, "e1")
	require.NoError(t, err)
	assert.Empty(t, res.DeletedPaths)
	assert.NotNil(t, res.DeletedPaths)
	assert.Zero(t, res.RelatedCount)
	assert.Empty(t, blobs.deleteCalls)
	assert.Empty(t, events.rows)
}
