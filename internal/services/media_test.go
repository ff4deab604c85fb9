package services

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/newsroom-api/server/internal/testutil"
	"github.com/newsroom-api/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestUploadArticleImage(t *testing.T) {
	f := newFixture(t)
	objects := testutil.NewObjects()
	media := NewMediaService(objects, f.users, discardLogger())

	url, err := media.UploadArticleImage(ctx, bytes.NewReader(pngBytes(t, 20, 10)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://media.test/articles/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	require.Len(t, objects.Items, 1)
	for key := range objects.Items {
		assert.Equal(t, "image/png", objects.Types[key])
	}

	_, err = media.UploadArticleImage(ctx, strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	oversized := append(pngBytes(t, 1, 1), make([]byte, MaxImageSize)...)
	_, err = media.UploadArticleImage(ctx, bytes.NewReader(oversized))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestUploadAvatar(t *testing.T) {
	f := newFixture(t)
	reader := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)
	media := NewMediaService(testutil.NewObjects(), f.users, discardLogger())

	user, err := media.UploadAvatar(ctx, reader.ID, bytes.NewReader(pngBytes(t, 300, 500)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.AvatarURL, "https://media.test/avatars/"), user.AvatarURL)
}

func TestUploadsDisabled(t *testing.T) {
	f := newFixture(t)
	media := NewMediaService(nil, f.users, discardLogger())
	assert.False(t, media.Enabled())

	_, err := media.UploadArticleImage(ctx, bytes.NewReader(pngBytes(t, 1, 1)))
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}
