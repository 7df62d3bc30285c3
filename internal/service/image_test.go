package service_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	payload := []byte("\x89PNG\r\n\x1a\nrest")
	encoded := base64.StdEncoding.EncodeToString(payload)

	data, ext, err := service.DecodeDataURI("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, "png", ext)
	assert.Equal(t, payload, data)

	data, ext, err = service.DecodeDataURI("data:image/JPEG;base64," + strings.TrimRight(encoded, "="))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", ext)
	assert.Equal(t, payload, data)

	for _, bad := range []string{
		"",
		"image/png;base64," + encoded,
		"data:image/png," + encoded,
		"data:image/p/n..g;base64," + encoded,
		"data:image/png;base64,!!!not base64!!!",
	} {
		_, _, err := service.DecodeDataURI(bad)
		requireFieldError(t, err, "image")
	}
}

func TestSaveDataURIWritesUnderPrefix(t *testing.T) {
	f := setup(t)
	key, err := f.images.SaveDataURI(context.Background(), pngDataURI)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.Equal(t, ".png", filepath.Ext(key))

	_, err = os.Stat(filepath.Join(f.store.BasePath(), key))
	require.NoError(t, err)
	assert.Equal(t, "/media/"+key, f.images.URL(key))

	f.images.Delete(context.Background(), key)
	_, err = os.Stat(filepath.Join(f.store.BasePath(), key))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRejectsNonImage(t *testing.T) {
	f := setup(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))
	_, err := f.images.SaveDataURI(context.Background(), uri)
	requireFieldError(t, err, "image")
}

func TestSaveUploadDetectsExtension(t *testing.T) {
	f := setup(t)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(pngDataURI, "data:image/png;base64,"))
	require.NoError(t, err)

	key, err := f.images.SaveUpload(context.Background(), &types.ImageUpload{Filename: "photo", Data: raw})
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(key))

	key, err = f.images.SaveUpload(context.Background(), &types.ImageUpload{Filename: "photo.JPG", Data: raw})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(key))
}
