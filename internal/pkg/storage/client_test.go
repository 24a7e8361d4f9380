package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), &Config{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "ap-south-1",
		BucketName:      "materials",
		EndpointURL:     "http://localhost:9000",
		Enabled:         true,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientDisabled(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{})
	assert.Error(t, err)
}

func TestParseLocator(t *testing.T) {
	c := testClient(t)

	bucket, key, err := c.ParseLocator("s3://notes/physics/ch1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "notes", bucket)
	assert.Equal(t, "physics/ch1.pdf", key)

	bucket, key, err = c.ParseLocator("s3:///physics/ch2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "materials", bucket)
	assert.Equal(t, "physics/ch2.pdf", key)

	_, _, err = c.ParseLocator("https://cdn.example.com/a.pdf")
	assert.ErrorIs(t, err, ErrNotS3Locator)

	_, _, err = c.ParseLocator("s3://notes/")
	assert.Error(t, err)
}

func TestPresignGet(t *testing.T) {
	c := testClient(t)

	raw, err := c.PresignGet(context.Background(), "s3://materials/physics/ch1.pdf", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/materials/physics/ch1.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestLoadConfigRequiresCredentialsWhenEnabled(t *testing.T) {
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_ENABLED", "false")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled())
}
