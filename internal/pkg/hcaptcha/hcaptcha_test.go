package hcaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewVerifier("s3cret", srv.URL)
	require.True(t, v.Enabled())

	ok, err := v.Verify(context.Background(), "good", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(context.Background(), "bad", "")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "invalid-input-response")

	ok, err = v.Verify(context.Background(), "", "")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestVerifyDisabled(t *testing.T) {
	v := NewVerifier("", "")
	assert.False(t, v.Enabled())
	ok, err := v.Verify(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}
