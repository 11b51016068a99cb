package minio

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	_, err := New(context.Background(), Options{Bucket: "analyses"})
	assert.Error(t, err)

	_, err = New(context.Background(), Options{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNoSuchKey(errors.New("dial tcp: refused")))
}
