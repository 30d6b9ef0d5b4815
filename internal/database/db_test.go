package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectDBRejectsBadDSN(t *testing.T) {
	_, err := ConnectDB(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
