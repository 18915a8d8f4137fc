package redisclient

import (
	"context"
	"testing"
	"time"

	"checkout-gateway/internal/models"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSession_Missing(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewClientWithRedis(rdb, time.Hour)

	mock.ExpectGet("checkout:session:s-1").RedisNil()

	sess, err := c.LoadSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, &models.CheckoutSession{ID: "s-1"}, sess)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSession_Stored(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewClientWithRedis(rdb, time.Hour)

	mock.ExpectGet("checkout:session:s-2").
		SetVal(`{"quote_id":5,"last_order_id":12,"last_real_order_id":"100000012","messages":[{"type":"notice","text":"hi"}]}`)

	sess, err := c.LoadSession(context.Background(), "s-2")
	require.NoError(t, err)
	assert.Equal(t, "s-2", sess.ID)
	assert.Equal(t, int64(5), sess.QuoteID)
	assert.Equal(t, int64(12), sess.LastOrderID)
	assert.Equal(t, "100000012", sess.LastRealOrderID)
	assert.Equal(t, []models.Message{{Type: models.MessageNotice, Text: "hi"}}, sess.Messages)
}

func TestLoadSession_Corrupt(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewClientWithRedis(rdb, time.Hour)

	mock.ExpectGet("checkout:session:s-3").SetVal("not-json")

	_, err := c.LoadSession(context.Background(), "s-3")
	assert.Error(t, err)
}

func TestSaveSession(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewClientWithRedis(rdb, 30*time.Minute)

	sess := &models.CheckoutSession{ID: "s-4", QuoteID: 5, LastOrderID: 12}
	mock.ExpectSet("checkout:session:s-4", `{"quote_id":5,"last_order_id":12}`, 30*time.Minute).SetVal("OK")

	require.NoError(t, c.SaveSession(context.Background(), sess))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewClientWithRedis(rdb, time.Hour)

	mock.ExpectExists("idempotency:evt-1").SetVal(0)
	mock.ExpectSet("idempotency:evt-1", "1", 24*time.Hour).SetVal("OK")
	mock.ExpectExists("idempotency:evt-1").SetVal(1)

	seen, err := c.CheckIdempotencyKey(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.SetIdempotencyKey(context.Background(), "evt-1", "1", 24*time.Hour))

	seen, err = c.CheckIdempotencyKey(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
}
