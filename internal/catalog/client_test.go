package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBus struct {
	reply       []byte
	err         error
	lastSubject string
	lastData    []byte
}

func (m *mockBus) RequestWithContext(_ context.Context, subj string, data []byte) (*nats.Msg, error) {
	m.lastSubject = subj
	m.lastData = data
	if m.err != nil {
		return nil, m.err
	}
	return &nats.Msg{Subject: subj, Data: m.reply}, nil
}

func TestValidate_DecodesProducts(t *testing.T) {
	bus := &mockBus{reply: []byte(`[
		{"id":"p1","name":"Widget","price":10},
		{"id":"p2","name":"Gadget","price":"3.25"}
	]`)}
	client := NewClient(bus)

	products, err := client.Validate(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "Widget", products[0].Name)
	assert.True(t, decimal.RequireFromString("10").Equal(products[0].Price))
	assert.Equal(t, "Gadget", products[1].Name)
	assert.True(t, decimal.RequireFromString("3.25").Equal(products[1].Price))
}

func TestValidate_SendsBatchOnSubject(t *testing.T) {
	bus := &mockBus{reply: []byte(`[]`)}
	client := NewClient(bus)

	_, err := client.Validate(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	assert.Equal(t, Subject, bus.lastSubject)

	var sent []string
	require.NoError(t, json.Unmarshal(bus.lastData, &sent))
	assert.Equal(t, []string{"p1", "p2", "p3"}, sent)
}

func TestValidate_TransportError(t *testing.T) {
	bus := &mockBus{err: errors.New("no responders")}
	client := NewClient(bus)

	_, err := client.Validate(context.Background(), []string{"p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request validate_product")
}

func TestValidate_RemoteRejection(t *testing.T) {
	bus := &mockBus{reply: []byte(`{"error":{"status":400,"message":"product p9 not found"}}`)}
	client := NewClient(bus)

	_, err := client.Validate(context.Background(), []string{"p9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product p9 not found")
}

func TestValidate_MalformedReply(t *testing.T) {
	bus := &mockBus{reply: []byte(`not json`)}
	client := NewClient(bus)

	_, err := client.Validate(context.Background(), []string{"p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode validate_product reply")
}
