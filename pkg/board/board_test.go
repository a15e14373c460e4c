package board

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/grovetools/board/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_ActivateLoadsAndListens(t *testing.T) {
	client := &fakeClient{snapshot: []models.Item{item(1, "A"), item(2, "B"), item(3, "C")}, nextID: 3}
	b := New(client, nil)
	t.Cleanup(b.Deactivate)

	require.NoError(t, b.Activate(context.Background()))
	assert.Equal(t, []string{"C", "B", "A"}, titles(b.View().Items()))
	assert.Equal(t, StateOpen, b.Synchronizer().State())

	client.stream(0).pushItem(item(4, "D"))
	client.stream(0).pushItem(item(5, "E"))

	require.Eventually(t, func() bool { return b.View().Len() == 5 }, waitFor, tick)
	assert.Equal(t, []string{"E", "D", "C", "B", "A"}, titles(b.View().Items()))
}

func TestBoard_SubmitDoesNotDoubleInsert(t *testing.T) {
	client := &fakeClient{snapshot: []models.Item{item(1, "A")}, nextID: 1, echo: true}
	b := New(client, nil)
	t.Cleanup(b.Deactivate)
	require.NoError(t, b.Activate(context.Background()))

	form := &Form{Title: "Chair", Description: "Wooden chair", Price: "15"}
	require.NoError(t, b.Submit(context.Background(), form))

	require.Eventually(t, func() bool { return b.View().Len() == 2 }, waitFor, tick)
	assert.Equal(t, []int64{2, 1}, ids(b.View().Items()))
	assert.Equal(t, Form{}, *form)
	assert.Equal(t, 1, b.Synchronizer().Stats().Ingested)
}

func TestBoard_SubmitFailureLeavesViewUnchanged(t *testing.T) {
	client := &fakeClient{snapshot: []models.Item{item(1, "A")}, createErr: stderrors.New("server error")}
	b := New(client, nil)
	t.Cleanup(b.Deactivate)
	require.NoError(t, b.Activate(context.Background()))

	form := &Form{Title: "Chair", Description: "Wooden chair"}
	require.Error(t, b.Submit(context.Background(), form))

	assert.Equal(t, []int64{1}, ids(b.View().Items()))
	assert.Equal(t, "Chair", form.Title)
}

func TestBoard_SnapshotFailureIsNonFatal(t *testing.T) {
	client := &fakeClient{listErr: stderrors.New("unreachable")}
	b := New(client, nil)
	t.Cleanup(b.Deactivate)

	err := b.Activate(context.Background())

	require.Error(t, err)
	assert.Empty(t, b.View().Items())
	assert.Equal(t, StateOpen, b.Synchronizer().State())

	client.stream(0).pushItem(item(8, "still live"))
	require.Eventually(t, func() bool { return b.View().Len() == 1 }, waitFor, tick)
}

func TestBoard_ChannelFailureStillLoadsSnapshot(t *testing.T) {
	client := &fakeClient{snapshot: []models.Item{item(1, "A")}, subErr: stderrors.New("refused")}
	b := New(client, nil)
	t.Cleanup(b.Deactivate)

	err := b.Activate(context.Background())

	require.Error(t, err)
	assert.Equal(t, []int64{1}, ids(b.View().Items()))
	assert.Equal(t, StateClosed, b.Synchronizer().State())
}

func TestBoard_ActivateTwice(t *testing.T) {
	b := New(&fakeClient{}, nil)
	t.Cleanup(b.Deactivate)
	require.NoError(t, b.Activate(context.Background()))
	assert.Error(t, b.Activate(context.Background()))
}

func TestBoard_DeactivateIsIdempotent(t *testing.T) {
	client := &fakeClient{snapshot: []models.Item{item(1, "A")}}
	b := New(client, nil)
	require.NoError(t, b.Activate(context.Background()))

	b.Deactivate()
	b.Deactivate()

	assert.True(t, b.View().Closed())
	assert.Equal(t, StateClosed, b.Synchronizer().State())
	assert.Equal(t, int32(1), client.stream(0).closeCalls.Load())
	assert.Error(t, b.Activate(context.Background()))
	assert.Error(t, b.Reconnect(context.Background()))
}

func TestBoard_DeactivateBeforeActivate(t *testing.T) {
	b := New(&fakeClient{}, nil)
	b.Deactivate()
	assert.Error(t, b.Activate(context.Background()))
}

func TestBoard_Reconnect(t *testing.T) {
	client := &fakeClient{snapshot: []models.Item{item(1, "A")}}
	b := New(client, nil)
	t.Cleanup(b.Deactivate)
	require.NoError(t, b.Activate(context.Background()))
	first := b.Synchronizer()

	client.stream(0).drop(stderrors.New("reset"))
	<-first.Done()

	// Created while the channel was down.
	client.mu.Lock()
	client.snapshot = append(client.snapshot, item(2, "B"))
	client.mu.Unlock()

	require.NoError(t, b.Reconnect(context.Background()))
	assert.NotSame(t, first, b.Synchronizer())
	assert.Equal(t, StateOpen, b.Synchronizer().State())

	// The loader is per connection, so the missed item is picked up.
	assert.Equal(t, []int64{2, 1}, ids(b.View().Items()))

	client.stream(1).pushItem(item(3, "C"))
	require.Eventually(t, func() bool { return b.View().Len() == 3 }, waitFor, tick)
}

func TestBoard_ReconnectBeforeActivate(t *testing.T) {
	b := New(&fakeClient{}, nil)
	assert.Error(t, b.Reconnect(context.Background()))
}
