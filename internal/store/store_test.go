package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	st, err := Open(ctx, "file://"+filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))
	return st
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSeed(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Seed(ctx, 4))

	var products int
	require.NoError(t, st.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&products))
	assert.Greater(t, products, 0)

	var admins int
	require.NoError(t, st.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, "ADMIN").Scan(&admins))
	assert.Equal(t, 1, admins)

	// A second seed run must not duplicate the catalog.
	require.NoError(t, st.Seed(ctx, 4))
	var again int
	require.NoError(t, st.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&again))
	assert.Equal(t, products, again)
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, MapErr(nil))

	err := MapErr(errors.New("unique constraint violation on users.email"))
	assert.ErrorIs(t, err, ErrDuplicate)

	plain := errors.New("connection lost")
	assert.Equal(t, plain, MapErr(plain))
}

func TestSubscribeReceivesNotify(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := st.Subscribe(ctx, EntityProducts)

	st.Notify(EntityProducts)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a pulse after Notify")
	}

	// Pulses for other entities are not delivered.
	st.Notify(EntityOrders)
	select {
	case <-ch:
		t.Fatal("unexpected pulse for unrelated entity")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeCoalescesPulses(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := st.Subscribe(ctx, EntityCartItems)

	// Many notifies with no reader collapse into a single pending pulse.
	for i := 0; i < 10; i++ {
		st.Notify(EntityCartItems)
	}
	<-ch
	select {
	case <-ch:
		t.Fatal("pulses were not coalesced")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := st.Subscribe(ctx, EntityUsers)
	cancel()

	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
