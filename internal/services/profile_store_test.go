package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"papertrade/internal/models"
	"papertrade/internal/testutil"
)

// setupStore creates a ProfileStore over an isolated database with the given
// starting fiat balance.
func setupStore(t *testing.T, db *gorm.DB, fiat string) *ProfileStore {
	t.Helper()

	store := NewProfileStore(db)
	initial := models.Profile{
		FiatBalance:  decimal.RequireFromString(fiat),
		AssetBalance: decimal.Zero,
	}
	if err := store.Load(context.Background(), initial); err != nil {
		t.Fatalf("failed to load profile store: %v", err)
	}
	return store
}

func TestProfileStoreLoad(t *testing.T) {
	t.Run("creates_initial_profile", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		store := setupStore(t, db, "1000")
		testutil.AssertDecimal(t, "fiat balance", store.Current().FiatBalance, "1000")

		var count int64
		db.Model(&models.Profile{}).Count(&count)
		if count != 1 {
			t.Errorf("expected exactly one profile row, got %d", count)
		}
	})

	t.Run("reads_existing_profile", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestProfile(t, db, "250")

		store := NewProfileStore(db)
		if err := store.Load(context.Background(), models.Profile{}); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		testutil.AssertDecimal(t, "fiat balance", store.Current().FiatBalance, "250")
	})
}

func TestProfileStoreUpdate(t *testing.T) {
	t.Run("applies_transform_and_persists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := setupStore(t, db, "1000")

		updated, err := store.Update(context.Background(), func(p models.Profile) (models.Profile, error) {
			p.FiatBalance = p.FiatBalance.Sub(decimal.NewFromInt(400))
			return p, nil
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "fiat balance", updated.FiatBalance, "600")

		var durable models.Profile
		db.First(&durable)
		testutil.AssertDecimal(t, "durable fiat balance", durable.FiatBalance, "600")
	})

	t.Run("transform_error_publishes_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := setupStore(t, db, "1000")

		wantErr := context.DeadlineExceeded
		_, err := store.Update(context.Background(), func(p models.Profile) (models.Profile, error) {
			p.FiatBalance = decimal.Zero
			return p, wantErr
		})
		if err != wantErr {
			t.Fatalf("expected transform error to be returned, got %v", err)
		}
		testutil.AssertDecimal(t, "fiat balance", store.Current().FiatBalance, "1000")
	})

	t.Run("no_lost_updates_under_concurrency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := setupStore(t, db, "0")

		const workers = 50
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := store.Update(context.Background(), func(p models.Profile) (models.Profile, error) {
					p.FiatBalance = p.FiatBalance.Add(decimal.NewFromInt(1))
					return p, nil
				})
				if err != nil {
					t.Errorf("concurrent update failed: %v", err)
				}
			}()
		}
		wg.Wait()

		testutil.AssertDecimal(t, "fiat balance", store.Current().FiatBalance, "50")

		var durable models.Profile
		db.First(&durable)
		testutil.AssertDecimal(t, "durable fiat balance", durable.FiatBalance, "50")
	})

	t.Run("persistence_failure_keeps_published_state", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		store := setupStore(t, db, "1000")

		// Closing the connection makes the durable write fail while the
		// in-memory publish still goes through.
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("failed to get underlying DB: %v", err)
		}
		_ = sqlDB.Close()

		_, err = store.Update(context.Background(), func(p models.Profile) (models.Profile, error) {
			p.FiatBalance = decimal.NewFromInt(777)
			return p, nil
		})
		testutil.AssertAppError(t, err, "PERSISTENCE")
		testutil.AssertDecimal(t, "published fiat balance", store.Current().FiatBalance, "777")
	})
}

func TestProfileStoreObserve(t *testing.T) {
	t.Run("emits_current_value_immediately", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := setupStore(t, db, "1000")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := store.Observe(ctx)
		select {
		case p := <-ch:
			testutil.AssertDecimal(t, "observed fiat balance", p.FiatBalance, "1000")
		case <-time.After(time.Second):
			t.Fatal("expected immediate emission of the current profile")
		}
	})

	t.Run("emits_subsequent_updates_in_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := setupStore(t, db, "0")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := store.Observe(ctx)
		<-ch // initial value

		for i := 1; i <= 3; i++ {
			_, err := store.Update(context.Background(), func(p models.Profile) (models.Profile, error) {
				p.FiatBalance = p.FiatBalance.Add(decimal.NewFromInt(10))
				return p, nil
			})
			testutil.AssertNoError(t, err)
		}

		want := []string{"10", "20", "30"}
		for _, expected := range want {
			select {
			case p := <-ch:
				testutil.AssertDecimal(t, "observed fiat balance", p.FiatBalance, expected)
			case <-time.After(time.Second):
				t.Fatalf("timed out waiting for value %s", expected)
			}
		}
	})

	t.Run("cancellation_closes_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		store := setupStore(t, db, "0")

		ctx, cancel := context.WithCancel(context.Background())
		ch := store.Observe(ctx)
		<-ch
		cancel()

		deadline := time.After(time.Second)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("expected channel to close after cancellation")
			}
		}
	})
}

func TestProfileStoreReload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	store := setupStore(t, db, "1000")

	// Simulate an out-of-process change to the backing row.
	var row models.Profile
	db.First(&row)
	db.Model(&row).Update("fiat_balance", decimal.NewFromInt(42))

	testutil.AssertNoError(t, store.Reload(context.Background()))
	testutil.AssertDecimal(t, "fiat balance", store.Current().FiatBalance, "42")
}
