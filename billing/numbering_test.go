package billing

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"invoicepilot-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSettingsStore is an in-memory SettingsStore. ReserveNumber is atomic
// under the mutex, matching the storage-layer atomicity contract.
type memSettingsStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Settings
}

func newMemSettingsStore() *memSettingsStore {
	return &memSettingsStore{rows: map[uuid.UUID]*models.Settings{}}
}

func (s *memSettingsStore) GetSettings(userID uuid.UUID) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (s *memSettingsStore) CreateSettings(settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[settings.UserID]; ok {
		return assert.AnError
	}
	copied := *settings
	s.rows[settings.UserID] = &copied
	return nil
}

func (s *memSettingsStore) ReserveNumber(userID uuid.UUID) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return "", 0, assert.AnError
	}
	seq := row.NextInvoiceNumber
	row.NextInvoiceNumber++
	return row.InvoicePrefix, seq, nil
}

// conflictStore fails ReserveNumber with ErrAllocationConflict a fixed
// number of times before delegating, simulating an optimistic-concurrency
// store losing races.
type conflictStore struct {
	*memSettingsStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictStore) ReserveNumber(userID uuid.UUID) (string, int64, error) {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return "", 0, ErrAllocationConflict
	}
	s.mu.Unlock()
	return s.memSettingsStore.ReserveNumber(userID)
}

func TestAllocateBootstrapsSettings(t *testing.T) {
	store := newMemSettingsStore()
	allocator := NewAllocator(store)
	userID := uuid.New()

	number, err := allocator.Allocate(userID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", number)

	settings, err := store.GetSettings(userID)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "INV-", settings.InvoicePrefix)
	assert.Equal(t, int64(1002), settings.NextInvoiceNumber)
}

func TestAllocateSequential(t *testing.T) {
	store := newMemSettingsStore()
	allocator := NewAllocator(store)
	userID := uuid.New()

	first, err := allocator.Allocate(userID)
	require.NoError(t, err)
	second, err := allocator.Allocate(userID)
	require.NoError(t, err)

	assert.Equal(t, "INV-1001", first)
	assert.Equal(t, "INV-1002", second)
}

func TestAllocateMonotonicCounter(t *testing.T) {
	store := newMemSettingsStore()
	allocator := NewAllocator(store)
	userID := uuid.New()

	for i := 0; i < 10; i++ {
		number, err := allocator.Allocate(userID)
		require.NoError(t, err)

		seq, err := strconv.ParseInt(strings.TrimPrefix(number, "INV-"), 10, 64)
		require.NoError(t, err)

		settings, err := store.GetSettings(userID)
		require.NoError(t, err)
		assert.Greater(t, settings.NextInvoiceNumber, seq)
	}
}

func TestAllocatePaddingGrowsPastFourDigits(t *testing.T) {
	store := newMemSettingsStore()
	userID := uuid.New()
	require.NoError(t, store.CreateSettings(&models.Settings{
		UserID:            userID,
		InvoicePrefix:     "INV-",
		NextInvoiceNumber: 9999,
	}))

	allocator := NewAllocator(store)

	number, err := allocator.Allocate(userID)
	require.NoError(t, err)
	assert.Equal(t, "INV-9999", number)

	number, err = allocator.Allocate(userID)
	require.NoError(t, err)
	assert.Equal(t, "INV-10000", number)
}

func TestAllocateCustomPrefix(t *testing.T) {
	store := newMemSettingsStore()
	userID := uuid.New()
	require.NoError(t, store.CreateSettings(&models.Settings{
		UserID:            userID,
		InvoicePrefix:     "ACME/",
		NextInvoiceNumber: 7,
	}))

	number, err := NewAllocator(store).Allocate(userID)
	require.NoError(t, err)
	assert.Equal(t, "ACME/0007", number)
}

func TestAllocateConcurrentUniqueness(t *testing.T) {
	const n = 100

	store := newMemSettingsStore()
	allocator := NewAllocator(store)
	userID := uuid.New()

	// Bootstrap once so the goroutines only race on the counter
	_, err := allocator.Allocate(userID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := allocator.Allocate(userID)
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "duplicate invoice number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}

func TestAllocateIndependentPerUser(t *testing.T) {
	store := newMemSettingsStore()
	allocator := NewAllocator(store)
	alice, bob := uuid.New(), uuid.New()

	a1, err := allocator.Allocate(alice)
	require.NoError(t, err)
	b1, err := allocator.Allocate(bob)
	require.NoError(t, err)

	// Both users start their own series at 1001
	assert.Equal(t, "INV-1001", a1)
	assert.Equal(t, "INV-1001", b1)
}

func TestAllocateRetriesOnceOnConflict(t *testing.T) {
	base := newMemSettingsStore()
	userID := uuid.New()
	require.NoError(t, base.CreateSettings(&models.Settings{
		UserID:            userID,
		InvoicePrefix:     "INV-",
		NextInvoiceNumber: 1001,
	}))

	store := &conflictStore{memSettingsStore: base, conflicts: 1}

	number, err := NewAllocator(store).Allocate(userID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", number)
}

func TestAllocateSurfacesConflictAfterRetry(t *testing.T) {
	base := newMemSettingsStore()
	userID := uuid.New()
	require.NoError(t, base.CreateSettings(&models.Settings{
		UserID:            userID,
		InvoicePrefix:     "INV-",
		NextInvoiceNumber: 1001,
	}))

	store := &conflictStore{memSettingsStore: base, conflicts: 2}

	_, err := NewAllocator(store).Allocate(userID)
	assert.ErrorIs(t, err, ErrAllocationConflict)
}

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-0001", FormatInvoiceNumber("INV-", 1))
	assert.Equal(t, "INV-1001", FormatInvoiceNumber("INV-", 1001))
	assert.Equal(t, "INV-9999", FormatInvoiceNumber("INV-", 9999))
	assert.Equal(t, "INV-10000", FormatInvoiceNumber("INV-", 10000))
	assert.Equal(t, "INV-123456", FormatInvoiceNumber("INV-", 123456))
}
