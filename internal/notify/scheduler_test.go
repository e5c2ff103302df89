package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sirimanoj/finguru/internal/persistence"
	"github.com/Sirimanoj/finguru/internal/persistence/memory"
)

type fakeNotifier struct {
	online         map[string]bool
	pushes         []push
	pushErr        error
	reachableCalls int
}

type push struct {
	userID string
	kind   string
}

func (f *fakeNotifier) Reachable(userID string) bool {
	f.reachableCalls++
	return f.online[userID]
}

func (f *fakeNotifier) Push(userID string, n Notification) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, push{userID: userID, kind: n.Kind})
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedUser(t *testing.T, repo *persistence.Repository, id string) {
	t.Helper()
	_, err := repo.Users.Upsert(context.Background(), persistence.Profile{ID: id, Email: id + "@example.com"})
	require.NoError(t, err)
}

func TestRunOnceMorningSendsMoodCheckOnly(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())

	require.Len(t, notifier.pushes, 1)
	assert.Equal(t, "mood_check", notifier.pushes[0].kind)
}

func TestRunOnceEveningSendsBoth(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())

	require.Len(t, notifier.pushes, 2)
	assert.Equal(t, "mood_check", notifier.pushes[0].kind)
	assert.Equal(t, "newsletter", notifier.pushes[1].kind)
}

func TestRunOnceDedupsWithinDay(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())

	assert.Len(t, notifier.pushes, 2)
}

func TestRunOnceSkipsServedUsersEarly(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())
	require.Len(t, notifier.pushes, 2)
	calls := notifier.reachableCalls

	// Fully served users are skipped before the reachability check on
	// later ticks of the same day.
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	assert.Equal(t, calls, notifier.reachableCalls)
	assert.Len(t, notifier.pushes, 2)
}

func TestRunOnceNewDayResetsMarkers(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17)

	s.WithClock(fixedClock(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))
	s.RunOnce(context.Background())
	s.WithClock(fixedClock(time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC)))
	s.RunOnce(context.Background())

	assert.Len(t, notifier.pushes, 4)
}

func TestRunOnceSkipsUnreachableWithoutConsumingMarker(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())
	assert.Empty(t, notifier.pushes)

	// Coming online later the same day still gets today's reminder.
	notifier.online["u1"] = true
	s.RunOnce(context.Background())
	require.Len(t, notifier.pushes, 1)
	assert.Equal(t, "mood_check", notifier.pushes[0].kind)
}

func TestRunOnceHonorsNotificationsSetting(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	_, err := repo.Settings.Upsert(context.Background(), persistence.Settings{
		UserID:        "u1",
		Notifications: false,
		Currency:      "USD",
	})
	require.NoError(t, err)

	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())
	assert.Empty(t, notifier.pushes)
}

func TestRunOnceMissingSettingsDefaultsToEnabled(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())
	assert.Len(t, notifier.pushes, 1)
}

func TestPushFailureConsumesMarker(t *testing.T) {
	repo := memory.NewRepository()
	seedUser(t, repo, "u1")
	notifier := &fakeNotifier{online: map[string]bool{"u1": true}, pushErr: assert.AnError}
	s := NewScheduler(repo, notifier, nil, time.Minute, 17).
		WithClock(fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))

	s.RunOnce(context.Background())
	require.Empty(t, notifier.pushes)

	// At-most-once: the failed push is not retried the same day.
	notifier.pushErr = nil
	s.RunOnce(context.Background())
	assert.Empty(t, notifier.pushes)
}

func TestDigestNotifications(t *testing.T) {
	for i := range headlines {
		n := digestAt(i)
		assert.Equal(t, "newsletter", n.Kind)
		assert.Contains(t, n.Body, headlines[i])
	}
	assert.Equal(t, "mood_check", MoodCheck().Kind)
}
