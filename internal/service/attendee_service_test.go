package service

import (
	"context"
	"testing"
	"time"

	"qipu/internal/models"
	"qipu/internal/notifications"
	"qipu/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendeeService(t *testing.T) {
	db := setupDB(t)
	host := createUser(t, db, "host")
	guest := createUser(t, db, "guest")
	stranger := createUser(t, db, "stranger")
	events := repository.NewEventRepository(db)
	attendees := repository.NewAttendeeRepository(db)
	pub := &recordingPublisher{}
	svc := NewAttendeeService(attendees, events, repository.NewUserRepository(db), pub)
	ctx := context.Background()

	event := &models.Event{UserID: host.ID, Title: "Launch", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}
	require.NoError(t, events.Create(ctx, event))

	_, err := svc.Create(ctx, stranger.ID, event.ID, guest.ID, "")
	assert.Equal(t, 403, models.StatusFor(err))

	_, err = svc.Create(ctx, host.ID, 999, guest.ID, "")
	assert.Equal(t, 400, models.StatusFor(err))

	a, err := svc.Create(ctx, host.ID, event.ID, guest.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, []publishedEvent{{guest.ID, notifications.EventAttendeeInvited}}, pub.events)

	_, err = svc.Create(ctx, guest.ID, event.ID, guest.ID, "")
	assert.Equal(t, 400, models.StatusFor(err), "duplicate attendance")

	// Joining yourself does not notify.
	self, err := svc.Create(ctx, stranger.ID, event.ID, stranger.ID, models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, self.Status)
	assert.Len(t, pub.events, 1)

	loaded, err := attendees.GetByID(ctx, a.ID)
	require.NoError(t, err)
	answered, err := svc.SetStatus(ctx, guest.ID, loaded, models.StatusRefused)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefused, answered.Status)
	assert.Equal(t, publishedEvent{host.ID, notifications.EventAttendeeAnswered}, pub.events[1])

	_, err = svc.SetStatus(ctx, guest.ID, loaded, "later")
	assert.Equal(t, 400, models.StatusFor(err))
}
