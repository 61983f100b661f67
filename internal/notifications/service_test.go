package notifications_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/api"
	"ticketly-client/internal/apitest"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/notifications"
)

func TestReadFlow(t *testing.T) {
	backend := apitest.New(t)
	first := backend.AddNotification("1", "Compra", "Tu compra fue confirmada")
	backend.AddNotification("1", "Evento", "El evento cambió de hora")
	backend.AddNotification("2", "Admin", "solo admin")

	client, _ := backend.Client(t, "ana")
	svc := notifications.NewNotificationService(client, logger.Discard())
	ctx := context.Background()

	list, err := svc.GetMyNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	read, err := svc.MarkAsRead(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
	assert.NotEmpty(t, read.ReadAt)

	count, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkAllAsRead(ctx))
	count, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.DeleteNotification(ctx, first.ID))
	err = svc.DeleteNotification(ctx, first.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
	assert.Equal(t, "Notificación no encontrada", api.Reason(err, ""))
}

func TestAdminSendAndList(t *testing.T) {
	backend := apitest.New(t)
	client, _ := backend.Client(t, "admin")
	svc := notifications.NewNotificationService(client, logger.Discard())
	ctx := context.Background()

	n, err := svc.CreateNotification(ctx, models.CreateNotificationRequest{
		UserID: "1", Title: "Hola", Message: "Bienvenida", Kind: models.NotificationSuccess,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("1"), n.UserID)
	assert.Equal(t, models.NotificationSuccess, n.Kind)

	require.NoError(t, svc.SendBroadcast(ctx, models.CreateNotificationRequest{Title: "Aviso", Message: "Mantenimiento"}))

	all, err := svc.GetAllNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNonAdminCannotBroadcast(t *testing.T) {
	backend := apitest.New(t)
	client, _ := backend.Client(t, "ana")
	svc := notifications.NewNotificationService(client, logger.Discard())

	err := svc.SendBroadcast(context.Background(), models.CreateNotificationRequest{Title: "x"})
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
}
