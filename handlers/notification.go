package handlers

import (
	"net/http"
	"strconv"

	"claims_app_go/db"
	"claims_app_go/services"

	"github.com/labstack/echo/v4"
)

// ListCaseNotificationsHandler returns the unread notifications of a case
func ListCaseNotificationsHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	service := services.NewNotificationService(db.DB.WithContext(ctxOf(c)))
	notifications, err := service.GetUnreadNotifications(c.Param("id"), limit)
	if err != nil {
		return respondError(err)
	}
	count, err := service.GetNotificationCount(c.Param("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unread":        count,
	})
}

func MarkNotificationReadHandler(c echo.Context) error {
	service := services.NewNotificationService(db.DB.WithContext(ctxOf(c)))
	if err := service.MarkAsRead(c.Param("notificationId"), c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func MarkAllNotificationsReadHandler(c echo.Context) error {
	service := services.NewNotificationService(db.DB.WithContext(ctxOf(c)))
	if err := service.MarkAllAsRead(c.Param("id")); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
