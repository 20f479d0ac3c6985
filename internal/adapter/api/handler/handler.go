package handler

var (
	chatHandler         *ChatHandler
	notificationHandler *NotificationHandler
	webSocketHandler    *WebSocketHandler
	healthHandler       *HealthHandler
)

func Setup(
	chat *ChatHandler,
	notification *NotificationHandler,
	webSocket *WebSocketHandler,
	health *HealthHandler,
) {
	chatHandler = chat
	notificationHandler = notification
	webSocketHandler = webSocket
	healthHandler = health
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
