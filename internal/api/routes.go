package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stocklot/internal/api/handlers"
	"stocklot/internal/api/middleware"
	"stocklot/internal/service"
	"stocklot/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	OrderService        service.OrderServiceInterface
	BuyRequestService   service.BuyRequestServiceInterface
	NotificationService service.NotificationServiceInterface
	FeeConfigRepo       service.FeeConfigRepositoryInterface
	Hub                 *websocket.Hub
	PaymentProvider     string
	Logger              *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/ (Identity middleware)
//
//	├── /buy-requests/
//	│   ├── POST / - публикация заявки
//	│   ├── GET / - лента открытых заявок
//	│   ├── GET /{id} - заявка по ID
//	│   ├── POST /{id}/offers - оффер продавца
//	│   ├── GET /{id}/offers - офферы заявки (владелец)
//	│   ├── POST /{id}/offers/{offerID}/accept - принять оффер
//	│   └── POST /{id}/offers/{offerID}/decline - отклонить оффер
//	├── /orders/
//	│   ├── GET /{id} - заказ покупателя
//	│   ├── POST /{id}/refresh-lock - обновить price lock
//	│   ├── POST /{id}/cancel - отменить до оплаты
//	│   └── POST /{id}/confirm-delivery - подтвердить доставку
//	├── /notifications/
//	│   ├── GET / - журнал пользователя
//	│   └── DELETE / - очистка журнала
//	└── /fees/
//	    └── GET /config - активные ставки комиссий
//
// /admin/v1/ (AdminAuth middleware)
//
//	└── POST /buy-requests/{id}/moderate - решение модератора
//
// Вне API версии:
//
//	├── POST /webhooks/payments - доставки платежного провайдера
//	├── GET /ws/stream - WebSocket real-time обновлений (Identity middleware)
//	├── GET /health - liveness check
//	└── GET /metrics - Prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Identity / AdminAuth (по группам маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	var logger *zap.Logger
	if deps != nil {
		logger = deps.Logger
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	var buyRequestHandler *handlers.BuyRequestHandler
	if deps != nil && deps.BuyRequestService != nil {
		buyRequestHandler = handlers.NewBuyRequestHandler(deps.BuyRequestService)
	}

	var orderHandler *handlers.OrderHandler
	if deps != nil && deps.OrderService != nil {
		orderHandler = handlers.NewOrderHandler(deps.OrderService)
	}

	var notificationHandler *handlers.NotificationHandler
	if deps != nil && deps.NotificationService != nil {
		notificationHandler = handlers.NewNotificationHandler(deps.NotificationService)
	}

	var feeHandler *handlers.FeeHandler
	if deps != nil && deps.FeeConfigRepo != nil {
		feeHandler = handlers.NewFeeHandler(deps.FeeConfigRepo)
	}

	// API v1, все маршруты требуют идентификации пользователя
	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(middleware.Identity)

	if buyRequestHandler != nil {
		apiV1.HandleFunc("/buy-requests", buyRequestHandler.CreateBuyRequest).Methods("POST")
		apiV1.HandleFunc("/buy-requests", buyRequestHandler.ListOpenRequests).Methods("GET")
		apiV1.HandleFunc("/buy-requests/{id}", buyRequestHandler.GetBuyRequest).Methods("GET")
		apiV1.HandleFunc("/buy-requests/{id}/offers", buyRequestHandler.CreateOffer).Methods("POST")
		apiV1.HandleFunc("/buy-requests/{id}/offers", buyRequestHandler.ListOffers).Methods("GET")
		apiV1.HandleFunc("/buy-requests/{id}/offers/{offerID}/decline", buyRequestHandler.DeclineOffer).Methods("POST")
	}

	if orderHandler != nil {
		apiV1.HandleFunc("/buy-requests/{id}/offers/{offerID}/accept", orderHandler.AcceptOffer).Methods("POST")
		apiV1.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
		apiV1.HandleFunc("/orders/{id}/refresh-lock", orderHandler.RefreshPriceLock).Methods("POST")
		apiV1.HandleFunc("/orders/{id}/cancel", orderHandler.CancelOrder).Methods("POST")
		apiV1.HandleFunc("/orders/{id}/confirm-delivery", orderHandler.ConfirmDelivery).Methods("POST")
	}

	if notificationHandler != nil {
		apiV1.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
		apiV1.HandleFunc("/notifications", notificationHandler.ClearNotifications).Methods("DELETE")
	}

	if feeHandler != nil {
		apiV1.HandleFunc("/fees/config", feeHandler.GetActiveConfig).Methods("GET")
	}

	// Админские маршруты под Basic Auth
	admin := router.PathPrefix("/admin/v1").Subrouter()
	admin.Use(middleware.AdminAuth)
	if buyRequestHandler != nil {
		admin.HandleFunc("/buy-requests/{id}/moderate", buyRequestHandler.ModerateRequest).Methods("POST")
	}

	// Платежные webhook'и вне /api/v1: аутентификация подписью тела
	if deps != nil && deps.OrderService != nil {
		webhookHandler := handlers.NewWebhookHandler(deps.OrderService, deps.PaymentProvider)
		router.HandleFunc("/webhooks/payments", webhookHandler.HandlePayment).Methods("POST")
	}

	// WebSocket real-time обновлений. Endpoint требует идентификации:
	// hub доставляет приватные события только соединениям их адресата.
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		ws := router.PathPrefix("/ws").Subrouter()
		ws.Use(middleware.Identity)
		ws.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, middleware.UserID(r), w, r)
		}).Methods("GET")
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
