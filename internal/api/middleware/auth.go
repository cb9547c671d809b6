package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"stocklot/pkg/crypto"
)

type contextKey string

// userIDKey - ключ context'а с ID аутентифицированного пользователя
const userIDKey contextKey = "user_id"

// UserID возвращает ID пользователя из context'а запроса
func UserID(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// Identity - middleware аутентификации запросов
//
// Пользователь идентифицируется заголовком X-User-ID, который
// проставляет API gateway после проверки сессии. Запросы без
// заголовка получают 401.
//
// TODO: валидация подписанного gateway токена вместо голого заголовка
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"missing X-User-ID header"}`))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminUsername и adminPasswordHash для защиты админских endpoints
// (модерация заявок). Хеш пароля - bcrypt, генерируется заранее.
var (
	adminUsername     = os.Getenv("ADMIN_USERNAME")
	adminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
)

// AdminAuth - middleware для защиты админских endpoints
//
// HTTP Basic Authentication: имя сравнивается constant-time, пароль
// проверяется против bcrypt хеша. Если ADMIN_USERNAME или
// ADMIN_PASSWORD_HASH не установлены, доступ разрешен только в
// development окружении.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if adminUsername == "" || adminPasswordHash == "" {
			if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Admin endpoints disabled. Set ADMIN_USERNAME and ADMIN_PASSWORD_HASH.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Admin endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Constant-time сравнение имени, bcrypt сам constant-time
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(adminUsername)) == 1
		passMatch := crypto.VerifyPassword(pass, adminPasswordHash) == nil

		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Admin endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
