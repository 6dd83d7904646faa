package middleware

import "net/http"

// Google Chat / Gmail 上の拡張機能とローカル開発用フロントエンドのみ許可する。
var allowedOrigins = map[string]struct{}{
	"https://chat.google.com": {},
	"https://mail.google.com": {},
	"http://localhost:5175":   {},
	"http://localhost:3000":   {},
	"http://localhost:5173":   {},
}

// CORS はブラウザ向けのクロスオリジンヘッダを付与する。
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowedOrigins[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
