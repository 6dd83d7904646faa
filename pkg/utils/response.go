package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 任意のペイロードをJSONで送る。
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError エラー応答を送る。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]interface{}{"success": false, "error": message})
}

// RespondData 成功応答を {success, data} 形式で送る。
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	RespondJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

// RespondList 件数つきの成功応答を送る。
func RespondList(w http.ResponseWriter, status int, data interface{}, count int) {
	RespondJSON(w, status, map[string]interface{}{"success": true, "data": data, "count": count})
}
