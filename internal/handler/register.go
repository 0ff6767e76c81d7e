package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"payapi/internal/service"
)

type registerRequest struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func RegisterHandler(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if req.UserID == "" || req.Email == "" || req.FullName == "" {
			http.Error(w, "user_id, email and full_name required", http.StatusBadRequest)
			return
		}
		if len(req.Password) < 8 {
			http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
			return
		}

		user, err := authSvc.Register(r.Context(), service.RegisterInput{
			UserID:   req.UserID,
			Email:    req.Email,
			FullName: req.FullName,
			Phone:    req.Phone,
			Password: req.Password,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserExists):
				http.Error(w, "user id or email already registered", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}
