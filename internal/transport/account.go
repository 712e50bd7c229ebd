package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

type accountHandler struct {
	accounts service.AccountService
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type firebaseUserRequest struct {
	FirebaseUID string `json:"firebaseUID"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

func publicUser(u *model.User) gin.H {
	return gin.H{
		"id":      u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"isAdmin": u.IsAdmin,
	}
}

func (h *accountHandler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide name, email, and password"))
		return
	}
	user, token, err := h.accounts.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    gin.H{"user": publicUser(user), "token": token},
	})
}

func (h *accountHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide email and password"))
		return
	}
	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    gin.H{"user": publicUser(user), "token": token},
	})
}

func (h *accountHandler) firebaseUser(c *gin.Context) {
	var req firebaseUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide firebaseUID and email"))
		return
	}
	h.ensureFirebaseUser(c, service.FirebaseUserInput{
		FirebaseUID: req.FirebaseUID,
		Name:        req.Name,
		Email:       req.Email,
		LinkByEmail: true,
	})
}

// verifiedFirebaseUser takes the subject and email from the verified credential and ignores
// any identity fields in the body.
func (h *accountHandler) verifiedFirebaseUser(c *gin.Context) {
	id := currentIdentity(c)
	var req firebaseUserRequest
	_ = c.ShouldBindJSON(&req)
	name := id.Name
	if name == "" {
		name = req.Name
	}
	h.ensureFirebaseUser(c, service.FirebaseUserInput{
		FirebaseUID: id.Subject,
		Name:        name,
		Email:       id.Email,
		LinkByEmail: id.EmailVerified,
	})
}

func (h *accountHandler) ensureFirebaseUser(c *gin.Context, in service.FirebaseUserInput) {
	user, err := h.accounts.EnsureFirebaseUser(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	body := publicUser(user)
	body["firebaseUID"] = user.FirebaseUID
	respond(c, http.StatusOK, gin.H{"message": "User authenticated", "data": gin.H{"user": body}})
}

func (h *accountHandler) profile(c *gin.Context) {
	user, err := h.accounts.Profile(c.Request.Context(), currentIdentity(c).Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": gin.H{"user": user}})
}
