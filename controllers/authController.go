package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rtrs-be/apperrors"
	"rtrs-be/models"
	"rtrs-be/stores"
	authUtils "rtrs-be/utils"
)

type AuthController struct {
	Users stores.UserStore
}

// RegisterUser handles citizen and officer registration. Officers must name
// the category and zone they are responsible for.
func (a *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required,max=50"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		Role        string `json:"role" binding:"required"`
		Category    string `json:"category,omitempty"`
		Zone        string `json:"zone,omitempty"`
		Designation string `json:"designation,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.UserRole(input.Role)
	verr := &apperrors.ValidationError{}
	if !role.Valid() {
		verr.Add("role", "role must be issuer or officer")
	}
	if role == models.Officer {
		if !models.IssueCategory(input.Category).Valid() {
			verr.Add("category", "officers must have a valid category of responsibility")
		}
		if !contains(models.Zones, input.Zone) {
			verr.Add("zone", "officers must have a valid zone of responsibility")
		}
		if !contains(models.Designations, input.Designation) {
			verr.Add("designation", "officers must have a valid designation")
		}
	}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if role == models.Officer {
		user.Category = models.IssueCategory(input.Category)
		user.Zone = input.Zone
		user.Designation = input.Designation
	}

	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := a.Users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
			return
		}
		log.Println("Error inserting user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	})
}

// LoginUser handles user login
func (a *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := a.Users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := authUtils.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		log.Println("Error generating token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	// For production, don't set domain to allow cross-origin cookies
	if environment == "production" {
		domain = ""
	}

	cookie := &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		MaxAge:   3600,
		Path:     "/",
		Domain:   domain,
		Secure:   environment == "production",
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
	http.SetCookie(c.Writer, cookie)

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"token": token,
	})
}

// GetMe retrieves the authenticated user's information
func (a *AuthController) GetMe(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := a.Users.GetUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"category":    user.Category,
		"zone":        user.Zone,
		"designation": user.Designation,
		"createdAt":   user.CreatedAt,
	})
}

// LogoutUser handles user logout by clearing the auth_token cookie
func (a *AuthController) LogoutUser(c *gin.Context) {
	environment := os.Getenv("GO_ENV")
	domain := os.Getenv("DOMAIN")

	c.SetCookie("auth_token", "", -1, "/", domain, environment == "production", true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

func requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}

func currentUserID(c *gin.Context) (primitive.ObjectID, error) {
	val, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, errors.New("not authenticated")
	}
	str, ok := val.(string)
	if !ok {
		return primitive.NilObjectID, errors.New("not authenticated")
	}
	return primitive.ObjectIDFromHex(str)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
