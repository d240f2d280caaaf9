package devserver

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Signup handles POST /auth/signup. It creates the credential and profile in
// one row and returns a signed token.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondStatus(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return respondStatus(c, fiber.StatusBadRequest, "Email, password, and name are required")
	}

	var existing ProfileRow
	err := s.db.WithContext(c.Context()).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return respondStatus(c, fiber.StatusConflict, "Account already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondStatus(c, fiber.StatusInternalServerError, "Database error")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Could not hash password")
	}

	profile := ProfileRow{
		ID:           uuid.NewString(),
		Name:         req.Name,
		AvatarURL:    "https://picsum.photos/seed/" + req.Name + "/200",
		Email:        req.Email,
		PasswordHash: string(hashed),
	}
	if err := s.db.WithContext(c.Context()).Create(&profile).Error; err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Could not create account")
	}

	token, err := s.generateToken(profile.ID, profile.Email)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Could not issue token")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token": token,
		"user":         profile,
	})
}

// Signin handles POST /auth/signin.
func (s *Server) Signin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondStatus(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var profile ProfileRow
	err := s.db.WithContext(c.Context()).Where("email = ?", req.Email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondStatus(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Database error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return respondStatus(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.generateToken(profile.ID, profile.Email)
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Could not issue token")
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"user":         profile,
	})
}

// Signout handles POST /auth/signout. Tokens are stateless here, so this is
// an acknowledgement only.
func (s *Server) Signout(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) generateToken(profileID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   profileID,
		"email": email,
		"iss":   tokenIssuer,
		"exp":   now.Add(time.Hour * 24 * 7).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
