package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// Claims is the JWT payload carried by a session token.
type Claims struct {
	ProfileID uuid.UUID `json:"profileId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

// RegisterRequest is the signup payload: a new tenant plus its first
// (master) profile, created together.
type RegisterRequest struct {
	CompanyName string `json:"nomeEmpresa" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"telefone"`
	Name        string `json:"nome" binding:"required"`
	Password    string `json:"senha" binding:"required,min=8"`
}

// LoginRequest is the credential payload for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required"`
}

// Session is the result of a successful login or registration
type Session struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"perfil"`
	Tenant  *models.Tenant  `json:"empresa"`
}

// AuthService handles registration, login, and session validation.
type AuthService struct {
	db           *gorm.DB
	profileRepo  *repository.ProfileRepository
	tenantRepo   *repository.TenantRepository
	auditService *AuditService
	jwtSecret    []byte
	sessionTTL   time.Duration
	logger       *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	db *gorm.DB,
	profileRepo *repository.ProfileRepository,
	tenantRepo *repository.TenantRepository,
	auditService *AuditService,
	jwtSecret string,
	sessionHours int,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		db:           db,
		profileRepo:  profileRepo,
		tenantRepo:   tenantRepo,
		auditService: auditService,
		jwtSecret:    []byte(jwtSecret),
		sessionTTL:   time.Duration(sessionHours) * time.Hour,
		logger:       logger,
	}
}

// Register creates a tenant and its master profile in one transaction
// and returns a session for the new profile.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "E-mail já cadastrado"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tenant := &models.Tenant{
		Name:   strings.TrimSpace(req.CompanyName),
		Email:  email,
		Phone:  strings.TrimSpace(req.Phone),
		Status: models.TenantStatusActive,
	}
	profile := &models.Profile{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleMaster,
		Status:       models.ProfileStatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		profile.TenantID = tenant.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditService.Record(ctx, &tenant.ID, &profile.ID, "empresa.registrada", "empresa", tenant.ID.String(), map[string]interface{}{
		"nome": tenant.Name,
	})

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenant.ID,
		"profile_id": profile.ID,
	}).Info("Tenant registered")

	token, err := s.issueToken(profile)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Profile: profile, Tenant: tenant}, nil
}

// Login verifies credentials and the account/tenant guard invariants,
// then issues a session token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &AuthError{Message: "E-mail ou senha incorretos"}
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		return nil, &AuthError{Message: "E-mail ou senha incorretos"}
	}

	tenant, err := s.guardProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(profile)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Profile: profile, Tenant: tenant}, nil
}

// ValidateSession parses a session token, reloads the profile, and
// re-checks the guard invariants. Called on every protected request.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*models.Profile, *models.Tenant, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil, &AuthError{Message: "Sessão inválida ou expirada"}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, nil, &AuthError{Message: "Sessão inválida ou expirada"}
	}

	profile, err := s.profileRepo.GetByID(ctx, claims.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, &AuthError{Message: "Sessão inválida ou expirada"}
	}

	tenant, err := s.guardProfile(ctx, profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, tenant, nil
}

// guardProfile enforces the login invariants: profile active, tenant
// exists and not locked out.
func (s *AuthService) guardProfile(ctx context.Context, profile *models.Profile) (*models.Tenant, error) {
	if profile.Status != models.ProfileStatusActive {
		return nil, &AuthError{Message: "Conta suspensa"}
	}
	tenant, err := s.tenantRepo.GetWithPlan(ctx, profile.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || !tenant.IsActive() {
		return nil, &AuthError{Message: "Empresa suspensa"}
	}
	return tenant, nil
}

func (s *AuthService) issueToken(profile *models.Profile) (string, error) {
	now := time.Now()
	claims := Claims{
		ProfileID: profile.ID,
		TenantID:  profile.TenantID,
		Role:      profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "controlia",
			Subject:   profile.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
