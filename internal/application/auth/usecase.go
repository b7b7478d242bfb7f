package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
	"github.com/jhoicas/rescuebox-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// SignupTxRunner crea usuario y tienda en una misma transacción.
type SignupTxRunner interface {
	RunSignup(ctx context.Context, fn func(users repository.UserRepository, stores repository.StoreRepository) error) error
}

// StoreResolver resuelve la tienda afiliada a un usuario con rol store.
// Devuelve (nil, nil) si el usuario no tiene tienda.
type StoreResolver interface {
	ResolveStoreID(ctx context.Context, userID int64) (*int64, error)
}

// SignupInput alta de cuenta. Store != nil crea además la tienda del usuario.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Store    *entity.Store
}

// AuthUseCase casos de uso de autenticación: registro, login y afiliación de tienda.
type AuthUseCase struct {
	userRepo  repository.UserRepository
	storeRepo repository.StoreRepository
	tx        SignupTxRunner
	jwtCfg    JWTConfig
}

var _ StoreResolver = (*AuthUseCase)(nil)

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, storeRepo repository.StoreRepository, tx SignupTxRunner, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, storeRepo: storeRepo, tx: tx, jwtCfg: jwtCfg}
}

// Register registro público. Rol store crea la tienda vacía en la misma transacción.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error) {
	role := strings.TrimSpace(in.Rol)
	if role == "" {
		role = entity.RoleUser
	}
	if role != entity.RoleUser && role != entity.RoleStore {
		return nil, fmt.Errorf("%w: rol inválido", domain.ErrInvalidInput)
	}
	in.Email = normalizeEmail(in.Email)

	signup := SignupInput{Name: strings.TrimSpace(in.Nombre), Email: in.Email, Password: in.Contrasena, Role: role}
	if role == entity.RoleStore {
		signup.Store = &entity.Store{Name: signup.Name}
	}
	user, _, err := uc.Signup(ctx, signup)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterResponse{ID: user.ID, Email: user.Email, Rol: user.Role}, nil
}

// Signup crea la cuenta con cualquier rol (también admin: usado por admin y CLI).
// Devuelve ErrEmailAlreadyExists si el email ya está registrado.
func (uc *AuthUseCase) Signup(ctx context.Context, in SignupInput) (*entity.User, *entity.Store, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, nil, fmt.Errorf("%w: email y contraseña son obligatorios", domain.ErrInvalidInput)
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if existing != nil {
		return nil, nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{Name: in.Name, Email: email, PasswordHash: string(hash), Role: in.Role}
	var store *entity.Store
	err = uc.tx.RunSignup(ctx, func(users repository.UserRepository, stores repository.StoreRepository) error {
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		if in.Store == nil {
			return nil
		}
		s := *in.Store
		s.UserID = user.ID
		if err := stores.Create(ctx, &s); err != nil {
			return err
		}
		store = &s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, store, nil
}

// Login verifica email/contraseña y emite el JWT con la tienda afiliada si aplica.
// Email desconocido y contraseña incorrecta devuelven el mismo ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Contrasena)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	var storeID *int64
	if user.Role == entity.RoleStore {
		if storeID, err = uc.ResolveStoreID(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Subject{
		UserID: user.ID, Email: user.Email, Role: user.Role, StoreID: storeID,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}

	var name *string
	if user.Name != "" {
		n := user.Name
		name = &n
	}
	return &dto.LoginResponse{
		Token: token,
		User:  dto.LoginUser{ID: user.ID, Email: user.Email, Role: user.Role, StoreID: storeID, Name: name},
	}, nil
}

// ResolveStoreID tienda del usuario o nil si no tiene.
func (uc *AuthUseCase) ResolveStoreID(ctx context.Context, userID int64) (*int64, error) {
	store, err := uc.storeRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolver tienda: %w", err)
	}
	if store == nil {
		return nil, nil
	}
	id := store.ID
	return &id, nil
}

// CheckPassword compara contra un hash bcrypt.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword hash bcrypt con el costo por defecto.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("contraseña vacía")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
