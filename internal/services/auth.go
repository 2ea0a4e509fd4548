package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"portfolio-backend-go/internal/docstore"
	"portfolio-backend-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// TokenService issues and verifies admin access tokens. Tokens carry an
// expiry; there is no refresh token.
type TokenService struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
}

func (t TokenService) HashPassword(raw string) (string, error) {
	return hashArgon2id(raw)
}

// VerifyPassword accepts argon2id hashes and legacy bcrypt hashes.
func (t TokenService) VerifyPassword(raw, hashed string) bool {
	if strings.HasPrefix(hashed, "$argon2") {
		return verifyArgon2id(raw, hashed)
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

func (t TokenService) CreateAccessToken(user models.User) (string, int64, error) {
	now := time.Now().UTC()
	exp := now.Add(t.AccessTTL)
	claims := jwt.MapClaims{
		"iss":   t.Issuer,
		"sub":   user.ID,
		"typ":   "access",
		"email": user.Email,
		"name":  user.Name,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp.Unix(), err
}

func (t TokenService) ParseToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithExpirationRequired())
	return token, claims, err
}

// UserFromClaims rebuilds the identity carried by an access token.
func UserFromClaims(claims jwt.MapClaims) (models.User, bool) {
	if typ, _ := claims["typ"].(string); typ != "access" {
		return models.User{}, false
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.User{}, false
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return models.User{ID: sub, Email: email, Name: name}, true
}

const invalidCredentials = "Invalid email or password. Please try again."

// Accounts is the identity provider: admin accounts stored as documents in
// the accounts collection, keyed by normalized email.
type Accounts struct {
	Docs   docstore.Store
	Tokens TokenService
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a Accounts) Create(ctx context.Context, name, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, ErrBadRequest("email and password are required")
	}
	if len(password) < 8 {
		return models.User{}, ErrBadRequest("password must be at least 8 characters")
	}
	if _, err := a.find(ctx, email); err == nil {
		return models.User{}, ErrBadRequest("an account with this email already exists")
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, err
	}
	hashed, err := a.Tokens.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: email}
	err = a.Docs.Set(ctx, docstore.Join(AccountsPath, user.ID), map[string]any{
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": hashed,
		"created_at":    time.Now().UTC(),
	})
	if err != nil {
		return models.User{}, WrapError(err, "create account")
	}
	return user, nil
}

// SignIn verifies credentials and returns the session for the account.
func (a Accounts) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	doc, err := a.find(ctx, normalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Session{}, ErrUnauthorized(invalidCredentials)
	}
	if err != nil {
		return models.Session{}, err
	}
	hashed, _ := doc.Data["password_hash"].(string)
	if !a.Tokens.VerifyPassword(password, hashed) {
		return models.Session{}, ErrUnauthorized(invalidCredentials)
	}
	name, _ := doc.Data["name"].(string)
	stored, _ := doc.Data["email"].(string)
	user := models.User{ID: doc.ID, Name: name, Email: stored}
	token, _, err := a.Tokens.CreateAccessToken(user)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{User: user, Token: token}, nil
}

func (a Accounts) find(ctx context.Context, email string) (docstore.Document, error) {
	docs, err := a.Docs.List(ctx, AccountsPath)
	if err != nil {
		return docstore.Document{}, err
	}
	for _, doc := range docs {
		if stored, _ := doc.Data["email"].(string); stored == email {
			return doc, nil
		}
	}
	return docstore.Document{}, docstore.ErrNotFound
}

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  int
	keyLength   int
}

func hashArgon2id(raw string) (string, error) {
	params := argon2Params{
		memory:      65536,
		iterations:  3,
		parallelism: 1,
		saltLength:  16,
		keyLength:   32,
	}
	salt := make([]byte, params.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(raw), salt, params.iterations, params.memory, params.parallelism, uint32(params.keyLength))
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Key := base64.RawStdEncoding.EncodeToString(key)
	return "$argon2id$v=19$m=" + strconv.FormatUint(uint64(params.memory), 10) +
		",t=" + strconv.FormatUint(uint64(params.iterations), 10) +
		",p=" + strconv.FormatUint(uint64(params.parallelism), 10) +
		"$" + b64Salt + "$" + b64Key, nil
}

func verifyArgon2id(raw, encoded string) bool {
	params, salt, hash, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(raw), salt, params.iterations, params.memory, params.parallelism, uint32(params.keyLength))
	return subtleCompare(hash, key)
}

func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argon2Params{}, nil, nil, errors.New("invalid hash format")
	}
	var params argon2Params
	if !strings.HasPrefix(parts[1], "argon2") {
		return argon2Params{}, nil, nil, errors.New("invalid hash type")
	}
	paramValues := strings.Split(parts[3], ",")
	for _, kv := range paramValues {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "m":
			value, _ := strconv.ParseUint(pair[1], 10, 32)
			params.memory = uint32(value)
		case "t":
			value, _ := strconv.ParseUint(pair[1], 10, 32)
			params.iterations = uint32(value)
		case "p":
			value, _ := strconv.ParseUint(pair[1], 10, 8)
			params.parallelism = uint8(value)
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, nil, nil, err
	}
	params.saltLength = len(salt)
	params.keyLength = len(hash)
	return params, salt, hash, nil
}

func subtleCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
