package httpapi

import (
	"errors"
	"regexp"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"kedaipos/backend/internal/domain"
)

var (
	errInvalidPIN      = errors.New("invalid pin")
	errInvalidTerminal = errors.New("terminal_id must be 1-64 letters, digits, '-' or '_'")
)

var terminalPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// AuthManager unlocks terminals with a shared cashier or manager PIN and
// issues bearer tokens bound to the terminal id.
type AuthManager struct {
	secret     []byte
	tokenTTL   time.Duration
	cashierPIN string
	managerPIN string
	now        func() time.Time
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, cashierPIN string, managerPIN string) (*AuthManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("auth secret must be at least 32 characters")
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	cashierHash, err := hashPIN(strings.TrimSpace(cashierPIN))
	if err != nil {
		return nil, err
	}
	managerHash, err := hashPIN(strings.TrimSpace(managerPIN))
	if err != nil {
		return nil, err
	}

	return &AuthManager{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		cashierPIN: cashierHash,
		managerPIN: managerHash,
		now:        time.Now,
	}, nil
}

// Unlock checks the manager PIN first so a manager never gets a cashier
// token when both PINs match.
func (a *AuthManager) Unlock(req domain.UnlockRequest) (domain.UnlockResponse, error) {
	terminal := strings.TrimSpace(req.TerminalID)
	if !terminalPattern.MatchString(terminal) {
		return domain.UnlockResponse{}, errInvalidTerminal
	}

	var role string
	switch {
	case verifyPIN(a.managerPIN, req.PIN):
		role = domain.RoleManager
	case verifyPIN(a.cashierPIN, req.PIN):
		role = domain.RoleCashier
	default:
		return domain.UnlockResponse{}, errInvalidPIN
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(terminal, role, expiresAt)
	if err != nil {
		return domain.UnlockResponse{}, err
	}

	return domain.UnlockResponse{
		AccessToken: token,
		Role:        role,
		TerminalID:  terminal,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer("kedaipos"))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	if claims.Role != domain.RoleCashier && claims.Role != domain.RoleManager {
		return domain.Actor{}, errors.New("invalid token role")
	}
	return domain.Actor{TerminalID: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(terminal, role string, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   terminal,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "kedaipos",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPIN(stored string, input string) bool {
	input = strings.TrimSpace(input)
	if stored == "" || input == "" || !isPINHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPIN(pin string) (string, error) {
	if pin == "" {
		return "", errors.New("pin must not be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPINHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
