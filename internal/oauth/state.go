package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

const defaultStateTTL = 10 * time.Minute

// StateSigner firma el parámetro state con HMAC para proteger el callback contra CSRF.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateSigner{key: []byte(secret), ttl: ttl, now: time.Now}
}

// MakeState devuelve nonce.expiración.firma.
func (s *StateSigner) MakeState() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(nonce) + "." + strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)
	return raw + "." + s.sign(raw), nil
}

// TTL es la vigencia de cada state emitido.
func (s *StateSigner) TTL() time.Duration { return s.ttl }

// BoundState exige que el state del callback sea el mismo que se guardó en el
// navegador al iniciar el flujo, además de tener firma y vigencia válidas.
func (s *StateSigner) BoundState(got, stored string) bool {
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(stored)) != 1 {
		return false
	}
	return s.VerifyState(got)
}

func (s *StateSigner) VerifyState(got string) bool {
	i := strings.LastIndex(got, ".")
	if i < 0 {
		return false
	}
	raw := got[:i]
	sig, err := base64.RawURLEncoding.DecodeString(got[i+1:])
	if err != nil {
		return false
	}
	expected, _ := base64.RawURLEncoding.DecodeString(s.sign(raw))
	if !hmac.Equal(expected, sig) {
		return false
	}

	_, expRaw, ok := strings.Cut(raw, ".")
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return false
	}
	return s.now().Unix() <= exp
}

func (s *StateSigner) sign(raw string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
