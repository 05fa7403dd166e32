package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	mailtpl "github.com/oksasatya/doitnow-api/pkg/mailer/templates"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("a", "r", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), aexp, 5*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token must not validate as refresh token")

	expired := NewJWTManager("a", "r", -time.Minute, time.Hour)
	old, _, err := expired.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(old)
	assert.Error(t, err)
}

func TestGenOTPCode(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenOTPCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(hash, "password123"))
	assert.False(t, CompareHashAndPassword(hash, "password124"))
}

func TestCookieManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	NewCookie("localhost", false).SetPair(c, "acc", time.Now().Add(time.Hour), "ref", time.Now().Add(2*time.Hour))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessCookie, cookies[0].Name)
	assert.Equal(t, "acc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, RefreshCookie, cookies[1].Name)
}

type tzGeo struct{ tz string }

func (g tzGeo) Lookup(_ context.Context, _ string) (mailtpl.Geo, error) {
	return mailtpl.Geo{Timezone: g.tz}, nil
}

func TestLocalizeTimesIfPossible(t *testing.T) {
	data := map[string]any{
		"IP":        "1.2.3.4",
		"ExpiresAt": "2026-01-02T15:00:00Z",
	}
	LocalizeTimesIfPossible(context.Background(), tzGeo{"UTC"}, data)
	assert.Equal(t, "02 January 2026, 15:00 UTC", data["ExpiresAtText"])

	untouched := map[string]any{"ExpiresAt": "2026-01-02T15:00:00Z"}
	LocalizeTimesIfPossible(context.Background(), tzGeo{"UTC"}, untouched)
	_, ok := untouched["ExpiresAtText"]
	assert.False(t, ok)

	LocalizeTimesIfPossible(context.Background(), nil, data)
}

func TestNewLogger_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("app", "development", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("app", "production", "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("app", "production", "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("app", "production", "loud").GetLevel())
}
