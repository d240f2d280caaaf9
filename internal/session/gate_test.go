package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": "alice@campus.edu",
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestFromAccessToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s, err := FromAccessToken(signedToken(t, "user-1", exp))
	require.NoError(t, err)

	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "alice@campus.edu", s.Email)
	assert.WithinDuration(t, exp, s.ExpiresAt, time.Second)
	assert.False(t, s.Expired())
}

func TestFromAccessTokenRejectsGarbage(t *testing.T) {
	_, err := FromAccessToken("not-a-jwt")
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	s, err := FromAccessToken(signedToken(t, "user-1", time.Now().Add(-time.Minute)))
	require.NoError(t, err)
	assert.True(t, s.Expired())
}

func TestGateNotifiesListenersOnEveryChange(t *testing.T) {
	g := NewGate()

	var events []*Session
	g.OnChange(func(s *Session) { events = append(events, s) })

	assert.False(t, g.SignedIn())

	s := &Session{UserID: "user-1"}
	g.Set(s)
	assert.True(t, g.SignedIn())
	assert.Equal(t, s, g.Current())

	g.Clear()
	assert.False(t, g.SignedIn())

	require.Len(t, events, 2)
	assert.Equal(t, s, events[0])
	assert.Nil(t, events[1])
}
