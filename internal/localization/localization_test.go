package localization_test

import (
	"testing"

	"regimath/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizer_Portuguese(t *testing.T) {
	l, err := localization.New("pt-BR")
	require.NoError(t, err)

	assert.Equal(t, "pt-BR", l.Language())
	assert.Equal(t, "Ana entrou no chat.", l.Format(localization.UserJoined, "Ana"))
	assert.Equal(t, "Ana saiu da sala.", l.Format(localization.UserLeft, "Ana"))
}

func TestLocalizer_English(t *testing.T) {
	l, err := localization.New("en")
	require.NoError(t, err)

	assert.Equal(t, "Bob joined the chat.", l.Format(localization.UserJoined, "Bob"))
}

func TestLocalizer_Fallbacks(t *testing.T) {
	l, err := localization.New("de")
	require.NoError(t, err)

	assert.Equal(t, "Payments are not available right now.", l.GetString(localization.PaymentNotConfigured))
	assert.Equal(t, "missing_key", l.GetString("missing_key"))
}

func TestLocalizer_AllKeysTranslated(t *testing.T) {
	en, err := localization.New("en")
	require.NoError(t, err)
	pt, err := localization.New("pt-BR")
	require.NoError(t, err)

	for _, key := range []string{
		localization.UserJoined,
		localization.UserLeft,
		localization.PaymentInvalid,
		localization.PaymentFailed,
		localization.PaymentNotConfigured,
		localization.PayerUnknown,
	} {
		assert.NotEqual(t, key, en.GetString(key))
		assert.NotEqual(t, key, pt.GetString(key))
		assert.NotEqual(t, en.GetString(key), pt.GetString(key), key)
	}
}
