package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProperty(t *testing.T) {
	for token, want := range map[string]Property{
		"subject":     PropertySubject,
		"START":       PropertyStart,
		" end ":       PropertyEnd,
		"Description": PropertyDescription,
		"location":    PropertyLocation,
		"STATUS":      PropertyStatus,
	} {
		got, err := ParseProperty(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}

	_, err := ParseProperty("priority")
	require.ErrorIs(t, err, ErrUnknownProperty)
}

func TestPropertyIsTiming(t *testing.T) {
	assert.True(t, PropertyStart.IsTiming())
	assert.True(t, PropertyEnd.IsTiming())
	assert.False(t, PropertySubject.IsTiming())
	assert.False(t, PropertyStatus.IsTiming())
}

func TestParseCalendarProperty(t *testing.T) {
	got, err := ParseCalendarProperty("name")
	require.NoError(t, err)
	assert.Equal(t, CalendarPropertyName, got)

	got, err = ParseCalendarProperty("TIMEZONE")
	require.NoError(t, err)
	assert.Equal(t, CalendarPropertyTimezone, got)

	_, err = ParseCalendarProperty("color")
	require.ErrorIs(t, err, ErrUnknownProperty)
}

func TestParseLocation(t *testing.T) {
	got, err := ParseLocation("physical")
	require.NoError(t, err)
	assert.Equal(t, LocationPhysical, got)

	got, err = ParseLocation("ONLINE")
	require.NoError(t, err)
	assert.Equal(t, LocationOnline, got)

	_, err = ParseLocation("hybrid")
	require.ErrorIs(t, err, ErrInvalidEnumValue)
	_, err = ParseLocation("")
	require.ErrorIs(t, err, ErrInvalidEnumValue)
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("Public")
	require.NoError(t, err)
	assert.Equal(t, StatusPublic, got)

	got, err = ParseStatus("PRIVATE")
	require.NoError(t, err)
	assert.Equal(t, StatusPrivate, got)

	_, err = ParseStatus("secret")
	require.ErrorIs(t, err, ErrInvalidEnumValue)
}
