package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grindboard/internal/model"
)

func TestApplyResults_OnlyEmails(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)

	s := model.DefaultSettings()
	s.EmailsSentToday = 4
	s.WhatsappSentToday = 2
	s.LastWhatsappSent = &earlier

	got := ApplyResults(s, model.SendTotals{EmailsSent: 3}, now)

	assert.Equal(t, 7, got.EmailsSentToday)
	assert.Equal(t, 2, got.WhatsappSentToday)
	require.NotNil(t, got.LastEmailSent)
	assert.True(t, got.LastEmailSent.Equal(now))
	require.NotNil(t, got.LastWhatsappSent)
	assert.True(t, got.LastWhatsappSent.Equal(earlier), "untouched when nothing went out")
}

func TestApplyResults_NothingSent(t *testing.T) {
	s := model.DefaultSettings()

	got := ApplyResults(s, model.SendTotals{}, time.Now())

	assert.Zero(t, got.EmailsSentToday)
	assert.Zero(t, got.WhatsappSentToday)
	assert.Nil(t, got.LastEmailSent)
	assert.Nil(t, got.LastWhatsappSent)
}

func TestApplyResults_DoesNotAliasInput(t *testing.T) {
	now := time.Now()
	s := model.DefaultSettings()

	got := ApplyResults(s, model.SendTotals{EmailsSent: 1, WhatsappSent: 1}, now)

	assert.Nil(t, s.LastEmailSent)
	assert.Equal(t, 1, got.WhatsappSentToday)
	assert.NotNil(t, got.LastWhatsappSent)
}
