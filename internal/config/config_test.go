package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, int64(10), cfg.DailyRewardAmount)
	require.Equal(t, int64(50), cfg.ReferralBonus)
	require.Equal(t, 3, cfg.ClaimRetries)
	require.Equal(t, "simplco", cfg.RequiredChannel)
	require.Nil(t, cfg.WebhookAllowedCIDRs)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DAILY_REWARD_AMOUNT", "25")
	t.Setenv("REFERRAL_BONUS", "100")
	t.Setenv("WEBHOOK_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.0.0/16")

	cfg := LoadConfig()
	require.Equal(t, int64(25), cfg.DailyRewardAmount)
	require.Equal(t, int64(100), cfg.ReferralBonus)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.WebhookAllowedCIDRs)
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("DAILY_REWARD_AMOUNT", "ten")

	cfg := LoadConfig()
	require.Equal(t, int64(10), cfg.DailyRewardAmount)
}
