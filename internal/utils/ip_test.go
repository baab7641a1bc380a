package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAllowedIP(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", "2a02:5180::/32", "not-a-cidr"}

	require.True(t, IsAllowedIP("10.1.2.3", cidrs))
	require.True(t, IsAllowedIP("2a02:5180::1", cidrs))
	require.False(t, IsAllowedIP("192.168.1.1", cidrs))
	require.False(t, IsAllowedIP("garbage", cidrs))
	require.False(t, IsAllowedIP("10.1.2.3", nil))
}
